package criteria

import (
	"github.com/viant/homeservice/service/dao"
)

// FilterByState returns true when state satisfies the State parameter, if any.
func FilterByState(state string, parameters []*dao.Parameter) bool {
	return FilterBy(dao.StateParameter, state, parameters)
}

// FilterByDefinition returns true when id satisfies the Definition parameter, if any.
func FilterByDefinition(id string, parameters []*dao.Parameter) bool {
	return FilterBy(dao.DefinitionParameter, id, parameters)
}

// FilterBy returns true when value satisfies every parameter named name.
func FilterBy(name, value string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != name {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			if value != actual {
				return false
			}
		case []string:
			matched := false
			for _, s := range actual {
				if value == s {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}
	return true
}
