package dao

const (
	// StateParameter filters entities by state.
	StateParameter = "State"
	// DefinitionParameter filters executions by workflow definition.
	DefinitionParameter = "Definition"
)

// Parameter is a named List criterion.
type Parameter struct {
	Name  string
	Value interface{}
}

func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
