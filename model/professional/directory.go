// Package professional defines the static directory of service providers
// offered to operators when approving a request.
package professional

import "github.com/viant/homeservice/model/request"

// UnknownName is used when an approval names an id missing from the directory.
const UnknownName = "Unknown Professional"

// Professional describes a service provider.
type Professional struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Rating       float64 `json:"rating"`
	Reviews      int     `json:"reviews"`
	ResponseTime string  `json:"responseTime"`
	PriceRange   string  `json:"priceRange"`
}

// Summary is the short form offered with a new request.
type Summary struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

// Summary returns the short form of p.
func (p Professional) Summary() Summary {
	return Summary{ID: p.ID, Name: p.Name, Rating: p.Rating}
}

// Directory maps service category to available professionals.
type Directory struct {
	categories map[request.ServiceType][]Professional
}

// New creates a directory; the general category is the fallback for unknown categories.
func New(categories map[request.ServiceType][]Professional) *Directory {
	ret := &Directory{categories: map[request.ServiceType][]Professional{}}
	for k, v := range categories {
		ret.categories[k] = append([]Professional(nil), v...)
	}
	return ret
}

// Default returns the built-in directory.
func Default() *Directory {
	return New(map[request.ServiceType][]Professional{
		request.ServiceTypePlumbing: {
			{ID: "quickfix", Name: "QuickFix Plumbing", Rating: 4.8, Reviews: 234, ResponseTime: "Same day", PriceRange: "$"},
			{ID: "propipe", Name: "ProPipe Services", Rating: 4.6, Reviews: 189, ResponseTime: "1-2 days", PriceRange: "$"},
		},
		request.ServiceTypeElectrical: {
			{ID: "safewire", Name: "SafeWire Electric", Rating: 4.9, Reviews: 312, ResponseTime: "Same day", PriceRange: "$$$"},
			{ID: "spark", Name: "Spark Masters", Rating: 4.5, Reviews: 156, ResponseTime: "1-2 days", PriceRange: "$$"},
		},
		request.ServiceTypeHVAC: {
			{ID: "coolair", Name: "CoolAir HVAC", Rating: 4.7, Reviews: 278, ResponseTime: "Same day", PriceRange: "$$"},
			{ID: "climate", Name: "Climate Control Pro", Rating: 4.8, Reviews: 201, ResponseTime: "1-3 days", PriceRange: "$$$"},
		},
		request.ServiceTypeGeneral: {
			{ID: "handypro", Name: "HandyPro Services", Rating: 4.5, Reviews: 423, ResponseTime: "Same day", PriceRange: "$"},
			{ID: "homefixers", Name: "HomeFixers Plus", Rating: 4.7, Reviews: 287, ResponseTime: "1-2 days", PriceRange: "$$"},
		},
	})
}

// ForCategory returns a copy of the professionals serving serviceType.
func (d *Directory) ForCategory(serviceType request.ServiceType) []Professional {
	list, ok := d.categories[serviceType]
	if !ok {
		list = d.categories[request.ServiceTypeGeneral]
	}
	return append([]Professional(nil), list...)
}

// Summaries returns short forms of the professionals serving serviceType.
func (d *Directory) Summaries(serviceType request.ServiceType) []Summary {
	list := d.ForCategory(serviceType)
	ret := make([]Summary, 0, len(list))
	for _, p := range list {
		ret = append(ret, p.Summary())
	}
	return ret
}

// Lookup finds id among the professionals serving serviceType.
func (d *Directory) Lookup(serviceType request.ServiceType, id string) (Professional, bool) {
	for _, p := range d.ForCategory(serviceType) {
		if p.ID == id {
			return p, true
		}
	}
	return Professional{}, false
}

// NameOf returns the professional name or UnknownName.
func (d *Directory) NameOf(serviceType request.ServiceType, id string) string {
	if p, ok := d.Lookup(serviceType, id); ok {
		return p.Name
	}
	return UnknownName
}
