package regions

// Region is one supported HMO registry area.
type Region struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// catalog lists every supported region. Its order is the canonical order
// used for snapshots and for registry search.
var catalog = []Region{
	{Key: "oxford", Name: "Oxford", Color: "#1f77b4"},
	{Key: "cherwell", Name: "Cherwell", Color: "#ff7f0e"},
	{Key: "south_oxfordshire", Name: "South Oxfordshire", Color: "#2ca02c"},
	{Key: "vale_of_white_horse", Name: "Vale of White Horse", Color: "#d62728"},
	{Key: "west_oxfordshire", Name: "West Oxfordshire", Color: "#9467bd"},
	{Key: "swindon", Name: "Swindon", Color: "#8c564b"},
	{Key: "reading", Name: "Reading", Color: "#e377c2"},
	{Key: "bristol", Name: "Bristol", Color: "#17becf"},
}

// Catalog returns a copy of the supported regions in canonical order.
func Catalog() []Region {
	out := make([]Region, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a region by key.
func Lookup(key string) (Region, bool) {
	for _, r := range catalog {
		if r.Key == key {
			return r, true
		}
	}
	return Region{}, false
}
