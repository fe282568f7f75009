package models

// ResultSource identifies which source produced a search result.
type ResultSource string

const (
	SourceTracked  ResultSource = "tracked"
	SourceRegistry ResultSource = "registry"
	SourceGeocoded ResultSource = "geocoded"
)

// ResultRef points back at the record a result was built from.
// Exactly one group of fields is set, depending on the source.
type ResultRef struct {
	PropertyID int64  `json:"property_id,omitempty"`
	Region     string `json:"region,omitempty"`
	RecordID   string `json:"record_id,omitempty"`
	Postcode   string `json:"postcode,omitempty"`
}

// SearchResult is one ranked entry in the combined search list.
type SearchResult struct {
	Coordinates *LatLng      `json:"coordinates"`
	Ref         ResultRef    `json:"ref"`
	ID          string       `json:"id"`
	Source      ResultSource `json:"source"`
	Title       string       `json:"title"`
	Subtitle    string       `json:"subtitle,omitempty"`
	Color       string       `json:"color"`
	Icon        string       `json:"icon"`
}

// Viewport is the visible map area.
type Viewport struct {
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`
}
