package models

import "github.com/shopspring/decimal"

// Property is a tracked property as returned by the backend.
// Latitude and Longitude are pointers so that a missing coordinate is
// distinguishable from the equator or the prime meridian.
type Property struct {
	Latitude       *float64        `json:"latitude"`
	Longitude      *float64        `json:"longitude"`
	MonthlyIncome  decimal.Decimal `json:"monthly_income"`
	Address        string          `json:"address"`
	Postcode       string          `json:"postcode"`
	AdvertiserName string          `json:"advertiser_name,omitempty"`
	Status         string          `json:"status,omitempty"`
	ID             int64           `json:"id"`
	TotalRooms     int             `json:"total_rooms"`
	AvailableRooms int             `json:"available_rooms"`
	BillsIncluded  bool            `json:"bills_included"`
}

// Coordinates returns the property location, if both halves are present.
func (p Property) Coordinates() (LatLng, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *p.Latitude, Lng: *p.Longitude}, true
}

// HasCoordinates reports whether the property can be placed on the map.
func (p Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}
