package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// LicenceStatus is the licensing state of a registry record.
type LicenceStatus string

const (
	LicenceActive  LicenceStatus = "active"
	LicenceExpired LicenceStatus = "expired"
	LicenceUnknown LicenceStatus = "unknown"
)

// UnmarshalJSON maps any unrecognised status to LicenceUnknown.
func (s *LicenceStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = LicenceUnknown
		return nil
	}
	switch LicenceStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case LicenceActive:
		*s = LicenceActive
	case LicenceExpired:
		*s = LicenceExpired
	default:
		*s = LicenceUnknown
	}
	return nil
}

// RegistryRecord is one entry of a regional HMO licensing register.
type RegistryRecord struct {
	Latitude      *float64      `json:"latitude"`
	Longitude     *float64      `json:"longitude"`
	ID            string        `json:"id"`
	CaseNumber    string        `json:"case_number"`
	Address       string        `json:"address"`
	Postcode      string        `json:"postcode"`
	LicenceStatus LicenceStatus `json:"licence_status"`
	Licensee      string        `json:"licensee,omitempty"`
	Manager       string        `json:"manager,omitempty"`
	LicenceExpiry string        `json:"licence_expiry,omitempty"`
	MaxOccupants  int           `json:"max_occupants,omitempty"`
	Units         int           `json:"units,omitempty"`
}

// Coordinates returns the record location, if it was geocoded.
func (r RegistryRecord) Coordinates() (LatLng, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *r.Latitude, Lng: *r.Longitude}, true
}

// Key returns the identifier used to reference the record, falling back to
// the case number for registers that do not publish IDs.
func (r RegistryRecord) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.CaseNumber
}

// KeyAt is Key with a fallback to the record's position in its dataset,
// for records that publish neither an ID nor a case number.
func (r RegistryRecord) KeyAt(index int) string {
	if k := r.Key(); k != "" {
		return k
	}
	return "#" + strconv.Itoa(index)
}

// RegionStatistics summarises a loaded registry dataset.
type RegionStatistics struct {
	TotalRecords    int `json:"total_records"`
	GeocodedRecords int `json:"geocoded_records"`
	ActiveLicences  int `json:"active_licences"`
	ExpiredLicences int `json:"expired_licences"`
}

// ComputeStatistics derives statistics from records. Records without
// coordinates count towards the total but not towards GeocodedRecords.
func ComputeStatistics(records []RegistryRecord) RegionStatistics {
	stats := RegionStatistics{TotalRecords: len(records)}
	for _, r := range records {
		if _, ok := r.Coordinates(); ok {
			stats.GeocodedRecords++
		}
		switch r.LicenceStatus {
		case LicenceActive:
			stats.ActiveLicences++
		case LicenceExpired:
			stats.ExpiredLicences++
		}
	}
	return stats
}

// RegionPayload is the body of GET /hmo-registry/cities/{region}.
type RegionPayload struct {
	Statistics *RegionStatistics `json:"statistics"`
	Data       []RegistryRecord  `json:"data"`
	Success    bool              `json:"success"`
}
