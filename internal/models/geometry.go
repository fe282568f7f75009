package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a geographic bounding box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundsOf returns the smallest box containing every point.
// The second return value is false when points is empty.
func BoundsOf(points []LatLng) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}

	b := Bounds{South: points[0].Lat, North: points[0].Lat, West: points[0].Lng, East: points[0].Lng}
	for _, p := range points[1:] {
		if p.Lat < b.South {
			b.South = p.Lat
		}
		if p.Lat > b.North {
			b.North = p.Lat
		}
		if p.Lng < b.West {
			b.West = p.Lng
		}
		if p.Lng > b.East {
			b.East = p.Lng
		}
	}
	return b, true
}

// Point represents a PostGIS Point geometry.
// GeoJSON stores coordinates as [lon, lat]; SRID 4326 (WGS84) is assumed.
type Point struct {
	Coordinates [2]float64 // [lon, lat]
	SRID        int
	Valid       bool // false when the column was NULL
}

// LatLng converts the GeoJSON ordering into a LatLng.
func (p Point) LatLng() LatLng {
	return LatLng{Lat: p.Coordinates[1], Lng: p.Coordinates[0]}
}

// Scan implements sql.Scanner for the output of ST_AsGeoJSON.
// A NULL column leaves the point invalid rather than failing.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		p.Valid = false
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan Point: expected []byte, got %T", value)
	}

	var geom struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal point geometry: %w", err)
	}
	if geom.Type != "Point" {
		return fmt.Errorf("expected Point type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	p.SRID = 4326
	p.Valid = true
	return nil
}

// Value implements driver.Valuer, returning GeoJSON for ST_GeomFromGeoJSON.
func (p Point) Value() (driver.Value, error) {
	if !p.Valid {
		return nil, nil
	}

	geoJSON, err := json.Marshal(map[string]interface{}{
		"type":        "Point",
		"coordinates": p.Coordinates,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal point to GeoJSON: %w", err)
	}
	return string(geoJSON), nil
}

// MarshalJSON renders the point as GeoJSON, or null when invalid.
func (p Point) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}{
		Type:        "Point",
		Coordinates: p.Coordinates,
	})
}
