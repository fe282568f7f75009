// Package filter narrows the tracked property list down to the set shown on
// the map. Everything here is pure: no logging, no state.
package filter

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/propmap/internal/models"
)

// BillsFilter is the tri-state bills-included criterion.
type BillsFilter string

const (
	BillsAll BillsFilter = "all"
	BillsYes BillsFilter = "yes"
	BillsNo  BillsFilter = "no"
)

// ErrInvalidCriteria is returned by Criteria.Validate.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Criteria holds the active filters. Nil bounds are unset; set bounds are inclusive.
type Criteria struct {
	MinIncome *decimal.Decimal `json:"min_income,omitempty"`
	MaxIncome *decimal.Decimal `json:"max_income,omitempty"`
	MinRooms  *int             `json:"min_rooms,omitempty" binding:"omitempty,min=0"`
	MaxRooms  *int             `json:"max_rooms,omitempty" binding:"omitempty,min=0"`
	Bills     BillsFilter      `json:"bills,omitempty" binding:"omitempty,oneof=all yes no"`
}

// Validate rejects inverted ranges and unknown bills values.
func (c Criteria) Validate() error {
	switch c.Bills {
	case "", BillsAll, BillsYes, BillsNo:
	default:
		return fmt.Errorf("%w: bills must be one of all, yes, no; got %q", ErrInvalidCriteria, c.Bills)
	}
	if c.MinIncome != nil && c.MaxIncome != nil && c.MinIncome.GreaterThan(*c.MaxIncome) {
		return fmt.Errorf("%w: min_income %s exceeds max_income %s", ErrInvalidCriteria, c.MinIncome, c.MaxIncome)
	}
	if c.MinRooms != nil && *c.MinRooms < 0 {
		return fmt.Errorf("%w: min_rooms must be non-negative", ErrInvalidCriteria)
	}
	if c.MinRooms != nil && c.MaxRooms != nil && *c.MinRooms > *c.MaxRooms {
		return fmt.Errorf("%w: min_rooms %d exceeds max_rooms %d", ErrInvalidCriteria, *c.MinRooms, *c.MaxRooms)
	}
	return nil
}

// Matches reports whether p is retained under c. The coordinate check runs
// first: a property that cannot be placed on the map is never retained.
func (c Criteria) Matches(p models.Property) bool {
	if !p.HasCoordinates() {
		return false
	}
	if c.MinIncome != nil && p.MonthlyIncome.LessThan(*c.MinIncome) {
		return false
	}
	if c.MaxIncome != nil && p.MonthlyIncome.GreaterThan(*c.MaxIncome) {
		return false
	}
	switch c.Bills {
	case BillsYes:
		if !p.BillsIncluded {
			return false
		}
	case BillsNo:
		if p.BillsIncluded {
			return false
		}
	}
	if c.MinRooms != nil && p.TotalRooms < *c.MinRooms {
		return false
	}
	if c.MaxRooms != nil && p.TotalRooms > *c.MaxRooms {
		return false
	}
	return true
}

// Apply returns the properties matching c, in input order.
func Apply(properties []models.Property, c Criteria) []models.Property {
	out := make([]models.Property, 0, len(properties))
	for _, p := range properties {
		if c.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Center returns the mean position of the properties that have coordinates,
// or fallback when none do.
func Center(properties []models.Property, fallback models.LatLng) models.LatLng {
	var sumLat, sumLng float64
	n := 0
	for _, p := range properties {
		ll, ok := p.Coordinates()
		if !ok {
			continue
		}
		sumLat += ll.Lat
		sumLng += ll.Lng
		n++
	}
	if n == 0 {
		return fallback
	}
	return models.LatLng{Lat: sumLat / float64(n), Lng: sumLng / float64(n)}
}

// Positions returns the coordinates of every locatable property.
func Positions(properties []models.Property) []models.LatLng {
	out := make([]models.LatLng, 0, len(properties))
	for _, p := range properties {
		if ll, ok := p.Coordinates(); ok {
			out = append(out, ll)
		}
	}
	return out
}
