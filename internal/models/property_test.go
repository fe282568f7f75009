package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyDecode(t *testing.T) {
	body := `[
		{"id": 1, "address": "12 Oxford Road", "postcode": "OX4 1AA", "latitude": 51.7, "longitude": -1.2,
		 "monthly_income": 5000, "total_rooms": 6, "bills_included": true},
		{"id": 2, "address": "3 Cowley Place", "postcode": "OX4 2BB", "latitude": null,
		 "monthly_income": "1000.50", "total_rooms": 3}
	]`

	var props []Property
	require.NoError(t, json.Unmarshal([]byte(body), &props))
	require.Len(t, props, 2)

	ll, ok := props[0].Coordinates()
	assert.True(t, ok)
	assert.Equal(t, LatLng{Lat: 51.7, Lng: -1.2}, ll)
	assert.True(t, props[0].MonthlyIncome.Equal(decimal.NewFromInt(5000)))

	assert.False(t, props[1].HasCoordinates())
	assert.True(t, props[1].MonthlyIncome.Equal(decimal.RequireFromString("1000.50")))
}
