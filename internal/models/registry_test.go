package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestLicenceStatusUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  LicenceStatus
	}{
		{`"active"`, LicenceActive},
		{`"Expired"`, LicenceExpired},
		{`" ACTIVE "`, LicenceActive},
		{`"pending"`, LicenceUnknown},
		{`null`, LicenceUnknown},
		{`12`, LicenceUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var s LicenceStatus
			require.NoError(t, json.Unmarshal([]byte(tt.input), &s))
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestComputeStatistics_CountsUngeocodedInTotal(t *testing.T) {
	records := []RegistryRecord{
		{ID: "1", Latitude: floatPtr(51.7), Longitude: floatPtr(-1.2), LicenceStatus: LicenceActive},
		{ID: "2", LicenceStatus: LicenceExpired},
		{ID: "3", Latitude: floatPtr(51.8), LicenceStatus: LicenceUnknown},
	}

	stats := ComputeStatistics(records)

	assert.Equal(t, RegionStatistics{
		TotalRecords:    3,
		GeocodedRecords: 1,
		ActiveLicences:  1,
		ExpiredLicences: 1,
	}, stats)
}

func TestRegistryRecordKey(t *testing.T) {
	assert.Equal(t, "abc", RegistryRecord{ID: "abc", CaseNumber: "HMO/1"}.Key())
	assert.Equal(t, "HMO/1", RegistryRecord{CaseNumber: "HMO/1"}.Key())
}

func TestRegistryRecordKeyAt(t *testing.T) {
	assert.Equal(t, "abc", RegistryRecord{ID: "abc"}.KeyAt(4))
	assert.Equal(t, "HMO/1", RegistryRecord{CaseNumber: "HMO/1"}.KeyAt(4))
	assert.Equal(t, "#4", RegistryRecord{Address: "1 High St"}.KeyAt(4))
}

func TestRegionPayloadDecode(t *testing.T) {
	body := `{
		"success": true,
		"data": [{"id":"7","case_number":"HMO-7","address":"1 High St","postcode":"OX1 1AA","latitude":51.75,"longitude":-1.25,"licence_status":"active"}],
		"statistics": {"total_records": 1, "geocoded_records": 1, "active_licences": 1, "expired_licences": 0}
	}`

	var payload RegionPayload
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.True(t, payload.Success)
	require.Len(t, payload.Data, 1)
	assert.Equal(t, LicenceActive, payload.Data[0].LicenceStatus)
	require.NotNil(t, payload.Statistics)
	assert.Equal(t, 1, payload.Statistics.GeocodedRecords)
}
