package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/propmap/internal/logger"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", time.Second, logger.New("test"))
}

func TestListProperties(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/properties", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": 1, "address": "12 Oxford Road", "postcode": "OX4 1AA", "latitude": 51.7, "longitude": -1.2, "monthly_income": 5000, "total_rooms": 6},
			{"id": 2, "address": "No Coords Lane", "monthly_income": "950.00", "total_rooms": 3}
		]`))
	})

	props, err := client.ListProperties(context.Background())
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.True(t, props[0].HasCoordinates())
	assert.False(t, props[1].HasCoordinates())
}

func TestListProperties_EmptyBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	props, err := client.ListProperties(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, props)
	assert.Empty(t, props)
}

func TestListProperties_ServerError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database down", http.StatusInternalServerError)
	})

	_, err := client.ListProperties(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "database down")
}

func TestFetchRegion(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hmo-registry/cities/oxford", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("enable_geocoding"))
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": [{"id": "1", "case_number": "HMO/1", "address": "1 Iffley Road", "latitude": 51.74, "longitude": -1.24, "licence_status": "active"}],
			"statistics": {"total_records": 1, "geocoded_records": 1, "active_licences": 1, "expired_licences": 0}
		}`))
	})

	payload, err := client.FetchRegion(context.Background(), "oxford")
	require.NoError(t, err)
	assert.True(t, payload.Success)
	assert.Len(t, payload.Data, 1)
	assert.Equal(t, 1, payload.Statistics.TotalRecords)
}

func TestFetchRegion_Unsuccessful(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "data": []}`))
	})

	_, err := client.FetchRegion(context.Background(), "oxford")
	assert.ErrorIs(t, err, ErrUnsuccessful)
}

func TestFetchRegion_NotFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchRegion(context.Background(), "oxford")
	assert.ErrorIs(t, err, ErrStatus)
}

func TestPing(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		assert.ErrorIs(t, client.Ping(context.Background()), ErrStatus)
	})

	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", 200*time.Millisecond, logger.New("test"))
		assert.Error(t, client.Ping(context.Background()))
	})
}
