package mapview

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/propmap/internal/logger"
	"github.com/stwalsh4118/propmap/internal/models"
	"github.com/stwalsh4118/propmap/internal/render"
	"go.uber.org/goleak"
)

var oxford = models.LatLng{Lat: 51.752, Lng: -1.2577}

func newTestCoordinator(ttl time.Duration) (*Coordinator, *render.Queue) {
	q := render.NewQueue(64, logger.New("test"))
	c := NewCoordinator(Config{Center: oxford, HighlightTTL: ttl}, q, logger.New("test"))
	return c, q
}

func kinds(cmds []render.Command) []render.Kind {
	out := make([]render.Kind, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Kind)
	}
	return out
}

func located(id string, lat, lng float64) models.SearchResult {
	return models.SearchResult{ID: id, Source: models.SourceTracked, Coordinates: &models.LatLng{Lat: lat, Lng: lng}}
}

func prop(lat, lng *float64) models.Property {
	return models.Property{MonthlyIncome: decimal.NewFromInt(1000), Latitude: lat, Longitude: lng}
}

func f(v float64) *float64 { return &v }

func TestNewCoordinator_Defaults(t *testing.T) {
	c, q := newTestCoordinator(0)
	defer c.Close()

	assert.Equal(t, models.Viewport{Center: oxford, Zoom: DefaultZoom}, c.Viewport())
	assert.Equal(t, DefaultZoom, c.BrowseZoom())
	assert.Nil(t, c.Highlight())
	assert.Equal(t, 0, q.Len())
}

func TestRecenter(t *testing.T) {
	c, q := newTestCoordinator(0)
	defer c.Close()

	target := models.LatLng{Lat: 51.5, Lng: -0.1}
	c.Recenter(target, 14)

	assert.Equal(t, models.Viewport{Center: target, Zoom: 14}, c.Viewport())
	cmds := q.Drain()
	require.Len(t, cmds, 1)
	assert.Equal(t, render.SetViewport, cmds[0].Kind)
	assert.Equal(t, &models.Viewport{Center: target, Zoom: 14}, cmds[0].Viewport)
}

func TestFitToBounds(t *testing.T) {
	c, q := newTestCoordinator(0)
	defer c.Close()

	ok := c.FitToBounds([]models.Property{
		prop(f(51.70), f(-1.30)),
		prop(nil, nil),
		prop(f(51.80), f(-1.10)),
	})
	require.True(t, ok)

	cmds := q.Drain()
	require.Len(t, cmds, 1)
	assert.Equal(t, render.FitBounds, cmds[0].Kind)
	assert.Equal(t, DefaultFitPadding, cmds[0].Padding)
	assert.Equal(t, &models.Bounds{South: 51.70, West: -1.30, North: 51.80, East: -1.10}, cmds[0].Bounds)
	assert.InDelta(t, 51.75, c.Viewport().Center.Lat, 1e-9)
	assert.InDelta(t, -1.20, c.Viewport().Center.Lng, 1e-9)
}

func TestFitToBounds_NoCoordinates(t *testing.T) {
	c, q := newTestCoordinator(0)
	defer c.Close()

	assert.False(t, c.FitToBounds(nil))
	assert.False(t, c.FitToBounds([]models.Property{prop(nil, f(-1.2))}))
	assert.Equal(t, 0, q.Len())
}

func TestSelect_HighlightsAndZooms(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, q := newTestCoordinator(time.Minute)
	defer c.Close()

	require.NoError(t, c.Select(located("tracked:1", 51.76, -1.26)))

	h := c.Highlight()
	require.NotNil(t, h)
	assert.Equal(t, "tracked:1", h.ID)
	assert.Equal(t, models.Viewport{Center: models.LatLng{Lat: 51.76, Lng: -1.26}, Zoom: DefaultSelectZoom}, c.Viewport())
	assert.Equal(t, []render.Kind{render.Highlight, render.SetViewport}, kinds(q.Drain()))
}

func TestSelect_NotLocatable(t *testing.T) {
	c, q := newTestCoordinator(0)
	defer c.Close()

	err := c.Select(models.SearchResult{ID: "registry:oxford:1"})
	assert.ErrorIs(t, err, ErrNotLocatable)
	assert.Nil(t, c.Highlight())
	assert.Equal(t, 0, q.Len())
}

func TestHighlight_AutoExpires(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, q := newTestCoordinator(20 * time.Millisecond)
	defer c.Close()

	require.NoError(t, c.Select(located("tracked:1", 51.7, -1.2)))
	q.Drain()

	require.Eventually(t, func() bool { return c.Highlight() == nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []render.Kind{render.ClearHighlight}, kinds(q.Drain()))
}

func TestHighlight_ExpiryDoesNotClearNewerSelection(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, q := newTestCoordinator(60 * time.Millisecond)
	defer c.Close()

	require.NoError(t, c.Select(located("first", 51.7, -1.2)))
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, c.Select(located("second", 51.8, -1.3)))
	q.Drain()

	// Past the first selection's expiry but before the second's
	time.Sleep(35 * time.Millisecond)
	h := c.Highlight()
	require.NotNil(t, h)
	assert.Equal(t, "second", h.ID)

	require.Eventually(t, func() bool { return c.Highlight() == nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []render.Kind{render.ClearHighlight}, kinds(q.Drain()))
}

func TestClearHighlight_Idempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, q := newTestCoordinator(time.Minute)
	defer c.Close()

	assert.False(t, c.ClearHighlight())
	assert.Equal(t, 0, q.Len())

	require.NoError(t, c.Select(located("tracked:1", 51.7, -1.2)))
	q.Drain()

	assert.True(t, c.ClearHighlight())
	assert.False(t, c.ClearHighlight())
	assert.Nil(t, c.Highlight())
	assert.Equal(t, []render.Kind{render.ClearHighlight}, kinds(q.Drain()))
}

func TestClose_StopsExpiryTimer(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, q := newTestCoordinator(20 * time.Millisecond)
	require.NoError(t, c.Select(located("tracked:1", 51.7, -1.2)))
	q.Drain()

	c.Close()
	time.Sleep(40 * time.Millisecond)

	assert.NotNil(t, c.Highlight())
	assert.Equal(t, 0, q.Len())
}

func TestSelect_AfterCloseIsRejected(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, q := newTestCoordinator(20 * time.Millisecond)
	c.Close()

	err := c.Select(located("tracked:1", 51.7, -1.2))

	assert.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, c.Highlight())
	assert.Equal(t, 0, q.Len())
}

func TestHighlight_ReturnsCopy(t *testing.T) {
	c, _ := newTestCoordinator(time.Minute)
	defer c.Close()

	require.NoError(t, c.Select(located("tracked:1", 51.7, -1.2)))
	h := c.Highlight()
	h.ID = "changed"

	assert.Equal(t, "tracked:1", c.Highlight().ID)
}
