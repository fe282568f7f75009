// Package mapview owns the map viewport and the highlighted search result.
// It never draws; every change is emitted as a render command.
package mapview

import (
	"errors"
	"sync"
	"time"

	"github.com/stwalsh4118/propmap/internal/filter"
	"github.com/stwalsh4118/propmap/internal/logger"
	"github.com/stwalsh4118/propmap/internal/models"
	"github.com/stwalsh4118/propmap/internal/render"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultZoom         = 12
	DefaultSelectZoom   = 16
	DefaultFitPadding   = 50
	DefaultHighlightTTL = 5 * time.Second
)

// Selection errors
var (
	ErrNotLocatable = errors.New("result has no coordinates")
	ErrClosed       = errors.New("map coordinator closed")
)

// Config holds the coordinator settings.
type Config struct {
	Center       models.LatLng
	DefaultZoom  int
	SelectZoom   int
	FitPadding   int
	HighlightTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultZoom == 0 {
		c.DefaultZoom = DefaultZoom
	}
	if c.SelectZoom == 0 {
		c.SelectZoom = DefaultSelectZoom
	}
	if c.FitPadding == 0 {
		c.FitPadding = DefaultFitPadding
	}
	if c.HighlightTTL <= 0 {
		c.HighlightTTL = DefaultHighlightTTL
	}
	return c
}

// Coordinator serializes viewport and highlight changes and pushes the
// resulting commands to a sink.
type Coordinator struct {
	mu   sync.Mutex
	cfg  Config
	sink render.Sink
	log  *logger.Logger

	viewport  models.Viewport
	highlight *models.SearchResult
	gen       uint64 // bumped on every highlight change
	timer     *time.Timer
	closed    bool
	wg        sync.WaitGroup
}

// NewCoordinator creates a Coordinator with the viewport at the configured
// default center and zoom. No command is emitted for the initial viewport.
func NewCoordinator(cfg Config, sink render.Sink, log *logger.Logger) *Coordinator {
	cfg = cfg.withDefaults()
	return &Coordinator{
		cfg:      cfg,
		sink:     sink,
		log:      log.WithComponent("mapview"),
		viewport: models.Viewport{Center: cfg.Center, Zoom: cfg.DefaultZoom},
	}
}

// BrowseZoom returns the ambient zoom used when not focused on a selection.
func (c *Coordinator) BrowseZoom() int {
	return c.cfg.DefaultZoom
}

// Recenter sets the viewport.
func (c *Coordinator) Recenter(center models.LatLng, zoom int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recenterLocked(center, zoom)
}

func (c *Coordinator) recenterLocked(center models.LatLng, zoom int) {
	c.viewport = models.Viewport{Center: center, Zoom: zoom}
	vp := c.viewport
	c.sink.Push(render.Command{Kind: render.SetViewport, Viewport: &vp})
}

// FitToBounds asks the surface to fit every coordinate-bearing property.
// It returns false, emitting nothing, when none has coordinates.
func (c *Coordinator) FitToBounds(properties []models.Property) bool {
	bounds, ok := models.BoundsOf(filter.Positions(properties))
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.viewport.Center = models.LatLng{
		Lat: (bounds.South + bounds.North) / 2,
		Lng: (bounds.West + bounds.East) / 2,
	}
	c.sink.Push(render.Command{Kind: render.FitBounds, Bounds: &bounds, Padding: c.cfg.FitPadding})
	return true
}

// Select highlights result and zooms to it. Any previous highlight and its
// expiry timer are replaced. The highlight clears itself after the
// configured TTL unless something newer replaced it first.
func (c *Coordinator) Select(result models.SearchResult) error {
	if result.Coordinates == nil {
		return ErrNotLocatable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.stopTimerLocked()
	c.gen++
	gen := c.gen

	selected := result
	c.highlight = &selected
	c.sink.Push(render.Command{Kind: render.Highlight, Result: &selected})
	c.recenterLocked(*result.Coordinates, c.cfg.SelectZoom)

	c.wg.Add(1)
	c.timer = time.AfterFunc(c.cfg.HighlightTTL, func() {
		defer c.wg.Done()
		c.expire(gen)
	})

	c.log.Debug("Result highlighted", map[string]interface{}{
		"result_id": result.ID,
		"source":    result.Source,
	})
	return nil
}

func (c *Coordinator) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen || c.highlight == nil {
		return
	}
	c.timer = nil
	c.clearLocked()
}

// ClearHighlight removes the highlight. It reports whether one was active;
// clear_highlight is emitted only in that case.
func (c *Coordinator) ClearHighlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.highlight == nil {
		return false
	}
	c.stopTimerLocked()
	c.clearLocked()
	return true
}

func (c *Coordinator) clearLocked() {
	c.gen++
	id := c.highlight.ID
	c.highlight = nil
	c.sink.Push(render.Command{Kind: render.ClearHighlight})
	c.log.Debug("Highlight cleared", map[string]interface{}{"result_id": id})
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil && c.timer.Stop() {
		c.wg.Done()
	}
	c.timer = nil
}

// Viewport returns the current viewport.
func (c *Coordinator) Viewport() models.Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport
}

// Highlight returns a copy of the highlighted result, or nil.
func (c *Coordinator) Highlight() *models.SearchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.highlight == nil {
		return nil
	}
	h := *c.highlight
	return &h
}

// Close stops the expiry timer and waits for a running expiry to finish.
// The current highlight, if any, is left in place.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()

	c.wg.Wait()
}
