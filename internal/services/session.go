package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stwalsh4118/propmap/internal/filter"
	"github.com/stwalsh4118/propmap/internal/logger"
	"github.com/stwalsh4118/propmap/internal/mapview"
	"github.com/stwalsh4118/propmap/internal/models"
	"github.com/stwalsh4118/propmap/internal/regions"
	"github.com/stwalsh4118/propmap/internal/render"
	"github.com/stwalsh4118/propmap/internal/search"
)

// Session-level errors
var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrResultNotFound        = errors.New("search result not found")
	ErrPropertiesUnavailable = errors.New("property list unavailable")
	ErrStoreClosed           = errors.New("session store closed")
)

// PropertySource lists the tracked properties.
type PropertySource interface {
	ListProperties(ctx context.Context) ([]models.Property, error)
}

// Dependencies are the collaborators shared by every session.
type Dependencies struct {
	Properties PropertySource
	Regions    regions.Fetcher
	Geocoder   search.Geocoder // nil disables the geocoding fallback
}

// SessionConfig holds per-session settings.
type SessionConfig struct {
	Map           mapview.Config
	RegionTimeout time.Duration
	Debounce      time.Duration
	QueueSize     int
	Preload       []string
}

// SearchState is the latest search result list.
type SearchState struct {
	Query   string                `json:"query"`
	Results []models.SearchResult `json:"results"`
	Seq     uint64                `json:"seq"`
	Pending bool                  `json:"pending"`
}

// Snapshot is everything the rendering surface reads as plain data.
type Snapshot struct {
	SessionID  string               `json:"session_id"`
	Properties []models.Property    `json:"properties"`
	Criteria   filter.Criteria      `json:"criteria"`
	Regions    []regions.Status     `json:"regions"`
	Search     SearchState          `json:"search"`
	Highlight  *models.SearchResult `json:"highlight"`
	Viewport   models.Viewport      `json:"viewport"`
}

// Session is one dashboard's view of the map: its filters, region overlays,
// search results, viewport and pending render commands.
type Session struct {
	id  string
	log *logger.Logger

	properties PropertySource
	queue      *render.Queue
	cache      *regions.Cache
	index      *search.Index
	debouncer  *search.Debouncer
	mapc       *mapview.Coordinator
	center     models.LatLng

	lastSeen atomic.Int64

	mu       sync.RWMutex
	loaded   bool
	all      []models.Property
	filtered []models.Property
	criteria filter.Criteria
	results  SearchState
}

// NewSession wires the components of a session together.
func NewSession(id string, cfg SessionConfig, deps Dependencies, log *logger.Logger) *Session {
	log = log.WithSession(id)
	queue := render.NewQueue(cfg.QueueSize, log)
	cache := regions.NewCache(deps.Regions, cfg.RegionTimeout, log)

	s := &Session{
		id:         id,
		log:        log,
		properties: deps.Properties,
		queue:      queue,
		cache:      cache,
		index:      search.NewIndex(cache, deps.Geocoder, log),
		mapc:       mapview.NewCoordinator(cfg.Map, queue, log),
		center:     cfg.Map.Center,
		filtered:   []models.Property{},
		criteria:   filter.Criteria{Bills: filter.BillsAll},
		results:    SearchState{Results: []models.SearchResult{}},
	}
	s.debouncer = search.NewDebouncer(cfg.Debounce, s.runSearch, s.publish)
	s.Touch()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Touch marks the session as used now.
func (s *Session) Touch() { s.lastSeen.Store(time.Now().UnixNano()) }

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// RefreshProperties reloads the tracked property list and re-applies the
// current criteria. A failure leaves the previous list untouched and is
// returned as is; there is no cached fallback.
func (s *Session) RefreshProperties(ctx context.Context) ([]models.Property, error) {
	props, err := s.properties.ListProperties(ctx)
	if err != nil {
		s.log.Error("Failed to load properties", err, nil)
		return nil, fmt.Errorf("%w: %w", ErrPropertiesUnavailable, err)
	}

	s.mu.Lock()
	s.all = props
	s.loaded = true
	filtered := s.refilterLocked()
	s.mu.Unlock()

	s.log.Info("Properties loaded", map[string]interface{}{
		"total":    len(props),
		"filtered": len(filtered),
	})
	return filtered, nil
}

// EnsureProperties loads the property list if it has never been loaded.
func (s *Session) EnsureProperties(ctx context.Context) ([]models.Property, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return s.Properties(), nil
	}
	return s.RefreshProperties(ctx)
}

// SetCriteria validates and applies new filter criteria.
func (s *Session) SetCriteria(c filter.Criteria) ([]models.Property, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Bills == "" {
		c.Bills = filter.BillsAll
	}

	s.mu.Lock()
	s.criteria = c
	filtered := s.refilterLocked()
	s.mu.Unlock()

	return filtered, nil
}

// refilterLocked recomputes the filtered set and moves the viewport to its
// center at browsing zoom.
func (s *Session) refilterLocked() []models.Property {
	s.filtered = filter.Apply(s.all, s.criteria)
	s.mapc.Recenter(filter.Center(s.filtered, s.center), s.mapc.BrowseZoom())
	return append([]models.Property(nil), s.filtered...)
}

// Criteria returns the active criteria.
func (s *Session) Criteria() filter.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria
}

// Properties returns the filtered property set.
func (s *Session) Properties() []models.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Property{}, s.filtered...)
}

// RequestRegion loads a region or, when it is already loaded, toggles it.
func (s *Session) RequestRegion(ctx context.Context, key string) (regions.Outcome, error) {
	out, err := s.cache.Request(ctx, key)
	s.queue.Push(out.Commands...)
	return out, err
}

// ToggleRegion flips a loaded region's visibility.
func (s *Session) ToggleRegion(key string) (regions.Outcome, error) {
	out, err := s.cache.Toggle(key)
	s.queue.Push(out.Commands...)
	return out, err
}

// RegionStatistics returns a region's statistics, or nil before it loads.
func (s *Session) RegionStatistics(key string) (*models.RegionStatistics, error) {
	if _, ok := regions.Lookup(key); !ok {
		return nil, fmt.Errorf("%w: %s", regions.ErrUnknownRegion, key)
	}
	return s.cache.StatisticsFor(key), nil
}

// Regions returns the status of every region.
func (s *Session) Regions() []regions.Status {
	return s.cache.Snapshot()
}

// PreloadRegions shows the given regions concurrently.
func (s *Session) PreloadRegions(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	cmds, err := s.cache.Preload(ctx, keys)
	s.queue.Push(cmds...)
	return err
}

// Search runs a query immediately and records the results. Any debounced
// search still pending or running is abandoned.
func (s *Session) Search(ctx context.Context, query string) []models.SearchResult {
	seq := s.debouncer.Invalidate()
	results := s.index.Search(ctx, query, s.Properties())

	s.mu.Lock()
	if seq >= s.results.Seq {
		s.results.Query = query
		s.results.Results = results
		s.results.Seq = seq
	}
	s.mu.Unlock()

	return results
}

// Type schedules a debounced search and returns its sequence number.
func (s *Session) Type(query string) uint64 {
	return s.debouncer.Schedule(query)
}

func (s *Session) runSearch(ctx context.Context, query string) []models.SearchResult {
	return s.index.Search(ctx, query, s.Properties())
}

func (s *Session) publish(p search.Published) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Seq < s.results.Seq {
		return
	}
	s.results.Query = p.Query
	s.results.Results = p.Results
	s.results.Seq = p.Seq
}

// Results returns the latest search results.
func (s *Session) Results() SearchState {
	s.mu.RLock()
	state := s.results
	s.mu.RUnlock()

	state.Results = append([]models.SearchResult{}, state.Results...)
	state.Pending = s.debouncer.Pending()
	return state
}

// Select highlights one of the latest results. A registry result whose
// region is not visible makes it visible first.
func (s *Session) Select(ctx context.Context, resultID string) (models.SearchResult, error) {
	result, ok := s.findResult(resultID)
	if !ok {
		return models.SearchResult{}, fmt.Errorf("%w: %s", ErrResultNotFound, resultID)
	}

	if result.Source == models.SourceRegistry && result.Ref.Region != "" {
		out, err := s.cache.Show(ctx, result.Ref.Region)
		s.queue.Push(out.Commands...)
		if err != nil {
			return result, err
		}
	}

	if err := s.mapc.Select(result); err != nil {
		return result, fmt.Errorf("%w: %s", err, resultID)
	}
	return result, nil
}

func (s *Session) findResult(id string) (models.SearchResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results.Results {
		if r.ID == id {
			return r, true
		}
	}
	return models.SearchResult{}, false
}

// Recenter sets the viewport.
func (s *Session) Recenter(center models.LatLng, zoom int) {
	s.mapc.Recenter(center, zoom)
}

// FitToBounds fits the map to the filtered properties.
func (s *Session) FitToBounds() bool {
	return s.mapc.FitToBounds(s.Properties())
}

// ClearHighlight removes the highlight, reporting whether one was active.
func (s *Session) ClearHighlight() bool {
	return s.mapc.ClearHighlight()
}

// Viewport returns the current viewport.
func (s *Session) Viewport() models.Viewport {
	return s.mapc.Viewport()
}

// Highlight returns the highlighted result, or nil.
func (s *Session) Highlight() *models.SearchResult {
	return s.mapc.Highlight()
}

// DrainCommands returns and clears the pending render commands.
func (s *Session) DrainCommands() []render.Command {
	return s.queue.Drain()
}

// Snapshot returns the session's current plain-data view.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID:  s.id,
		Properties: s.Properties(),
		Criteria:   s.Criteria(),
		Regions:    s.Regions(),
		Search:     s.Results(),
		Highlight:  s.Highlight(),
		Viewport:   s.Viewport(),
	}
}

// Close stops the session's timers.
func (s *Session) Close() {
	s.debouncer.Close()
	s.mapc.Close()
}
