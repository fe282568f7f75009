// Package regions lazily loads the per-region HMO registry datasets and
// tracks whether each region's overlay is shown.
//
// Every region starts unloaded. The first Request fetches it and shows the
// overlay; later Requests only toggle visibility. A dataset is never fetched
// again once loaded, and never dropped, only hidden.
package regions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stwalsh4118/propmap/internal/logger"
	"github.com/stwalsh4118/propmap/internal/models"
	"github.com/stwalsh4118/propmap/internal/render"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of a region dataset.
type State string

const (
	Unloaded      State = "unloaded"
	Loading       State = "loading"
	LoadedVisible State = "loaded_visible"
	LoadedHidden  State = "loaded_hidden"
)

// Loaded reports whether the dataset is available, shown or not.
func (s State) Loaded() bool {
	return s == LoadedVisible || s == LoadedHidden
}

// Cache errors
var (
	ErrUnknownRegion = errors.New("unknown region")
	ErrFetchFailed   = errors.New("region fetch failed")
)

// DefaultFetchTimeout bounds a single region fetch when no timeout is configured.
const DefaultFetchTimeout = 60 * time.Second

// preloadConcurrency caps concurrent fetches started by Preload.
const preloadConcurrency = 4

// Fetcher retrieves one region's registry dataset.
type Fetcher interface {
	FetchRegion(ctx context.Context, region string) (*models.RegionPayload, error)
}

// Outcome describes the effect of a cache operation.
type Outcome struct {
	Region   string           `json:"region"`
	State    State            `json:"state"`
	Fetched  bool             `json:"fetched"`
	Commands []render.Command `json:"-"`
}

// Status is a read-only view of one region for the rendering surface.
type Status struct {
	Statistics *models.RegionStatistics `json:"statistics"`
	Region
	State   State `json:"state"`
	Visible bool  `json:"visible"`
}

// Dataset is a loaded region's records. Records must not be modified.
type Dataset struct {
	Region  Region
	Records []models.RegistryRecord
}

type dataset struct {
	region   Region
	state    State
	records  []models.RegistryRecord
	stats    *models.RegionStatistics
	overlay  *render.Overlay
	inflight chan struct{} // closed when the current load finishes
	lastErr  error
}

// Cache owns the per-region datasets of one session.
type Cache struct {
	mu       sync.Mutex
	order    []string
	datasets map[string]*dataset
	fetcher  Fetcher
	timeout  time.Duration
	log      *logger.Logger

	onJoin func(key string) // test hook, called when a caller waits on an in-flight load
}

// NewCache creates a cache with every catalog region unloaded.
func NewCache(fetcher Fetcher, timeout time.Duration, log *logger.Logger) *Cache {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	c := &Cache{
		datasets: make(map[string]*dataset, len(catalog)),
		fetcher:  fetcher,
		timeout:  timeout,
		log:      log,
	}
	for _, r := range Catalog() {
		c.order = append(c.order, r.Key)
		c.datasets[r.Key] = &dataset{region: r, state: Unloaded}
	}
	return c
}

// Request loads a region on first use and toggles it afterwards.
//
// The state check and the move to Loading happen under the cache lock, so
// only the first caller fetches. Callers arriving while the fetch is in
// flight wait for it and share its outcome. The fetch itself runs detached
// from ctx cancellation, bounded by the cache timeout, so one caller going
// away does not fail the load for the others.
func (c *Cache) Request(ctx context.Context, key string) (Outcome, error) {
	c.mu.Lock()
	ds, ok := c.datasets[key]
	if !ok {
		c.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownRegion, key)
	}

	switch ds.state {
	case LoadedVisible, LoadedHidden:
		out := c.toggleLocked(ds)
		c.mu.Unlock()
		return out, nil
	case Loading:
		wait := ds.inflight
		hook := c.onJoin
		c.mu.Unlock()
		if hook != nil {
			hook(key)
		}
		return c.join(ctx, ds, wait)
	}

	ds.state = Loading
	ds.inflight = make(chan struct{})
	c.mu.Unlock()

	return c.load(ctx, ds)
}

// Show makes a region visible, loading it if needed. It never hides. The
// transition is decided under one lock so a load finishing concurrently
// cannot turn Show into a toggle.
func (c *Cache) Show(ctx context.Context, key string) (Outcome, error) {
	c.mu.Lock()
	ds, ok := c.datasets[key]
	if !ok {
		c.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownRegion, key)
	}

	switch ds.state {
	case LoadedVisible:
		c.mu.Unlock()
		return Outcome{Region: key, State: LoadedVisible}, nil
	case LoadedHidden:
		out := c.toggleLocked(ds)
		c.mu.Unlock()
		return out, nil
	case Loading:
		wait := ds.inflight
		hook := c.onJoin
		c.mu.Unlock()
		if hook != nil {
			hook(key)
		}
		return c.join(ctx, ds, wait)
	}

	ds.state = Loading
	ds.inflight = make(chan struct{})
	c.mu.Unlock()

	return c.load(ctx, ds)
}

func (c *Cache) join(ctx context.Context, ds *dataset, wait <-chan struct{}) (Outcome, error) {
	select {
	case <-wait:
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !ds.state.Loaded() {
		cause := ds.lastErr
		if cause == nil {
			cause = errors.New("region not loaded")
		}
		return Outcome{Region: ds.region.Key, State: ds.state},
			fmt.Errorf("%w: %s: %w", ErrFetchFailed, ds.region.Key, cause)
	}
	return Outcome{Region: ds.region.Key, State: ds.state}, nil
}

func (c *Cache) load(ctx context.Context, ds *dataset) (Outcome, error) {
	key := ds.region.Key
	start := time.Now()

	c.log.Info("Fetching region dataset", map[string]interface{}{
		"region": key,
	})

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	payload, err := c.fetcher.FetchRegion(fetchCtx, key)
	cancel()

	if err == nil && (payload == nil || !payload.Success) {
		err = errors.New("registry returned an unsuccessful response")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		close(ds.inflight)
		ds.inflight = nil
	}()

	if err != nil {
		ds.state = Unloaded
		ds.lastErr = err
		c.log.Error("Failed to load region dataset", err, map[string]interface{}{
			"region":      key,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return Outcome{Region: key, State: Unloaded, Fetched: true},
			fmt.Errorf("%w: %s: %w", ErrFetchFailed, key, err)
	}

	stats := models.ComputeStatistics(payload.Data)
	if payload.Statistics != nil {
		stats = *payload.Statistics
	}

	ds.records = payload.Data
	ds.stats = &stats
	ds.overlay = materialize(ds.region, payload.Data)
	ds.state = LoadedVisible
	ds.lastErr = nil

	c.log.Info("Region dataset loaded", map[string]interface{}{
		"region":           key,
		"total_records":    stats.TotalRecords,
		"geocoded_records": stats.GeocodedRecords,
		"markers":          len(ds.overlay.Markers),
		"duration_ms":      time.Since(start).Milliseconds(),
	})

	return Outcome{
		Region:   key,
		State:    LoadedVisible,
		Fetched:  true,
		Commands: []render.Command{{Kind: render.AttachOverlay, Region: key, Overlay: ds.overlay}},
	}, nil
}

// materialize builds the overlay from the records that have coordinates.
func materialize(region Region, records []models.RegistryRecord) *render.Overlay {
	overlay := &render.Overlay{
		Region:  region.Key,
		Color:   region.Color,
		Markers: make([]render.Marker, 0, len(records)),
	}
	for i, r := range records {
		pos, ok := r.Coordinates()
		if !ok {
			continue
		}
		overlay.Markers = append(overlay.Markers, render.Marker{
			Position:      pos,
			RecordID:      r.KeyAt(i),
			Title:         r.Address,
			LicenceStatus: r.LicenceStatus,
		})
	}
	return overlay
}

// Toggle flips a loaded region between shown and hidden. It is a no-op
// while the region is unloaded or loading.
func (c *Cache) Toggle(key string) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ds, ok := c.datasets[key]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownRegion, key)
	}
	return c.toggleLocked(ds), nil
}

func (c *Cache) toggleLocked(ds *dataset) Outcome {
	key := ds.region.Key
	switch ds.state {
	case LoadedVisible:
		ds.state = LoadedHidden
		return Outcome{
			Region:   key,
			State:    LoadedHidden,
			Commands: []render.Command{{Kind: render.DetachOverlay, Region: key}},
		}
	case LoadedHidden:
		ds.state = LoadedVisible
		return Outcome{
			Region:   key,
			State:    LoadedVisible,
			Commands: []render.Command{{Kind: render.AttachOverlay, Region: key, Overlay: ds.overlay}},
		}
	default:
		return Outcome{Region: key, State: ds.state}
	}
}

// StatisticsFor returns a copy of the region statistics, or nil until the
// region has loaded.
func (c *Cache) StatisticsFor(key string) *models.RegionStatistics {
	c.mu.Lock()
	defer c.mu.Unlock()

	ds, ok := c.datasets[key]
	if !ok || ds.stats == nil {
		return nil
	}
	stats := *ds.stats
	return &stats
}

// State returns the lifecycle state of a region.
func (c *Cache) State(key string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ds, ok := c.datasets[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, key)
	}
	return ds.state, nil
}

// Visible reports whether a region's overlay is currently attached.
func (c *Cache) Visible(key string) bool {
	state, err := c.State(key)
	return err == nil && state == LoadedVisible
}

// Snapshot returns every region's state in catalog order.
func (c *Cache) Snapshot() []Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Status, 0, len(c.order))
	for _, key := range c.order {
		ds := c.datasets[key]
		st := Status{
			Region:  ds.region,
			State:   ds.state,
			Visible: ds.state == LoadedVisible,
		}
		if ds.stats != nil {
			stats := *ds.stats
			st.Statistics = &stats
		}
		out = append(out, st)
	}
	return out
}

// Loaded returns the loaded datasets, visible or hidden, in catalog order.
func (c *Cache) Loaded() []Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Dataset
	for _, key := range c.order {
		ds := c.datasets[key]
		if ds.state.Loaded() {
			out = append(out, Dataset{Region: ds.region, Records: ds.records})
		}
	}
	return out
}

// Preload shows several regions concurrently. It returns the commands of
// every region that loaded, in the order given, and the first error.
func (c *Cache) Preload(ctx context.Context, keys []string) ([]render.Command, error) {
	outcomes := make([]Outcome, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			out, err := c.Show(gctx, key)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	err := g.Wait()

	var cmds []render.Command
	for _, out := range outcomes {
		cmds = append(cmds, out.Commands...)
	}
	return cmds, err
}
