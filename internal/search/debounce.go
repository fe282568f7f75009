package search

import (
	"context"
	"sync"
	"time"

	"github.com/stwalsh4118/propmap/internal/models"
)

// DefaultDebounce is the delay between the last keystroke and the search.
const DefaultDebounce = 300 * time.Millisecond

// Published is a completed debounced search.
type Published struct {
	Query   string                `json:"query"`
	Results []models.SearchResult `json:"results"`
	Seq     uint64                `json:"seq"`
}

// RunFunc performs a search. It must honour ctx cancellation.
type RunFunc func(ctx context.Context, query string) []models.SearchResult

// Debouncer delays searches until input settles.
//
// Each Schedule re-arms the timer; the timer firing is the only thing that
// runs a search. Scheduling again also cancels a search that already
// started, so a slow geocoder call for stale input is abandoned rather than
// left to finish. Only the search for the latest Schedule is published.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	run     RunFunc
	publish func(Published)

	seq     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	pending bool
	closed  bool
	wg      sync.WaitGroup
}

// NewDebouncer creates a Debouncer. publish is called outside any lock.
func NewDebouncer(delay time.Duration, run RunFunc, publish func(Published)) *Debouncer {
	if delay < 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, run: run, publish: publish}
}

// Schedule arms a search for query and returns its sequence number.
func (d *Debouncer) Schedule(query string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return d.seq
	}

	d.seq++
	seq := d.seq
	d.stopLocked()

	d.pending = true
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.fire(seq, query)
	})
	return seq
}

// Invalidate disarms the pending timer, cancels a running search and
// advances the sequence number without arming a new search. Callers that
// search outside the debouncer use the returned number so that no earlier
// debounced search can be published over their results.
func (d *Debouncer) Invalidate() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return d.seq
	}
	d.seq++
	d.stopLocked()
	return d.seq
}

// stopLocked disarms the pending timer and cancels a running search.
func (d *Debouncer) stopLocked() {
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pending = false
}

func (d *Debouncer) fire(seq uint64, query string) {
	d.mu.Lock()
	if d.closed || seq != d.seq {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.timer = nil
	d.pending = false
	d.mu.Unlock()

	results := d.run(ctx, query)

	d.mu.Lock()
	current := !d.closed && seq == d.seq && ctx.Err() == nil
	if current {
		d.cancel = nil
	}
	d.mu.Unlock()
	cancel()

	if current && d.publish != nil {
		d.publish(Published{Query: query, Results: results, Seq: seq})
	}
}

// Pending reports whether a search is armed but has not started yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Seq returns the sequence number of the latest Schedule.
func (d *Debouncer) Seq() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

// Close stops the timer, cancels any running search and waits for it.
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	d.stopLocked()
	d.mu.Unlock()

	d.wg.Wait()
}
