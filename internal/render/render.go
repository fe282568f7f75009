// Package render defines the commands the map core hands to the rendering
// surface. The core never draws anything itself: overlay, viewport and
// highlight changes are queued here and drained by the client.
package render

import (
	"sync"

	"github.com/stwalsh4118/propmap/internal/logger"
	"github.com/stwalsh4118/propmap/internal/models"
)

// Kind identifies a command.
type Kind string

const (
	AttachOverlay  Kind = "attach_overlay"
	DetachOverlay  Kind = "detach_overlay"
	SetViewport    Kind = "set_viewport"
	FitBounds      Kind = "fit_bounds"
	Highlight      Kind = "highlight"
	ClearHighlight Kind = "clear_highlight"
)

// Marker is one registry record placed on an overlay.
type Marker struct {
	Position      models.LatLng        `json:"position"`
	RecordID      string               `json:"record_id"`
	Title         string               `json:"title"`
	LicenceStatus models.LicenceStatus `json:"licence_status"`
}

// Overlay is the marker layer for one region. It is materialized once,
// when the region loads, and re-attached as-is on every show.
type Overlay struct {
	Region  string   `json:"region"`
	Color   string   `json:"color"`
	Markers []Marker `json:"markers"`
}

// Command is an instruction for the rendering surface. Only the fields
// relevant to Kind are set.
type Command struct {
	Overlay  *Overlay             `json:"overlay,omitempty"`
	Viewport *models.Viewport     `json:"viewport,omitempty"`
	Bounds   *models.Bounds       `json:"bounds,omitempty"`
	Result   *models.SearchResult `json:"result,omitempty"`
	Kind     Kind                 `json:"kind"`
	Region   string               `json:"region,omitempty"`
	Seq      uint64               `json:"seq"`
	Padding  int                  `json:"padding,omitempty"`
}

// Sink accepts commands.
type Sink interface {
	Push(cmds ...Command)
}

// Queue is a bounded FIFO of commands. When full, the oldest commands are
// dropped so a client that stops polling cannot grow it without limit.
type Queue struct {
	mu      sync.Mutex
	pending []Command
	next    uint64
	max     int
	dropped uint64
	log     *logger.Logger
}

// NewQueue creates a queue holding at most size commands.
func NewQueue(size int, log *logger.Logger) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{max: size, log: log}
}

// Push appends commands, assigning sequence numbers.
func (q *Queue) Push(cmds ...Command) {
	if len(cmds) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, cmd := range cmds {
		q.next++
		cmd.Seq = q.next
		q.pending = append(q.pending, cmd)
	}

	if over := len(q.pending) - q.max; over > 0 {
		q.pending = append(q.pending[:0:0], q.pending[over:]...)
		q.dropped += uint64(over)
		if q.log != nil {
			q.log.Warn("Render queue full, dropped oldest commands", map[string]interface{}{
				"dropped":       over,
				"total_dropped": q.dropped,
				"capacity":      q.max,
			})
		}
	}
}

// Drain returns all pending commands in order and empties the queue.
func (q *Queue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.pending
	q.pending = nil
	if out == nil {
		out = []Command{}
	}
	return out
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Dropped returns how many commands were discarded because the queue was full.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
