package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/propmap/internal/logger"
)

// DefaultIdleTimeout is how long an unused session is kept.
const DefaultIdleTimeout = 30 * time.Minute

// Store holds the live sessions and evicts idle ones.
type Store struct {
	cfg  SessionConfig
	deps Dependencies
	idle time.Duration
	log  *logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	stop chan struct{}
	done chan struct{}
}

// NewStore creates a Store and starts its janitor.
func NewStore(cfg SessionConfig, deps Dependencies, idle time.Duration, log *logger.Logger) *Store {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	st := &Store{
		cfg:      cfg,
		deps:     deps,
		idle:     idle,
		log:      log.WithComponent("sessions"),
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go st.janitor(idle / 2)
	return st
}

// Get returns the session with the given ID.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	s.Touch()
	return s, nil
}

// Create starts a new session and preloads the configured regions.
// Preload failures are logged; the session is usable regardless.
func (st *Store) Create(ctx context.Context) (*Session, error) {
	id := uuid.New().String()
	s := NewSession(id, st.cfg, st.deps, st.log)

	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		s.Close()
		return nil, ErrStoreClosed
	}
	st.sessions[id] = s
	count := len(st.sessions)
	st.mu.Unlock()

	st.log.Info("Session created", map[string]interface{}{
		"session_id": id,
		"sessions":   count,
	})

	if err := s.PreloadRegions(ctx, st.cfg.Preload); err != nil {
		st.log.Warn("Region preload failed", map[string]interface{}{
			"session_id": id,
			"error":      err.Error(),
		})
	}
	return s, nil
}

// GetOrCreate returns the session with the given ID, or a new one when id is
// empty or unknown. The second return value reports whether it was created.
func (st *Store) GetOrCreate(ctx context.Context, id string) (*Session, bool, error) {
	if id != "" {
		if s, err := st.Get(id); err == nil {
			return s, false, nil
		}
	}
	s, err := st.Create(ctx)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) janitor(interval time.Duration) {
	defer close(st.done)

	if interval <= 0 {
		interval = st.idle
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-st.stop:
			return
		case now := <-ticker.C:
			st.sweep(now)
		}
	}
}

// sweep closes and removes sessions idle since before now minus the timeout.
func (st *Store) sweep(now time.Time) int {
	cutoff := now.Add(-st.idle)

	var expired []*Session
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
		st.log.Info("Session evicted", map[string]interface{}{
			"session_id": s.ID(),
			"idle":       now.Sub(s.LastSeen()).String(),
		})
	}
	return len(expired)
}

// Close stops the janitor and closes every session.
func (st *Store) Close() {
	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return
	}
	st.closed = true
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	close(st.stop)
	<-st.done

	for _, s := range sessions {
		s.Close()
	}
	st.log.Info("Session store closed", map[string]interface{}{"sessions": len(sessions)})
}
