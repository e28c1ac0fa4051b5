// Package session keeps race sessions in memory, one per browser tab.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gpxracer.app/internal/clock"
	"gpxracer.app/internal/race"
	"gpxracer.app/internal/route"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrInvalidSlot = errors.New("route slot must be 1 or 2")
	// ErrChanged is returned when a session's routes were replaced while a
	// result computed from the old routes was being committed.
	ErrChanged = errors.New("session routes changed, try again")
)

// Session is one race: up to two loaded routes and the state of the dots.
type Session struct {
	ID        string
	Routes    [2]*route.Route
	Indexes   [2]*route.PointIndex
	FileNames [2]string
	State     race.State
	Created   time.Time
	LastSeen  time.Time
}

// Route returns the route loaded into slot, or nil.
func (s *Session) Route(slot int) *route.Route {
	if slot != 1 && slot != 2 {
		return nil
	}
	return s.Routes[slot-1]
}

// Ready reports whether both routes are loaded.
func (s *Session) Ready() bool {
	return s.Routes[0] != nil && s.Routes[1] != nil
}

// SetRoute replaces the route in slot. Progress values are kept.
func (s *Session) SetRoute(slot int, name string, r *route.Route) error {
	if slot != 1 && slot != 2 {
		return fmt.Errorf("%w: got %d", ErrInvalidSlot, slot)
	}
	s.Routes[slot-1] = r
	s.Indexes[slot-1] = route.NewPointIndex(r)
	s.FileNames[slot-1] = name
	s.State = s.State.Normalize()
	return nil
}

// entry guards one session. The store lock only protects the map, so a slow
// operation on one session never blocks the others. deleted and lastSeen
// are read without mu.
type entry struct {
	mu       sync.Mutex
	sess     Session
	deleted  atomic.Bool
	lastSeen atomic.Int64 // Unix nanoseconds
}

// touch records activity; e.mu must be held once the entry is shared.
func (e *entry) touch(now time.Time) {
	e.sess.LastSeen = now
	e.lastSeen.Store(now.UnixNano())
}

func (e *entry) copyLocked() *Session {
	cp := e.sess
	return &cp
}

// Store holds sessions keyed by id. All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	clock    clock.Clock
	ttl      time.Duration
	logger   *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewStore creates an empty store. A ttl of zero disables eviction.
func NewStore(c clock.Clock, ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*entry),
		clock:    c,
		ttl:      ttl,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Create starts a new, empty session.
func (s *Store) Create() *Session {
	now := s.clock.Now()
	e := &entry{sess: Session{
		ID:      uuid.NewString(),
		Created: now,
	}}
	e.touch(now)

	s.mu.Lock()
	s.sessions[e.sess.ID] = e
	s.mu.Unlock()

	cp := e.sess
	return &cp
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Get returns a copy of the session and marks it as seen.
func (s *Store) Get(id string) (*Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted.Load() {
		return nil, ErrNotFound
	}
	e.touch(s.clock.Now())
	return e.copyLocked(), nil
}

// Update runs fn on a copy of the session while holding that session's
// lock. Changes are discarded if fn returns an error. The updated copy is
// returned.
func (s *Store) Update(id string, fn func(*Session) error) (*Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted.Load() {
		return nil, ErrNotFound
	}
	e.touch(s.clock.Now())

	work := *e.copyLocked()
	if err := fn(&work); err != nil {
		return nil, err
	}
	work.ID = e.sess.ID
	work.Created = e.sess.Created
	e.sess = work
	e.touch(s.clock.Now())
	return e.copyLocked(), nil
}

// Delete removes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	e.deleted.Store(true)
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Snapshot returns copies of all sessions ordered by creation time.
func (s *Store) Snapshot() []Session {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	out := make([]Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted.Load() {
			out = append(out, *e.copyLocked())
		}
		e.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// cleanupOnce evicts sessions idle for longer than the ttl and returns how
// many were removed.
func (s *Store) cleanupOnce() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.clock.Now().Add(-s.ttl).UnixNano()

	s.mu.Lock()
	var evicted []*entry
	for id, e := range s.sessions {
		if e.lastSeen.Load() < cutoff {
			delete(s.sessions, id)
			evicted = append(evicted, e)
		}
	}
	s.mu.Unlock()

	for _, e := range evicted {
		e.deleted.Store(true)
	}
	return len(evicted)
}

// StartCleanup evicts idle sessions every interval until Stop is called.
func (s *Store) StartCleanup(interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 || s.done != nil {
		return
	}
	s.done = make(chan struct{})
	ticker := s.clock.NewTicker(interval)

	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C():
				if n := s.cleanupOnce(); n > 0 {
					s.logger.Info("evicted idle sessions", "count", n, "remaining", s.Len())
				}
			}
		}
	}()
}

// Stop ends the cleanup goroutine, if running. Safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	if s.done != nil {
		<-s.done
	}
}
