package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-lookup/internal/lookup"
)

var (
	// ErrNotFound is returned when no session exists for a given id.
	ErrNotFound = errors.New("session not found")
	// ErrCapacity is returned when the store already holds the maximum number of sessions.
	ErrCapacity = errors.New("too many active sessions")
)

// Session is one screen session and the coordinator that owns its state.
type Session struct {
	ID          string
	Coordinator *lookup.Coordinator
	CreatedAt   time.Time

	lastSeen time.Time
}

// Factory builds the coordinator for a new session.
type Factory func() *lookup.Coordinator

// MemoryStore is a concurrency-safe in-memory registry of sessions.
type MemoryStore struct {
	mu sync.RWMutex

	// key: session id
	data map[string]*Session

	factory Factory
	now     func() time.Time

	// retention configuration
	maxSessions int           // 0 = unlimited
	maxIdle     time.Duration // 0 = never evict
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxSessions is <= 0, it is treated as unlimited.
func NewMemoryStore(factory Factory, maxSessions int, maxIdle time.Duration) *MemoryStore {
	return &MemoryStore{
		data:        make(map[string]*Session),
		factory:     factory,
		now:         time.Now,
		maxSessions: maxSessions,
		maxIdle:     maxIdle,
	}
}

// Create registers a new session with a fresh coordinator.
func (s *MemoryStore) Create() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 && len(s.data) >= s.maxSessions {
		return nil, ErrCapacity
	}

	now := s.now()
	sess := &Session{
		ID:          uuid.NewString(),
		Coordinator: s.factory(),
		CreatedAt:   now,
		lastSeen:    now,
	}
	s.data[sess.ID] = sess
	return sess, nil
}

// Get returns the session for id and marks it as active.
func (s *MemoryStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

// Delete removes the session and closes its coordinator.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.data[id]
	if ok {
		delete(s.data, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	sess.Coordinator.Close()
	return nil
}

// EvictIdle closes and removes sessions idle for longer than the configured
// timeout. Sessions with an open state stream are never idle. It returns the
// evicted ids, oldest first.
func (s *MemoryStore) EvictIdle() []string {
	if s.maxIdle <= 0 {
		return nil
	}

	cutoff := s.now().Add(-s.maxIdle)

	s.mu.Lock()
	var evicted []*Session
	for id, sess := range s.data {
		if sess.Coordinator.Subscribers() > 0 {
			sess.lastSeen = s.now()
			continue
		}
		if sess.lastSeen.Before(cutoff) {
			evicted = append(evicted, sess)
			delete(s.data, id)
		}
	}
	s.mu.Unlock()

	sort.Slice(evicted, func(i, j int) bool { return evicted[i].lastSeen.Before(evicted[j].lastSeen) })

	ids := make([]string, 0, len(evicted))
	for _, sess := range evicted {
		sess.Coordinator.Close()
		ids = append(ids, sess.ID)
	}
	return ids
}

// CloseAll closes every session; used on shutdown.
func (s *MemoryStore) CloseAll() {
	s.mu.Lock()
	sessions := s.data
	s.data = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Coordinator.Close()
	}
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
