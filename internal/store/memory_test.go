package store

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/i474232898/weather-lookup/internal/lookup"
)

func newTestStore(maxSessions int, maxIdle time.Duration) *MemoryStore {
	return NewMemoryStore(func() *lookup.Coordinator {
		return lookup.New(nil, nil, lookup.Options{})
	}, maxSessions, maxIdle)
}

// closed reports whether the coordinator has been shut down. A closed
// coordinator hands out already-closed subscriptions.
func closed(c *lookup.Coordinator) bool {
	ch, cancel := c.Subscribe()
	defer cancel()
	_, ok := <-ch
	return !ok
}

func TestMemoryStoreCreateGetDelete(t *testing.T) {
	s := newTestStore(0, 0)

	sess, err := s.Create()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ID == "" || sess.Coordinator == nil {
		t.Fatalf("expected id and coordinator, got %+v", sess)
	}

	got, err := s.Get(sess.ID)
	if err != nil || got != sess {
		t.Fatalf("expected same session back, got %v %v", got, err)
	}

	if err := s.Delete(sess.ID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if !closed(sess.Coordinator) {
		t.Fatalf("expected deleted session's coordinator to be closed")
	}
	if _, err := s.Get(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStoreCapacity(t *testing.T) {
	s := newTestStore(2, 0)
	defer s.CloseAll()

	for i := 0; i < 2; i++ {
		if _, err := s.Create(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := s.Create(); !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", s.Len())
	}
}

func TestMemoryStoreEvictIdle(t *testing.T) {
	s := newTestStore(0, 10*time.Minute)
	defer s.CloseAll()

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	oldest, _ := s.Create()
	clock = clock.Add(time.Minute)
	older, _ := s.Create()
	clock = clock.Add(time.Minute)
	fresh, _ := s.Create()

	clock = clock.Add(9 * time.Minute)
	// Touching a session keeps it alive.
	if _, err := s.Get(fresh.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock = clock.Add(2 * time.Minute)

	evicted := s.EvictIdle()
	if want := []string{oldest.ID, older.ID}; !reflect.DeepEqual(evicted, want) {
		t.Fatalf("expected %v evicted, got %v", want, evicted)
	}
	if !closed(oldest.Coordinator) || !closed(older.Coordinator) {
		t.Fatalf("expected evicted coordinators to be closed")
	}
	if closed(fresh.Coordinator) {
		t.Fatalf("expected active session to stay open")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 remaining session, got %d", s.Len())
	}
}

func TestMemoryStoreKeepsWatchedSessions(t *testing.T) {
	s := newTestStore(0, 10*time.Minute)
	defer s.CloseAll()

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	watched, _ := s.Create()
	_, unsubscribe := watched.Coordinator.Subscribe()

	clock = clock.Add(time.Hour)
	if evicted := s.EvictIdle(); len(evicted) != 0 {
		t.Fatalf("expected watched session to survive, got %v", evicted)
	}

	// Closing the stream starts the idle clock from the last sweep.
	unsubscribe()
	clock = clock.Add(5 * time.Minute)
	if evicted := s.EvictIdle(); len(evicted) != 0 {
		t.Fatalf("expected session to stay within the idle window, got %v", evicted)
	}
	clock = clock.Add(6 * time.Minute)
	if evicted := s.EvictIdle(); len(evicted) != 1 || evicted[0] != watched.ID {
		t.Fatalf("expected unwatched session evicted, got %v", evicted)
	}
}

func TestMemoryStoreNoIdleLimit(t *testing.T) {
	s := newTestStore(0, 0)
	defer s.CloseAll()

	s.Create()
	s.now = func() time.Time { return time.Now().Add(24 * time.Hour) }

	if evicted := s.EvictIdle(); evicted != nil {
		t.Fatalf("expected nothing evicted without an idle limit, got %v", evicted)
	}
}

func TestMemoryStoreCloseAll(t *testing.T) {
	s := newTestStore(0, 0)
	a, _ := s.Create()
	b, _ := s.Create()

	s.CloseAll()

	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
	if !closed(a.Coordinator) || !closed(b.Coordinator) {
		t.Fatalf("expected all coordinators closed")
	}
}
