package application

import (
	"errors"
	"testing"
	"time"

	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

func TestSessionStore_UpdateBumpsRevision(t *testing.T) {
	now := time.Date(2025, 3, 13, 12, 0, 0, 0, time.UTC)
	store := newSessionStore(time.Hour, func() time.Time { return now })
	store.put(Session{ID: "s1", Revision: 1, UpdatedAt: now})

	now = now.Add(time.Minute)
	updated, err := store.update("s1", func(s *Session) error {
		s.Ranges = append(s.Ranges, scheduler.Range{ID: "r1"})
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", updated.Revision)
	}
	if !updated.UpdatedAt.Equal(now) {
		t.Fatalf("expected UpdatedAt %v, got %v", now, updated.UpdatedAt)
	}

	updated.Ranges[0].ID = "mutated"
	stored, err := store.get("s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Ranges[0].ID != "r1" {
		t.Fatalf("stored session shares its range slice with callers")
	}
}

func TestSessionStore_FailedUpdateKeepsSession(t *testing.T) {
	now := time.Date(2025, 3, 13, 12, 0, 0, 0, time.UTC)
	store := newSessionStore(time.Hour, func() time.Time { return now })
	store.put(Session{ID: "s1", Revision: 1, UpdatedAt: now})

	boom := errors.New("boom")
	_, err := store.update("s1", func(s *Session) error {
		s.Ranges = append(s.Ranges, scheduler.Range{ID: "r1"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	stored, err := store.get("s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Revision != 1 || len(stored.Ranges) != 0 {
		t.Fatalf("failed update leaked into store: %+v", stored)
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 13, 12, 0, 0, 0, time.UTC)
	store := newSessionStore(time.Hour, func() time.Time { return now })
	store.put(Session{ID: "old", UpdatedAt: now})
	store.put(Session{ID: "fresh", UpdatedAt: now.Add(50 * time.Minute)})

	now = now.Add(90 * time.Minute)
	if _, err := store.get("old"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if _, err := store.update("old", func(*Session) error { return nil }); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected expired session to reject updates, got %v", err)
	}
	if store.len() != 2 {
		t.Fatalf("expected expired session to stay until sweep, got %d sessions", store.len())
	}

	removed := store.sweep()
	if len(removed) != 1 || removed[0] != "old" {
		t.Fatalf("expected only old to be swept, got %v", removed)
	}
	if _, err := store.get("old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected swept session to be gone, got %v", err)
	}
	if store.len() != 1 {
		t.Fatalf("expected one live session, got %d", store.len())
	}
	if !store.delete("fresh") || store.delete("fresh") {
		t.Fatalf("delete should report existence once")
	}
}
