package intake

import (
	"errors"
	"testing"
	"time"
)

func TestNewManager(t *testing.T) {
	m := NewManager()
	if m.sessions == nil {
		t.Fatal("sessions map should be initialized")
	}
	if m.Len() != 0 {
		t.Fatal("manager should start empty")
	}
	if len(m.Steps()) != 5 {
		t.Fatalf("expected default steps, got %d", len(m.Steps()))
	}
}

func TestCreateAndGet(t *testing.T) {
	m := NewManager()
	s := m.Create()
	if s.ID == "" {
		t.Fatal("session id should not be empty")
	}
	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("should be able to retrieve session: %v", err)
	}
	if got != s {
		t.Fatal("expected the same session")
	}
	other := m.Create()
	if other.ID == s.ID {
		t.Fatal("sessions should have distinct ids")
	}

	mustAdvance(t, s, "Asha")
	if len(other.Snapshot().Answers) != 0 {
		t.Fatal("sessions must be isolated")
	}

	m.Close(s.ID)
	if _, err := m.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSweepDiscardsIdleSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := NewManager(WithTTL(10*time.Minute), withClock(clock))

	idle := m.Create()
	now = now.Add(8 * time.Minute)
	busy := m.Create()
	now = now.Add(3 * time.Minute)

	if n := m.Sweep(now); n != 1 {
		t.Fatalf("expected 1 expired session, got %d", n)
	}
	if _, err := m.Get(idle.ID); err == nil {
		t.Fatal("idle session should be gone")
	}
	if _, err := m.Get(busy.ID); err != nil {
		t.Fatal("recent session should survive")
	}

	now = now.Add(9 * time.Minute)
	busy.UpdateScratch("still typing")
	now = now.Add(5 * time.Minute)
	if n := m.Sweep(now); n != 0 {
		t.Fatalf("activity should extend the session, swept %d", n)
	}
}

func TestSweepDisabled(t *testing.T) {
	m := NewManager(WithTTL(0))
	m.Create()
	if n := m.Sweep(time.Now().Add(24 * time.Hour)); n != 0 {
		t.Fatalf("zero ttl should disable sweep, got %d", n)
	}
}
