package server

import (
	"testing"
	"time"
)

func TestSessionTouch(t *testing.T) {
	store := newSessionStore(time.Minute)
	now := time.Now()

	id, started := store.Touch("", now)
	if !started || id == "" {
		t.Fatalf("expected new session, got id=%q started=%v", id, started)
	}

	same, started := store.Touch(id, now.Add(30*time.Second))
	if started || same != id {
		t.Fatalf("expected live session kept, got id=%q started=%v", same, started)
	}
}

func TestSessionExpires(t *testing.T) {
	store := newSessionStore(time.Minute)
	now := time.Now()

	id, _ := store.Touch("", now)
	fresh, started := store.Touch(id, now.Add(2*time.Minute))
	if !started || fresh == id {
		t.Fatalf("expected expired session replaced, got id=%q started=%v", fresh, started)
	}
}

func TestSessionUnknownID(t *testing.T) {
	store := newSessionStore(time.Minute)

	id, started := store.Touch("not-issued", time.Now())
	if !started || id == "not-issued" {
		t.Fatalf("expected unknown id replaced, got id=%q started=%v", id, started)
	}
}
