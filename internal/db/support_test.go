package db

import (
	"testing"
)

func TestThreadChronological(t *testing.T) {
	database := openTestDB(t)
	support := NewSupportRepository(database)

	if _, err := support.Append("alice", "alice", "I can't log in", false); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := support.Append("alice", "admin", "try resetting", true); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	thread, err := support.Thread("alice")
	if err != nil {
		t.Fatalf("Thread() error = %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("thread = %d messages, want 2", len(thread))
	}
	if thread[0].IsAdmin || !thread[1].IsAdmin {
		t.Fatalf("thread order wrong: %+v", thread)
	}
}

func TestPreviewsOnePerTicket(t *testing.T) {
	database := openTestDB(t)
	support := NewSupportRepository(database)

	if _, err := support.Append("alice", "alice", "first", false); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := support.Append("alice", "alice", "latest", false); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := support.Append("bob", "bob", "other ticket", false); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	previews, err := support.Previews()
	if err != nil {
		t.Fatalf("Previews() error = %v", err)
	}
	if len(previews) != 2 {
		t.Fatalf("previews = %d, want 2", len(previews))
	}
	for _, p := range previews {
		if p.TicketID == "alice" && p.LastMessage != "latest" {
			t.Fatalf("alice preview = %q, want the latest message", p.LastMessage)
		}
	}
}

func TestExists(t *testing.T) {
	database := openTestDB(t)
	support := NewSupportRepository(database)

	ok, err := support.Exists("alice")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Fatal("Exists() = true for empty ticket")
	}

	if _, err := support.Append("alice", "alice", "hi", false); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	ok, err = support.Exists("alice")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !ok {
		t.Fatal("Exists() = false after append")
	}
}
