package db

import (
	"testing"

	"vox/internal/models"
)

func TestSetReactionReplacesPrevious(t *testing.T) {
	database := openTestDB(t)
	reactions := NewReactionRepository(database)

	if _, err := reactions.Set("msg_1", "alice", models.ScopePrivate, "👍"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := reactions.Set("msg_1", "alice", models.ScopePrivate, "❤️"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := reactions.ForMessage("msg_1", models.ScopePrivate)
	if err != nil {
		t.Fatalf("ForMessage() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("reactions = %d, want 1", len(got))
	}
	if got[0].Emoji != "❤️" {
		t.Fatalf("emoji = %q, want the replacement", got[0].Emoji)
	}
}

func TestReactionScopesAreIndependent(t *testing.T) {
	database := openTestDB(t)
	reactions := NewReactionRepository(database)

	if _, err := reactions.Set("msg_1", "alice", models.ScopePrivate, "👍"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := reactions.Set("msg_1", "alice", models.ScopeGroup, "❤️"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	private, err := reactions.ForMessage("msg_1", models.ScopePrivate)
	if err != nil {
		t.Fatalf("ForMessage() error = %v", err)
	}
	if len(private) != 1 || private[0].Emoji != "👍" {
		t.Fatalf("private reactions = %+v, want single 👍", private)
	}
}

func TestReactionsFromDifferentUsersCoexist(t *testing.T) {
	database := openTestDB(t)
	reactions := NewReactionRepository(database)

	for _, user := range []string{"alice", "bob"} {
		if _, err := reactions.Set("msg_1", user, models.ScopeGroup, "👍"); err != nil {
			t.Fatalf("Set(%q) error = %v", user, err)
		}
	}

	got, err := reactions.ForMessage("msg_1", models.ScopeGroup)
	if err != nil {
		t.Fatalf("ForMessage() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("reactions = %d, want 2", len(got))
	}
}
