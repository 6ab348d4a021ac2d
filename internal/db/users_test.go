package db

import (
	"errors"
	"path/filepath"
	"testing"

	"vox/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

func TestCreateRejectsDuplicateUsername(t *testing.T) {
	database := openTestDB(t)
	repo := NewUserRepository(database)

	if _, err := repo.Create("alice", "hash", "Alice", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := repo.Create("alice", "hash", "Alice Again", ""); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Create() error = %v, want ErrDuplicate", err)
	}
}

func TestCreateLowercasesUsername(t *testing.T) {
	database := openTestDB(t)
	repo := NewUserRepository(database)

	user, err := repo.Create("  Alice  ", "hash", "Alice", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("username = %q, want %q", user.Username, "alice")
	}

	found, err := repo.FindByUsername("ALICE")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if found.Username != "alice" {
		t.Fatalf("found username = %q, want %q", found.Username, "alice")
	}
}

func TestCreateRejectsNameTakenByAlias(t *testing.T) {
	database := openTestDB(t)
	users := NewUserRepository(database)
	aliases := NewAliasRepository(database)

	if _, err := users.Create("alice", "hash", "Alice", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := aliases.GrantBatch("alice", []string{"wizard"}); err != nil {
		t.Fatalf("GrantBatch() error = %v", err)
	}

	if _, err := users.Create("wizard", "hash", "Wizard", ""); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Create() error = %v, want ErrDuplicate", err)
	}
}

func TestSoftDeleteClearsSessionToken(t *testing.T) {
	database := openTestDB(t)
	repo := NewUserRepository(database)

	if _, err := repo.Create("alice", "hash", "Alice", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.UpdateSessionToken("alice", "tok"); err != nil {
		t.Fatalf("UpdateSessionToken() error = %v", err)
	}

	if err := repo.SoftDelete("alice", "spam"); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}

	user, err := repo.FindByUsername("alice")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if !user.Deleted {
		t.Fatal("user not marked deleted")
	}
	if user.SessionToken != "" {
		t.Fatalf("session token = %q, want empty", user.SessionToken)
	}
	if user.DeleteReason == nil || *user.DeleteReason != "spam" {
		t.Fatalf("delete reason = %v, want %q", user.DeleteReason, "spam")
	}
}

func TestRenameCascadesThroughMessages(t *testing.T) {
	database := openTestDB(t)
	users := NewUserRepository(database)
	private := NewPrivateMessageRepository(database)

	for _, name := range []string{"alice", "bob"} {
		if _, err := users.Create(name, "hash", name, ""); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}
	if _, err := private.Create("alice", "bob", "hi"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := users.Rename("alice", "alicia"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	if _, err := users.FindByUsername("alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByUsername(old) error = %v, want ErrNotFound", err)
	}

	messages, err := private.History("alicia", "bob", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(messages) != 1 || messages[0].Sender != "alicia" {
		t.Fatalf("history after rename = %+v, want 1 message from alicia", messages)
	}

	summaries, err := private.Summaries("bob")
	if err != nil {
		t.Fatalf("Summaries() error = %v", err)
	}
	if len(summaries) != 1 || summaries[0].Counterpart != "alicia" {
		t.Fatalf("summaries after rename = %+v, want counterpart alicia", summaries)
	}
}

func TestRenameRejectsTakenName(t *testing.T) {
	database := openTestDB(t)
	users := NewUserRepository(database)

	for _, name := range []string{"alice", "bob"} {
		if _, err := users.Create(name, "hash", name, ""); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}

	if err := users.Rename("alice", "bob"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Rename() error = %v, want ErrDuplicate", err)
	}
}

func TestSearchMatchesAlias(t *testing.T) {
	database := openTestDB(t)
	users := NewUserRepository(database)
	aliases := NewAliasRepository(database)

	if _, err := users.Create("alice", "hash", "Alice", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := aliases.GrantBatch("alice", []string{"nightowl"}); err != nil {
		t.Fatalf("GrantBatch() error = %v", err)
	}

	results, err := users.Search("nightowl", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].Username != "alice" {
		t.Fatalf("results = %+v, want alice via alias", results)
	}
}

func TestSearchHidesBannedAndDeleted(t *testing.T) {
	database := openTestDB(t)
	users := NewUserRepository(database)

	for _, name := range []string{"spammer", "ghost"} {
		if _, err := users.Create(name, "hash", name, ""); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}
	if err := users.SetFlag("spammer", "banned", true); err != nil {
		t.Fatalf("SetFlag() error = %v", err)
	}
	if err := users.SoftDelete("ghost", ""); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}

	for _, query := range []string{"spammer", "ghost"} {
		results, err := users.Search(query, 10)
		if err != nil {
			t.Fatalf("Search(%q) error = %v", query, err)
		}
		if len(results) != 0 {
			t.Fatalf("Search(%q) = %+v, want empty", query, results)
		}
	}
}

func TestEnsureCreatorSeedsFreshDatabase(t *testing.T) {
	database := openTestDB(t)
	users := NewUserRepository(database)

	created, err := users.EnsureCreator("Maloy", "hash")
	if err != nil {
		t.Fatalf("EnsureCreator() error = %v", err)
	}
	if !created {
		t.Fatal("EnsureCreator() = false on a fresh database")
	}

	user, err := users.FindByUsername("maloy")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if user.Role != models.RoleCreator {
		t.Fatalf("role = %q, want %q", user.Role, models.RoleCreator)
	}
	if !user.Verified {
		t.Fatal("seeded creator not verified")
	}

	admins, err := users.Admins()
	if err != nil {
		t.Fatalf("Admins() error = %v", err)
	}
	if len(admins) != 1 || admins[0] != "maloy" {
		t.Fatalf("Admins() = %v, want [maloy]", admins)
	}
}

func TestEnsureCreatorIsIdempotent(t *testing.T) {
	database := openTestDB(t)
	users := NewUserRepository(database)

	if _, err := users.EnsureCreator("maloy", "hash"); err != nil {
		t.Fatalf("EnsureCreator() error = %v", err)
	}
	created, err := users.EnsureCreator("maloy", "other-hash")
	if err != nil {
		t.Fatalf("EnsureCreator() error = %v", err)
	}
	if created {
		t.Fatal("EnsureCreator() = true when a creator already exists")
	}
}

func TestEnsureCreatorSkipsWhenCreatorExists(t *testing.T) {
	database := openTestDB(t)
	users := NewUserRepository(database)

	if _, err := users.EnsureCreator("maloy", "hash"); err != nil {
		t.Fatalf("EnsureCreator() error = %v", err)
	}

	created, err := users.EnsureCreator("second", "hash")
	if err != nil {
		t.Fatalf("EnsureCreator() error = %v", err)
	}
	if created {
		t.Fatal("EnsureCreator() seeded a second creator")
	}
	if _, err := users.FindByUsername("second"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByUsername(second) error = %v, want ErrNotFound", err)
	}
}
