package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vox/internal/models"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `username, password_hash, display_name, bio, avatar, crystals,
	premium, verified, frozen, banned, deleted, delete_reason, nft_uses, role,
	session_token, created_at`

// Create inserts a new user. The username must not collide with any
// existing username or alias; both checks and the insert run in one
// transaction because usernames and aliases share a single namespace.
func (r *UserRepository) Create(username, passwordHash, displayName, avatar string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	now := time.Now().UTC()

	err := r.db.WithTx(func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM aliases WHERE alias = ?`, username).Scan(&count); err != nil {
			return fmt.Errorf("checking alias namespace: %w", err)
		}
		if count > 0 {
			return ErrDuplicate
		}

		_, err := tx.Exec(
			`INSERT INTO users (username, password_hash, display_name, avatar, created_at) VALUES (?, ?, ?, ?, ?)`,
			username, passwordHash, displayName, avatar, now,
		)
		if IsUniqueConstraintError(err) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.User{
		Username:    username,
		DisplayName: displayName,
		Avatar:      avatar,
		Role:        models.RoleUser,
		CreatedAt:   now,
	}, nil
}

// EnsureCreator seeds the initial creator account so a fresh database has
// at least one user who can perform privileged operations. It does nothing
// when any creator-role user already exists.
func (r *UserRepository) EnsureCreator(username, passwordHash string) (created bool, err error) {
	username = strings.ToLower(strings.TrimSpace(username))
	now := time.Now().UTC()

	err = r.db.WithTx(func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM users WHERE role = ?`, models.RoleCreator).Scan(&count); err != nil {
			return fmt.Errorf("checking for creator: %w", err)
		}
		if count > 0 {
			return nil
		}

		_, err := tx.Exec(
			`INSERT INTO users (username, password_hash, display_name, verified, role, created_at)
			 VALUES (?, ?, ?, 1, ?, ?)`,
			username, passwordHash, username, models.RoleCreator, now,
		)
		if IsUniqueConstraintError(err) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("inserting creator: %w", err)
		}
		created = true
		return nil
	})
	return created, err
}

func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.findOne(`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// Exists reports whether a non-deleted user row is present.
func (r *UserRepository) Exists(username string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ? AND deleted = 0`,
		strings.ToLower(username)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) UpdateSessionToken(username, token string) error {
	result, err := r.db.Exec(`UPDATE users SET session_token = ? WHERE username = ?`, token, username)
	if err != nil {
		return fmt.Errorf("updating session token: %w", err)
	}
	return checkRowsAffected(result)
}

// ClearSessionToken invalidates the stored session token (logout).
func (r *UserRepository) ClearSessionToken(username string) error {
	result, err := r.db.Exec(`UPDATE users SET session_token = '' WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("clearing session token: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) UpdateProfile(username string, displayName, bio, avatar *string) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if displayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, *displayName)
	}
	if bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *bio)
	}
	if avatar != nil {
		sets = append(sets, "avatar = ?")
		args = append(args, *avatar)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, username)

	result, err := r.db.Exec(`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE username = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return checkRowsAffected(result)
}

// SetFlag flips one of the boolean moderation columns.
func (r *UserRepository) SetFlag(username, column string, value bool) error {
	switch column {
	case "frozen", "banned", "premium", "verified":
	default:
		return fmt.Errorf("unknown flag column %q", column)
	}

	result, err := r.db.Exec(`UPDATE users SET `+column+` = ? WHERE username = ?`, boolToInt(value), username)
	if err != nil {
		return fmt.Errorf("setting %s: %w", column, err)
	}
	return checkRowsAffected(result)
}

// SoftDelete marks the account deleted with a reason. The row is retained.
func (r *UserRepository) SoftDelete(username, reason string) error {
	result, err := r.db.Exec(
		`UPDATE users SET deleted = 1, delete_reason = ?, session_token = '' WHERE username = ?`,
		reason, username,
	)
	if err != nil {
		return fmt.Errorf("soft-deleting user: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) SetDisplayName(username, displayName string) error {
	result, err := r.db.Exec(`UPDATE users SET display_name = ? WHERE username = ?`, displayName, username)
	if err != nil {
		return fmt.Errorf("setting display name: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) ResetAvatar(username string) error {
	result, err := r.db.Exec(`UPDATE users SET avatar = '' WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("resetting avatar: %w", err)
	}
	return checkRowsAffected(result)
}

// Rename changes a username and cascades the update through every table
// that stores the old name, in one transaction.
func (r *UserRepository) Rename(oldName, newName string) error {
	newName = strings.ToLower(strings.TrimSpace(newName))

	return r.db.WithTx(func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRow(
			`SELECT (SELECT COUNT(*) FROM users WHERE username = ?) + (SELECT COUNT(*) FROM aliases WHERE alias = ?)`,
			newName, newName,
		).Scan(&count); err != nil {
			return fmt.Errorf("checking name availability: %w", err)
		}
		if count > 0 {
			return ErrDuplicate
		}

		result, err := tx.Exec(`UPDATE users SET username = ? WHERE username = ?`, newName, oldName)
		if err != nil {
			return fmt.Errorf("renaming user: %w", err)
		}
		if err := checkRowsAffected(result); err != nil {
			return err
		}

		cascades := []string{
			`UPDATE private_messages SET sender = ? WHERE sender = ?`,
			`UPDATE private_messages SET recipient = ? WHERE recipient = ?`,
			`UPDATE chat_summaries SET owner = ? WHERE owner = ?`,
			`UPDATE chat_summaries SET counterpart = ? WHERE counterpart = ?`,
			`UPDATE chats SET owner = ? WHERE owner = ?`,
			`UPDATE chat_members SET username = ? WHERE username = ?`,
			`UPDATE chat_messages SET sender = ? WHERE sender = ?`,
			`UPDATE reactions SET username = ? WHERE username = ?`,
			`UPDATE aliases SET owner = ? WHERE owner = ?`,
			`UPDATE support_messages SET ticket_id = ? WHERE ticket_id = ?`,
			`UPDATE support_messages SET sender = ? WHERE sender = ?`,
			`UPDATE gifts SET recipient = ? WHERE recipient = ?`,
			`UPDATE gifts SET sender = ? WHERE sender = ?`,
			`UPDATE premium_requests SET username = ? WHERE username = ?`,
		}
		for _, q := range cascades {
			if _, err := tx.Exec(q, newName, oldName); err != nil {
				return fmt.Errorf("cascading rename: %w", err)
			}
		}
		return nil
	})
}

// Search matches usernames and display names by substring, and resolves
// aliases to their owning users transparently.
func (r *UserRepository) Search(query string, limit int) ([]*models.Profile, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	rows, err := r.db.Query(
		`SELECT DISTINCT u.username, u.display_name, u.bio, u.avatar, u.premium, u.verified, u.created_at
		 FROM users u
		 LEFT JOIN aliases a ON a.owner = u.username
		 WHERE u.deleted = 0 AND u.banned = 0
		   AND (u.username LIKE ? OR LOWER(u.display_name) LIKE ? OR a.alias LIKE ?)
		 ORDER BY u.username LIMIT ?`,
		pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	defer rows.Close()

	profiles := make([]*models.Profile, 0)
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.Username, &p.DisplayName, &p.Bio, &p.Avatar, &p.Premium, &p.Verified, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}

// Admins returns every username whose role grants privileged operations.
func (r *UserRepository) Admins() ([]string, error) {
	rows, err := r.db.Query(`SELECT username FROM users WHERE role IN (?, ?)`, models.RoleAdmin, models.RoleCreator)
	if err != nil {
		return nil, fmt.Errorf("querying admins: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning admin: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *UserRepository) findOne(query string, args ...any) (*models.User, error) {
	var u models.User
	var reason sql.NullString
	var premium, verified, frozen, banned, deleted int

	err := r.db.QueryRow(query, args...).Scan(
		&u.Username,
		&u.PasswordHash,
		&u.DisplayName,
		&u.Bio,
		&u.Avatar,
		&u.Crystals,
		&premium,
		&verified,
		&frozen,
		&banned,
		&deleted,
		&reason,
		&u.NftUses,
		&u.Role,
		&u.SessionToken,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	u.Premium = premium != 0
	u.Verified = verified != 0
	u.Frozen = frozen != 0
	u.Banned = banned != 0
	u.Deleted = deleted != 0
	u.DeleteReason = nullStrToPtr(reason)

	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
