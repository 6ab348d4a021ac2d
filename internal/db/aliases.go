package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"vox/internal/constants"
	"vox/internal/models"
)

type AliasRepository struct {
	db *DB
}

func NewAliasRepository(db *DB) *AliasRepository {
	return &AliasRepository{db: db}
}

// Add registers an alias for the owner. Capacity
// (nft_uses allowance minus current alias count) and the cross-namespace
// collision check run in the same transaction as the insert.
func (r *AliasRepository) Add(owner, alias string) (*models.Alias, error) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if len(alias) < constants.MinUsernameLength {
		return nil, fmt.Errorf("alias must be at least %d characters", constants.MinUsernameLength)
	}
	now := time.Now().UTC()

	err := r.db.WithTx(func(tx *sql.Tx) error {
		var allowance, used int64
		if err := tx.QueryRow(`SELECT nft_uses FROM users WHERE username = ?`, owner).Scan(&allowance); err != nil {
			return fmt.Errorf("reading allowance: %w", err)
		}
		if err := tx.QueryRow(`SELECT COUNT(*) FROM aliases WHERE owner = ?`, owner).Scan(&used); err != nil {
			return fmt.Errorf("counting aliases: %w", err)
		}
		if used >= allowance {
			return ErrCapacityExhausted
		}
		return insertAlias(tx, owner, alias, now)
	})
	if err != nil {
		return nil, err
	}

	return &models.Alias{Alias: alias, Owner: owner, CreatedAt: now}, nil
}

// Remove deletes the alias only if the caller owns it, freeing one
// capacity slot.
func (r *AliasRepository) Remove(owner, alias string) error {
	result, err := r.db.Exec(`DELETE FROM aliases WHERE alias = ? AND owner = ?`,
		strings.ToLower(alias), owner)
	if err != nil {
		return fmt.Errorf("removing alias: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *AliasRepository) ForOwner(owner string) ([]*models.Alias, error) {
	rows, err := r.db.Query(`SELECT alias, owner, created_at FROM aliases WHERE owner = ? ORDER BY created_at`, owner)
	if err != nil {
		return nil, fmt.Errorf("querying aliases: %w", err)
	}
	defer rows.Close()

	aliases := make([]*models.Alias, 0)
	for rows.Next() {
		var a models.Alias
		if err := rows.Scan(&a.Alias, &a.Owner, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning alias: %w", err)
		}
		aliases = append(aliases, &a)
	}
	return aliases, rows.Err()
}

// ResolveOwner maps an alias to its owning username.
func (r *AliasRepository) ResolveOwner(alias string) (string, error) {
	var owner string
	err := r.db.QueryRow(`SELECT owner FROM aliases WHERE alias = ?`, strings.ToLower(alias)).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolving alias: %w", err)
	}
	return owner, nil
}

// GrantBatch inserts each valid candidate under the target and raises the
// target's allowance by the count actually inserted. Candidates that are
// too short or collide are skipped silently and do not raise the
// allowance. Returns the aliases that were added.
func (r *AliasRepository) GrantBatch(target string, candidates []string) ([]string, error) {
	now := time.Now().UTC()
	var added []string

	err := r.db.WithTx(func(tx *sql.Tx) error {
		for _, candidate := range candidates {
			candidate = strings.ToLower(strings.TrimSpace(candidate))
			if len(candidate) < constants.MinUsernameLength {
				continue
			}
			if err := insertAlias(tx, target, candidate, now); err != nil {
				if err == ErrDuplicate {
					continue
				}
				return err
			}
			added = append(added, candidate)
		}

		if len(added) > 0 {
			result, err := tx.Exec(`UPDATE users SET nft_uses = nft_uses + ? WHERE username = ?`,
				len(added), target)
			if err != nil {
				return fmt.Errorf("raising allowance: %w", err)
			}
			if err := checkRowsAffected(result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// insertAlias inserts after verifying the name is free in both the user
// and alias namespaces. Must run inside the caller's transaction.
func insertAlias(tx *sql.Tx, owner, alias string, now time.Time) error {
	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, alias).Scan(&count); err != nil {
		return fmt.Errorf("checking username namespace: %w", err)
	}
	if count > 0 {
		return ErrDuplicate
	}

	_, err := tx.Exec(`INSERT INTO aliases (alias, owner, created_at) VALUES (?, ?, ?)`, alias, owner, now)
	if IsUniqueConstraintError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting alias: %w", err)
	}
	return nil
}
