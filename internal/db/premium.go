package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vox/internal/models"
)

type PremiumRepository struct {
	db *DB
}

func NewPremiumRepository(db *DB) *PremiumRepository {
	return &PremiumRepository{db: db}
}

// Request files a premium request; at most one pending request per user
// may exist, enforced inside one transaction.
func (r *PremiumRepository) Request(username string) (*models.PremiumRequest, error) {
	id, err := GenerateID("prq")
	if err != nil {
		return nil, fmt.Errorf("generating request ID: %w", err)
	}
	now := time.Now().UTC()

	err = r.db.WithTx(func(tx *sql.Tx) error {
		var pending int
		if err := tx.QueryRow(
			`SELECT COUNT(*) FROM premium_requests WHERE username = ? AND status = ?`,
			username, models.PremiumPending,
		).Scan(&pending); err != nil {
			return fmt.Errorf("checking pending requests: %w", err)
		}
		if pending > 0 {
			return ErrDuplicate
		}
		if _, err := tx.Exec(
			`INSERT INTO premium_requests (id, username, status, created_at) VALUES (?, ?, ?, ?)`,
			id, username, models.PremiumPending, now,
		); err != nil {
			return fmt.Errorf("inserting premium request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.PremiumRequest{ID: id, Username: username, Status: models.PremiumPending, CreatedAt: now}, nil
}

// Resolve moves the user's pending request to approved or rejected and,
// on approval, sets the premium flag in the same transaction.
func (r *PremiumRepository) Resolve(username, status string) error {
	if status != models.PremiumApproved && status != models.PremiumRejected {
		return fmt.Errorf("invalid status %q", status)
	}

	return r.db.WithTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE premium_requests SET status = ? WHERE username = ? AND status = ?`,
			status, username, models.PremiumPending,
		)
		if err != nil {
			return fmt.Errorf("resolving premium request: %w", err)
		}
		if err := checkRowsAffected(result); err != nil {
			return err
		}

		if status == models.PremiumApproved {
			if _, err := tx.Exec(`UPDATE users SET premium = 1 WHERE username = ?`, username); err != nil {
				return fmt.Errorf("setting premium flag: %w", err)
			}
		}
		return nil
	})
}

func (r *PremiumRepository) Pending(username string) (*models.PremiumRequest, error) {
	var p models.PremiumRequest
	err := r.db.QueryRow(
		`SELECT id, username, status, created_at FROM premium_requests WHERE username = ? AND status = ?`,
		username, models.PremiumPending,
	).Scan(&p.ID, &p.Username, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying premium request: %w", err)
	}
	return &p, nil
}
