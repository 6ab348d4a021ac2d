package db

import (
	"database/sql"
	"fmt"
	"time"

	"vox/internal/models"
)

type ReactionRepository struct {
	db *DB
}

func NewReactionRepository(db *DB) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Set enforces one active reaction per (message, user, scope): any prior
// reaction for the key is removed before the new one is inserted, in one
// transaction.
func (r *ReactionRepository) Set(messageID, username, scope, emoji string) (*models.Reaction, error) {
	now := time.Now().UTC()

	err := r.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`DELETE FROM reactions WHERE message_id = ? AND username = ? AND scope = ?`,
			messageID, username, scope,
		); err != nil {
			return fmt.Errorf("removing prior reaction: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO reactions (message_id, username, scope, emoji, created_at) VALUES (?, ?, ?, ?, ?)`,
			messageID, username, scope, emoji, now,
		); err != nil {
			return fmt.Errorf("inserting reaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.Reaction{
		MessageID: messageID,
		Username:  username,
		Scope:     scope,
		Emoji:     emoji,
		CreatedAt: now,
	}, nil
}

// ForMessage returns the active reactions on a message within one scope.
func (r *ReactionRepository) ForMessage(messageID, scope string) ([]*models.Reaction, error) {
	rows, err := r.db.Query(
		`SELECT message_id, username, scope, emoji, created_at FROM reactions
		 WHERE message_id = ? AND scope = ?`,
		messageID, scope,
	)
	if err != nil {
		return nil, fmt.Errorf("querying reactions: %w", err)
	}
	defer rows.Close()

	reactions := make([]*models.Reaction, 0)
	for rows.Next() {
		var re models.Reaction
		if err := rows.Scan(&re.MessageID, &re.Username, &re.Scope, &re.Emoji, &re.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reaction: %w", err)
		}
		reactions = append(reactions, &re)
	}
	return reactions, rows.Err()
}
