package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vox/internal/constants"
	"vox/internal/models"
)

type PrivateMessageRepository struct {
	db *DB
}

func NewPrivateMessageRepository(db *DB) *PrivateMessageRepository {
	return &PrivateMessageRepository{db: db}
}

// Create appends a private message and upserts the chat summary for both
// directions with an identical truncated preview and timestamp.
func (r *PrivateMessageRepository) Create(sender, recipient, content string) (*models.PrivateMessage, error) {
	id, err := GenerateID("pm")
	if err != nil {
		return nil, fmt.Errorf("generating message ID: %w", err)
	}
	now := time.Now().UTC()
	preview := truncate(content, constants.SummaryPreviewLength)

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO private_messages (id, sender, recipient, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, sender, recipient, content, now,
	); err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	upsert := `INSERT INTO chat_summaries (owner, counterpart, last_message, last_time) VALUES (?, ?, ?, ?)
		ON CONFLICT(owner, counterpart) DO UPDATE SET last_message = excluded.last_message, last_time = excluded.last_time`
	if _, err := tx.Exec(upsert, sender, recipient, preview, now); err != nil {
		return nil, fmt.Errorf("upserting sender summary: %w", err)
	}
	if _, err := tx.Exec(upsert, recipient, sender, preview, now); err != nil {
		return nil, fmt.Errorf("upserting recipient summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}

	return &models.PrivateMessage{
		ID:        id,
		Sender:    sender,
		Recipient: recipient,
		Content:   content,
		CreatedAt: now,
	}, nil
}

// History returns the most recent messages between the pair in either
// direction, capped and in chronological order.
func (r *PrivateMessageRepository) History(a, b string, limit int) ([]*models.PrivateMessage, error) {
	if limit <= 0 || limit > constants.HistoryLimit {
		limit = constants.HistoryLimit
	}

	rows, err := r.db.Query(
		`SELECT id, sender, recipient, content, created_at FROM (
			SELECT id, sender, recipient, content, created_at, rowid
			FROM private_messages
			WHERE (sender = ? AND recipient = ?) OR (sender = ? AND recipient = ?)
			ORDER BY rowid DESC LIMIT ?
		) ORDER BY rowid ASC`,
		a, b, b, a, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.PrivateMessage, 0)
	for rows.Next() {
		var m models.PrivateMessage
		if err := rows.Scan(&m.ID, &m.Sender, &m.Recipient, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (r *PrivateMessageRepository) FindByID(id string) (*models.PrivateMessage, error) {
	var m models.PrivateMessage
	err := r.db.QueryRow(
		`SELECT id, sender, recipient, content, created_at FROM private_messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.Sender, &m.Recipient, &m.Content, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying message: %w", err)
	}
	return &m, nil
}

// SoftDelete overwrites the content with the deletion placeholder if the
// caller authored the message. The row is retained.
func (r *PrivateMessageRepository) SoftDelete(id, author string) (*models.PrivateMessage, error) {
	msg, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if msg.Sender != author {
		return nil, ErrNotOwner
	}

	result, err := r.db.Exec(`UPDATE private_messages SET content = ? WHERE id = ?`,
		constants.DeletedPlaceholder, id)
	if err != nil {
		return nil, fmt.Errorf("soft-deleting message: %w", err)
	}
	if err := checkRowsAffected(result); err != nil {
		return nil, err
	}
	msg.Content = constants.DeletedPlaceholder
	return msg, nil
}

// Summaries returns the owner's recent-chats view, newest first.
func (r *PrivateMessageRepository) Summaries(owner string) ([]*models.ChatSummary, error) {
	rows, err := r.db.Query(
		`SELECT owner, counterpart, last_message, last_time FROM chat_summaries
		 WHERE owner = ? ORDER BY last_time DESC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]*models.ChatSummary, 0)
	for rows.Next() {
		var s models.ChatSummary
		if err := rows.Scan(&s.Owner, &s.Counterpart, &s.LastMessage, &s.LastTime); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}
