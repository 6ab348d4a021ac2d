package db

import (
	"fmt"
	"time"

	"vox/internal/models"
)

type SupportRepository struct {
	db *DB
}

func NewSupportRepository(db *DB) *SupportRepository {
	return &SupportRepository{db: db}
}

// Append adds one message to a ticket thread. The thread is created
// implicitly by its first message.
func (r *SupportRepository) Append(ticketID, sender, content string, isAdmin bool) (*models.SupportMessage, error) {
	id, err := GenerateID("sup")
	if err != nil {
		return nil, fmt.Errorf("generating support message ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO support_messages (id, ticket_id, sender, content, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, ticketID, sender, content, boolToInt(isAdmin), now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting support message: %w", err)
	}

	return &models.SupportMessage{
		ID:        id,
		TicketID:  ticketID,
		Sender:    sender,
		Content:   content,
		IsAdmin:   isAdmin,
		CreatedAt: now,
	}, nil
}

// Thread returns the full conversation for one ticket, oldest first.
func (r *SupportRepository) Thread(ticketID string) ([]*models.SupportMessage, error) {
	rows, err := r.db.Query(
		`SELECT id, ticket_id, sender, content, is_admin, created_at FROM support_messages
		 WHERE ticket_id = ? ORDER BY created_at, rowid`,
		ticketID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ticket thread: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.SupportMessage, 0)
	for rows.Next() {
		var m models.SupportMessage
		var isAdmin int
		if err := rows.Scan(&m.ID, &m.TicketID, &m.Sender, &m.Content, &isAdmin, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning support message: %w", err)
		}
		m.IsAdmin = isAdmin != 0
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// Exists reports whether a ticket has any messages.
func (r *SupportRepository) Exists(ticketID string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM support_messages WHERE ticket_id = ?`, ticketID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking ticket: %w", err)
	}
	return count > 0, nil
}

// Previews returns one row per ticket with its most recent message,
// newest tickets first. Admin listing.
func (r *SupportRepository) Previews() ([]*models.TicketPreview, error) {
	rows, err := r.db.Query(
		`SELECT ticket_id, content, created_at FROM support_messages
		 WHERE rowid IN (SELECT MAX(rowid) FROM support_messages GROUP BY ticket_id)
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ticket previews: %w", err)
	}
	defer rows.Close()

	previews := make([]*models.TicketPreview, 0)
	for rows.Next() {
		var p models.TicketPreview
		if err := rows.Scan(&p.TicketID, &p.LastMessage, &p.LastTime); err != nil {
			return nil, fmt.Errorf("scanning ticket preview: %w", err)
		}
		previews = append(previews, &p)
	}
	return previews, rows.Err()
}
