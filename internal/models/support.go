package models

import "time"

// SupportMessage belongs to a thread keyed by TicketID: the originating
// username, or a generated guest token for unauthenticated senders.
type SupportMessage struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketPreview is one row of the admin thread listing.
type TicketPreview struct {
	TicketID    string    `json:"ticket_id"`
	LastMessage string    `json:"last_message"`
	LastTime    time.Time `json:"last_time"`
}
