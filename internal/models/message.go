package models

import "time"

type PrivateMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSummary is the denormalized "recent chats" cache. One row per
// direction: the owner sees the counterpart with the last message preview.
type ChatSummary struct {
	Owner       string    `json:"-"`
	Counterpart string    `json:"with"`
	LastMessage string    `json:"last_message"`
	LastTime    time.Time `json:"last_time"`
}

type ChatMessage struct {
	ID          string         `json:"id"`
	ChatID      string         `json:"chat_id"`
	Sender      string         `json:"sender"`
	Content     string         `json:"content"`
	Media       *string        `json:"media,omitempty"`
	ReplyTo     *string        `json:"reply_to,omitempty"`
	ForwardFrom *string        `json:"forward_from,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Reactions   map[string]int `json:"reactions,omitempty"`
}

type Reaction struct {
	MessageID string    `json:"message_id"`
	Username  string    `json:"username"`
	Scope     string    `json:"scope"` // private or group
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	ScopePrivate = "private"
	ScopeGroup   = "group"
)
