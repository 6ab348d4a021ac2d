package models

import "time"

type Gift struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Sender    string    `json:"sender"`
	GiftID    string    `json:"gift_id"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	PremiumPending  = "pending"
	PremiumApproved = "approved"
	PremiumRejected = "rejected"
)

type PremiumRequest struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Alias struct {
	Alias     string    `json:"alias"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats is the admin counters snapshot.
type Stats struct {
	Users           int64 `json:"users"`
	PrivateMessages int64 `json:"private_messages"`
	ChatMessages    int64 `json:"chat_messages"`
	Chats           int64 `json:"chats"`
	Online          int   `json:"online"`
}
