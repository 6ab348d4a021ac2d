package models

import "time"

const (
	ChatRoleOwner  = "owner"
	ChatRoleMember = "member"
)

type Chat struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ChatType    string    `json:"chat_type"`
	Owner       string    `json:"owner"`
	InviteLink  string    `json:"link"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChatMember struct {
	ChatID   string    `json:"chat_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
