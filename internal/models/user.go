package models

import "time"

const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleCreator = "creator"
)

type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Bio          string    `json:"bio,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	Crystals     int64     `json:"crystals"`
	Premium      bool      `json:"premium"`
	Verified     bool      `json:"verified"`
	Frozen       bool      `json:"frozen"`
	Banned       bool      `json:"banned"`
	Deleted      bool      `json:"deleted"`
	DeleteReason *string   `json:"-"`
	NftUses      int64     `json:"nft_uses"`
	Role         string    `json:"role"`
	SessionToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user may invoke privileged operations.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleCreator
}

// Profile is the public view of a user returned by search and lookups.
type Profile struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	Premium     bool      `json:"premium"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) PublicProfile() *Profile {
	return &Profile{
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		Avatar:      u.Avatar,
		Premium:     u.Premium,
		Verified:    u.Verified,
		CreatedAt:   u.CreatedAt,
	}
}
