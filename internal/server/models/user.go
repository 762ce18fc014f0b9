// Package models contains the persisted server-side entities.
package models

import "time"

// Defaults applied to new accounts.
const (
	DefaultBio       = "This is the default bio of a user"
	DefaultAvatarURL = "https://static.linkup.dev/avatars/default.png"
)

// User is a persisted account. Email is unique (stored lowercased and
// trimmed). RefreshToken is the single live session slot: nil means the
// account is logged out; issuing a new refresh token always replaces the
// previous value.
type User struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash string
	RefreshToken *string
	Bio          string
	AvatarURL    string
	Followers    int
	Following    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the read-facing projection of a User. It never carries the
// password hash or the refresh token.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Profile strips the secret fields from u.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		Followers:   u.Followers,
		Following:   u.Following,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
