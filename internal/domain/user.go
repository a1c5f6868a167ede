package domain

import "time"

// User is a registered account. Email and username are globally unique.
// The password is only ever stored as an argon2id hash and the refresh
// token only as a SHA-256 fingerprint; neither is serialized in responses.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	PasswordHash   string    `json:"-"`
	AvatarURL      string    `json:"avatar"`
	AvatarPublicID string    `json:"avatarPublicId"`
	RefreshTokenFP *string   `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
