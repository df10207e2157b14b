package users

import (
	"time"

	"probate-backend/internal/shared/auth"
)

// User is a stored profile. PasswordHash is empty for accounts that only
// sign in with Google.
type User struct {
	ID           string
	Email        string
	FullName     string
	PictureURL   string
	Phone        string
	Role         auth.Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session builds the token identity for u.
func (u User) Session() auth.Session {
	role := u.Role
	if role == "" {
		role = auth.RoleClient
	}
	return auth.Session{
		UserID:  u.ID,
		Email:   u.Email,
		Name:    u.FullName,
		Picture: u.PictureURL,
		Role:    role,
	}
}
