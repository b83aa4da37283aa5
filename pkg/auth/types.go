package auth

import (
	"time"

	"github.com/google/uuid"
)

// Role determines what a user is allowed to do. The very first account
// ever created is promoted to RoleAdmin; everyone else gets RoleUser.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Provider identifies how an account was created.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderGithub Provider = "github"
)

// User is the full identity record as persisted. PasswordHash is nil for
// OAuth-only accounts. One-time token fields are cleared after use.
type User struct {
	ID                      uuid.UUID
	Name                    string
	Email                   string
	PasswordHash            []byte
	Image                   string
	Provider                Provider
	ProviderID              string
	Role                    Role
	IsActive                bool
	EmailVerified           bool
	VerificationToken       string
	VerificationTokenExpiry time.Time
	ResetToken              string
	ResetTokenExpiry        time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Safe returns the public projection of the user. Password hashes and
// one-time tokens never leave the core.
func (u *User) Safe() SafeUser {
	return SafeUser{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Image:         u.Image,
		Provider:      u.Provider,
		Role:          u.Role,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// SafeUser is the projection returned by every operation.
type SafeUser struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Image         string    `json:"image,omitempty"`
	Provider      Provider  `json:"provider"`
	Role          Role      `json:"role"`
	IsActive      bool      `json:"is_active"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RefreshSession is the single server-side session record per user.
// A token is usable only while IsValid is true and ExpiresAt is in the
// future; it is replaced wholesale on every login or refresh.
type RefreshSession struct {
	UserID    uuid.UUID
	Token     string
	IsValid   bool
	ExpiresAt time.Time
}

// Session is the result of any operation that signs a user in. The caller
// is responsible for turning it into cookies.
type Session struct {
	User             SafeUser
	RefreshToken     string
	RefreshExpiresAt time.Time
}
