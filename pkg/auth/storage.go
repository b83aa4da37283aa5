package auth

import (
	"context"

	"github.com/google/uuid"
)

// Storage is the credential store contract consumed by the service.
// Implementations return ErrUserNotFound / ErrSessionNotFound for missing
// rows and ErrEmailTaken when a unique email constraint is violated.
//
// UpsertRefreshSession must atomically create or replace the single
// session row keyed by user ID. Two concurrent logins for the same user
// race to overwrite it; last write wins, which is the intended
// single-session-per-account behavior.
type Storage interface {
	CreateUser(ctx context.Context, user *User) error
	UpdateUser(ctx context.Context, user *User) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByVerificationToken(ctx context.Context, token string) (*User, error)
	FindUserByResetToken(ctx context.Context, token string) (*User, error)
	FindUserByProvider(ctx context.Context, provider Provider, providerID string) (*User, error)
	CountUsers(ctx context.Context) (int64, error)

	UpsertRefreshSession(ctx context.Context, session *RefreshSession) error
	FindRefreshSessionByToken(ctx context.Context, token string) (*RefreshSession, error)
	InvalidateRefreshSessions(ctx context.Context, userID uuid.UUID) error
}

// Mailer is the outbound email capability consumed by the service. The
// service decides per flow whether a send failure is fatal.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, name, token string) error
	SendPasswordResetEmail(ctx context.Context, email, name, token string) error
}
