package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kryptas/authgate/pkg/logger"
)

// Service orchestrates registration, login, logout, refresh rotation,
// email verification, password reset, and OAuth sign-in. It holds no
// mutable state of its own; all session state lives in Storage.
type Service struct {
	storage Storage
	hasher  PasswordHasher
	tokens  *TokenIssuer
	mailer  Mailer
	logger  *slog.Logger

	verificationTTL time.Duration // registration verification window
	resendTTL       time.Duration // re-sent verification window
	resetTTL        time.Duration // password reset window
}

// Option configures a Service during construction.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithVerificationTokenTTL sets the validity window for verification
// tokens issued at registration.
func WithVerificationTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.verificationTTL = ttl }
}

// WithResendTokenTTL sets the validity window for re-sent verification
// tokens.
func WithResendTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.resendTTL = ttl }
}

// WithResetTokenTTL sets the validity window for password reset tokens.
func WithResetTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.resetTTL = ttl }
}

// NewService creates the session manager. Defaults: 1h verification
// window, 24h resend window, 1h reset window, discard logger.
func NewService(storage Storage, hasher PasswordHasher, tokens *TokenIssuer, mailer Mailer, opts ...Option) *Service {
	s := &Service{
		storage:         storage,
		hasher:          hasher,
		tokens:          tokens,
		mailer:          mailer,
		logger:          logger.NewDiscard(),
		verificationTTL: 1 * time.Hour,
		resendTTL:       24 * time.Hour,
		resetTTL:        1 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokens exposes the token issuer so the transport layer can mint and
// verify access tokens with the same secret and TTLs.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a local account. The first account ever created is
// promoted to admin. A verification email failure is logged but does not
// fail the registration.
func (s *Service) Register(ctx context.Context, name, email, password string) (SafeUser, error) {
	email = normalizeEmail(email)

	_, err := s.storage.FindUserByEmail(ctx, email)
	if err == nil {
		return SafeUser{}, ErrEmailTaken
	}
	if !errors.Is(err, ErrUserNotFound) {
		return SafeUser{}, fmt.Errorf("failed to check existing user: %w", err)
	}

	role, err := s.firstUserRole(ctx)
	if err != nil {
		return SafeUser{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return SafeUser{}, err
	}

	verificationToken, err := OneTimeToken()
	if err != nil {
		return SafeUser{}, err
	}

	now := time.Now().UTC()
	user := &User{
		ID:                      uuid.New(),
		Name:                    name,
		Email:                   email,
		PasswordHash:            hash,
		Provider:                ProviderLocal,
		Role:                    role,
		IsActive:                true,
		EmailVerified:           false,
		VerificationToken:       verificationToken,
		VerificationTokenExpiry: now.Add(s.verificationTTL),
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return SafeUser{}, ErrEmailTaken
		}
		return SafeUser{}, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, user.Email, user.Name, verificationToken); err != nil {
		s.logger.ErrorContext(ctx, "failed to send verification email",
			logger.UserID(user.ID.String()),
			logger.Email(user.Email),
			logger.Error(err),
			logger.Component("auth"),
		)
	}

	return user.Safe(), nil
}

// Login verifies credentials and replaces the user's refresh session.
// Exactly one password comparison runs whether or not the account exists,
// and missing-account and wrong-password failures are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)

	user, err := s.storage.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return Session{}, fmt.Errorf("failed to look up user: %w", err)
	}

	var hash []byte
	if user != nil {
		hash = user.PasswordHash
	}
	ok := s.hasher.Verify(hash, password)
	if user == nil || !ok {
		return Session{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return Session{}, ErrAccountDisabled
	}
	if !user.EmailVerified {
		return Session{}, ErrEmailNotVerified
	}

	return s.issueSession(ctx, user)
}

// VerifyEmail consumes a verification token, marks the account verified,
// and signs the user in.
func (s *Service) VerifyEmail(ctx context.Context, token string) (Session, error) {
	user, err := s.storage.FindUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, ErrVerificationToken
		}
		return Session{}, fmt.Errorf("failed to look up verification token: %w", err)
	}
	if user.VerificationTokenExpiry.IsZero() || user.VerificationTokenExpiry.Before(time.Now().UTC()) {
		return Session{}, ErrVerificationToken
	}

	user.EmailVerified = true
	user.VerificationToken = ""
	user.VerificationTokenExpiry = time.Time{}
	if err := s.storage.UpdateUser(ctx, user); err != nil {
		return Session{}, fmt.Errorf("failed to mark email verified: %w", err)
	}

	return s.issueSession(ctx, user)
}

// ResendVerification regenerates the verification token with a longer
// window. Unlike registration, a send failure here is fatal: resending is
// the whole point of the operation.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := s.storage.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	token, err := OneTimeToken()
	if err != nil {
		return err
	}
	user.VerificationToken = token
	user.VerificationTokenExpiry = time.Now().UTC().Add(s.resendTTL)
	if err := s.storage.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, user.Email, user.Name, token); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// ForgotPassword starts a password reset. It returns nil for unknown
// emails and for accounts without a password so that responses cannot be
// used to enumerate accounts. Send failures are logged and swallowed.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := s.storage.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if len(user.PasswordHash) == 0 {
		// OAuth-only account, nothing to reset.
		return nil
	}

	token, err := OneTimeToken()
	if err != nil {
		return err
	}
	user.ResetToken = token
	user.ResetTokenExpiry = time.Now().UTC().Add(s.resetTTL)
	if err := s.storage.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Name, token); err != nil {
		s.logger.ErrorContext(ctx, "failed to send password reset email",
			logger.UserID(user.ID.String()),
			logger.Email(user.Email),
			logger.Error(err),
			logger.Component("auth"),
		)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password. The
// error is identical for a missing and an expired token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.storage.FindUserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrResetToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}
	if user.ResetTokenExpiry.IsZero() || user.ResetTokenExpiry.Before(time.Now().UTC()) {
		return ErrResetToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ResetToken = ""
	user.ResetTokenExpiry = time.Time{}
	if err := s.storage.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Logout invalidates the user's refresh session. Clearing cookies is the
// caller's job.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.storage.InvalidateRefreshSessions(ctx, userID); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}
	return nil
}

// Refresh validates a presented refresh token and rotates it: the stored
// session row is overwritten with a brand-new token and expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	user, err := s.sessionUser(ctx, refreshToken)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// User loads an account by id. Disabled accounts are reported as
// ErrAccountDisabled so callers holding a stale access token stop
// treating them as logged in.
func (s *Service) User(ctx context.Context, userID uuid.UUID) (SafeUser, error) {
	user, err := s.storage.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return SafeUser{}, ErrUserNotFound
		}
		return SafeUser{}, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return SafeUser{}, ErrAccountDisabled
	}
	return user.Safe(), nil
}

// SessionUser resolves a refresh token to its active user without
// rotating the session. The auth gate uses it so that parallel requests
// holding the same refresh cookie do not invalidate each other.
func (s *Service) SessionUser(ctx context.Context, refreshToken string) (SafeUser, error) {
	user, err := s.sessionUser(ctx, refreshToken)
	if err != nil {
		return SafeUser{}, err
	}
	return user.Safe(), nil
}

func (s *Service) sessionUser(ctx context.Context, refreshToken string) (*User, error) {
	session, err := s.storage.FindRefreshSessionByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if !session.IsValid {
		return nil, ErrSessionInvalid
	}
	if session.ExpiresAt.Before(time.Now().UTC()) {
		return nil, ErrSessionExpired
	}

	user, err := s.storage.FindUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// Stats reports aggregate account numbers for admin use.
type Stats struct {
	TotalUsers int64 `json:"total_users"`
}

// Stats returns service-wide account statistics.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	count, err := s.storage.CountUsers(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count users: %w", err)
	}
	return Stats{TotalUsers: count}, nil
}

// firstUserRole applies the bootstrap rule: an empty store makes the next
// account an admin.
func (s *Service) firstUserRole(ctx context.Context) (Role, error) {
	count, err := s.storage.CountUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count users: %w", err)
	}
	if count == 0 {
		return RoleAdmin, nil
	}
	return RoleUser, nil
}

// issueSession replaces the user's refresh session with a fresh token.
// The upsert is the only concurrency-sensitive write in the service;
// its atomicity is delegated to the store.
func (s *Service) issueSession(ctx context.Context, user *User) (Session, error) {
	token, expiresAt, err := s.tokens.RefreshToken()
	if err != nil {
		return Session{}, err
	}

	if err := s.storage.UpsertRefreshSession(ctx, &RefreshSession{
		UserID:    user.ID,
		Token:     token,
		IsValid:   true,
		ExpiresAt: expiresAt,
	}); err != nil {
		return Session{}, fmt.Errorf("failed to store refresh session: %w", err)
	}

	return Session{
		User:             user.Safe(),
		RefreshToken:     token,
		RefreshExpiresAt: expiresAt,
	}, nil
}
