package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kryptas/authgate/pkg/logger"
)

// OAuthProfile is the canonical identity tuple produced by a provider
// adapter after a successful callback.
type OAuthProfile struct {
	Provider   Provider
	ProviderID string
	Email      string
	Name       string
	Image      string
}

// ProviderAdapter normalizes one OAuth provider's authorization flow.
// The set of adapters is closed: Google and GitHub.
type ProviderAdapter interface {
	Provider() Provider
	AuthURL(state string) string
	ResolveProfile(ctx context.Context, code string) (OAuthProfile, error)
}

// AuthenticateOAuth signs a user in (or up) from a provider profile and
// replaces their refresh session. Resolution order:
//
//  1. an account already linked to (provider, providerID) gets its name
//     and image refreshed;
//  2. an account matching the email gets this provider linked onto it;
//  3. otherwise a new, pre-verified account is created.
//
// Step 2 merges identities by email on the strength of the provider's
// own claim. An attacker controlling an email at the provider could
// capture a dormant local account; this is a known, accepted policy,
// kept deliberately.
func (s *Service) AuthenticateOAuth(ctx context.Context, profile OAuthProfile) (Session, error) {
	if profile.ProviderID == "" {
		return Session{}, fmt.Errorf("invalid profile: missing provider user ID")
	}
	if profile.Email == "" {
		return Session{}, ErrMissingProviderEmail
	}
	profile.Email = normalizeEmail(profile.Email)

	user, err := s.storage.FindUserByProvider(ctx, profile.Provider, profile.ProviderID)
	switch {
	case err == nil:
		user, err = s.refreshOAuthProfile(ctx, user, profile)
	case errors.Is(err, ErrUserNotFound):
		user, err = s.linkOrCreateOAuthUser(ctx, profile)
	default:
		return Session{}, fmt.Errorf("failed to check provider link: %w", err)
	}
	if err != nil {
		return Session{}, err
	}

	return s.issueSession(ctx, user)
}

// refreshOAuthProfile updates a returning OAuth user with the latest
// provider profile data.
func (s *Service) refreshOAuthProfile(ctx context.Context, user *User, profile OAuthProfile) (*User, error) {
	if profile.Name != "" {
		user.Name = profile.Name
	}
	if profile.Image != "" {
		user.Image = profile.Image
	}
	user.EmailVerified = true
	if err := s.storage.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to refresh profile: %w", err)
	}
	return user, nil
}

// linkOrCreateOAuthUser attaches the provider identity to an existing
// account with the same email, or creates a new account.
func (s *Service) linkOrCreateOAuthUser(ctx context.Context, profile OAuthProfile) (*User, error) {
	existing, err := s.storage.FindUserByEmail(ctx, profile.Email)
	if err == nil {
		existing.Provider = profile.Provider
		existing.ProviderID = profile.ProviderID
		existing.EmailVerified = true
		if profile.Image != "" {
			existing.Image = profile.Image
		}
		if err := s.storage.UpdateUser(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to link provider: %w", err)
		}
		s.logger.InfoContext(ctx, "linked provider to existing account",
			logger.UserID(existing.ID.String()),
			logger.Provider(string(profile.Provider)),
			logger.Component("auth"),
		)
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	role, err := s.firstUserRole(ctx)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:            uuid.New(),
		Name:          profile.Name,
		Email:         profile.Email,
		Image:         profile.Image,
		Provider:      profile.Provider,
		ProviderID:    profile.ProviderID,
		Role:          role,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
