package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func googleProfile() OAuthProfile {
	return OAuthProfile{
		Provider:   ProviderGoogle,
		ProviderID: "g-12345",
		Email:      "Jane@Example.com",
		Name:       "Jane Doe",
		Image:      "https://img.example.com/jane.png",
	}
}

func TestService_AuthenticateOAuth(t *testing.T) {
	t.Parallel()

	t.Run("returning user gets profile refreshed", func(t *testing.T) {
		t.Parallel()

		storage := &MockStorage{}
		svc := newTestService(t, storage, &MockMailer{})

		user := activeUser()
		user.Provider = ProviderGoogle
		user.ProviderID = "g-12345"
		user.Name = "Old Name"

		storage.On("FindUserByProvider", mock.Anything, ProviderGoogle, "g-12345").Return(user, nil)
		storage.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *User) bool {
			return u.Name == "Jane Doe" && u.Image == "https://img.example.com/jane.png" && u.EmailVerified
		})).Return(nil)
		storage.On("UpsertRefreshSession", mock.Anything, mock.Anything).Return(nil)

		session, err := svc.AuthenticateOAuth(context.Background(), googleProfile())
		require.NoError(t, err)
		assert.Equal(t, user.ID, session.User.ID)
		assert.NotEmpty(t, session.RefreshToken)
		storage.AssertExpectations(t)
	})

	t.Run("matching email links the provider instead of duplicating", func(t *testing.T) {
		t.Parallel()

		storage := &MockStorage{}
		svc := newTestService(t, storage, &MockMailer{})

		local := activeUser() // pre-existing local account, jane@example.com
		local.EmailVerified = false

		storage.On("FindUserByProvider", mock.Anything, ProviderGoogle, "g-12345").Return(nil, ErrUserNotFound)
		storage.On("FindUserByEmail", mock.Anything, "jane@example.com").Return(local, nil)
		storage.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *User) bool {
			return u.ID == local.ID &&
				u.Provider == ProviderGoogle &&
				u.ProviderID == "g-12345" &&
				u.EmailVerified
		})).Return(nil)
		storage.On("UpsertRefreshSession", mock.Anything, mock.Anything).Return(nil)

		session, err := svc.AuthenticateOAuth(context.Background(), googleProfile())
		require.NoError(t, err)
		// Same account, not a duplicate.
		assert.Equal(t, local.ID, session.User.ID)
		storage.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("linking keeps the existing image when provider sends none", func(t *testing.T) {
		t.Parallel()

		storage := &MockStorage{}
		svc := newTestService(t, storage, &MockMailer{})

		local := activeUser()
		local.Image = "https://img.example.com/current.png"

		profile := googleProfile()
		profile.Image = ""

		storage.On("FindUserByProvider", mock.Anything, ProviderGoogle, "g-12345").Return(nil, ErrUserNotFound)
		storage.On("FindUserByEmail", mock.Anything, "jane@example.com").Return(local, nil)
		storage.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *User) bool {
			return u.Image == "https://img.example.com/current.png"
		})).Return(nil)
		storage.On("UpsertRefreshSession", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.AuthenticateOAuth(context.Background(), profile)
		require.NoError(t, err)
	})

	t.Run("new email creates a pre-verified account", func(t *testing.T) {
		t.Parallel()

		storage := &MockStorage{}
		svc := newTestService(t, storage, &MockMailer{})

		storage.On("FindUserByProvider", mock.Anything, ProviderGoogle, "g-12345").Return(nil, ErrUserNotFound)
		storage.On("FindUserByEmail", mock.Anything, "jane@example.com").Return(nil, ErrUserNotFound)
		storage.On("CountUsers", mock.Anything).Return(int64(0), nil)
		storage.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *User) bool {
			return u.Email == "jane@example.com" &&
				u.Provider == ProviderGoogle &&
				u.ProviderID == "g-12345" &&
				u.EmailVerified &&
				u.IsActive &&
				u.Role == RoleAdmin && // first account in an empty store
				u.PasswordHash == nil
		})).Return(nil)
		storage.On("UpsertRefreshSession", mock.Anything, mock.Anything).Return(nil)

		session, err := svc.AuthenticateOAuth(context.Background(), googleProfile())
		require.NoError(t, err)
		assert.True(t, session.User.EmailVerified)
		assert.NotEmpty(t, session.RefreshToken)
		assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), session.RefreshExpiresAt, 5*time.Second)
		storage.AssertExpectations(t)
	})

	t.Run("missing provider email fails", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, &MockStorage{}, &MockMailer{})

		profile := googleProfile()
		profile.Email = ""

		_, err := svc.AuthenticateOAuth(context.Background(), profile)
		require.ErrorIs(t, err, ErrMissingProviderEmail)
	})

	t.Run("missing provider user ID fails", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, &MockStorage{}, &MockMailer{})

		profile := googleProfile()
		profile.ProviderID = ""

		_, err := svc.AuthenticateOAuth(context.Background(), profile)
		require.Error(t, err)
	})
}
