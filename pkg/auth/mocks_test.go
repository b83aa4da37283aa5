package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateUser(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStorage) UpdateUser(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStorage) FindUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockStorage) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockStorage) FindUserByVerificationToken(ctx context.Context, token string) (*User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockStorage) FindUserByResetToken(ctx context.Context, token string) (*User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockStorage) FindUserByProvider(ctx context.Context, provider Provider, providerID string) (*User, error) {
	args := m.Called(ctx, provider, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockStorage) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) UpsertRefreshSession(ctx context.Context, session *RefreshSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockStorage) FindRefreshSessionByToken(ctx context.Context, token string) (*RefreshSession, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RefreshSession), args.Error(1)
}

func (m *MockStorage) InvalidateRefreshSessions(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockMailer is a mock implementation of Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerificationEmail(ctx context.Context, email, name, token string) error {
	args := m.Called(ctx, email, name, token)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordResetEmail(ctx context.Context, email, name, token string) error {
	args := m.Called(ctx, email, name, token)
	return args.Error(0)
}

// countingHasher wraps a real hasher and counts Verify calls so tests
// can assert the timing-attack mitigation performs exactly one compare.
type countingHasher struct {
	inner       PasswordHasher
	verifyCalls int
}

func (h *countingHasher) Hash(plain string) ([]byte, error) {
	return h.inner.Hash(plain)
}

func (h *countingHasher) Verify(hash []byte, plain string) bool {
	h.verifyCalls++
	return h.inner.Verify(hash, plain)
}

// plainHasher is a fake hasher that stores passwords with a marker
// prefix. It keeps service tests fast; bcrypt behavior is covered by the
// hasher's own tests.
type plainHasher struct{}

func (plainHasher) Hash(plain string) ([]byte, error) {
	return []byte("hashed:" + plain), nil
}

func (plainHasher) Verify(hash []byte, plain string) bool {
	return string(hash) == "hashed:"+plain
}
