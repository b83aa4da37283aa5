// Package storage provides auth.Storage implementations: a PostgreSQL
// store for deployments and an in-memory store for tests and local
// development.
package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kryptas/authgate/pkg/auth"
)

// Memory is an in-memory credential store. All methods are safe for
// concurrent use; the single mutex stands in for the database's
// single-row transactional guarantee on the session upsert.
type Memory struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]auth.User
	sessions map[uuid.UUID]auth.RefreshSession
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uuid.UUID]auth.User),
		sessions: make(map[uuid.UUID]auth.RefreshSession),
	}
}

func (m *Memory) CreateUser(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return auth.ErrEmailTaken
		}
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) UpdateUser(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return auth.ErrUserNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) FindUserByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*auth.User, error) {
	return m.findUser(func(u auth.User) bool {
		return strings.EqualFold(u.Email, email)
	})
}

func (m *Memory) FindUserByVerificationToken(_ context.Context, token string) (*auth.User, error) {
	return m.findUser(func(u auth.User) bool {
		return u.VerificationToken != "" && u.VerificationToken == token
	})
}

func (m *Memory) FindUserByResetToken(_ context.Context, token string) (*auth.User, error) {
	return m.findUser(func(u auth.User) bool {
		return u.ResetToken != "" && u.ResetToken == token
	})
}

func (m *Memory) FindUserByProvider(_ context.Context, provider auth.Provider, providerID string) (*auth.User, error) {
	return m.findUser(func(u auth.User) bool {
		return u.Provider == provider && u.ProviderID != "" && u.ProviderID == providerID
	})
}

func (m *Memory) CountUsers(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

func (m *Memory) UpsertRefreshSession(_ context.Context, session *auth.RefreshSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.UserID] = *session
	return nil
}

func (m *Memory) FindRefreshSessionByToken(_ context.Context, token string) (*auth.RefreshSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.sessions {
		if s.Token == token {
			out := s
			return &out, nil
		}
	}
	return nil, auth.ErrSessionNotFound
}

func (m *Memory) InvalidateRefreshSessions(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		s.IsValid = false
		m.sessions[userID] = s
	}
	return nil
}

func (m *Memory) findUser(match func(auth.User) bool) (*auth.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if match(u) {
			out := u
			return &out, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

var _ auth.Storage = (*Memory)(nil)
