package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kryptas/authgate/pkg/auth"
)

// Postgres implements auth.Storage on a pgx connection pool. The schema
// lives in the migrations directory; the refresh-session upsert relies
// on the user_id primary key for its atomic replace semantics.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL-backed credential store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const userColumns = `id, name, email, password_hash, image, provider, provider_id, role,
	is_active, email_verified, verification_token, verification_token_expiry,
	reset_token, reset_token_expiry, created_at, updated_at`

// uniqueViolation is the postgres error code for unique constraint violations.
const uniqueViolation = "23505"

func (p *Postgres) CreateUser(ctx context.Context, user *auth.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := p.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		user.ID, user.Name, user.Email, nullBytes(user.PasswordHash), user.Image,
		string(user.Provider), nullString(user.ProviderID), string(user.Role),
		user.IsActive, user.EmailVerified,
		nullString(user.VerificationToken), nullTime(user.VerificationTokenExpiry),
		nullString(user.ResetToken), nullTime(user.ResetTokenExpiry),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateUser(ctx context.Context, user *auth.User) error {
	user.UpdatedAt = time.Now().UTC()

	tag, err := p.pool.Exec(ctx, `
		UPDATE users SET
			name = $2, email = $3, password_hash = $4, image = $5,
			provider = $6, provider_id = $7, role = $8,
			is_active = $9, email_verified = $10,
			verification_token = $11, verification_token_expiry = $12,
			reset_token = $13, reset_token_expiry = $14,
			updated_at = $15
		WHERE id = $1`,
		user.ID, user.Name, user.Email, nullBytes(user.PasswordHash), user.Image,
		string(user.Provider), nullString(user.ProviderID), string(user.Role),
		user.IsActive, user.EmailVerified,
		nullString(user.VerificationToken), nullTime(user.VerificationTokenExpiry),
		nullString(user.ResetToken), nullTime(user.ResetTokenExpiry),
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (p *Postgres) FindUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return p.findUser(ctx, `WHERE id = $1`, id)
}

func (p *Postgres) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return p.findUser(ctx, `WHERE lower(email) = lower($1)`, email)
}

func (p *Postgres) FindUserByVerificationToken(ctx context.Context, token string) (*auth.User, error) {
	return p.findUser(ctx, `WHERE verification_token = $1`, token)
}

func (p *Postgres) FindUserByResetToken(ctx context.Context, token string) (*auth.User, error) {
	return p.findUser(ctx, `WHERE reset_token = $1`, token)
}

func (p *Postgres) FindUserByProvider(ctx context.Context, provider auth.Provider, providerID string) (*auth.User, error) {
	return p.findUser(ctx, `WHERE provider = $1 AND provider_id = $2`, string(provider), providerID)
}

func (p *Postgres) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (p *Postgres) UpsertRefreshSession(ctx context.Context, session *auth.RefreshSession) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO refresh_sessions (user_id, token, is_valid, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			token = EXCLUDED.token,
			is_valid = EXCLUDED.is_valid,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()`,
		session.UserID, session.Token, session.IsValid, session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert refresh session: %w", err)
	}
	return nil
}

func (p *Postgres) FindRefreshSessionByToken(ctx context.Context, token string) (*auth.RefreshSession, error) {
	var s auth.RefreshSession
	err := p.pool.QueryRow(ctx, `
		SELECT user_id, token, is_valid, expires_at
		FROM refresh_sessions WHERE token = $1`, token,
	).Scan(&s.UserID, &s.Token, &s.IsValid, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find refresh session: %w", err)
	}
	return &s, nil
}

func (p *Postgres) InvalidateRefreshSessions(ctx context.Context, userID uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE refresh_sessions SET is_valid = false, updated_at = now()
		WHERE user_id = $1`, userID,
	)
	if err != nil {
		return fmt.Errorf("invalidate refresh sessions: %w", err)
	}
	return nil
}

func (p *Postgres) findUser(ctx context.Context, where string, args ...any) (*auth.User, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, args...)

	var (
		u                       auth.User
		provider, role          string
		providerID              *string
		verificationToken       *string
		verificationTokenExpiry *time.Time
		resetToken              *string
		resetTokenExpiry        *time.Time
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Image, &provider, &providerID, &role,
		&u.IsActive, &u.EmailVerified, &verificationToken, &verificationTokenExpiry,
		&resetToken, &resetTokenExpiry, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	u.Provider = auth.Provider(provider)
	u.Role = auth.Role(role)
	u.ProviderID = deref(providerID)
	u.VerificationToken = deref(verificationToken)
	u.VerificationTokenExpiry = derefTime(verificationTokenExpiry)
	u.ResetToken = deref(resetToken)
	u.ResetTokenExpiry = derefTime(resetTokenExpiry)
	return &u, nil
}

// Empty strings and zero times are stored as NULL so the partial unique
// indexes on tokens and provider identity behave.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

var _ auth.Storage = (*Postgres)(nil)
