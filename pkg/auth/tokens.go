package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims is the payload recovered from a verified access token.
type AccessClaims struct {
	UserID uuid.UUID
	Role   Role
}

type accessTokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints the two credential kinds the service hands out:
// stateless HS256 access tokens and opaque server-stored refresh tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates a token issuer. The signing secret must be set;
// access and refresh TTLs are environment-dependent and chosen by the
// caller (24h/7d in production, 7d/30d otherwise).
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrMissingSigningKey
	}
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// AccessToken signs a short-lived token carrying the user's identity and
// role. Verification is purely by signature, no server-side state.
func (i *TokenIssuer) AccessToken(userID uuid.UUID, role Role) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.accessTTL)

	claims := accessTokenClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, exp, nil
}

// VerifyAccessToken checks the signature and expiry of an access token
// and recovers its claims.
func (i *TokenIssuer) VerifyAccessToken(tokenStr string) (AccessClaims, error) {
	var claims accessTokenClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AccessClaims{}, ErrTokenExpired
		}
		return AccessClaims{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return AccessClaims{}, ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return AccessClaims{}, ErrTokenInvalid
	}
	return AccessClaims{UserID: userID, Role: Role(claims.Role)}, nil
}

// AccessTokenTTL reports the validity window of issued access tokens.
func (i *TokenIssuer) AccessTokenTTL() time.Duration {
	return i.accessTTL
}

// RefreshToken generates an opaque high-entropy refresh token and its
// expiry. The token carries no information; it is only ever matched
// against the stored session row.
func (i *TokenIssuer) RefreshToken() (string, time.Time, error) {
	token, err := randomHex(32)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return token, time.Now().UTC().Add(i.refreshTTL), nil
}

// OneTimeToken generates a token for email verification and password
// reset links: 32 bytes of randomness, hex-encoded.
func OneTimeToken() (string, error) {
	token, err := randomHex(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
