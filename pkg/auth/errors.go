package auth

import "errors"

// Storage errors returned by Storage implementations.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrEmailTaken      = errors.New("email already in use")
)

// Credential errors. Login failures deliberately share one message so
// callers cannot distinguish a missing account from a wrong password.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("your account is disabled")
	ErrEmailNotVerified   = errors.New("please verify your email")
)

// One-time token errors. Missing and expired tokens share a message to
// avoid leaking which check failed.
var (
	ErrVerificationToken = errors.New("invalid or expired verification token")
	ErrAlreadyVerified   = errors.New("email is already verified")
	ErrResetToken        = errors.New("invalid or expired token")
)

// Refresh session errors.
var (
	ErrSessionInvalid = errors.New("session is no longer valid")
	ErrSessionExpired = errors.New("session expired")
)

// Access token errors.
var (
	ErrMissingSigningKey = errors.New("token signing secret is not configured")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
)

// OAuth errors.
var (
	ErrInvalidCode          = errors.New("invalid authorization code")
	ErrMissingProviderEmail = errors.New("identity provider did not disclose an email address")
)

// Authorization errors.
var ErrPermissionDenied = errors.New("not authorized to access this resource")
