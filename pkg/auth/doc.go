// Package auth implements the credential and session management core:
// local account registration, password and OAuth (Google/GitHub) login,
// signed access tokens, opaque refresh tokens with rotation-on-use, and
// the email-verification and password-reset token lifecycles.
//
// # Architecture
//
// Service is the session manager. It depends on three injected
// capabilities: a Storage (the credential store, one refresh-session row
// per user), a PasswordHasher, and a Mailer. TokenIssuer mints HS256
// access tokens carrying {userID, role} and opaque 64-char hex refresh
// tokens. Provider adapters (NewGoogleAdapter, NewGitHubAdapter)
// normalize OAuth callbacks into an OAuthProfile consumed by
// Service.AuthenticateOAuth.
//
// The design is single-session-per-account: every successful login,
// email verification, OAuth callback, or refresh replaces the user's
// refresh session via an atomic upsert. Concurrent logins legitimately
// invalidate each other; last write wins.
//
// # Usage
//
//	hasher, _ := auth.NewBcryptHasher(bcrypt.DefaultCost)
//	tokens, _ := auth.NewTokenIssuer(secret, 24*time.Hour, 7*24*time.Hour)
//	svc := auth.NewService(storage, hasher, tokens, mailer,
//		auth.WithLogger(log),
//	)
//
//	user, err := svc.Register(ctx, "Jane", "jane@example.com", "s3cret")
//	session, err := svc.Login(ctx, "jane@example.com", "s3cret")
//
// # Security notes
//
// Login performs exactly one bcrypt comparison whether or not the
// account exists, and failure messages do not distinguish the cause.
// ForgotPassword never reveals whether an account exists. The OAuth
// merge-by-email policy in AuthenticateOAuth is documented on the
// method; it trusts the provider's email claim.
package auth
