package handler

import (
	"context"
	"net/http"

	"github.com/kryptas/authgate/pkg/auth"
)

type contextKey struct{}

var currentUserKey contextKey

// CurrentUser returns the authenticated user stored by the auth gate.
func CurrentUser(ctx context.Context) (auth.SafeUser, bool) {
	user, ok := ctx.Value(currentUserKey).(auth.SafeUser)
	return user, ok
}

// Authenticate gates a route behind a valid session. A valid access
// cookie wins; failing that, a valid refresh cookie re-issues the
// access cookie without rotating the stored session, so concurrent
// requests with the same cookies do not log each other out.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
			if claims, err := h.svc.Tokens().VerifyAccessToken(c.Value); err == nil {
				user, err := h.svc.User(r.Context(), claims.UserID)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
					return
				}
			}
		}

		c, err := r.Cookie(refreshTokenCookie)
		if err != nil || c.Value == "" {
			h.respond(w, http.StatusUnauthorized, "authentication required", nil)
			return
		}

		user, err := h.svc.SessionUser(r.Context(), c.Value)
		if err != nil {
			h.respondError(w, r, err)
			return
		}

		accessToken, accessExpiry, err := h.svc.Tokens().AccessToken(user.ID, user.Role)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		http.SetCookie(w, h.sessionCookie(accessTokenCookie, accessToken, accessExpiry))

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// RequireRole restricts a route to users holding the given role. It
// must run after Authenticate.
func (h *Handler) RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				h.respond(w, http.StatusUnauthorized, "authentication required", nil)
				return
			}
			if user.Role != role {
				h.respondError(w, r, auth.ErrPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withUser(ctx context.Context, user auth.SafeUser) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}
