package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kryptas/authgate/pkg/auth"
	"github.com/kryptas/authgate/pkg/httpserver"
	"github.com/kryptas/authgate/pkg/ratelimit"
)

// Router assembles the service's routes. All /auth endpoints sit
// behind the rate limiter; healthz stays outside it so probes are
// never throttled.
func (h *Handler) Router(limiter *ratelimit.Limiter, probes ...func(context.Context) error) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(h.log, probes...))

	r.Route("/auth", func(r chi.Router) {
		if limiter != nil {
			r.Use(ratelimit.Middleware(limiter, ratelimit.ClientIP))
		}

		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Get("/verify-email/{token}", h.verifyEmail)
		r.Post("/resend-verification", h.resendVerification)
		r.Post("/forgot-password", h.forgotPassword)
		r.Post("/reset-password", h.resetPassword)

		r.Get("/{provider:google|github}", h.oauthRedirect)
		r.Get("/{provider:google|github}/callback", h.oauthCallback)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Post("/logout", h.logout)
			r.Get("/me", h.me)

			r.With(h.RequireRole(auth.RoleAdmin)).Get("/admin/overview", h.adminOverview)
		})
	})

	return r
}
