// Package handler is the HTTP boundary: chi routes for registration,
// login, session refresh, email verification, password reset, and the
// OAuth redirect/callback pairs, plus the cookie and middleware glue
// around the auth service.
package handler

import (
	"log/slog"

	"github.com/kryptas/authgate/pkg/auth"
	"github.com/kryptas/authgate/pkg/logger"
)

// Handler serves the auth API on top of the auth service.
type Handler struct {
	svc         *auth.Service
	log         *slog.Logger
	adapters    map[auth.Provider]auth.ProviderAdapter
	frontendURL string
	production  bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithProvider registers an OAuth provider adapter.
func WithProvider(adapter auth.ProviderAdapter) Option {
	return func(h *Handler) {
		h.adapters[adapter.Provider()] = adapter
	}
}

// WithProductionCookies switches session cookies to Secure with
// SameSite=None, for the frontend living on a different origin.
func WithProductionCookies() Option {
	return func(h *Handler) { h.production = true }
}

// New creates a handler. frontendURL is where OAuth callbacks land
// after a session is established.
func New(svc *auth.Service, frontendURL string, opts ...Option) *Handler {
	h := &Handler{
		svc:         svc,
		log:         logger.NewDiscard(),
		adapters:    make(map[auth.Provider]auth.ProviderAdapter),
		frontendURL: frontendURL,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
