package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kryptas/authgate/pkg/auth"
	"github.com/kryptas/authgate/pkg/logger"
)

// envelope is the uniform JSON response shape.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handler) respond(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: status < 400, Message: message, Data: data})
}

// respondError maps service sentinels onto HTTP statuses. Unknown
// errors become a 500; in production the body stays generic so
// internals do not leak.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrVerificationToken),
		errors.Is(err, auth.ErrAlreadyVerified),
		errors.Is(err, auth.ErrResetToken),
		errors.Is(err, auth.ErrMissingProviderEmail):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrAccountDisabled),
		errors.Is(err, auth.ErrEmailNotVerified),
		errors.Is(err, auth.ErrSessionInvalid),
		errors.Is(err, auth.ErrSessionExpired),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrInvalidCode):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrPermissionDenied):
		status = http.StatusForbidden
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed",
			logger.Error(err),
			logger.Component("handler"),
		)
		if h.production {
			message = "internal server error"
		}
	}

	h.respond(w, status, message, nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respond(w, http.StatusBadRequest, "invalid request body", nil)
		return false
	}
	return true
}
