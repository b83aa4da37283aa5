package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kryptas/authgate/pkg/auth"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		h.respond(w, http.StatusBadRequest, "email and password are required", nil)
		return
	}

	user, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respond(w, http.StatusCreated, "registered, please verify your email", user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.establishSession(w, session); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, "logged in", session.User)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		h.respond(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	if err := h.svc.Logout(r.Context(), user.ID); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.clearSessionCookies(w)
	h.respond(w, http.StatusOK, "logged out", nil)
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	session, err := h.svc.VerifyEmail(r.Context(), token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.establishSession(w, session); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, "email verified", session.User)
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *Handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.svc.ResendVerification(r.Context(), req.Email); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, "verification email sent", nil)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		h.respondError(w, r, err)
		return
	}

	// The same answer regardless of whether the account exists.
	h.respond(w, http.StatusOK, "if that email is registered, a reset link is on its way", nil)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Password == "" {
		h.respond(w, http.StatusBadRequest, "password is required", nil)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, "password updated, please log in", nil)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		h.respond(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	h.respond(w, http.StatusOK, "", user)
}

func (h *Handler) adminOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, "", stats)
}

// establishSession sets both session cookies for a freshly issued
// session.
func (h *Handler) establishSession(w http.ResponseWriter, session auth.Session) error {
	accessToken, accessExpiry, err := h.svc.Tokens().AccessToken(session.User.ID, session.User.Role)
	if err != nil {
		return err
	}
	h.setSessionCookies(w, accessToken, accessExpiry, session.RefreshToken, session.RefreshExpiresAt)
	return nil
}
