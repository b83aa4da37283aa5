package handler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kryptas/authgate/pkg/auth"
	"github.com/kryptas/authgate/pkg/logger"
)

// oauthRedirect sends the browser to the provider's consent page with
// a random state value pinned in a short-lived cookie.
func (h *Handler) oauthRedirect(w http.ResponseWriter, r *http.Request) {
	adapter, ok := h.adapter(chi.URLParam(r, "provider"))
	if !ok {
		h.respond(w, http.StatusNotFound, "unknown provider", nil)
		return
	}

	state, err := randomState()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	c := h.sessionCookie(oauthStateCookie, state, time.Now().Add(10*time.Minute))
	http.SetCookie(w, c)

	http.Redirect(w, r, adapter.AuthURL(state), http.StatusTemporaryRedirect)
}

// oauthCallback completes the flow: the state cookie must match the
// query parameter before the code is exchanged.
func (h *Handler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	adapter, ok := h.adapter(chi.URLParam(r, "provider"))
	if !ok {
		h.respond(w, http.StatusNotFound, "unknown provider", nil)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		h.respond(w, http.StatusBadRequest, "invalid oauth state", nil)
		return
	}
	http.SetCookie(w, h.sessionCookie(oauthStateCookie, "", time.Unix(0, 0)))

	code := r.URL.Query().Get("code")
	if code == "" {
		h.respond(w, http.StatusBadRequest, "missing authorization code", nil)
		return
	}

	profile, err := adapter.ResolveProfile(r.Context(), code)
	if err != nil {
		h.log.ErrorContext(r.Context(), "oauth profile resolution failed",
			logger.Error(err),
			logger.Provider(string(adapter.Provider())),
		)
		h.respondError(w, r, err)
		return
	}

	session, err := h.svc.AuthenticateOAuth(r.Context(), profile)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.establishSession(w, session); err != nil {
		h.respondError(w, r, err)
		return
	}

	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *Handler) adapter(name string) (auth.ProviderAdapter, bool) {
	adapter, ok := h.adapters[auth.Provider(name)]
	return adapter, ok
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
