package handler

import (
	"net/http"
	"time"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
	oauthStateCookie   = "oauthState"
)

// Session cookies are httpOnly and path-scoped to the whole site. In
// production the frontend runs on another origin, so cookies need
// Secure with SameSite=None; everywhere else Lax keeps local
// development over plain HTTP working.
func (h *Handler) sessionCookie(name, value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.production {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, accessToken string, accessExpiry time.Time, refreshToken string, refreshExpiry time.Time) {
	http.SetCookie(w, h.sessionCookie(accessTokenCookie, accessToken, accessExpiry))
	http.SetCookie(w, h.sessionCookie(refreshTokenCookie, refreshToken, refreshExpiry))
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	epoch := time.Unix(0, 0)
	http.SetCookie(w, h.sessionCookie(accessTokenCookie, "", epoch))
	http.SetCookie(w, h.sessionCookie(refreshTokenCookie, "", epoch))
}
