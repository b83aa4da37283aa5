package handler_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kryptas/authgate/handler"
	"github.com/kryptas/authgate/pkg/auth"
	"github.com/kryptas/authgate/pkg/storage"
)

// fakeAdapter stands in for a real OAuth provider.
type fakeAdapter struct {
	provider auth.Provider
	profile  auth.OAuthProfile
	err      error
}

func (a *fakeAdapter) Provider() auth.Provider { return a.provider }

func (a *fakeAdapter) AuthURL(state string) string {
	return "https://provider.example.com/authorize?state=" + state
}

func (a *fakeAdapter) ResolveProfile(_ context.Context, code string) (auth.OAuthProfile, error) {
	if a.err != nil {
		return auth.OAuthProfile{}, a.err
	}
	return a.profile, nil
}

func newOAuthEnv(t *testing.T, adapter auth.ProviderAdapter) *testEnv {
	t.Helper()

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer(testSecret, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	mailer := &captureMailer{}
	svc := auth.NewService(storage.NewMemory(), hasher, tokens, mailer)

	h := handler.New(svc, "https://app.example.com", handler.WithProvider(adapter))
	server := httptest.NewServer(h.Router(nil))
	t.Cleanup(server.Close)

	baseURL, err := url.Parse(server.URL)
	require.NoError(t, err)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		server:  server,
		baseURL: baseURL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		mailer: mailer,
	}
}

func TestOAuth_RedirectAndCallback(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{
		provider: auth.ProviderGoogle,
		profile: auth.OAuthProfile{
			Provider:   auth.ProviderGoogle,
			ProviderID: "google-123",
			Email:      "jane@example.com",
			Name:       "Jane",
		},
	}
	env := newOAuthEnv(t, adapter)

	// The redirect carries the state both in the URL and a cookie.
	resp := env.get(t, "/auth/google")
	defer resp.Body.Close()
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Equal(t, state, env.cookie("oauthState"))

	// The callback with the matching state establishes a session.
	resp = env.get(t, "/auth/google/callback?code=fake-code&state="+state)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Location"))
	assert.NotEmpty(t, env.cookie("accessToken"))
	assert.NotEmpty(t, env.cookie("refreshToken"))

	// The session works against protected routes.
	resp = env.get(t, "/auth/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, _, data := decodeEnvelope(t, resp)
	assert.Equal(t, "jane@example.com", data["email"])
	assert.Equal(t, true, data["email_verified"])
}

func TestOAuth_CallbackStateMismatch(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{provider: auth.ProviderGoogle}
	env := newOAuthEnv(t, adapter)

	resp := env.get(t, "/auth/google")
	defer resp.Body.Close()
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	resp = env.get(t, "/auth/google/callback?code=fake-code&state=tampered")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decodeEnvelope(t, resp)
}

func TestOAuth_CallbackWithoutState(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{provider: auth.ProviderGoogle}
	env := newOAuthEnv(t, adapter)

	resp := env.get(t, "/auth/google/callback?code=fake-code&state=whatever")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decodeEnvelope(t, resp)
}

func TestOAuth_ExchangeFailure(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{provider: auth.ProviderGoogle, err: auth.ErrInvalidCode}
	env := newOAuthEnv(t, adapter)

	resp := env.get(t, "/auth/google")
	defer resp.Body.Close()
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")

	resp = env.get(t, "/auth/google/callback?code=bad-code&state="+state)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	decodeEnvelope(t, resp)
}
