package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleConfig holds configuration for the Google OAuth provider.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_CLIENT_ID,required"`
	ClientSecret string   `env:"GOOGLE_CLIENT_SECRET,required"`
	RedirectURL  string   `env:"GOOGLE_CALLBACK_URL,required"`
	Scopes       []string `env:"GOOGLE_SCOPES" envSeparator:"," envDefault:"https://www.googleapis.com/auth/userinfo.email,https://www.googleapis.com/auth/userinfo.profile"`
}

type googleAdapter struct {
	conf       *oauth2.Config
	httpClient *http.Client
}

// NewGoogleAdapter creates the Google provider adapter.
func NewGoogleAdapter(cfg GoogleConfig) ProviderAdapter {
	return &googleAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *googleAdapter) Provider() Provider {
	return ProviderGoogle
}

func (a *googleAdapter) AuthURL(state string) string {
	return a.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ResolveProfile exchanges the authorization code for the Google profile.
func (a *googleAdapter) ResolveProfile(ctx context.Context, code string) (OAuthProfile, error) {
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		// Exchange failures are indistinguishable from a forged code.
		return OAuthProfile{}, ErrInvalidCode
	}

	u, err := a.fetchUser(ctx, tok.AccessToken)
	if err != nil {
		return OAuthProfile{}, fmt.Errorf("fetch google user: %w", err)
	}
	if u.Email == "" {
		return OAuthProfile{}, ErrMissingProviderEmail
	}

	return OAuthProfile{
		Provider:   ProviderGoogle,
		ProviderID: u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Image:      u.Picture,
	}, nil
}

func (a *googleAdapter) fetchUser(ctx context.Context, accessToken string) (*googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google api returned status %d", resp.StatusCode)
	}

	var user googleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

type googleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

var _ ProviderAdapter = (*googleAdapter)(nil)
