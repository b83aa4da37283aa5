package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubConfig holds configuration for the GitHub OAuth provider.
type GitHubConfig struct {
	ClientID     string   `env:"GITHUB_CLIENT_ID,required"`
	ClientSecret string   `env:"GITHUB_CLIENT_SECRET,required"`
	RedirectURL  string   `env:"GITHUB_CALLBACK_URL,required"`
	Scopes       []string `env:"GITHUB_SCOPES" envSeparator:"," envDefault:"user:email"`
}

type githubAdapter struct {
	conf       *oauth2.Config
	httpClient *http.Client
}

// NewGitHubAdapter creates the GitHub provider adapter.
func NewGitHubAdapter(cfg GitHubConfig) ProviderAdapter {
	return &githubAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     github.Endpoint,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *githubAdapter) Provider() Provider {
	return ProviderGithub
}

func (a *githubAdapter) AuthURL(state string) string {
	return a.conf.AuthCodeURL(state)
}

// ResolveProfile exchanges the authorization code for the GitHub profile.
// GitHub does not return a reliable email on /user, so /user/emails is
// always consulted, preferring the primary verified address.
func (a *githubAdapter) ResolveProfile(ctx context.Context, code string) (OAuthProfile, error) {
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return OAuthProfile{}, ErrInvalidCode
	}

	u, err := a.fetchUser(ctx, tok.AccessToken)
	if err != nil {
		return OAuthProfile{}, fmt.Errorf("fetch github user: %w", err)
	}

	emails, err := a.fetchEmails(ctx, tok.AccessToken)
	if err != nil {
		return OAuthProfile{}, fmt.Errorf("fetch github emails: %w", err)
	}

	var email string
	for _, e := range emails {
		if e.Primary && e.Verified {
			email = e.Email
			break
		}
	}
	if email == "" {
		for _, e := range emails {
			if e.Verified {
				email = e.Email
				break
			}
		}
	}
	if email == "" {
		return OAuthProfile{}, ErrMissingProviderEmail
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}

	return OAuthProfile{
		Provider:   ProviderGithub,
		ProviderID: strconv.FormatInt(u.ID, 10),
		Email:      email,
		Name:       name,
		Image:      u.AvatarURL,
	}, nil
}

func (a *githubAdapter) fetchUser(ctx context.Context, accessToken string) (*githubUser, error) {
	var user githubUser
	if err := a.getJSON(ctx, "https://api.github.com/user", accessToken, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *githubAdapter) fetchEmails(ctx context.Context, accessToken string) ([]githubEmail, error) {
	var emails []githubEmail
	if err := a.getJSON(ctx, "https://api.github.com/user/emails", accessToken, &emails); err != nil {
		return nil, err
	}
	return emails, nil
}

func (a *githubAdapter) getJSON(ctx context.Context, url, accessToken string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

var _ ProviderAdapter = (*githubAdapter)(nil)
