package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Allen20077/8berries/internal/domain"
)

const userinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// stateTTL bounds how long a login redirect may take to come back.
const stateTTL = 10 * time.Minute

// ErrInvalidState rejects a callback whose state token was not issued by
// this process or has expired.
var ErrInvalidState = errors.New("invalid oauth state")

// GoogleAuth drives the Google OAuth login flow.
type GoogleAuth struct {
	cfg     *oauth2.Config
	service *Service

	mu     sync.Mutex
	states map[string]time.Time
}

// NewGoogleAuth creates a Google OAuth helper. redirectURL must match one of
// the client's registered callback URLs.
func NewGoogleAuth(clientID, clientSecret, redirectURL string, service *Service) *GoogleAuth {
	return &GoogleAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		service: service,
		states:  make(map[string]time.Time),
	}
}

// Enabled reports whether Google login is configured.
func (g *GoogleAuth) Enabled() bool {
	return g.cfg.ClientID != "" && g.cfg.ClientSecret != ""
}

// LoginURL issues a fresh state token and returns the consent page URL.
func (g *GoogleAuth) LoginURL() string {
	state := uuid.NewString()

	g.mu.Lock()
	now := time.Now()
	for s, issued := range g.states {
		if now.Sub(issued) > stateTTL {
			delete(g.states, s)
		}
	}
	g.states[state] = now
	g.mu.Unlock()

	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// HandleCallback validates the state, exchanges the code, fetches the user
// profile, and returns the provisioned identity.
func (g *GoogleAuth) HandleCallback(ctx context.Context, state, code string) (domain.Identity, error) {
	g.mu.Lock()
	issued, ok := g.states[state]
	delete(g.states, state)
	g.mu.Unlock()
	if !ok || time.Since(issued) > stateTTL {
		return "", ErrInvalidState
	}

	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchanging code: %w", err)
	}

	profile, err := g.fetchProfile(ctx, token)
	if err != nil {
		return "", err
	}
	if profile.Sub == "" {
		return "", errors.New("userinfo response missing subject")
	}

	return g.service.EnsureOAuthUser(ctx, profile.Email, profile.Sub)
}

type googleProfile struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (g *GoogleAuth) fetchProfile(ctx context.Context, token *oauth2.Token) (*googleProfile, error) {
	client := g.cfg.Client(ctx, token)
	resp, err := client.Get(userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	return &profile, nil
}
