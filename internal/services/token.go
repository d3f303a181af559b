package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rioplatense/aires/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// tokenTimeout bounds the credential-exchange call.
	tokenTimeout = 15 * time.Second

	// tokenExpiryMargin is subtracted from expires_in so a token is refreshed
	// before Spotify actually rejects it.
	tokenExpiryMargin = 60 * time.Second

	// defaultExpiresIn is assumed when the token response omits expires_in.
	defaultExpiresIn = 3600
)

// TokenCache memoizes a single client-credentials bearer token.
//
// The cache is process-wide state injected into [SpotifyService]. The mutex
// only guards the token pointer; the refresh call itself runs outside the
// lock, so two concurrent callers may both refresh. The exchange is
// idempotent and the last writer wins.
type TokenCache struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client

	mu    sync.Mutex
	token *oauth2.Token
}

// NewTokenCache creates an empty cache for the given Spotify application
// credentials. Credentials are validated on use, not construction, so a relay
// without Spotify configured can still serve weather.
func NewTokenCache(clientID, clientSecret string) *TokenCache {
	return &TokenCache{
		clientID:     strings.TrimSpace(clientID),
		clientSecret: strings.TrimSpace(clientSecret),
		tokenURL:     spotifyTokenURL,
		httpClient:   &http.Client{Timeout: tokenTimeout},
	}
}

// Token returns the cached access token, refreshing it through the Spotify
// token endpoint when absent or expired.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if tok := c.cached(); tok != "" {
		return tok, nil
	}

	if c.clientID == "" || c.clientSecret == "" {
		return "", fmt.Errorf("%w: SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET", shared.ErrMissingCredentials)
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: spotify token endpoint: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &shared.UpstreamError{Service: "spotify token", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", &shared.UpstreamError{Service: "spotify token", StatusCode: resp.StatusCode, Body: string(body)}
	}
	if payload.ExpiresIn == 0 {
		payload.ExpiresIn = defaultExpiresIn
	}

	tok := &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - tokenExpiryMargin),
	}

	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()

	return tok.AccessToken, nil
}

// cached returns the stored token when it is still ahead of its expiry,
// otherwise the empty string.
func (c *TokenCache) cached() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && c.token.AccessToken != "" && time.Now().Before(c.token.Expiry) {
		return c.token.AccessToken
	}
	return ""
}
