// Spotify Web API client for public playlist search and cover lookup.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rioplatense/aires/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	searchTimeout = 15 * time.Second
	coverTimeout  = 12 * time.Second

	maxSearchLimit = 20
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Owner represents a playlist owner.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifySimplePlaylist represents a simplified playlist object as returned
// by the search endpoint.
type SpotifySimplePlaylist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Images       []SpotifyImage    `json:"images"`
	ExternalURLs map[string]string `json:"external_urls"`
	Owner        *Owner            `json:"owner"`
}

// searchResponse wraps the playlists page of a /search call. Spotify is known
// to interleave null entries in the items array, hence the pointer slice.
type searchResponse struct {
	Playlists struct {
		Items []*SpotifySimplePlaylist `json:"items"`
	} `json:"playlists"`
}

// SpotifyService implements [PlaylistService] against the public Web API
// using a client-credentials token from the injected [TokenCache].
type SpotifyService struct {
	tokens     *TokenCache
	baseURL    string
	market     string
	httpClient *http.Client
}

// NewSpotifyService creates a Spotify service searching in the given market
// region (e.g. "AR").
func NewSpotifyService(tokens *TokenCache, market string) *SpotifyService {
	if market == "" {
		market = "AR"
	}
	return &SpotifyService{
		tokens:     tokens,
		baseURL:    spotifyBaseURL,
		market:     market,
		httpClient: http.DefaultClient,
	}
}

// get performs an authenticated GET against the Spotify API and returns the
// raw status and body.
func (s *SpotifyService) get(ctx context.Context, endpoint, token string, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, body, nil
}

// SearchPlaylists searches public playlists by free text.
//
// The limit is clamped into [1, 20]; an empty query is rejected before any
// network call.
func (s *SpotifyService) SearchPlaylists(ctx context.Context, query string, limit int) ([]PlaylistSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query requerida", shared.ErrInvalidInput)
	}

	if limit < 1 {
		limit = 1
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	params := url.Values{
		"q":      {query},
		"type":   {"playlist"},
		"limit":  {fmt.Sprintf("%d", limit)},
		"market": {s.market},
	}

	status, body, err := s.get(ctx, "/search?"+params.Encode(), token, searchTimeout)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &shared.UpstreamError{Service: "spotify search", StatusCode: status, Body: string(body)}
	}

	var page searchResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	items := make([]PlaylistSummary, 0, len(page.Playlists.Items))
	for _, it := range page.Playlists.Items {
		if it == nil {
			continue
		}
		items = append(items, summarize(it))
	}

	return items, nil
}

// summarize reshapes an upstream playlist into the frontend payload,
// tolerating absent image lists, URLs and owner names.
func summarize(p *SpotifySimplePlaylist) PlaylistSummary {
	out := PlaylistSummary{ID: p.ID, Name: p.Name}

	if len(p.Images) > 0 && p.Images[0].URL != "" {
		u := p.Images[0].URL
		out.Image = &u
	}
	if ext, ok := p.ExternalURLs["spotify"]; ok && ext != "" {
		out.URL = &ext
	}
	if p.Owner != nil && p.Owner.DisplayName != "" {
		owner := p.Owner.DisplayName
		out.Owner = &owner
	}

	return out
}

// PlaylistCovers resolves each playlist ID to its first cover image URL.
//
// Failures are isolated per ID: a non-200, an empty image list or a transport
// error maps that ID to nil without aborting the batch.
func (s *SpotifyService) PlaylistCovers(ctx context.Context, ids []string) (map[string]*string, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: ids requeridos", shared.ErrInvalidInput)
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	covers := make(map[string]*string, len(ids))
	for _, id := range ids {
		covers[id] = s.coverFor(ctx, id, token)
	}

	return covers, nil
}

func (s *SpotifyService) coverFor(ctx context.Context, id, token string) *string {
	status, body, err := s.get(ctx, "/playlists/"+url.PathEscape(id)+"/images", token, coverTimeout)
	if err != nil || status != http.StatusOK {
		return nil
	}

	var images []SpotifyImage
	if err := json.Unmarshal(body, &images); err != nil || len(images) == 0 || images[0].URL == "" {
		return nil
	}

	return &images[0].URL
}
