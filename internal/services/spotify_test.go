package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rioplatense/aires/internal/shared"
	"golang.org/x/oauth2"
)

// cachedTokens returns a TokenCache that serves "test_token" without a
// network call.
func cachedTokens() *TokenCache {
	cache := NewTokenCache("id", "secret")
	cache.token = &oauth2.Token{AccessToken: "test_token", Expiry: time.Now().Add(time.Hour)}
	return cache
}

func TestSpotifyService(t *testing.T) {
	t.Run("SearchPlaylists", func(t *testing.T) {
		t.Run("Empty Query", func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
			}))
			defer srv.Close()

			svc := NewSpotifyService(cachedTokens(), "AR")
			svc.baseURL = srv.URL

			_, err := svc.SearchPlaylists(context.Background(), "   ", 8)
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}

			if calls != 0 {
				t.Errorf("expected validation before any network call, got %d calls", calls)
			}
		})

		t.Run("Limit Clamping", func(t *testing.T) {
			var gotLimit string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotLimit = r.URL.Query().Get("limit")
				w.Write([]byte(`{"playlists": {"items": []}}`))
			}))
			defer srv.Close()

			svc := NewSpotifyService(cachedTokens(), "AR")
			svc.baseURL = srv.URL

			if _, err := svc.SearchPlaylists(context.Background(), "rock", 500); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if gotLimit != "20" {
				t.Errorf("expected limit clamped to 20, got %s", gotLimit)
			}

			if _, err := svc.SearchPlaylists(context.Background(), "rock", 0); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if gotLimit != "1" {
				t.Errorf("expected limit clamped to 1, got %s", gotLimit)
			}
		})

		t.Run("Request Shape", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search" {
					t.Errorf("expected /search, got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test_token" {
					t.Errorf("expected bearer token header, got %s", got)
				}

				q := r.URL.Query()
				if q.Get("type") != "playlist" {
					t.Errorf("expected type=playlist, got %s", q.Get("type"))
				}
				if q.Get("market") != "AR" {
					t.Errorf("expected market=AR, got %s", q.Get("market"))
				}

				w.Write([]byte(`{"playlists": {"items": []}}`))
			}))
			defer srv.Close()

			svc := NewSpotifyService(cachedTokens(), "AR")
			svc.baseURL = srv.URL

			if _, err := svc.SearchPlaylists(context.Background(), "tango", 8); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Tolerates Sparse Items", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"playlists": {"items": [
					null,
					{"id": "p1", "name": "Full", "images": [{"url": "http://img/1"}],
					 "external_urls": {"spotify": "http://open/1"},
					 "owner": {"display_name": "dj"}},
					{"id": "p2", "name": "Sparse"}
				]}}`))
			}))
			defer srv.Close()

			svc := NewSpotifyService(cachedTokens(), "AR")
			svc.baseURL = srv.URL

			items, err := svc.SearchPlaylists(context.Background(), "tango", 8)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(items) != 2 {
				t.Fatalf("expected null item dropped, got %d items", len(items))
			}

			full := items[0]
			if full.Image == nil || *full.Image != "http://img/1" {
				t.Error("expected image URL on full item")
			}
			if full.URL == nil || *full.URL != "http://open/1" {
				t.Error("expected external URL on full item")
			}
			if full.Owner == nil || *full.Owner != "dj" {
				t.Error("expected owner name on full item")
			}

			sparse := items[1]
			if sparse.Image != nil || sparse.URL != nil || sparse.Owner != nil {
				t.Error("expected absent fields to stay nil on sparse item")
			}
		})

		t.Run("Upstream Error", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error": {"status": 403}}`))
			}))
			defer srv.Close()

			svc := NewSpotifyService(cachedTokens(), "AR")
			svc.baseURL = srv.URL

			_, err := svc.SearchPlaylists(context.Background(), "tango", 8)

			var upstream *shared.UpstreamError
			if !errors.As(err, &upstream) {
				t.Fatalf("expected UpstreamError, got %v", err)
			}
			if upstream.StatusCode != http.StatusForbidden {
				t.Errorf("expected status 403, got %d", upstream.StatusCode)
			}
		})

		t.Run("Auth Failure", func(t *testing.T) {
			svc := NewSpotifyService(NewTokenCache("", ""), "AR")

			_, err := svc.SearchPlaylists(context.Background(), "tango", 8)
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("PlaylistCovers", func(t *testing.T) {
		t.Run("Empty ID List", func(t *testing.T) {
			svc := NewSpotifyService(cachedTokens(), "AR")

			_, err := svc.PlaylistCovers(context.Background(), nil)
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("Per-ID Isolation", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/playlists/a/images":
					w.Write([]byte(`[{"url": "http://img/a"}]`))
				case "/playlists/b/images":
					w.WriteHeader(http.StatusInternalServerError)
				case "/playlists/c/images":
					w.Write([]byte(`[{"url": "http://img/c"}, {"url": "http://img/c-small"}]`))
				default:
					t.Errorf("unexpected path %s", r.URL.Path)
				}
			}))
			defer srv.Close()

			svc := NewSpotifyService(cachedTokens(), "AR")
			svc.baseURL = srv.URL

			covers, err := svc.PlaylistCovers(context.Background(), []string{"a", "b", "c"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if covers["a"] == nil || *covers["a"] != "http://img/a" {
				t.Error("expected cover URL for id a")
			}
			if covers["b"] != nil {
				t.Error("expected nil cover for failing id b")
			}
			if covers["c"] == nil || *covers["c"] != "http://img/c" {
				t.Error("expected first image URL for id c")
			}
		})

		t.Run("Empty Image List", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			}))
			defer srv.Close()

			svc := NewSpotifyService(cachedTokens(), "AR")
			svc.baseURL = srv.URL

			covers, err := svc.PlaylistCovers(context.Background(), []string{"empty"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if covers["empty"] != nil {
				t.Error("expected nil cover for empty image list")
			}
		})
	})

	t.Run("Interface Compliance", func(t *testing.T) {
		var _ PlaylistService = NewSpotifyService(cachedTokens(), "AR")
	})
}
