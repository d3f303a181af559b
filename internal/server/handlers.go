package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/rioplatense/aires/internal/services"
	"github.com/rioplatense/aires/internal/shared"
)

const defaultSearchLimit = 8

// writeJSON renders v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HealthHandler answers liveness probes.
type HealthHandler struct{}

func (h *HealthHandler) Routes() []string {
	return []string{"GET /health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// SpotifyHandler serves playlist search and cover lookup.
type SpotifyHandler struct {
	playlists services.PlaylistService
	logger    *log.Logger
}

// NewSpotifyHandler creates the handler for the /api/spotify endpoints.
func NewSpotifyHandler(playlists services.PlaylistService, logger *log.Logger) *SpotifyHandler {
	return &SpotifyHandler{playlists: playlists, logger: logger}
}

func (h *SpotifyHandler) Routes() []string {
	return []string{
		"GET /api/spotify/playlists",
		"GET /api/spotify/playlist_covers",
	}
}

func (h *SpotifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/spotify/playlists":
		h.search(w, r)
	case "/api/spotify/playlist_covers":
		h.covers(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SpotifyHandler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	items, err := h.playlists.SearchPlaylists(r.Context(), query, limit)
	if err != nil {
		h.logger.Warn("playlist search failed", "error", err)

		var upstream *shared.UpstreamError
		switch {
		case errors.Is(err, shared.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "query requerida"})
		case errors.Is(err, shared.ErrAuthFailed):
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error": "spotify_auth_failed", "message": err.Error(),
			})
		case errors.As(err, &upstream):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": "spotify_search_failed", "status": upstream.StatusCode, "body": upstream.Body,
			})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error": "spotify_request_failed", "message": err.Error(),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *SpotifyHandler) covers(w http.ResponseWriter, r *http.Request) {
	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "ids requeridos (comma-separated)"})
		return
	}

	covers, err := h.playlists.PlaylistCovers(r.Context(), ids)
	if err != nil {
		h.logger.Warn("cover lookup failed", "error", err)

		if errors.Is(err, shared.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "ids requeridos (comma-separated)"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "spotify_auth_failed", "message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"covers": covers})
}

// splitIDs splits a comma-separated id list, dropping blanks.
func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// WeatherHandler serves current conditions by city name or coordinates.
type WeatherHandler struct {
	locations services.LocationService
	weather   services.WeatherProvider
	logger    *log.Logger

	defaultCity string
	defaultLang string
}

// NewWeatherHandler creates the handler for the /api/weather endpoints.
func NewWeatherHandler(locations services.LocationService, weather services.WeatherProvider, cfg shared.WeatherConfig, logger *log.Logger) *WeatherHandler {
	city := cfg.DefaultCity
	if city == "" {
		city = "Buenos Aires"
	}
	lang := cfg.DefaultLang
	if lang == "" {
		lang = "es"
	}

	return &WeatherHandler{
		locations:   locations,
		weather:     weather,
		logger:      logger,
		defaultCity: city,
		defaultLang: lang,
	}
}

func (h *WeatherHandler) Routes() []string {
	return []string{
		"GET /api/weather",
		"GET /api/weather/geo",
	}
}

func (h *WeatherHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/weather":
		h.byCity(w, r)
	case "/api/weather/geo":
		h.byCoordinates(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *WeatherHandler) byCity(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		city = h.defaultCity
	}
	lang := h.lang(r)

	loc := h.locations.Resolve(r.Context(), city, lang)
	if loc == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "geo_failed", "message": fmt.Sprintf("No se pudo geocodificar '%s'", city),
		})
		return
	}

	h.respond(w, r, loc.Latitude, loc.Longitude, loc.DisplayLabel(), lang)
}

func (h *WeatherHandler) byCoordinates(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad_params", "message": "lat/lon inválidos"})
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad_params", "message": "lat/lon fuera de rango"})
		return
	}

	lang := h.lang(r)
	label := h.locations.ReverseLabel(r.Context(), lat, lon, lang)

	h.respond(w, r, lat, lon, label, lang)
}

func (h *WeatherHandler) respond(w http.ResponseWriter, r *http.Request, lat, lon float64, label, lang string) {
	snapshot, err := h.weather.FetchCurrent(r.Context(), lat, lon, label, lang)
	if err != nil {
		h.logger.Warn("forecast fetch failed", "error", err)

		var upstream *shared.UpstreamError
		if errors.As(err, &upstream) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": "meteo_error", "status": upstream.StatusCode, "body": upstream.Body,
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "meteo_network_error", "message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (h *WeatherHandler) lang(r *http.Request) string {
	if lang := strings.TrimSpace(r.URL.Query().Get("lang")); lang != "" {
		return lang
	}
	return h.defaultLang
}
