package services

import "context"

// PlaylistService defines the Spotify operations the HTTP layer consumes.
type PlaylistService interface {
	// SearchPlaylists searches public playlists by free text. The limit is
	// clamped into [1, 20].
	SearchPlaylists(ctx context.Context, query string, limit int) ([]PlaylistSummary, error)

	// PlaylistCovers resolves each playlist ID to its first cover image URL.
	// Per-ID failures map to nil entries; one failing ID never aborts the batch.
	PlaylistCovers(ctx context.Context, ids []string) (map[string]*string, error)
}

// LocationService resolves place names and coordinates for the weather endpoints.
type LocationService interface {
	// Resolve maps a free-text query to a location, or nil when every
	// strategy fails.
	Resolve(ctx context.Context, query, lang string) *ResolvedLocation

	// ReverseLabel names a coordinate pair for display, falling back to
	// "lat,lon" when reverse geocoding fails.
	ReverseLabel(ctx context.Context, lat, lon float64, lang string) string
}

// WeatherProvider fetches current conditions for resolved coordinates.
type WeatherProvider interface {
	FetchCurrent(ctx context.Context, lat, lon float64, label, lang string) (*WeatherSnapshot, error)
}

// PlaylistSummary is the reshaped playlist payload served to the frontend.
//
// Pointer fields render as JSON null when the upstream omits them.
type PlaylistSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Image *string `json:"image"`
	URL   *string `json:"url"`
	Owner *string `json:"owner"`
}

// ResolvedLocation is a canonical place produced by [GeoResolver].
//
// Immutable once constructed; a fresh value is produced per request.
type ResolvedLocation struct {
	Name      string
	Latitude  float64
	Longitude float64
	Country   string
	Admin1    string
}

// DisplayLabel renders the location as "name, country", omitting the country
// when unknown.
func (l *ResolvedLocation) DisplayLabel() string {
	if l.Country == "" {
		return l.Name
	}
	return l.Name + ", " + l.Country
}

// WeatherSnapshot is the normalized current-conditions payload.
//
// Field names match the JSON contract the frontend already consumes. All
// epoch fields are true UTC; nil pointers render as JSON null.
type WeatherSnapshot struct {
	City         string            `json:"city"`
	Lat          float64           `json:"lat"`
	Lon          float64           `json:"lon"`
	TempC        *int              `json:"temp"`
	Condition    string            `json:"weather"`
	Category     ConditionCategory `json:"main"`
	Emoji        string            `json:"emoji"`
	Icon         string            `json:"icon"`
	EpochUTC     *int64            `json:"dt"`
	UTCOffsetSec int64             `json:"tz_offset_sec"`
	Timezone     string            `json:"timezone"`
	SunriseUTC   *int64            `json:"sunrise"`
	SunsetUTC    *int64            `json:"sunset"`
}
