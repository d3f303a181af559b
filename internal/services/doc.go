// Package services implements the relay's upstream clients: Spotify playlist
// search and cover lookup behind a cached client-credentials token, and the
// Open-Meteo geocoding + forecast pipeline.
//
// # Spotify
//
// [TokenCache] memoizes a single bearer token with an expiry-aware refresh
// (60 second safety margin). It is the only state shared across requests and
// is injected into [SpotifyService] rather than accessed globally. Concurrent
// refreshes are tolerated; the token exchange is idempotent and the last
// writer wins.
//
// [SpotifyService] maps the search and playlist-images endpoints to
// [PlaylistSummary] values, tolerating null items, absent image lists and
// absent owner names in upstream payloads.
//
// # Weather
//
// [GeoResolver] turns free-text place names or literal "lat,lon" pairs into
// coordinates through an ordered strategy chain: direct coordinates, a local
// gazetteer keyed by normalized city names, and the Open-Meteo geocoder with
// an Argentina-first tie-break. Geocoder failures are soft; only total
// resolution failure surfaces to the caller.
//
// [WeatherService] fetches current conditions plus sunrise/sunset and
// converts the upstream's local-unixtime timestamps to true UTC epochs by
// subtracting utc_offset_seconds.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrMissingCredentials] : Spotify credentials absent, checked before any network call
//   - [shared.ErrInvalidInput] : caller input rejected before any network call
//   - [shared.ErrNetwork] : transport failure reaching an upstream
//   - [shared.UpstreamError] : non-200 upstream response with status and body
package services
