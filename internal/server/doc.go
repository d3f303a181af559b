// Package server provides HTTP routing, middleware, and the JSON endpoint
// handlers for the relay.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers "METHOD /path" patterns on an
// [http.ServeMux], so method filtering comes from the mux itself.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing a handler to register several endpoints and keep their route definitions next to the implementation.
//
// Three handlers cover the surface:
//   - [HealthHandler] : GET /health
//   - [SpotifyHandler] : playlist search and cover lookup
//   - [WeatherHandler] : current conditions by city name or coordinates
//
// # Error Envelopes
//
// Handlers never propagate component errors as bare 500s; every failure is
// rendered as a JSON envelope with an error tag the frontend matches on
// (geo_failed, bad_params, spotify_auth_failed, spotify_search_failed,
// meteo_error, meteo_network_error).
//
// # Middleware
//
// [CORS] answers preflights and opens the API to any origin; it wraps the
// whole router. [RequestLogger] tags each request with a UUID and logs
// method, path, status and duration.
package server
