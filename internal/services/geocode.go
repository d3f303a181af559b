package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	geocodingBaseURL = "https://geocoding-api.open-meteo.com"

	geocodeTimeout = 15 * time.Second

	// geocodeCount asks the geocoder for enough candidates to apply the
	// Argentina tie-break.
	geocodeCount = 5

	preferredCountry = "argentina"
)

var (
	countrySuffixRe = regexp.MustCompile(`(?i),\s*(ar|argentina)\s*$`)
	multiSpaceRe    = regexp.MustCompile(`\s{2,}`)
)

// cityCoords is a small gazetteer of known place spellings, keyed by
// normalized name. It keeps the common Buenos Aires variants resolvable
// without a network round trip.
var cityCoords = map[string][2]float64{
	"buenos aires":           {-34.6037, -58.3816},
	"buenos aires ar":        {-34.6037, -58.3816},
	"buenos aires argentina": {-34.6037, -58.3816},
	"caba":                   {-34.6037, -58.3816},
	"caba ar":                {-34.6037, -58.3816},
	"caba argentina":         {-34.6037, -58.3816},
}

// geocodeResult is a single candidate from the Open-Meteo geocoder.
type geocodeResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1"`
}

type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
}

// GeoResolver implements [LocationService] over the Open-Meteo geocoding API
// with network-avoiding shortcuts for coordinates and gazetteer hits.
type GeoResolver struct {
	client    *resty.Client
	gazetteer map[string][2]float64
}

// NewGeoResolver creates a resolver with the default gazetteer.
func NewGeoResolver() *GeoResolver {
	client := resty.New().
		SetBaseURL(geocodingBaseURL).
		SetTimeout(geocodeTimeout)

	return &GeoResolver{client: client, gazetteer: cityCoords}
}

// Resolve maps a free-text query to a location through an ordered strategy
// chain; the first strategy producing a result wins. Geocoder failures are
// swallowed so resolution can continue down the chain. Returns nil when every
// strategy fails.
func (g *GeoResolver) Resolve(ctx context.Context, query, lang string) *ResolvedLocation {
	query = strings.TrimSpace(query)

	strategies := []func(context.Context, string, string) *ResolvedLocation{
		g.fromCoordinates,
		g.fromGazetteerCleaned,
		g.fromGeocoderCleaned,
		g.fromGeocoderRaw,
		g.fromGazetteerRaw,
	}

	for _, resolve := range strategies {
		if loc := resolve(ctx, query, lang); loc != nil {
			return loc
		}
	}
	return nil
}

// fromCoordinates recognizes literal "lat,lon" queries.
func (g *GeoResolver) fromCoordinates(_ context.Context, query, _ string) *ResolvedLocation {
	parts := strings.Split(query, ",")
	if len(parts) != 2 {
		return nil
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil
	}

	return &ResolvedLocation{Name: query, Latitude: lat, Longitude: lon}
}

func (g *GeoResolver) fromGazetteerCleaned(_ context.Context, query, _ string) *ResolvedLocation {
	cleaned := cleanCountrySuffix(query)
	return g.gazetteerLookup(cleaned, cleaned)
}

func (g *GeoResolver) fromGeocoderCleaned(ctx context.Context, query, lang string) *ResolvedLocation {
	return g.geocode(ctx, cleanCountrySuffix(query), lang)
}

func (g *GeoResolver) fromGeocoderRaw(ctx context.Context, query, lang string) *ResolvedLocation {
	return g.geocode(ctx, query, lang)
}

// fromGazetteerRaw retries the gazetteer with the unmodified query as a last
// resort, in case the suffix cleaning mangled a spelling the table knows.
func (g *GeoResolver) fromGazetteerRaw(_ context.Context, query, _ string) *ResolvedLocation {
	return g.gazetteerLookup(query, query)
}

func (g *GeoResolver) gazetteerLookup(key, displayName string) *ResolvedLocation {
	coords, ok := g.gazetteer[normalizeCityKey(key)]
	if !ok {
		return nil
	}

	return &ResolvedLocation{
		Name:      displayName,
		Latitude:  coords[0],
		Longitude: coords[1],
		Country:   "Argentina",
		Admin1:    "Buenos Aires",
	}
}

// geocode queries the external geocoder, preferring an Argentina result over
// earlier candidates. Any transport or upstream failure yields nil so the
// caller can fall through to the next strategy.
func (g *GeoResolver) geocode(ctx context.Context, name, lang string) *ResolvedLocation {
	if name == "" {
		return nil
	}

	var payload geocodeResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"name":     name,
			"count":    strconv.Itoa(geocodeCount),
			"language": lang,
			"format":   "json",
		}).
		SetResult(&payload).
		Get("/v1/search")
	if err != nil || !resp.IsSuccess() || len(payload.Results) == 0 {
		return nil
	}

	pick := payload.Results[0]
	for _, candidate := range payload.Results {
		if strings.EqualFold(candidate.Country, preferredCountry) {
			pick = candidate
			break
		}
	}

	displayName := pick.Name
	if displayName == "" {
		displayName = name
	}

	return &ResolvedLocation{
		Name:      displayName,
		Latitude:  pick.Latitude,
		Longitude: pick.Longitude,
		Country:   pick.Country,
		Admin1:    pick.Admin1,
	}
}

// ReverseLabel names a coordinate pair via reverse geocoding for display in
// weather payloads. Any failure falls back to the raw "lat,lon" string.
func (g *GeoResolver) ReverseLabel(ctx context.Context, lat, lon float64, lang string) string {
	fallback := fmt.Sprintf("%v,%v", lat, lon)

	var payload geocodeResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  strconv.FormatFloat(lat, 'f', -1, 64),
			"longitude": strconv.FormatFloat(lon, 'f', -1, 64),
			"language":  lang,
		}).
		SetResult(&payload).
		Get("/v1/reverse")
	if err != nil || !resp.IsSuccess() || len(payload.Results) == 0 {
		return fallback
	}

	pick := payload.Results[0]
	parts := make([]string, 0, 3)
	for _, part := range []string{pick.Name, pick.Admin1, pick.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return fallback
	}

	return strings.Join(parts, ", ")
}

// cleanCountrySuffix strips a trailing ", AR" or ", Argentina", collapses
// doubled whitespace and trims stray separators.
func cleanCountrySuffix(q string) string {
	s := strings.TrimSpace(q)
	s = countrySuffixRe.ReplaceAllString(s, "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.Trim(s, " ,")
}

// normalizeCityKey lowercases and strips diacritics so gazetteer lookups
// tolerate accents and casing ("Cañada" and "canada" collide on purpose).
func normalizeCityKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		return stripped
	}
	return s
}
