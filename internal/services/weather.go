package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rioplatense/aires/internal/shared"
)

const (
	forecastBaseURL = "https://api.open-meteo.com"

	forecastTimeout = 15 * time.Second
)

// ConditionCategory is the coarse English weather grouping exposed as "main"
// in the snapshot payload.
type ConditionCategory string

const (
	CategoryClear        ConditionCategory = "Clear"
	CategoryClouds       ConditionCategory = "Clouds"
	CategoryMist         ConditionCategory = "Mist"
	CategoryDrizzle      ConditionCategory = "Drizzle"
	CategoryRain         ConditionCategory = "Rain"
	CategorySnow         ConditionCategory = "Snow"
	CategoryThunderstorm ConditionCategory = "Thunderstorm"
)

// weatherCondition pairs the Spanish display label with its category.
type weatherCondition struct {
	Label    string
	Category ConditionCategory
}

// weatherCodes maps WMO weather interpretation codes as reported by
// Open-Meteo. Unmapped codes fall back to code 0.
var weatherCodes = map[int]weatherCondition{
	0:  {"Despejado", CategoryClear},
	1:  {"Mayormente despejado", CategoryClear},
	2:  {"Parcialmente nublado", CategoryClouds},
	3:  {"Nublado", CategoryClouds},
	45: {"Niebla", CategoryMist},
	48: {"Niebla helada", CategoryMist},
	51: {"Llovizna ligera", CategoryDrizzle},
	53: {"Llovizna", CategoryDrizzle},
	55: {"Llovizna intensa", CategoryDrizzle},
	56: {"Llovizna helada ligera", CategoryDrizzle},
	57: {"Llovizna helada intensa", CategoryDrizzle},
	61: {"Lluvia ligera", CategoryRain},
	63: {"Lluvia", CategoryRain},
	65: {"Lluvia intensa", CategoryRain},
	66: {"Lluvia helada ligera", CategoryRain},
	67: {"Lluvia helada intensa", CategoryRain},
	71: {"Nieve ligera", CategorySnow},
	73: {"Nieve", CategorySnow},
	75: {"Nieve intensa", CategorySnow},
	77: {"Granos de nieve", CategorySnow},
	80: {"Chubascos ligeros", CategoryRain},
	81: {"Chubascos", CategoryRain},
	82: {"Chubascos intensos", CategoryRain},
	85: {"Chubascos de nieve", CategorySnow},
	86: {"Chubascos de nieve fuertes", CategorySnow},
	95: {"Tormenta", CategoryThunderstorm},
	96: {"Tormenta con granizo", CategoryThunderstorm},
	99: {"Tormenta fuerte con granizo", CategoryThunderstorm},
}

var categoryEmoji = map[ConditionCategory]string{
	CategoryClouds:       "☁️",
	CategoryRain:         "🌧️",
	CategoryDrizzle:      "🌦️",
	CategoryThunderstorm: "⛈️",
	CategorySnow:         "❄️",
	CategoryMist:         "🌫️",
}

// fallbackEmoji shows up for categories without a dedicated glyph; the
// frontend is a music page, so the note fits.
const fallbackEmoji = "🎵"

// mapWeatherCode resolves a WMO code to its Spanish label, category and emoji.
func mapWeatherCode(code int, isDay bool) (string, ConditionCategory, string) {
	cond, ok := weatherCodes[code]
	if !ok {
		cond = weatherCodes[0]
	}

	switch {
	case cond.Category == CategoryClear && isDay:
		return cond.Label, cond.Category, "☀️"
	case cond.Category == CategoryClear:
		return cond.Label, cond.Category, "🌙"
	}

	emoji, ok := categoryEmoji[cond.Category]
	if !ok {
		emoji = fallbackEmoji
	}
	return cond.Label, cond.Category, emoji
}

// forecastResponse models the subset of the Open-Meteo forecast payload the
// relay consumes. Pointer fields and slices tolerate partial payloads.
//
// With timeformat=unixtime and timezone=auto, every timestamp is a unixtime
// computed against local wall-clock time, not true UTC.
type forecastResponse struct {
	UTCOffsetSeconds int64           `json:"utc_offset_seconds"`
	Timezone         string          `json:"timezone"`
	CurrentWeather   *currentWeather `json:"current_weather"`
	Daily            *dailyTimes     `json:"daily"`
}

type currentWeather struct {
	Temperature *float64 `json:"temperature"`
	WeatherCode *int     `json:"weathercode"`
	IsDay       *int     `json:"is_day"`
	Time        *int64   `json:"time"`
}

type dailyTimes struct {
	Sunrise []int64 `json:"sunrise"`
	Sunset  []int64 `json:"sunset"`
}

// WeatherService implements [WeatherProvider] over the Open-Meteo forecast
// API.
type WeatherService struct {
	client *resty.Client
}

// NewWeatherService creates a forecast client.
func NewWeatherService() *WeatherService {
	client := resty.New().
		SetBaseURL(forecastBaseURL).
		SetTimeout(forecastTimeout)

	return &WeatherService{client: client}
}

// FetchCurrent fetches current conditions plus today's sunrise/sunset for the
// given coordinates and assembles a [WeatherSnapshot] under the caller's
// display label.
func (w *WeatherService) FetchCurrent(ctx context.Context, lat, lon float64, label, lang string) (*WeatherSnapshot, error) {
	var payload forecastResponse
	resp, err := w.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":        strconv.FormatFloat(lat, 'f', -1, 64),
			"longitude":       strconv.FormatFloat(lon, 'f', -1, 64),
			"current_weather": "true",
			"daily":           "sunrise,sunset",
			"timezone":        "auto",
			"timeformat":      "unixtime",
		}).
		SetResult(&payload).
		Get("/v1/forecast")
	if err != nil {
		return nil, fmt.Errorf("%w: open-meteo forecast: %v", shared.ErrNetwork, err)
	}
	if !resp.IsSuccess() {
		return nil, &shared.UpstreamError{Service: "open-meteo", StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	cw := payload.CurrentWeather
	if cw == nil {
		cw = &currentWeather{}
	}

	code := 0
	if cw.WeatherCode != nil {
		code = *cw.WeatherCode
	}
	isDay := cw.IsDay == nil || *cw.IsDay != 0
	condition, category, emoji := mapWeatherCode(code, isDay)

	snapshot := &WeatherSnapshot{
		City:         label,
		Lat:          lat,
		Lon:          lon,
		Condition:    condition,
		Category:     category,
		Emoji:        emoji,
		UTCOffsetSec: payload.UTCOffsetSeconds,
		Timezone:     payload.Timezone,
	}

	if cw.Temperature != nil {
		temp := int(math.Round(*cw.Temperature))
		snapshot.TempC = &temp
	}

	// Upstream timestamps are local unixtimes; subtracting the UTC offset
	// recovers the true UTC epoch. Each conversion stands alone so one
	// missing field never blanks the others.
	if cw.Time != nil && *cw.Time != 0 {
		snapshot.EpochUTC = toUTC(*cw.Time, payload.UTCOffsetSeconds)
	}
	if payload.Daily != nil {
		if len(payload.Daily.Sunrise) > 0 {
			snapshot.SunriseUTC = toUTC(payload.Daily.Sunrise[0], payload.UTCOffsetSeconds)
		}
		if len(payload.Daily.Sunset) > 0 {
			snapshot.SunsetUTC = toUTC(payload.Daily.Sunset[0], payload.UTCOffsetSeconds)
		}
	}

	return snapshot, nil
}

func toUTC(localUnix, offsetSeconds int64) *int64 {
	utc := localUnix - offsetSeconds
	return &utc
}
