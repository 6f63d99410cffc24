// Package weather looks up a forecast for the trip destination and maps it
// to checklist items.
package weather

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/errors"
)

// Default Open-Meteo endpoints. Neither needs an API key.
const (
	DefaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
)

// Config for the weather client
type Config struct {
	GeocodeURL  string
	ForecastURL string
	Timeout     time.Duration // per request
}

// Client fetches forecasts from Open-Meteo.
type Client struct {
	geocodeURL  string
	forecastURL string
	client      *http.Client
}

// NewClient creates a weather client, filling in defaults.
func NewClient(cfg Config) *Client {
	if cfg.GeocodeURL == "" {
		cfg.GeocodeURL = DefaultGeocodeURL
	}
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = DefaultForecastURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		geocodeURL:  cfg.GeocodeURL,
		forecastURL: cfg.ForecastURL,
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

// place is one geocoding result
type place struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Admin1      string  `json:"admin1"`
}

type geocodeResponse struct {
	Results []place `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Time          string  `json:"time"`
		Temperature   float64 `json:"temperature_2m"`
		Precipitation float64 `json:"precipitation"`
		WeatherCode   int     `json:"weather_code"`
		WindSpeed     float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		MaxC          []float64 `json:"temperature_2m_max"`
		MinC          []float64 `json:"temperature_2m_min"`
		Precipitation []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Fetch geocodes city (narrowed by country when given) and returns today's
// forecast. Failures are WEATHER_UNAVAILABLE; a cancelled ctx is CANCELLED.
func (c *Client) Fetch(ctx context.Context, city, country string) (*checklist.Weather, error) {
	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)
	if city == "" {
		return nil, errors.NewEmptyInput("city")
	}

	p, err := c.geocode(ctx, city, country)
	if err != nil {
		return nil, c.wrap(ctx, city, err)
	}

	fc, err := c.forecast(ctx, p)
	if err != nil {
		return nil, c.wrap(ctx, city, err)
	}

	w := &checklist.Weather{
		Location:      p.label(),
		Summary:       Describe(fc.Current.WeatherCode),
		TempC:         fc.Current.Temperature,
		MinC:          fc.Current.Temperature,
		MaxC:          fc.Current.Temperature,
		Precipitation: fc.Current.Precipitation,
		WindKph:       fc.Current.WindSpeed,
		LastUpdated:   fc.Current.Time,
	}
	if len(fc.Daily.MinC) > 0 {
		w.MinC = fc.Daily.MinC[0]
	}
	if len(fc.Daily.MaxC) > 0 {
		w.MaxC = fc.Daily.MaxC[0]
	}
	if len(fc.Daily.Precipitation) > 0 {
		w.Precipitation = math.Max(w.Precipitation, fc.Daily.Precipitation[0])
	}
	return w, nil
}

func (c *Client) wrap(ctx context.Context, city string, err error) error {
	if ctx.Err() != nil || stderrors.Is(err, context.Canceled) {
		return errors.NewCancelled("weather lookup")
	}
	return errors.NewWeatherUnavailable(city, err)
}

func (c *Client) geocode(ctx context.Context, city, country string) (place, error) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "10")
	q.Set("language", "en")
	q.Set("format", "json")

	var resp geocodeResponse
	if err := c.getJSON(ctx, c.geocodeURL, q, &resp); err != nil {
		return place{}, fmt.Errorf("geocode: %w", err)
	}
	if len(resp.Results) == 0 {
		return place{}, fmt.Errorf("no location matches %q", city)
	}
	if country != "" {
		for _, p := range resp.Results {
			if strings.EqualFold(p.Country, country) || strings.EqualFold(p.CountryCode, country) {
				return p, nil
			}
		}
	}
	return resp.Results[0], nil
}

func (c *Client) forecast(ctx context.Context, p place) (forecastResponse, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(p.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(p.Longitude, 'f', 4, 64))
	q.Set("current", "temperature_2m,precipitation,weather_code,wind_speed_10m")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("forecast_days", "1")
	q.Set("wind_speed_unit", "kmh")
	q.Set("timezone", "auto")

	var resp forecastResponse
	if err := c.getJSON(ctx, c.forecastURL, q, &resp); err != nil {
		return resp, fmt.Errorf("forecast: %w", err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, base string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (p place) label() string {
	if p.Country == "" {
		return p.Name
	}
	return p.Name + ", " + p.Country
}

// Describe maps a WMO weather code to a short summary.
func Describe(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
