package openweather

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
	"github.com/couchcryptid/climate-sim-service/internal/observability"
)

// Client implements domain.WeatherProvider using the OpenWeatherMap
// current weather endpoint.
type Client struct {
	apiKey  string
	http    *resty.Client
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates an OpenWeatherMap client. Transport errors, 429s and 5xx
// responses are retried up to retries times.
func NewClient(baseURL, apiKey string, timeout time.Duration, retries int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && (r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError)
		})

	return &Client{
		apiKey:  apiKey,
		http:    rc,
		metrics: metrics,
		logger:  logger,
	}
}

// CurrentObservation returns the current weather at lat/lon in metric units.
func (c *Client) CurrentObservation(ctx context.Context, lat, lon float64) (domain.Observation, error) {
	start := time.Now()
	obs, err := c.fetch(ctx, lat, lon)
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		c.logger.Warn("weather request failed", "lat", lat, "lon", lon, "error", err)
		return domain.Observation{}, err
	}
	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	return obs, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (domain.Observation, error) {
	var body response
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   strconv.FormatFloat(lat, 'f', -1, 64),
			"lon":   strconv.FormatFloat(lon, 'f', -1, 64),
			"appid": c.apiKey,
			"units": "metric",
		}).
		SetResult(&body).
		Get("/weather")
	if err != nil {
		return domain.Observation{}, fmt.Errorf("%w: weather request: %w", domain.ErrClimateDataUnavailable, err)
	}
	if resp.IsError() {
		return domain.Observation{}, fmt.Errorf("%w: openweather status %d: %s",
			domain.ErrClimateDataUnavailable, resp.StatusCode(), truncate(resp.String(), 200))
	}
	if body.Main == nil {
		return domain.Observation{}, fmt.Errorf("%w: openweather response missing main block", domain.ErrClimateDataUnavailable)
	}

	return domain.Observation{
		Temperature:   body.Main.Temp,
		Humidity:      body.Main.Humidity,
		Pressure:      body.Main.Pressure,
		WindSpeed:     body.Wind.Speed,
		WindDirection: body.Wind.Deg,
		TempMax:       body.Main.TempMax,
		TempMin:       body.Main.TempMin,
		LocationName:  body.Name,
		Country:       body.Sys.Country,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// OpenWeatherMap API response types.

type response struct {
	Name string     `json:"name"`
	Main *mainBlock `json:"main"`
	Wind wind       `json:"wind"`
	Sys  sys        `json:"sys"`
}

type mainBlock struct {
	Temp     float64  `json:"temp"`
	Humidity float64  `json:"humidity"`
	Pressure float64  `json:"pressure"`
	TempMin  *float64 `json:"temp_min"`
	TempMax  *float64 `json:"temp_max"`
}

type wind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

type sys struct {
	Country string `json:"country"`
}
