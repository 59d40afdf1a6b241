//go:build openweather

package openweather

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-sim-service/internal/observability"
)

// These tests hit the real OpenWeatherMap API and require OPENWEATHER_API_KEY.
// Run with: go test -tags=openweather ./internal/adapter/openweather/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("OPENWEATHER_API_KEY")
	if key == "" {
		t.Fatal("OPENWEATHER_API_KEY must be set to run smoke tests")
	}
	return NewClient("https://api.openweathermap.org/data/2.5", key, 10*time.Second, 1,
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_CurrentObservation(t *testing.T) {
	c := smokeClient(t)

	obs, err := c.CurrentObservation(context.Background(), 51.5074, -0.1278)
	require.NoError(t, err)

	assert.NotEmpty(t, obs.LocationName)
	assert.Equal(t, "GB", obs.Country)
	assert.Greater(t, obs.Pressure, 800.0)
	assert.GreaterOrEqual(t, obs.Humidity, 0.0)
}
