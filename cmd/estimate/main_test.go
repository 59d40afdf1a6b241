package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_PrintsReport(t *testing.T) {
	opts := options{
		lat:        40.71,
		lon:        -74.01,
		artifact:   "tower.DWG",
		kind:       domain.DefaultSimulationKind,
		buildingID: "b-1",
		obs:        domain.Observation{Temperature: 24.5, Humidity: 60, LocationName: "New York", Country: "US"},
	}

	var buf bytes.Buffer
	require.NoError(t, run(opts, &buf))

	var got report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, domain.ZoneTemperate, got.Profile.ClimateZone)
	assert.Equal(t, domain.ArtifactCAD, got.Geometry.Type)
	assert.Equal(t, "b-1", got.Result.BuildingID)
	assert.True(t, got.Result.Timestamp.Equal(fixedNow))
}

func TestRun_IsReproducible(t *testing.T) {
	opts := options{lat: -33.9, lon: 151.2, artifact: "plan.png", kind: "solar_analysis", buildingID: "b-2"}

	var first, second bytes.Buffer
	require.NoError(t, run(opts, &first))
	require.NoError(t, run(opts, &second))
	assert.Equal(t, first.String(), second.String())
}

func TestRun_RejectsBadCoordinates(t *testing.T) {
	var buf bytes.Buffer
	err := run(options{lat: 91, lon: 0}, &buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Zero(t, buf.Len())
}
