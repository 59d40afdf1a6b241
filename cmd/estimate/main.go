// Command estimate runs the climate profile, geometry and performance
// pipeline offline for a single building and prints the result as JSON.
// The clock is pinned so repeated runs produce identical output, which makes
// the command suitable for generating fixtures.
//
// Usage:
//
//	go run ./cmd/estimate -lat 40.71 -lon -74.01 -artifact plan.dwg -temp 24.5 -humidity 60
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

var fixedNow = time.Date(2024, time.June, 21, 12, 0, 0, 0, time.UTC)

type options struct {
	lat, lon   float64
	artifact   string
	kind       string
	buildingID string
	obs        domain.Observation
	tempMax    float64
	tempMin    float64
}

type report struct {
	Profile  domain.ClimateProfile   `json:"climate_profile"`
	Geometry domain.GeometryEstimate `json:"geometry"`
	Result   domain.SimulationResult `json:"results"`
}

func main() {
	var opts options
	fs := flag.NewFlagSet("estimate", flag.ExitOnError)
	fs.Float64Var(&opts.lat, "lat", 0, "building latitude in degrees")
	fs.Float64Var(&opts.lon, "lon", 0, "building longitude in degrees")
	fs.StringVar(&opts.artifact, "artifact", "", "drawing file name, used to pick the geometry estimate")
	fs.StringVar(&opts.kind, "type", domain.DefaultSimulationKind, "simulation type")
	fs.StringVar(&opts.buildingID, "building-id", "offline", "building id echoed in the result")
	fs.Float64Var(&opts.obs.Temperature, "temp", 20, "current temperature in °C")
	fs.Float64Var(&opts.obs.Humidity, "humidity", 50, "relative humidity in %")
	fs.Float64Var(&opts.obs.Pressure, "pressure", 1013, "pressure in hPa")
	fs.Float64Var(&opts.obs.WindSpeed, "wind-speed", 0, "wind speed in m/s")
	fs.Float64Var(&opts.obs.WindDirection, "wind-dir", 0, "wind direction in degrees")
	fs.Float64Var(&opts.tempMax, "temp-max", 0, "daily maximum in °C (omitted when unset)")
	fs.Float64Var(&opts.tempMin, "temp-min", 0, "daily minimum in °C (omitted when unset)")
	fs.StringVar(&opts.obs.LocationName, "city", "", "location name")
	fs.StringVar(&opts.obs.Country, "country", "", "country code")
	_ = fs.Parse(os.Args[1:])

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "temp-max":
			opts.obs.TempMax = &opts.tempMax
		case "temp-min":
			opts.obs.TempMin = &opts.tempMin
		}
	})

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "estimate: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, w io.Writer) error {
	if err := domain.ValidateCoordinates(opts.lat, opts.lon); err != nil {
		return err
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	defer domain.SetClock(nil)

	now := domain.Now()
	profile := domain.BuildClimateProfile(opts.lat, opts.lon, opts.obs, now)
	geometry := domain.EstimateGeometry(domain.ArtifactKindFromFileName(opts.artifact))
	result := domain.Simulate(domain.SimulationInput{
		Kind:        opts.kind,
		BuildingID:  opts.buildingID,
		Profile:     profile,
		Geometry:    geometry,
		GeneratedAt: now,
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report{Profile: profile, Geometry: geometry, Result: result}); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
