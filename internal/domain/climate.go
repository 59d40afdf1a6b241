package domain

import (
	"context"
	"math"
	"time"
)

// ClimateZone is a coarse band derived solely from absolute latitude.
type ClimateZone string

const (
	ZoneTropical    ClimateZone = "Tropical"
	ZoneSubtropical ClimateZone = "Subtropical"
	ZoneTemperate   ClimateZone = "Temperate"
	ZoneCold        ClimateZone = "Cold"
)

// Latitude band upper bounds (exclusive).
const (
	tropicalMaxLat    = 23.5
	subtropicalMaxLat = 35.0
	temperateMaxLat   = 50.0
)

// Design temperature fallbacks used when the observation lacks max/min values.
const (
	DefaultSummerDesignTemp = 35.0
	DefaultWinterDesignTemp = 5.0
)

// DegreeDays holds annual cooling and heating degree-day estimates.
type DegreeDays struct {
	Cooling float64
	Heating float64
}

var zoneDegreeDays = map[ClimateZone]DegreeDays{
	ZoneTropical:    {Cooling: 2000, Heating: 100},
	ZoneSubtropical: {Cooling: 1500, Heating: 500},
	ZoneTemperate:   {Cooling: 1000, Heating: 2000},
	ZoneCold:        {Cooling: 500, Heating: 4000},
}

// Observation is a single current-weather reading from the weather provider.
// TempMax and TempMin are nil when the provider omits them.
type Observation struct {
	Temperature   float64
	Humidity      float64
	Pressure      float64
	WindSpeed     float64
	WindDirection float64
	TempMax       *float64
	TempMin       *float64
	LocationName  string
	Country       string
}

// WeatherProvider fetches the current observation for a coordinate pair.
// Implementations wrap failures in ErrClimateDataUnavailable.
type WeatherProvider interface {
	CurrentObservation(ctx context.Context, lat, lon float64) (Observation, error)
}

// ClimateProfile is the normalized weather bundle consumed by the simulator.
type ClimateProfile struct {
	ClimateZone       ClimateZone       `json:"climate_zone"`
	Location          ProfileLocation   `json:"location"`
	CurrentConditions CurrentConditions `json:"current_conditions"`
	DesignConditions  DesignConditions  `json:"design_conditions"`
}

// ProfileLocation echoes the requested coordinates and the provider's place name.
type ProfileLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
}

type CurrentConditions struct {
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	Pressure        float64 `json:"pressure"`
	WindSpeed       float64 `json:"wind_speed"`
	WindDirection   float64 `json:"wind_direction"`
	SolarIrradiance float64 `json:"solar_irradiance"`
}

type DesignConditions struct {
	SummerDesignTemp  float64 `json:"summer_design_temp"`
	WinterDesignTemp  float64 `json:"winter_design_temp"`
	CoolingDegreeDays float64 `json:"cooling_degree_days"`
	HeatingDegreeDays float64 `json:"heating_degree_days"`
}

// ClassifyClimateZone maps a latitude to its band:
//
//	|lat| < 23.5 Tropical | < 35 Subtropical | < 50 Temperate | else Cold
//
// Boundaries belong to the colder band, so exactly 23.5 is Subtropical.
func ClassifyClimateZone(lat float64) ClimateZone {
	abs := math.Abs(lat)
	switch {
	case abs < tropicalMaxLat:
		return ZoneTropical
	case abs < subtropicalMaxLat:
		return ZoneSubtropical
	case abs < temperateMaxLat:
		return ZoneTemperate
	default:
		return ZoneCold
	}
}

// EstimateDegreeDays returns the fixed degree-day constants for the latitude's zone.
func EstimateDegreeDays(lat float64) DegreeDays {
	return zoneDegreeDays[ClassifyClimateZone(lat)]
}

// EstimateSolarIrradiance returns a direct-normal irradiance proxy in W/m²:
//
//	declination = 23.45° · sin(360° · (284 + day_of_year) / 365)
//	dni         = 900 · cos(|lat − declination|), floored at 0
func EstimateSolarIrradiance(lat float64, date time.Time) float64 {
	dayOfYear := float64(date.YearDay())
	declination := 23.45 * math.Sin(degreesToRadians(360*(284+dayOfYear)/365))
	dni := 900 * math.Cos(degreesToRadians(math.Abs(lat-declination)))
	return math.Max(0, dni)
}

// BuildClimateProfile derives a profile from an observation. It is a pure
// function of its arguments; the caller owns the weather fetch.
func BuildClimateProfile(lat, lon float64, obs Observation, date time.Time) ClimateProfile {
	dd := EstimateDegreeDays(lat)

	summer := DefaultSummerDesignTemp
	if obs.TempMax != nil {
		summer = *obs.TempMax
	}
	winter := DefaultWinterDesignTemp
	if obs.TempMin != nil {
		winter = *obs.TempMin
	}

	return ClimateProfile{
		ClimateZone: ClassifyClimateZone(lat),
		Location: ProfileLocation{
			Latitude:  lat,
			Longitude: lon,
			City:      orUnknown(obs.LocationName),
			Country:   orUnknown(obs.Country),
		},
		CurrentConditions: CurrentConditions{
			Temperature:     obs.Temperature,
			Humidity:        obs.Humidity,
			Pressure:        obs.Pressure,
			WindSpeed:       obs.WindSpeed,
			WindDirection:   obs.WindDirection,
			SolarIrradiance: EstimateSolarIrradiance(lat, date),
		},
		DesignConditions: DesignConditions{
			SummerDesignTemp:  summer,
			WinterDesignTemp:  winter,
			CoolingDegreeDays: dd.Cooling,
			HeatingDegreeDays: dd.Heating,
		},
	}
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
