package domain

import (
	"math"
	"time"
)

const (
	DefaultSimulationKind = "energy_analysis"

	hoursPerYear = 8760.0
	daysPerYear  = 365.0

	coolingSetpoint = 22.0 // °C, also the comfort neutral point
	heatingSetpoint = 18.0
	overheatingTemp = 26.0
	underheatTemp   = 16.0
	heatStressTemp  = 30.0

	coolingLoadFactor = 0.05 // kWh/day per m² per °C
	heatingLoadFactor = 0.03
	glazingSHGC       = 0.3
	solarHoursPerDay  = 8.0
)

// SimulationInput bundles everything the simulator consumes. GeneratedAt is an
// input rather than read from a clock so that Simulate stays pure.
type SimulationInput struct {
	Kind        string
	BuildingID  string
	Profile     ClimateProfile
	Geometry    GeometryEstimate
	GeneratedAt time.Time
}

// SimulationResult is written once per completed simulation.
type SimulationResult struct {
	SimulationType    string            `json:"simulation_type"`
	BuildingID        string            `json:"building_id"`
	Timestamp         time.Time         `json:"timestamp"`
	EnergyAnalysis    EnergyAnalysis    `json:"energy_analysis"`
	SolarAnalysis     SolarAnalysis     `json:"solar_analysis"`
	ThermalComfort    ThermalComfort    `json:"thermal_comfort"`
	ClimateResilience ClimateResilience `json:"climate_resilience"`
}

type EnergyAnalysis struct {
	AnnualCoolingLoad      float64 `json:"annual_cooling_load"`      // kWh/year
	AnnualHeatingLoad      float64 `json:"annual_heating_load"`      // kWh/year
	TotalEnergyConsumption float64 `json:"total_energy_consumption"` // kWh/year
	PeakCoolingDemand      float64 `json:"peak_cooling_demand"`      // kW
	PeakHeatingDemand      float64 `json:"peak_heating_demand"`      // kW
	EnergyIntensity        float64 `json:"energy_intensity"`         // kWh/m²/year
}

type SolarAnalysis struct {
	AnnualSolarGain          float64 `json:"annual_solar_gain"`
	PeakSolarGain            float64 `json:"peak_solar_gain"`
	SolarHeatGainCoefficient float64 `json:"solar_heat_gain_coefficient"`
	DaylightAvailability     float64 `json:"daylight_availability"` // percent
}

type ThermalComfort struct {
	ComfortableHours  float64 `json:"comfortable_hours"`
	ComfortPercentage float64 `json:"comfort_percentage"`
	OverheatingHours  float64 `json:"overheating_hours"`
	UnderheatingHours float64 `json:"underheating_hours"`
}

type ClimateResilience struct {
	HeatStressRisk             string  `json:"heat_stress_risk"`
	CoolingSystemStrain        float64 `json:"cooling_system_strain"` // may be negative in cool climates
	AdaptiveComfortPotential   float64 `json:"adaptive_comfort_potential"`
	ClimateChangeVulnerability string  `json:"climate_change_vulnerability"`
}

// Simulate computes indicative performance metrics. Only the current
// temperature, solar irradiance, floor area, and window area are consumed.
func Simulate(in SimulationInput) SimulationResult {
	temp := in.Profile.CurrentConditions.Temperature
	floorArea := in.Geometry.FloorArea
	windowArea := in.Geometry.Envelope.WindowArea

	coolingLoad := math.Max(0, (temp-coolingSetpoint)*floorArea*coolingLoadFactor)
	heatingLoad := math.Max(0, (heatingSetpoint-temp)*floorArea*heatingLoadFactor)
	totalAnnual := (coolingLoad + heatingLoad) * daysPerYear

	solarGain := in.Profile.CurrentConditions.SolarIrradiance * glazingSHGC * windowArea
	comfortHours := math.Max(0, hoursPerYear-math.Abs(temp-coolingSetpoint)*200)

	heatStress := "Low"
	if temp > heatStressTemp {
		heatStress = "Medium"
	}

	kind := in.Kind
	if kind == "" {
		kind = DefaultSimulationKind
	}

	return SimulationResult{
		SimulationType: kind,
		BuildingID:     in.BuildingID,
		Timestamp:      in.GeneratedAt,
		EnergyAnalysis: EnergyAnalysis{
			AnnualCoolingLoad:      coolingLoad * daysPerYear,
			AnnualHeatingLoad:      heatingLoad * daysPerYear,
			TotalEnergyConsumption: totalAnnual,
			PeakCoolingDemand:      coolingLoad * 1.5,
			PeakHeatingDemand:      heatingLoad * 1.2,
			EnergyIntensity:        totalAnnual / floorArea,
		},
		SolarAnalysis: SolarAnalysis{
			AnnualSolarGain:          solarGain * daysPerYear * solarHoursPerDay,
			PeakSolarGain:            solarGain * 1.2,
			SolarHeatGainCoefficient: glazingSHGC,
			DaylightAvailability:     math.Min(100, solarGain/10*100),
		},
		ThermalComfort: ThermalComfort{
			ComfortableHours:  comfortHours,
			ComfortPercentage: comfortHours / hoursPerYear * 100,
			OverheatingHours:  math.Max(0, (temp-overheatingTemp)*50),
			UnderheatingHours: math.Max(0, (underheatTemp-temp)*50),
		},
		ClimateResilience: ClimateResilience{
			HeatStressRisk:             heatStress,
			CoolingSystemStrain:        math.Min(100, (temp-coolingSetpoint)*10),
			AdaptiveComfortPotential:   75,
			ClimateChangeVulnerability: "Moderate",
		},
	}
}
