package domain

// CostTier is an indicative implementation cost band.
type CostTier string

const (
	CostLow        CostTier = "Low"
	CostLowMedium  CostTier = "Low-Medium"
	CostMedium     CostTier = "Medium"
	CostMediumHigh CostTier = "Medium-High"
	CostHigh       CostTier = "High"
)

// Recommendation is a single retrofit action.
type Recommendation struct {
	Category           string   `json:"category"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	EstimatedSavings   string   `json:"estimated_savings"`
	ImplementationCost CostTier `json:"implementation_cost"`
	ClimateBenefit     string   `json:"climate_benefit"`
}

// RecommendationSet is computed per request and never persisted.
type RecommendationSet struct {
	BuildingID         string           `json:"building_id"`
	ClimateZone        ClimateZone      `json:"climate_zone"`
	PriorityLevel      string           `json:"priority_level"`
	LatestSimulationID string           `json:"latest_simulation_id,omitempty"`
	Recommendations    []Recommendation `json:"recommendations"`
}

var (
	warmClimateRecommendations = []Recommendation{
		{
			Category:           "Cooling",
			Title:              "Enhanced Natural Ventilation",
			Description:        "Install cross-ventilation systems and ceiling fans to reduce mechanical cooling loads",
			EstimatedSavings:   "20-30% cooling energy",
			ImplementationCost: CostLow,
			ClimateBenefit:     "Reduces overheating risk during power outages",
		},
		{
			Category:           "Solar Protection",
			Title:              "External Shading Systems",
			Description:        "Install overhangs, louvers, or vegetation for solar heat gain control",
			EstimatedSavings:   "15-25% cooling energy",
			ImplementationCost: CostMedium,
			ClimateBenefit:     "Maintains indoor comfort during extreme heat events",
		},
		{
			Category:           "Building Envelope",
			Title:              "Cool Roof Technology",
			Description:        "Apply reflective roof coatings or install cool roof materials",
			EstimatedSavings:   "10-20% cooling energy",
			ImplementationCost: CostLowMedium,
			ClimateBenefit:     "Reduces urban heat island effect and building heat gain",
		},
	}

	temperateRecommendations = []Recommendation{
		{
			Category:           "Insulation",
			Title:              "Enhanced Building Insulation",
			Description:        "Upgrade wall and roof insulation to reduce heating and cooling loads",
			EstimatedSavings:   "25-40% total energy",
			ImplementationCost: CostMedium,
			ClimateBenefit:     "Maintains stable indoor temperatures during extreme weather",
		},
		{
			Category:           "Windows",
			Title:              "High-Performance Glazing",
			Description:        "Install double or triple-glazed windows with low-E coatings",
			EstimatedSavings:   "15-25% heating/cooling energy",
			ImplementationCost: CostHigh,
			ClimateBenefit:     "Reduces heat loss and solar heat gain",
		},
	}

	coldClimateRecommendations = []Recommendation{
		{
			Category:           "Heating",
			Title:              "Heat Recovery Ventilation",
			Description:        "Install HRV systems to recover heat from exhaust air",
			EstimatedSavings:   "20-30% heating energy",
			ImplementationCost: CostMediumHigh,
			ClimateBenefit:     "Maintains indoor air quality while conserving heat",
		},
		{
			Category:           "Building Envelope",
			Title:              "Air Sealing",
			Description:        "Seal air leaks to prevent heat loss and drafts",
			EstimatedSavings:   "10-20% heating energy",
			ImplementationCost: CostLow,
			ClimateBenefit:     "Prevents frozen pipes and maintains warmth during outages",
		},
	}

	// Healthcare resilience items, appended for every zone.
	resilienceRecommendations = []Recommendation{
		{
			Category:           "Backup Systems",
			Title:              "Renewable Energy + Storage",
			Description:        "Install solar panels with battery backup for critical operations",
			EstimatedSavings:   "30-50% grid dependency",
			ImplementationCost: CostHigh,
			ClimateBenefit:     "Ensures power during climate-related grid failures",
		},
		{
			Category:           "Water Systems",
			Title:              "Rainwater Harvesting",
			Description:        "Install systems to collect and store rainwater for non-potable uses",
			EstimatedSavings:   "20-40% water costs",
			ImplementationCost: CostMedium,
			ClimateBenefit:     "Provides water security during droughts or supply disruptions",
		},
	}
)

// Recommend builds the retrofit list for a building: zone-specific items first,
// then the fixed resilience items. Order is fixed per zone.
//
// latest is accepted so callers can pass the most recent completed simulation,
// but its metrics do not influence ranking yet; only its id is echoed back.
func Recommend(zone ClimateZone, b Building, latest *Simulation) RecommendationSet {
	var zoneItems []Recommendation
	switch zone {
	case ZoneTropical, ZoneSubtropical:
		zoneItems = warmClimateRecommendations
	case ZoneTemperate:
		zoneItems = temperateRecommendations
	default:
		zoneItems = coldClimateRecommendations
	}

	recs := make([]Recommendation, 0, len(zoneItems)+len(resilienceRecommendations))
	recs = append(recs, zoneItems...)
	recs = append(recs, resilienceRecommendations...)

	set := RecommendationSet{
		BuildingID:      b.ID,
		ClimateZone:     zone,
		PriorityLevel:   "High",
		Recommendations: recs,
	}
	if latest != nil {
		set.LatestSimulationID = latest.ID
	}
	return set
}
