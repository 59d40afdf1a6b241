package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(set RecommendationSet) []string {
	out := make([]string, len(set.Recommendations))
	for i, r := range set.Recommendations {
		out[i] = r.Title
	}
	return out
}

func TestRecommend_PerZone(t *testing.T) {
	b := Building{ID: "bldg-1"}
	tail := []string{"Renewable Energy + Storage", "Rainwater Harvesting"}

	tests := []struct {
		zone ClimateZone
		head []string
	}{
		{ZoneTropical, []string{"Enhanced Natural Ventilation", "External Shading Systems", "Cool Roof Technology"}},
		{ZoneSubtropical, []string{"Enhanced Natural Ventilation", "External Shading Systems", "Cool Roof Technology"}},
		{ZoneTemperate, []string{"Enhanced Building Insulation", "High-Performance Glazing"}},
		{ZoneCold, []string{"Heat Recovery Ventilation", "Air Sealing"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.zone), func(t *testing.T) {
			set := Recommend(tt.zone, b, nil)
			assert.Equal(t, append(append([]string{}, tt.head...), tail...), titles(set))
			assert.Equal(t, "bldg-1", set.BuildingID)
			assert.Equal(t, tt.zone, set.ClimateZone)
			assert.Equal(t, "High", set.PriorityLevel)
			assert.Empty(t, set.LatestSimulationID)
		})
	}
}

func TestRecommend_ColdBuildingScenario(t *testing.T) {
	b := Building{ID: "bldg-oslo", Latitude: 60}
	set := Recommend(ClassifyClimateZone(b.Latitude), b, nil)

	got := titles(set)
	require.Len(t, got, 4)
	assert.Equal(t, "Heat Recovery Ventilation", got[0])
	assert.Equal(t, "Air Sealing", got[1])
	assert.Equal(t, "Renewable Energy + Storage", got[2])
	assert.Equal(t, "Rainwater Harvesting", got[3])
	assert.Equal(t, CostMediumHigh, set.Recommendations[0].ImplementationCost)
}

func TestRecommend_SimulationIsEchoedNotScored(t *testing.T) {
	b := Building{ID: "bldg-1"}
	sim := &Simulation{ID: "sim-9", Status: StatusCompleted}

	with := Recommend(ZoneTemperate, b, sim)
	without := Recommend(ZoneTemperate, b, nil)

	assert.Equal(t, "sim-9", with.LatestSimulationID)
	assert.Equal(t, without.Recommendations, with.Recommendations)
}

func TestRecommend_ReturnsIndependentSlices(t *testing.T) {
	b := Building{ID: "bldg-1"}
	first := Recommend(ZoneCold, b, nil)
	first.Recommendations[0].Title = "mutated"

	second := Recommend(ZoneCold, b, nil)
	assert.Equal(t, "Heat Recovery Ventilation", second.Recommendations[0].Title)
}
