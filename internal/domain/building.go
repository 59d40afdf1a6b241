package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultBuildingName = "Unnamed Building"
	DefaultBuildingType = "healthcare"
)

// Building is a registered site. It is immutable once created.
type Building struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	BuildingType string    `json:"building_type"`
	ArtifactName string    `json:"artifact_name,omitempty"` // uploaded drawing or plan file name
	CreatedAt    time.Time `json:"created_at"`
}

// BuildingRequest carries caller-supplied fields for registering a building.
type BuildingRequest struct {
	Name         string   `json:"name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	BuildingType string   `json:"building_type"`
	ArtifactName string   `json:"artifact_name"`
}

// NewBuilding validates a request and assigns an id and creation time.
// Coordinates are required; name and building type fall back to defaults.
func NewBuilding(req BuildingRequest) (Building, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return Building{}, fmt.Errorf("%w: latitude and longitude are required", ErrValidation)
	}
	if err := ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
		return Building{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = DefaultBuildingName
	}
	buildingType := strings.TrimSpace(req.BuildingType)
	if buildingType == "" {
		buildingType = DefaultBuildingType
	}

	return Building{
		ID:           uuid.NewString(),
		Name:         name,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		BuildingType: buildingType,
		ArtifactName: strings.TrimSpace(req.ArtifactName),
		CreatedAt:    Now(),
	}, nil
}

// ValidateCoordinates rejects latitudes outside [-90, 90] and longitudes outside
// [-180, 180]. Values are never clamped.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrValidation, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrValidation, lon)
	}
	return nil
}
