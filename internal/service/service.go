// Package service exposes the operations front ends build on: building
// registration, simulation submission and lookup, recommendations, and
// on-demand climate profiles.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
)

// Submitter hands a simulation to the job scheduler.
type Submitter interface {
	Submit(ctx context.Context, buildingID, kind string) (domain.Simulation, error)
}

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Service uses.
type Deps struct {
	Buildings   domain.BuildingRepository
	Simulations domain.SimulationRepository
	Results     domain.ResultStore
	Weather     domain.WeatherProvider
	Scheduler   Submitter
}

// Service implements the exposed operations on top of the stores and scheduler.
type Service struct {
	deps   Deps
	logger *slog.Logger
}

// New creates a Service.
func New(deps Deps, logger *slog.Logger) *Service {
	return &Service{deps: deps, logger: logger}
}

// Registration is returned when a building is registered.
type Registration struct {
	Building    domain.Building         `json:"building"`
	Geometry    domain.GeometryEstimate `json:"geometry"`
	ClimateZone domain.ClimateZone      `json:"climate_zone"`
}

// SimulationView is a simulation record plus its result once completed.
type SimulationView struct {
	domain.Simulation
	Result *domain.SimulationResult `json:"results,omitempty"`
}

// RegisterBuilding validates and stores a building, returning its geometry
// estimate and climate zone.
func (s *Service) RegisterBuilding(ctx context.Context, req domain.BuildingRequest) (Registration, error) {
	b, err := domain.NewBuilding(req)
	if err != nil {
		return Registration{}, err
	}
	if err := s.deps.Buildings.CreateBuilding(ctx, b); err != nil {
		return Registration{}, err
	}
	s.logger.Info("building registered", "building_id", b.ID, "building_type", b.BuildingType)

	return Registration{
		Building:    b,
		Geometry:    domain.EstimateGeometry(domain.ArtifactKindFromFileName(b.ArtifactName)),
		ClimateZone: domain.ClassifyClimateZone(b.Latitude),
	}, nil
}

// ListBuildings returns every building, newest first.
func (s *Service) ListBuildings(ctx context.Context) ([]domain.Building, error) {
	return s.deps.Buildings.ListBuildings(ctx)
}

// SubmitSimulation starts a simulation and returns it in the running state.
func (s *Service) SubmitSimulation(ctx context.Context, buildingID, kind string) (domain.Simulation, error) {
	return s.deps.Scheduler.Submit(ctx, buildingID, kind)
}

// GetSimulation returns a simulation and, when completed, its result.
func (s *Service) GetSimulation(ctx context.Context, id string) (SimulationView, error) {
	sim, err := s.deps.Simulations.GetSimulation(ctx, id)
	if err != nil {
		return SimulationView{}, err
	}
	view := SimulationView{Simulation: sim}
	if sim.Status != domain.StatusCompleted {
		return view, nil
	}

	res, err := s.deps.Results.GetResult(ctx, sim.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return SimulationView{}, fmt.Errorf("%w: result missing for completed simulation %s", domain.ErrPersistence, sim.ID)
	}
	if err != nil {
		return SimulationView{}, err
	}
	view.Result = &res
	return view, nil
}

// GetRecommendations computes retrofit recommendations for a building.
func (s *Service) GetRecommendations(ctx context.Context, buildingID string) (domain.RecommendationSet, error) {
	b, err := s.deps.Buildings.GetBuilding(ctx, buildingID)
	if err != nil {
		return domain.RecommendationSet{}, err
	}
	latest, err := s.deps.Simulations.LatestCompleted(ctx, b.ID)
	if err != nil {
		return domain.RecommendationSet{}, err
	}
	return domain.Recommend(domain.ClassifyClimateZone(b.Latitude), b, latest), nil
}

// GetClimateProfile fetches the current observation for a coordinate pair
// and derives a climate profile. Nothing is persisted.
func (s *Service) GetClimateProfile(ctx context.Context, lat, lon float64) (domain.ClimateProfile, error) {
	if err := domain.ValidateCoordinates(lat, lon); err != nil {
		return domain.ClimateProfile{}, err
	}
	obs, err := s.deps.Weather.CurrentObservation(ctx, lat, lon)
	if err != nil {
		return domain.ClimateProfile{}, err
	}
	return domain.BuildClimateProfile(lat, lon, obs, domain.Now()), nil
}

// CheckReadiness pings every store that supports it.
func (s *Service) CheckReadiness(ctx context.Context) error {
	for _, dep := range []any{s.deps.Buildings, s.deps.Simulations, s.deps.Results} {
		p, ok := dep.(Pinger)
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("store not ready: %w", err)
		}
	}
	return nil
}
