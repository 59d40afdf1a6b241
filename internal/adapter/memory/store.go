// Package memory provides in-process record and result stores used when no
// database or Redis address is configured, and as fakes in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
)

// Store implements domain.BuildingRepository and domain.SimulationRepository.
type Store struct {
	mu          sync.RWMutex
	buildings   map[string]domain.Building
	simulations map[string]domain.Simulation
}

// NewStore creates an empty record store.
func NewStore() *Store {
	return &Store{
		buildings:   make(map[string]domain.Building),
		simulations: make(map[string]domain.Simulation),
	}
}

func (s *Store) CreateBuilding(_ context.Context, b domain.Building) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buildings[b.ID]; ok {
		return fmt.Errorf("%w: building %s already exists", domain.ErrPersistence, b.ID)
	}
	s.buildings[b.ID] = b
	return nil
}

func (s *Store) GetBuilding(_ context.Context, id string) (domain.Building, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buildings[id]
	if !ok {
		return domain.Building{}, fmt.Errorf("%w: building %s", domain.ErrNotFound, id)
	}
	return b, nil
}

func (s *Store) ListBuildings(_ context.Context) ([]domain.Building, error) {
	s.mu.RLock()
	out := make([]domain.Building, 0, len(s.buildings))
	for _, b := range s.buildings {
		out = append(out, b)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) StartSimulation(_ context.Context, sim domain.Simulation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.simulations[sim.ID]; ok {
		return fmt.Errorf("%w: simulation %s already exists", domain.ErrPersistence, sim.ID)
	}
	if !domain.CanTransition(sim.Status, domain.StatusRunning) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, sim.Status, domain.StatusRunning)
	}
	sim.Status = domain.StatusRunning
	s.simulations[sim.ID] = sim
	return nil
}

func (s *Store) GetSimulation(_ context.Context, id string) (domain.Simulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sim, ok := s.simulations[id]
	if !ok {
		return domain.Simulation{}, fmt.Errorf("%w: simulation %s", domain.ErrNotFound, id)
	}
	return sim, nil
}

func (s *Store) MarkCompleted(_ context.Context, id, resultsRef string, at time.Time) error {
	return s.transition(id, domain.StatusCompleted, func(sim *domain.Simulation) {
		sim.ResultsRef = resultsRef
		sim.CompletedAt = &at
	})
}

func (s *Store) MarkFailed(_ context.Context, id, reason string, at time.Time) error {
	return s.transition(id, domain.StatusFailed, func(sim *domain.Simulation) {
		sim.FailureReason = reason
		sim.CompletedAt = &at
	})
}

// transition applies a status change under the write lock so that the
// check and the update are atomic.
func (s *Store) transition(id string, to domain.Status, apply func(*domain.Simulation)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim, ok := s.simulations[id]
	if !ok {
		return fmt.Errorf("%w: simulation %s", domain.ErrNotFound, id)
	}
	if !domain.CanTransition(sim.Status, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, sim.Status, to)
	}
	sim.Status = to
	apply(&sim)
	s.simulations[id] = sim
	return nil
}

func (s *Store) LatestCompleted(_ context.Context, buildingID string) (*domain.Simulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.Simulation
	for _, sim := range s.simulations {
		if sim.BuildingID != buildingID || sim.Status != domain.StatusCompleted || sim.CompletedAt == nil {
			continue
		}
		if latest == nil || sim.CompletedAt.After(*latest.CompletedAt) {
			found := sim
			latest = &found
		}
	}
	return latest, nil
}

func (s *Store) ListRunningBefore(_ context.Context, cutoff time.Time) ([]domain.Simulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Simulation
	for _, sim := range s.simulations {
		if sim.Status == domain.StatusRunning && sim.CreatedAt.Before(cutoff) {
			out = append(out, sim)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
