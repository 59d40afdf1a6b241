package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
)

// ResultStore implements domain.ResultStore in process memory.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.SimulationResult
}

// NewResultStore creates an empty result store.
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]domain.SimulationResult)}
}

func (r *ResultStore) PutResult(_ context.Context, simulationID string, res domain.SimulationResult) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[simulationID]; ok {
		return "", fmt.Errorf("%w: simulation %s", domain.ErrResultExists, simulationID)
	}
	r.results[simulationID] = res
	return "memory://results/" + simulationID, nil
}

func (r *ResultStore) GetResult(_ context.Context, simulationID string) (domain.SimulationResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[simulationID]
	if !ok {
		return domain.SimulationResult{}, fmt.Errorf("%w: result for simulation %s", domain.ErrNotFound, simulationID)
	}
	return res, nil
}

// Ping always succeeds.
func (r *ResultStore) Ping(context.Context) error { return nil }
