package domain

import (
	"context"
	"time"
)

// BuildingRepository stores Building records.
type BuildingRepository interface {
	CreateBuilding(ctx context.Context, b Building) error
	// GetBuilding returns ErrNotFound for unknown ids.
	GetBuilding(ctx context.Context, id string) (Building, error)
	// ListBuildings returns all buildings, newest first.
	ListBuildings(ctx context.Context) ([]Building, error)
}

// SimulationRepository stores Simulation records. Status changes are
// conditional on the current status and return ErrInvalidTransition when the
// row is not in the expected state, so concurrent writers cannot both win.
type SimulationRepository interface {
	// StartSimulation records a new pending simulation and moves it to
	// running in one atomic step. On error nothing is stored, so a
	// simulation is never left behind in pending.
	StartSimulation(ctx context.Context, s Simulation) error
	GetSimulation(ctx context.Context, id string) (Simulation, error)

	// MarkCompleted moves a running simulation to completed with its result reference.
	MarkCompleted(ctx context.Context, id, resultsRef string, at time.Time) error
	// MarkFailed moves a running simulation to failed with a reason.
	MarkFailed(ctx context.Context, id, reason string, at time.Time) error

	// LatestCompleted returns the completed simulation with the greatest
	// completion time for a building, or nil when there is none.
	LatestCompleted(ctx context.Context, buildingID string) (*Simulation, error)
	// ListRunningBefore returns running simulations created before the cutoff.
	ListRunningBefore(ctx context.Context, cutoff time.Time) ([]Simulation, error)
}

// ResultStore is a write-once blob store keyed by simulation id.
type ResultStore interface {
	// PutResult stores a result and returns an opaque reference to it.
	// A second write for the same id returns ErrResultExists.
	PutResult(ctx context.Context, simulationID string, r SimulationResult) (string, error)
	// GetResult returns ErrNotFound when nothing was written.
	GetResult(ctx context.Context, simulationID string) (SimulationResult, error)
}

// SimulationPublisher announces terminal simulation states to downstream consumers.
type SimulationPublisher interface {
	PublishSimulation(ctx context.Context, s Simulation) error
}
