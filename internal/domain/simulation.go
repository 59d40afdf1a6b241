package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is a simulation lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether from -> to is an edge of
// pending -> running -> completed|failed.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// Reasons the scheduler records on failed simulations or returns when it
// rejects a submission.
// Pipeline errors are recorded verbatim.
const (
	ReasonBuildingNotFound = "building not found"
	ReasonDeadlineExceeded = "deadline exceeded"
	ReasonQueueFull        = "scheduler queue full"
	ReasonShutdown         = "scheduler stopped"
)

// Simulation is a job record. ResultsRef is set iff Status is completed;
// FailureReason is set iff Status is failed.
type Simulation struct {
	ID            string     `json:"simulation_id"`
	BuildingID    string     `json:"building_id"`
	Kind          string     `json:"simulation_type"`
	Status        Status     `json:"status"`
	ResultsRef    string     `json:"results_ref,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// NewSimulation creates a pending simulation for a building.
func NewSimulation(buildingID, kind string) (Simulation, error) {
	buildingID = strings.TrimSpace(buildingID)
	if buildingID == "" {
		return Simulation{}, fmt.Errorf("%w: building_id is required", ErrValidation)
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = DefaultSimulationKind
	}
	return Simulation{
		ID:         uuid.NewString(),
		BuildingID: buildingID,
		Kind:       kind,
		Status:     StatusPending,
		CreatedAt:  Now(),
	}, nil
}
