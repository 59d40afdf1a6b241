package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RawMessage is an unprocessed message from the simulation request topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// SimulationRequest asks for a simulation of a registered building.
type SimulationRequest struct {
	BuildingID string `json:"building_id"`
	Kind       string `json:"simulation_type"`
}

// ParseSimulationRequest decodes a request message value.
func ParseSimulationRequest(raw RawMessage) (SimulationRequest, error) {
	var req SimulationRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return SimulationRequest{}, fmt.Errorf("%w: parse simulation request: %v", ErrValidation, err)
	}
	req.BuildingID = strings.TrimSpace(req.BuildingID)
	if req.BuildingID == "" {
		return SimulationRequest{}, fmt.Errorf("%w: building_id is required", ErrValidation)
	}
	return req, nil
}
