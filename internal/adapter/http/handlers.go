package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
	"github.com/couchcryptid/climate-sim-service/internal/service"
)

const maxBodyBytes = 1 << 20

// API is the set of operations served under /api.
type API interface {
	RegisterBuilding(ctx context.Context, req domain.BuildingRequest) (service.Registration, error)
	ListBuildings(ctx context.Context) ([]domain.Building, error)
	SubmitSimulation(ctx context.Context, buildingID, kind string) (domain.Simulation, error)
	GetSimulation(ctx context.Context, id string) (service.SimulationView, error)
	GetRecommendations(ctx context.Context, buildingID string) (domain.RecommendationSet, error)
	GetClimateProfile(ctx context.Context, lat, lon float64) (domain.ClimateProfile, error)
}

type handler struct {
	api    API
	logger *slog.Logger
}

type submitResponse struct {
	SimulationID string        `json:"simulation_id"`
	Status       domain.Status `json:"status"`
}

func (h *handler) registerBuilding(w http.ResponseWriter, r *http.Request) {
	var req domain.BuildingRequest
	if !h.decode(w, r, &req) {
		return
	}
	reg, err := h.api.RegisterBuilding(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusCreated, reg)
}

func (h *handler) listBuildings(w http.ResponseWriter, r *http.Request) {
	list, err := h.api.ListBuildings(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) getRecommendations(w http.ResponseWriter, r *http.Request) {
	set, err := h.api.GetRecommendations(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, set)
}

func (h *handler) submitSimulation(w http.ResponseWriter, r *http.Request) {
	var req domain.SimulationRequest
	if !h.decode(w, r, &req) {
		return
	}
	sim, err := h.api.SubmitSimulation(r.Context(), req.BuildingID, req.Kind)
	if err != nil {
		if errors.Is(err, domain.ErrSchedulerBusy) {
			w.Header().Set("Retry-After", "5")
		}
		h.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusAccepted, submitResponse{SimulationID: sim.ID, Status: sim.Status})
}

func (h *handler) getSimulation(w http.ResponseWriter, r *http.Request) {
	view, err := h.api.GetSimulation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, view)
}

func (h *handler) getClimateProfile(w http.ResponseWriter, r *http.Request) {
	lat, err := parseCoordinate(r, "lat")
	if err != nil {
		h.writeError(w, err)
		return
	}
	lon, err := parseCoordinate(r, "lon")
	if err != nil {
		h.writeError(w, err)
		return
	}
	profile, err := h.api.GetClimateProfile(r.Context(), lat, lon)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, profile)
}

func parseCoordinate(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrValidation, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrValidation, name)
	}
	return v, nil
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err))
		return false
	}
	return true
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrClimateDataUnavailable),
		errors.Is(err, domain.ErrSchedulerBusy),
		errors.Is(err, domain.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// serverErrorKinds are the kinds whose text is safe to return for 5xx
// responses. Wrapped driver and provider detail is logged, not returned.
var serverErrorKinds = []error{
	domain.ErrClimateDataUnavailable,
	domain.ErrSchedulerBusy,
	domain.ErrPersistence,
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	h.logger.Error("request failed", "status", status, "error", err)
	msg := http.StatusText(status)
	for _, kind := range serverErrorKinds {
		if errors.Is(err, kind) {
			msg = kind.Error()
			break
		}
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
