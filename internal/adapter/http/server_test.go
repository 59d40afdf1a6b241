package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/climate-sim-service/internal/adapter/http"
	"github.com/couchcryptid/climate-sim-service/internal/domain"
	"github.com/couchcryptid/climate-sim-service/internal/service"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockAPI struct {
	err         error
	gotRequest  domain.BuildingRequest
	gotBuilding string
	gotKind     string
	gotLat      float64
	gotLon      float64
	view        service.SimulationView
	panicOnList bool
}

func (m *mockAPI) RegisterBuilding(_ context.Context, req domain.BuildingRequest) (service.Registration, error) {
	m.gotRequest = req
	if m.err != nil {
		return service.Registration{}, m.err
	}
	return service.Registration{
		Building:    domain.Building{ID: "b-1", Name: req.Name, Latitude: *req.Latitude, Longitude: *req.Longitude},
		ClimateZone: domain.ZoneTemperate,
	}, nil
}

func (m *mockAPI) ListBuildings(context.Context) ([]domain.Building, error) {
	if m.panicOnList {
		panic("boom")
	}
	return []domain.Building{{ID: "b-2"}, {ID: "b-1"}}, m.err
}

func (m *mockAPI) SubmitSimulation(_ context.Context, buildingID, kind string) (domain.Simulation, error) {
	m.gotBuilding, m.gotKind = buildingID, kind
	if m.err != nil {
		return domain.Simulation{}, m.err
	}
	return domain.Simulation{ID: "sim-1", BuildingID: buildingID, Status: domain.StatusRunning}, nil
}

func (m *mockAPI) GetSimulation(_ context.Context, _ string) (service.SimulationView, error) {
	return m.view, m.err
}

func (m *mockAPI) GetRecommendations(_ context.Context, buildingID string) (domain.RecommendationSet, error) {
	m.gotBuilding = buildingID
	return domain.RecommendationSet{BuildingID: buildingID, ClimateZone: domain.ZoneCold, PriorityLevel: "High"}, m.err
}

func (m *mockAPI) GetClimateProfile(_ context.Context, lat, lon float64) (domain.ClimateProfile, error) {
	m.gotLat, m.gotLon = lat, lon
	return domain.ClimateProfile{ClimateZone: domain.ZoneSubtropical}, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(api *mockAPI, readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", api, &mockReadiness{err: readyErr}, discardLogger())
}

func do(t *testing.T, srv *httpadapter.Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(&mockAPI{}, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	rec := do(t, newTestServer(&mockAPI{}, nil), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, newTestServer(&mockAPI{}, fmt.Errorf("store not ready")), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(&mockAPI{}, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRegisterBuilding(t *testing.T) {
	api := &mockAPI{}
	rec := do(t, newTestServer(api, nil), http.MethodPost, "/api/buildings",
		`{"name":"Clinic","latitude":45.5,"longitude":-73.6,"artifact_name":"plan.png"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "plan.png", api.gotRequest.ArtifactName)
	body := decodeMap(t, rec)
	assert.Equal(t, "Temperate", body["climate_zone"])
	building := body["building"].(map[string]any)
	assert.Equal(t, "b-1", building["id"])
}

func TestRegisterBuilding_InvalidJSON(t *testing.T) {
	rec := do(t, newTestServer(&mockAPI{}, nil), http.MethodPost, "/api/buildings", `{"latitude":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeMap(t, rec)["error"], "validation error")
}

func TestListBuildings(t *testing.T) {
	rec := do(t, newTestServer(&mockAPI{}, nil), http.MethodGet, "/api/buildings", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var list []domain.Building
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "b-2", list[0].ID)
}

func TestSubmitSimulation(t *testing.T) {
	api := &mockAPI{}
	rec := do(t, newTestServer(api, nil), http.MethodPost, "/api/simulations",
		`{"building_id":"b-1","simulation_type":"energy_analysis"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "b-1", api.gotBuilding)
	assert.Equal(t, "energy_analysis", api.gotKind)
	assert.JSONEq(t, `{"simulation_id":"sim-1","status":"running"}`, rec.Body.String())
}

func TestSubmitSimulation_Busy(t *testing.T) {
	api := &mockAPI{err: fmt.Errorf("%w: %s", domain.ErrSchedulerBusy, domain.ReasonQueueFull)}
	rec := do(t, newTestServer(api, nil), http.MethodPost, "/api/simulations", `{"building_id":"b-1"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
}

func TestGetSimulation_Completed(t *testing.T) {
	done := time.Date(2026, 6, 21, 12, 0, 3, 0, time.UTC)
	api := &mockAPI{view: service.SimulationView{
		Simulation: domain.Simulation{ID: "sim-1", Status: domain.StatusCompleted, ResultsRef: "ref", CompletedAt: &done},
		Result:     &domain.SimulationResult{SimulationType: "energy_analysis", BuildingID: "b-1"},
	}}
	rec := do(t, newTestServer(api, nil), http.MethodGet, "/api/simulations/sim-1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, "completed", body["status"])
	results := body["results"].(map[string]any)
	assert.Equal(t, "energy_analysis", results["simulation_type"])
}

func TestGetSimulation_Running(t *testing.T) {
	api := &mockAPI{view: service.SimulationView{Simulation: domain.Simulation{ID: "sim-1", Status: domain.StatusRunning}}}
	rec := do(t, newTestServer(api, nil), http.MethodGet, "/api/simulations/sim-1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, "running", body["status"])
	assert.NotContains(t, body, "results")
}

func TestGetSimulation_NotFound(t *testing.T) {
	api := &mockAPI{err: fmt.Errorf("%w: simulation nope", domain.ErrNotFound)}
	rec := do(t, newTestServer(api, nil), http.MethodGet, "/api/simulations/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRecommendations(t *testing.T) {
	api := &mockAPI{}
	rec := do(t, newTestServer(api, nil), http.MethodGet, "/api/buildings/b-9/recommendations", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b-9", api.gotBuilding)
	assert.Equal(t, "High", decodeMap(t, rec)["priority_level"])
}

func TestGetClimateProfile(t *testing.T) {
	api := &mockAPI{}
	rec := do(t, newTestServer(api, nil), http.MethodGet, "/api/climate?lat=30.5&lon=-97.25", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30.5, api.gotLat)
	assert.Equal(t, -97.25, api.gotLon)
}

func TestGetClimateProfile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		err     error
		want    int
		wantMsg string
	}{
		{"missing lat", "/api/climate?lon=1", nil, http.StatusBadRequest, "validation error"},
		{"bad lon", "/api/climate?lat=1&lon=east", nil, http.StatusBadRequest, "validation error"},
		{"out of range", "/api/climate?lat=95&lon=1", fmt.Errorf("%w: latitude 95 out of range", domain.ErrValidation), http.StatusBadRequest, "validation error: latitude 95 out of range"},
		{"provider down", "/api/climate?lat=1&lon=1", fmt.Errorf("%w: get https://api.example/weather?appid=secret: timeout", domain.ErrClimateDataUnavailable), http.StatusServiceUnavailable, "climate data unavailable"},
		{"store down", "/api/climate?lat=1&lon=1", fmt.Errorf("%w: get building: dial tcp 10.0.0.5:5432: connection refused", domain.ErrPersistence), http.StatusServiceUnavailable, "persistence error"},
		{"unexpected", "/api/climate?lat=1&lon=1", fmt.Errorf("odd internal state"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(&mockAPI{err: tt.err}, nil), http.MethodGet, tt.target, "")
			assert.Equal(t, tt.want, rec.Code)
			if tt.want >= http.StatusInternalServerError {
				assert.Equal(t, tt.wantMsg, decodeMap(t, rec)["error"])
			} else {
				assert.Contains(t, decodeMap(t, rec)["error"], tt.wantMsg)
			}
		})
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv := newTestServer(&mockAPI{}, nil)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/nothing", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodDelete, "/api/buildings", "").Code)
}

func TestPanicRecovered(t *testing.T) {
	rec := do(t, newTestServer(&mockAPI{panicOnList: true}, nil), http.MethodGet, "/api/buildings", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
