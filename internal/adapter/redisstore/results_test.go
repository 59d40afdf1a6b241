package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *ResultStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewResultStore(NewClient(mr.Addr(), "", 0))
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func sampleResult() domain.SimulationResult {
	return domain.SimulationResult{
		SimulationType: domain.DefaultSimulationKind,
		BuildingID:     "b-1",
		Timestamp:      time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC),
		EnergyAnalysis: domain.EnergyAnalysis{
			AnnualCoolingLoad:      12000,
			AnnualHeatingLoad:      3000,
			TotalEnergyConsumption: 15000,
			EnergyIntensity:        15,
		},
	}
}

func TestResultStore_PutAndGet(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	ref, err := store.PutResult(ctx, "sim-1", sampleResult())
	require.NoError(t, err)
	assert.Equal(t, "simulation:result:sim-1", ref)
	assert.True(t, mr.Exists(ref))

	got, err := store.GetResult(ctx, "sim-1")
	require.NoError(t, err)
	if diff := cmp.Diff(sampleResult(), got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestResultStore_WriteOnce(t *testing.T) {
	_, store := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.PutResult(ctx, "sim-1", sampleResult())
	require.NoError(t, err)

	second := sampleResult()
	second.BuildingID = "b-2"
	_, err = store.PutResult(ctx, "sim-1", second)
	assert.True(t, errors.Is(err, domain.ErrResultExists))

	got, err := store.GetResult(ctx, "sim-1")
	require.NoError(t, err)
	assert.Equal(t, "b-1", got.BuildingID, "first write should be kept")
}

func TestResultStore_GetMissing(t *testing.T) {
	_, store := setupTestRedis(t)

	_, err := store.GetResult(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestResultStore_CorruptDocument(t *testing.T) {
	mr, store := setupTestRedis(t)
	require.NoError(t, mr.Set(ResultKey("sim-1"), "{not json"))

	_, err := store.GetResult(context.Background(), "sim-1")
	assert.True(t, errors.Is(err, domain.ErrPersistence))
}

func TestResultStore_Unavailable(t *testing.T) {
	mr, store := setupTestRedis(t)
	mr.Close()

	_, err := store.PutResult(context.Background(), "sim-1", sampleResult())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPersistence))
	assert.Error(t, store.Ping(context.Background()))
}
