//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/climate-sim-service/internal/adapter/kafka"
	"github.com/couchcryptid/climate-sim-service/internal/adapter/memory"
	"github.com/couchcryptid/climate-sim-service/internal/adapter/openweather"
	"github.com/couchcryptid/climate-sim-service/internal/config"
	"github.com/couchcryptid/climate-sim-service/internal/domain"
	"github.com/couchcryptid/climate-sim-service/internal/observability"
	"github.com/couchcryptid/climate-sim-service/internal/pipeline"
	"github.com/couchcryptid/climate-sim-service/internal/scheduler"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testRequestTopic = "test-simulation-requests"
	testEventTopic   = "test-simulation-events"
)

const weatherBody = `{
  "name": "Lisbon",
  "sys": {"country": "PT"},
  "main": {"temp": 21.5, "humidity": 65, "pressure": 1016, "temp_min": 18, "temp_max": 27},
  "wind": {"speed": 4.1, "deg": 300}
}`

// lifecycleEvent holds a deserialized message read from the event topic.
type lifecycleEvent struct {
	Simulation domain.Simulation
	Key        string
	Headers    map[string]string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("climate-sim-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func startWeather(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(weatherBody))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func readEvent(ctx context.Context, t *testing.T, consumer *kafkago.Reader) lifecycleEvent {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from event topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var sim domain.Simulation
	require.NoError(t, json.Unmarshal(msg.Value, &sim), "unmarshal event")
	return lifecycleEvent{Simulation: sim, Key: string(msg.Key), Headers: headers}
}

func produce(ctx context.Context, t *testing.T, broker string, values ...string) {
	t.Helper()
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testRequestTopic}
	defer producer.Close()

	msgs := make([]kafkago.Message, 0, len(values))
	for _, v := range values {
		msgs = append(msgs, kafkago.Message{Value: []byte(v)})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}

type harness struct {
	broker   string
	store    *memory.Store
	results  *memory.ResultStore
	metrics  *observability.Metrics
	consumer *kafkago.Reader
}

// startHarness wires the request consumer, scheduler and event writer against
// a real broker. Everything stops when the test ends.
func startHarness(ctx context.Context, t *testing.T) *harness {
	t.Helper()
	broker := startKafka(ctx, t)
	createTopic(t, broker, testRequestTopic)
	createTopic(t, broker, testEventTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaRequestTopic:  testRequestTopic,
		KafkaEventTopic:    testEventTopic,
		KafkaGroupID:       fmt.Sprintf("test-requests-%d", time.Now().UnixNano()),
		BatchFlushInterval: time.Second,
	}
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	store := memory.NewStore()
	results := memory.NewResultStore()
	weather := openweather.NewClient(startWeather(t), "test-key", 5*time.Second, 0, metrics, logger)

	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })
	reader := kafka.NewReader(cfg, logger)
	t.Cleanup(func() { _ = reader.Close() })

	sched := scheduler.New(scheduler.Config{Workers: 2, QueueSize: 8, JobTimeout: 30 * time.Second}, scheduler.Deps{
		Buildings:   store,
		Simulations: store,
		Results:     results,
		Weather:     weather,
		Publisher:   writer,
	}, logger, metrics)
	p := pipeline.New(reader, sched, logger, metrics, 10)

	runCtx, stop := context.WithCancel(ctx)
	schedDone := make(chan struct{})
	pipeDone := make(chan struct{})
	go func() { defer close(schedDone); _ = sched.Run(runCtx) }()
	go func() { defer close(pipeDone); _ = p.Run(runCtx) }()
	t.Cleanup(func() {
		stop()
		<-pipeDone
		<-schedDone
	})

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testEventTopic,
		GroupID:     fmt.Sprintf("test-events-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	return &harness{broker: broker, store: store, results: results, metrics: metrics, consumer: consumer}
}

func (h *harness) registerBuilding(ctx context.Context, t *testing.T, lat, lon float64) domain.Building {
	t.Helper()
	b, err := domain.NewBuilding(domain.BuildingRequest{
		Name:         "Hospital Central",
		Latitude:     &lat,
		Longitude:    &lon,
		ArtifactName: "ward.dwg",
	})
	require.NoError(t, err)
	require.NoError(t, h.store.CreateBuilding(ctx, b))
	return b
}

// TestRequestToCompletedEvent verifies the full path: a request on the
// request topic is submitted, simulated, stored and announced on the event topic.
func TestRequestToCompletedEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	h := startHarness(ctx, t)
	b := h.registerBuilding(ctx, t, 38.72, -9.14)

	produce(ctx, t, h.broker, fmt.Sprintf(`{"building_id": %q, "simulation_type": "energy_analysis"}`, b.ID))

	ev := readEvent(ctx, t, h.consumer)
	assert.Equal(t, kafka.EventSimulationCompleted, ev.Headers["event_type"])
	_, err := time.Parse(time.RFC3339, ev.Headers["occurred_at"])
	assert.NoError(t, err, "occurred_at should be valid RFC3339")

	assert.Equal(t, ev.Simulation.ID, ev.Key)
	assert.Equal(t, b.ID, ev.Simulation.BuildingID)
	assert.Equal(t, domain.StatusCompleted, ev.Simulation.Status)
	require.NotEmpty(t, ev.Simulation.ResultsRef)
	require.NotNil(t, ev.Simulation.CompletedAt)

	stored, err := h.store.GetSimulation(ctx, ev.Simulation.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)

	result, err := h.results.GetResult(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, result.BuildingID)
	assert.Equal(t, "energy_analysis", result.SimulationType)
	assert.Positive(t, result.EnergyAnalysis.AnnualCoolingLoad)
}

// TestPoisonRequestsAreSkipped verifies that undecodable and unknown-building
// requests are committed and do not block a valid request behind them.
func TestPoisonRequestsAreSkipped(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	h := startHarness(ctx, t)
	b := h.registerBuilding(ctx, t, 59.91, 10.75)

	produce(ctx, t, h.broker,
		`{not json`,
		`{"building_id": "does-not-exist"}`,
		fmt.Sprintf(`{"building_id": %q, "simulation_type": "solar_analysis"}`, b.ID),
	)

	ev := readEvent(ctx, t, h.consumer)
	assert.Equal(t, kafka.EventSimulationCompleted, ev.Headers["event_type"])
	assert.Equal(t, b.ID, ev.Simulation.BuildingID)
	assert.Equal(t, "solar_analysis", ev.Simulation.Kind)

	sims, err := h.store.ListRunningBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, sims, "no job should be left running")
}
