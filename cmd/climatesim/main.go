package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/climate-sim-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-sim-service/internal/adapter/kafka"
	"github.com/couchcryptid/climate-sim-service/internal/adapter/memory"
	"github.com/couchcryptid/climate-sim-service/internal/adapter/openweather"
	"github.com/couchcryptid/climate-sim-service/internal/adapter/postgres"
	"github.com/couchcryptid/climate-sim-service/internal/adapter/redisstore"
	"github.com/couchcryptid/climate-sim-service/internal/config"
	"github.com/couchcryptid/climate-sim-service/internal/domain"
	"github.com/couchcryptid/climate-sim-service/internal/observability"
	"github.com/couchcryptid/climate-sim-service/internal/pipeline"
	"github.com/couchcryptid/climate-sim-service/internal/scheduler"
	"github.com/couchcryptid/climate-sim-service/internal/service"
)

// recordStore is satisfied by both the Postgres and in-memory stores.
type recordStore interface {
	domain.BuildingRepository
	domain.SimulationRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Error("service error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Record store: Postgres when DATABASE_URL is set, otherwise in memory.
	var records recordStore
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		pg := postgres.NewStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		records = pg
		logger.Info("record store: postgres")
	} else {
		records = memory.NewStore()
		logger.Info("record store: in-memory")
	}

	// Result store: Redis when REDIS_ADDR is set, otherwise in memory.
	var results domain.ResultStore
	if cfg.RedisAddr != "" {
		rs := redisstore.NewResultStore(redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
		defer rs.Close()
		if err := rs.Ping(ctx); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		results = rs
		logger.Info("result store: redis", "addr", cfg.RedisAddr)
	} else {
		results = memory.NewResultStore()
		logger.Info("result store: in-memory")
	}

	var weather domain.WeatherProvider = openweather.NewClient(
		cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.WeatherTimeout, cfg.WeatherRetries, metrics, logger)
	if cfg.WeatherCacheTTL > 0 {
		weather = openweather.NewCachedProvider(weather, cfg.WeatherCacheSize, cfg.WeatherCacheTTL, metrics)
		logger.Info("weather cache enabled", "cache_size", cfg.WeatherCacheSize, "ttl", cfg.WeatherCacheTTL)
	}

	var (
		publisher domain.SimulationPublisher
		writer    *kafkaadapter.Writer
		reader    *kafkaadapter.Reader
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		reader = kafkaadapter.NewReader(cfg, logger)
		publisher = writer
		logger.Info("kafka enabled", "brokers", cfg.KafkaBrokers,
			"request_topic", cfg.KafkaRequestTopic, "event_topic", cfg.KafkaEventTopic)
	}

	sched := scheduler.New(scheduler.Config{
		Workers:          cfg.WorkerCount,
		QueueSize:        cfg.QueueSize,
		JobTimeout:       cfg.JobTimeout,
		WatchdogInterval: cfg.WatchdogInterval,
	}, scheduler.Deps{
		Buildings:   records,
		Simulations: records,
		Results:     results,
		Weather:     weather,
		Publisher:   publisher,
	}, logger, metrics)

	svc := service.New(service.Deps{
		Buildings:   records,
		Simulations: records,
		Results:     results,
		Weather:     weather,
		Scheduler:   sched,
	}, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, logger)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gCtx)
	})

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if reader != nil {
		p := pipeline.New(reader, sched, logger, metrics, cfg.BatchSize)
		g.Go(func() error {
			return p.Run(gCtx)
		})
	}

	runErr := g.Wait()

	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}
