// Package scheduler runs simulation jobs on a bounded worker pool.
//
// Submit reserves a queue slot, records the job as running, and enqueues it
// without blocking. A full queue rejects the request before anything is stored. Workers execute the climate, geometry and simulation pipeline
// under a per-job deadline, write the result, then flip the status. A
// watchdog fails running jobs that outlive their deadline so no job stays
// running forever.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
	"github.com/couchcryptid/climate-sim-service/internal/observability"
)

// terminalWriteTimeout bounds status and event writes made after the job or
// scheduler context has ended.
const terminalWriteTimeout = 5 * time.Second

// Config sizes the worker pool and deadlines.
type Config struct {
	Workers          int
	QueueSize        int
	JobTimeout       time.Duration
	WatchdogInterval time.Duration
}

// Deps are the stores and providers a Scheduler reads and writes.
// Publisher may be nil.
type Deps struct {
	Buildings   domain.BuildingRepository
	Simulations domain.SimulationRepository
	Results     domain.ResultStore
	Weather     domain.WeatherProvider
	Publisher   domain.SimulationPublisher
}

type job struct {
	sim      domain.Simulation
	deadline time.Time
}

// Scheduler accepts simulation jobs and executes them asynchronously.
type Scheduler struct {
	deps    Deps
	cfg     Config
	queue   chan job
	logger  *slog.Logger
	metrics *observability.Metrics

	// mu guards stopped and reserved. len(queue)+reserved never exceeds
	// cap(queue), so a holder of a reservation can always enqueue.
	mu       sync.Mutex
	stopped  bool
	reserved int
}

// New creates a Scheduler. Call Run to start the workers.
func New(cfg Config, deps Deps, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
	if cfg.WatchdogInterval <= 0 {
		cfg.WatchdogInterval = 30 * time.Second
	}
	return &Scheduler{
		deps:    deps,
		cfg:     cfg,
		queue:   make(chan job, cfg.QueueSize),
		logger:  logger,
		metrics: metrics,
	}
}

// Submit creates a simulation for an existing building and hands it to the
// worker pool. The returned simulation is already running. Queue capacity is
// reserved before the simulation is stored: when the queue is full or the
// scheduler has stopped, ErrSchedulerBusy is returned and no record exists.
func (s *Scheduler) Submit(ctx context.Context, buildingID, kind string) (domain.Simulation, error) {
	sim, err := domain.NewSimulation(buildingID, kind)
	if err != nil {
		return domain.Simulation{}, err
	}
	if _, err := s.deps.Buildings.GetBuilding(ctx, sim.BuildingID); err != nil {
		return domain.Simulation{}, err
	}

	if err := s.reserve(); err != nil {
		s.logger.Warn("simulation rejected", "building_id", sim.BuildingID, "error", err)
		return domain.Simulation{}, err
	}
	if err := s.deps.Simulations.StartSimulation(ctx, sim); err != nil {
		s.release()
		return domain.Simulation{}, err
	}
	sim.Status = domain.StatusRunning

	if !s.enqueue(job{sim: sim, deadline: sim.CreatedAt.Add(s.cfg.JobTimeout)}) {
		s.fail(ctx, sim, domain.ReasonShutdown, "shutdown")
		return sim, fmt.Errorf("%w: %s", domain.ErrSchedulerBusy, domain.ReasonShutdown)
	}

	s.metrics.JobsSubmitted.Inc()
	s.logger.Info("simulation submitted", "simulation_id", sim.ID, "building_id", sim.BuildingID, "simulation_type", sim.Kind)
	return sim, nil
}

// reserve claims one queue slot.
func (s *Scheduler) reserve() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.metrics.JobsRejected.WithLabelValues("shutdown").Inc()
		return fmt.Errorf("%w: %s", domain.ErrSchedulerBusy, domain.ReasonShutdown)
	}
	if len(s.queue)+s.reserved >= cap(s.queue) {
		s.metrics.JobsRejected.WithLabelValues("queue_full").Inc()
		return fmt.Errorf("%w: %s", domain.ErrSchedulerBusy, domain.ReasonQueueFull)
	}
	s.reserved++
	return nil
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.reserved--
	s.mu.Unlock()
}

// enqueue turns a reservation into a queued job. It reports false when the
// scheduler stopped after the reservation was made.
func (s *Scheduler) enqueue(j job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserved--
	if s.stopped {
		return false
	}
	s.queue <- j
	s.metrics.QueueDepth.Set(float64(len(s.queue)))
	return true
}

// Run starts the workers and the watchdog and blocks until ctx is cancelled.
// Jobs still queued at shutdown are failed with ReasonShutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"workers", s.cfg.Workers,
		"queue_size", s.cfg.QueueSize,
		"job_timeout", s.cfg.JobTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.worker(ctx, id)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watchdog(ctx)
	}()

	<-ctx.Done()
	wg.Wait()

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.drain(context.WithoutCancel(ctx))

	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			s.metrics.QueueDepth.Set(float64(len(s.queue)))
			s.execute(ctx, j, id)
		}
	}
}

// drain fails every job left in the queue.
func (s *Scheduler) drain(ctx context.Context) {
	for {
		select {
		case j := <-s.queue:
			s.fail(ctx, j.sim, domain.ReasonShutdown, "shutdown")
		default:
			s.metrics.QueueDepth.Set(0)
			return
		}
	}
}

// execute runs one job to a terminal state.
func (s *Scheduler) execute(ctx context.Context, j job, workerID int) {
	start := time.Now()
	s.metrics.JobsRunning.Inc()
	defer func() {
		s.metrics.JobsRunning.Dec()
		s.metrics.JobDuration.Observe(time.Since(start).Seconds())
	}()

	logger := s.logger.With("simulation_id", j.sim.ID, "worker", workerID)

	remaining := j.deadline.Sub(domain.Now())
	if remaining <= 0 {
		s.fail(ctx, j.sim, domain.ReasonDeadlineExceeded, "deadline")
		return
	}

	// The watchdog may already have failed a job that sat in the queue.
	if current, err := s.deps.Simulations.GetSimulation(ctx, j.sim.ID); err == nil && current.Status != domain.StatusRunning {
		logger.Debug("skipping job no longer running", "status", current.Status)
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()

	ref, err := s.runPipeline(jobCtx, j.sim)
	if err != nil {
		reason, class := failureReason(ctx, jobCtx, err)
		logger.Warn("simulation failed", "reason", reason, "error", err)
		s.fail(ctx, j.sim, reason, class)
		return
	}
	s.complete(ctx, j.sim, ref)
}

// runPipeline builds the climate profile and geometry, simulates, and writes
// the result. It returns the result reference.
func (s *Scheduler) runPipeline(ctx context.Context, sim domain.Simulation) (string, error) {
	b, err := s.deps.Buildings.GetBuilding(ctx, sim.BuildingID)
	if err != nil {
		return "", err
	}

	obs, err := s.deps.Weather.CurrentObservation(ctx, b.Latitude, b.Longitude)
	if err != nil {
		return "", err
	}
	now := domain.Now()
	profile := domain.BuildClimateProfile(b.Latitude, b.Longitude, obs, now)
	geometry := domain.EstimateGeometry(domain.ArtifactKindFromFileName(b.ArtifactName))

	result := domain.Simulate(domain.SimulationInput{
		Kind:        sim.Kind,
		BuildingID:  b.ID,
		Profile:     profile,
		Geometry:    geometry,
		GeneratedAt: now,
	})

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.deps.Results.PutResult(ctx, sim.ID, result)
}

func (s *Scheduler) complete(ctx context.Context, sim domain.Simulation, ref string) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()

	at := domain.Now()
	if err := s.deps.Simulations.MarkCompleted(wctx, sim.ID, ref, at); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			s.logger.Warn("simulation finished after it was failed, result discarded", "simulation_id", sim.ID)
			return
		}
		s.logger.Error("mark simulation completed failed", "simulation_id", sim.ID, "error", err)
		return
	}

	sim.Status = domain.StatusCompleted
	sim.ResultsRef = ref
	sim.CompletedAt = &at
	s.metrics.JobsCompleted.Inc()
	s.logger.Info("simulation completed", "simulation_id", sim.ID, "building_id", sim.BuildingID)
	s.publish(wctx, sim)
}

// fail records a terminal failure and reports whether this call made the
// transition. Losing the race to another terminal transition is not an error.
func (s *Scheduler) fail(ctx context.Context, sim domain.Simulation, reason, class string) bool {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()

	at := domain.Now()
	if err := s.deps.Simulations.MarkFailed(wctx, sim.ID, reason, at); err != nil {
		if !errors.Is(err, domain.ErrInvalidTransition) {
			s.logger.Error("record simulation failure failed", "simulation_id", sim.ID, "error", err)
		}
		return false
	}

	sim.Status = domain.StatusFailed
	sim.FailureReason = reason
	sim.CompletedAt = &at
	s.metrics.JobsFailed.WithLabelValues(class).Inc()
	s.publish(wctx, sim)
	return true
}

func (s *Scheduler) publish(ctx context.Context, sim domain.Simulation) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.PublishSimulation(ctx, sim); err != nil {
		s.logger.Warn("publish simulation event failed", "simulation_id", sim.ID, "error", err)
	}
}

// failureReason maps a pipeline error to the recorded reason and a metric class.
func failureReason(parent, jobCtx context.Context, err error) (string, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.ReasonBuildingNotFound, "building_not_found"
	case parent.Err() != nil:
		return domain.ReasonShutdown, "shutdown"
	case errors.Is(jobCtx.Err(), context.DeadlineExceeded):
		return domain.ReasonDeadlineExceeded, "deadline"
	case errors.Is(err, domain.ErrClimateDataUnavailable):
		return err.Error(), "climate_data"
	case errors.Is(err, domain.ErrPersistence), errors.Is(err, domain.ErrResultExists):
		return err.Error(), "persistence"
	default:
		return err.Error(), "other"
	}
}
