// Package pipeline consumes simulation requests from a message stream and
// submits them to the scheduler.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
	"github.com/couchcryptid/climate-sim-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw request messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// Submitter starts a simulation for a building.
type Submitter interface {
	Submit(ctx context.Context, buildingID, kind string) (domain.Simulation, error)
}

// Pipeline orchestrates the consume-submit-commit loop.
type Pipeline struct {
	extractor BatchExtractor
	submitter Submitter
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int
}

// New creates a Pipeline.
func New(e BatchExtractor, s Submitter, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		submitter: s,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// Run consumes requests until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("request consumer started", "batch_size", p.batchSize)
	p.metrics.ConsumerRunning.Set(1)
	defer p.metrics.ConsumerRunning.Set(0)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("request consumer stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch handles one batch. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}
	*backoff = initialBackoff

	p.metrics.RequestsConsumed.Add(float64(len(batch)))
	for _, raw := range batch {
		if !p.handle(ctx, raw, backoff) {
			return false
		}
	}
	return ctx.Err() == nil
}

// handle submits one request, retrying transient failures with backoff.
// Invalid requests are logged and committed so they are not redelivered.
// Returns false if the pipeline should stop.
func (p *Pipeline) handle(ctx context.Context, raw domain.RawMessage, backoff *time.Duration) bool {
	req, err := domain.ParseSimulationRequest(raw)
	if err != nil {
		p.reject(ctx, raw, err)
		return true
	}

	for {
		sim, err := p.submitter.Submit(ctx, req.BuildingID, req.Kind)
		if err == nil {
			p.logger.Debug("request submitted",
				"simulation_id", sim.ID,
				"building_id", req.BuildingID,
				"offset", raw.Offset,
			)
			*backoff = initialBackoff
			p.commitOffset(ctx, raw)
			return true
		}
		if !domain.IsRetryable(err) {
			p.reject(ctx, raw, err)
			return true
		}

		p.logger.Warn("submit failed, retrying", "error", err, "building_id", req.BuildingID, "backoff", *backoff)
		if !p.backoffOrStop(ctx, backoff) {
			return false
		}
	}
}

func (p *Pipeline) reject(ctx context.Context, raw domain.RawMessage, err error) {
	p.logger.Warn("rejecting simulation request",
		"error", err,
		"topic", raw.Topic,
		"partition", raw.Partition,
		"offset", raw.Offset,
	)
	p.metrics.RequestsRejected.Inc()
	p.commitOffset(ctx, raw)
}

// backoffOrStop sleeps with the current backoff and advances it.
// Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := domain.Clock().NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
