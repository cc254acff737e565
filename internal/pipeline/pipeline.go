package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw event into a report.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Report, error)
}

// BatchLoader merges a batch of reports into the report set.
type BatchLoader interface {
	LoadBatch(ctx context.Context, reports []domain.Report) error
}

// Retry pacing after a failed extract or load.
const (
	retryInitialInterval = 200 * time.Millisecond
	retryMaxInterval     = 5 * time.Second
)

// Pipeline moves Kafka messages into the report set.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once a batch of reports has been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not loaded any reports yet")
	}
	return nil
}

// Run ingests batches until ctx is cancelled. Failed steps are retried with
// exponential backoff that never gives up; a successful step resets it.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	retry := newRetryBackOff(ctx)

	for ctx.Err() == nil {
		err := p.ingest(ctx)
		switch {
		case err == nil:
			retry.Reset()
		case ctx.Err() != nil:
		default:
			p.logger.Error("ingest failed", "error", err)
			if !pause(ctx, retry) {
				p.logger.Info("pipeline stopping", "reason", "retry cancelled")
				return nil
			}
		}
	}

	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

func newRetryBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(b, ctx)
}

// pause waits out the next backoff interval. It returns false when the
// backoff stops or ctx ends first.
func pause(ctx context.Context, b backoff.BackOff) bool {
	d := b.NextBackOff()
	if d == backoff.Stop {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// ingest runs one extract, transform and load step. Offsets of loaded and
// unparseable messages are committed; a failed load commits nothing so the
// batch is redelivered.
func (p *Pipeline) ingest(ctx context.Context) error {
	start := time.Now()

	events, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("extract batch: %w", err)
	}
	if len(events) == 0 {
		return nil
	}
	p.metrics.MessagesConsumed.Add(float64(len(events)))
	p.metrics.BatchSize.Observe(float64(len(events)))

	reports, parsed := p.parse(ctx, events)
	if len(reports) == 0 {
		return nil
	}

	if err := p.loader.LoadBatch(ctx, reports); err != nil {
		return fmt.Errorf("load %d reports: %w", len(reports), err)
	}
	for _, raw := range parsed {
		p.commit(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return nil
}

// parse transforms every event, committing and dropping the ones that fail.
// It returns the reports along with the events they came from.
func (p *Pipeline) parse(ctx context.Context, events []domain.RawEvent) ([]domain.Report, []domain.RawEvent) {
	reports := make([]domain.Report, 0, len(events))
	parsed := make([]domain.RawEvent, 0, len(events))

	for _, raw := range events {
		r, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("dropping unparseable message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, raw)
			continue
		}
		reports = append(reports, r)
		parsed = append(parsed, raw)
	}
	return reports, parsed
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
