// Package feed refreshes the report set and the alert store from generators
// on a cron schedule.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

// Generator produces a batch of reports.
type Generator interface {
	Generate(n int) []domain.Report
}

// Replacer swaps the current report set.
type Replacer interface {
	Replace(ctx context.Context, reports []domain.Report) error
}

// Feed periodically replaces the report set with freshly generated reports.
type Feed struct {
	schedule string
	size     int
	gen      Generator
	sink     Replacer
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu sync.Mutex // serializes refreshes; Generator is not concurrency-safe
}

// New creates a Feed that generates size reports per run.
func New(schedule string, size int, gen Generator, sink Replacer, logger *slog.Logger, metrics *observability.Metrics) *Feed {
	return &Feed{
		schedule: schedule,
		size:     size,
		gen:      gen,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run refreshes once immediately, then on every schedule tick until ctx is
// cancelled. It returns an error only for an invalid schedule.
func (f *Feed) Run(ctx context.Context) error {
	f.logger.Info("mock feed started", "schedule", f.schedule, "size", f.size)
	if err := runScheduled(ctx, f.schedule, f.Refresh); err != nil {
		return fmt.Errorf("schedule mock feed %q: %w", f.schedule, err)
	}
	f.logger.Info("mock feed stopped")
	return nil
}

// runScheduled calls refresh once, then on every schedule tick, skipping a
// tick while the previous call is still running. It blocks until ctx is
// cancelled and any running call has returned.
func runScheduled(ctx context.Context, schedule string, refresh func(context.Context)) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() { refresh(ctx) }); err != nil {
		return err
	}

	refresh(ctx)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Refresh generates a batch and replaces the report set with it.
func (f *Feed) Refresh(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	reports := f.gen.Generate(f.size)
	if err := f.sink.Replace(ctx, reports); err != nil {
		f.logger.Error("mock feed refresh failed", "error", err)
		f.metrics.FeedRuns.WithLabelValues("error").Inc()
		return
	}
	f.metrics.FeedRuns.WithLabelValues("success").Inc()
	f.logger.Debug("mock feed refreshed", "reports", len(reports))
}
