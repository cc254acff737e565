package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/incident-report-service/internal/alert"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

// AlertGenerator produces a batch of candidate alerts.
type AlertGenerator interface {
	Generate() []alert.Alert
}

// AlertSink is where generated alerts are checked for duplicates and stored.
type AlertSink interface {
	Search(ctx context.Context, f alert.Filter) ([]alert.Alert, error)
	alert.Writer
}

// AlertFeed periodically adds generated alerts to the alert store, skipping
// any that duplicate an alert already held.
type AlertFeed struct {
	schedule string
	gen      AlertGenerator
	sink     AlertSink
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu sync.Mutex
}

// NewAlerts creates an AlertFeed.
func NewAlerts(schedule string, gen AlertGenerator, sink AlertSink, logger *slog.Logger, metrics *observability.Metrics) *AlertFeed {
	return &AlertFeed{
		schedule: schedule,
		gen:      gen,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run refreshes once immediately, then on every schedule tick until ctx is
// cancelled. It returns an error only for an invalid schedule.
func (f *AlertFeed) Run(ctx context.Context) error {
	f.logger.Info("alert feed started", "schedule", f.schedule)
	if err := runScheduled(ctx, f.schedule, f.Refresh); err != nil {
		return fmt.Errorf("schedule alert feed %q: %w", f.schedule, err)
	}
	f.logger.Info("alert feed stopped")
	return nil
}

// Refresh generates candidates and stores the ones that are not duplicates.
func (f *AlertFeed) Refresh(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	stored, err := f.refresh(ctx)
	if err != nil {
		f.logger.Error("alert feed refresh failed", "error", err)
		f.metrics.AlertFeedRuns.WithLabelValues("error").Inc()
		return
	}
	f.metrics.AlertFeedRuns.WithLabelValues("success").Inc()
	f.metrics.AlertsStored.Add(float64(stored))
	f.logger.Debug("alert feed refreshed", "stored", stored)
}

func (f *AlertFeed) refresh(ctx context.Context) (int, error) {
	candidates := f.gen.Generate()
	if len(candidates) == 0 {
		return 0, nil
	}
	existing, err := f.sink.Search(ctx, alert.Window(candidates))
	if err != nil {
		return 0, fmt.Errorf("load existing alerts: %w", err)
	}
	fresh := alert.Fresh(existing, candidates)
	if skipped := len(candidates) - len(fresh); skipped > 0 {
		f.logger.Debug("skipping duplicate alerts", "count", skipped)
	}
	if err := f.sink.Upsert(ctx, fresh); err != nil {
		return 0, fmt.Errorf("store %d alerts: %w", len(fresh), err)
	}
	return len(fresh), nil
}
