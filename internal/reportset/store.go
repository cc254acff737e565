// Package reportset holds the current set of processed reports and the
// aggregation snapshot derived from it.
package reportset

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

// SnapshotPublisher forwards a freshly computed snapshot downstream.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap domain.Snapshot) error
}

// Store is a concurrency-safe report set. Every change recomputes the
// snapshot in full from the raw reports; aggregates are never patched.
type Store struct {
	mu       sync.RWMutex
	order    []string
	reports  map[string]domain.Report
	snapshot domain.Snapshot
	ready    bool

	maxReports int
	publisher  SnapshotPublisher
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher publishes every recomputed snapshot.
func WithPublisher(p SnapshotPublisher) Option {
	return func(s *Store) { s.publisher = p }
}

// New creates an empty Store holding at most maxReports reports.
// maxReports <= 0 means unbounded.
func New(maxReports int, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Store {
	s := &Store{
		reports:    make(map[string]domain.Report),
		snapshot:   domain.NewSnapshot(nil),
		maxReports: maxReports,
		logger:     logger,
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadBatch upserts reports by ID. New IDs are appended, known IDs are
// replaced in place, and the oldest reports are evicted past the size limit.
func (s *Store) LoadBatch(ctx context.Context, reports []domain.Report) error {
	if len(reports) == 0 {
		return nil
	}

	s.mu.Lock()
	for _, r := range reports {
		if _, ok := s.reports[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		s.reports[r.ID] = r
	}
	evicted := s.evictLocked()
	snap := s.recomputeLocked()
	s.mu.Unlock()

	s.metrics.ReportsLoaded.Add(float64(len(reports)))
	if evicted > 0 {
		s.logger.Debug("evicted oldest reports", "evicted", evicted, "max_reports", s.maxReports)
	}
	s.publish(ctx, snap)
	return nil
}

// Replace swaps the whole report set.
func (s *Store) Replace(ctx context.Context, reports []domain.Report) error {
	s.mu.Lock()
	s.order = s.order[:0]
	s.reports = make(map[string]domain.Report, len(reports))
	for _, r := range reports {
		if _, ok := s.reports[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		s.reports[r.ID] = r
	}
	s.evictLocked()
	snap := s.recomputeLocked()
	s.mu.Unlock()

	s.metrics.ReportsLoaded.Add(float64(len(reports)))
	s.publish(ctx, snap)
	return nil
}

// Snapshot returns the latest aggregation.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Reports returns a copy of the held reports, oldest first.
func (s *Store) Reports() []domain.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked()
}

// Len returns the number of held reports.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// CheckReadiness returns nil once the set has been loaded at least once.
func (s *Store) CheckReadiness(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return errors.New("report set has not been loaded yet")
	}
	return nil
}

func (s *Store) evictLocked() int {
	if s.maxReports <= 0 || len(s.order) <= s.maxReports {
		return 0
	}
	n := len(s.order) - s.maxReports
	for _, id := range s.order[:n] {
		delete(s.reports, id)
	}
	s.order = append([]string(nil), s.order[n:]...)
	return n
}

func (s *Store) recomputeLocked() domain.Snapshot {
	start := time.Now()
	s.snapshot = domain.NewSnapshot(s.listLocked())
	s.ready = true

	s.metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	s.metrics.ReportsHeld.Set(float64(len(s.order)))
	s.metrics.LocationsAggregated.Set(float64(len(s.snapshot.Locations)))
	return s.snapshot
}

func (s *Store) listLocked() []domain.Report {
	out := make([]domain.Report, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.reports[id])
	}
	return out
}

// publish failures are logged and counted; the set itself stays updated.
func (s *Store) publish(ctx context.Context, snap domain.Snapshot) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSnapshot(ctx, snap); err != nil {
		s.logger.Warn("publish snapshot failed", "error", err, "locations", len(snap.Locations))
		s.metrics.SnapshotPublishes.WithLabelValues("error").Inc()
		return
	}
	s.metrics.SnapshotPublishes.WithLabelValues("success").Inc()
}
