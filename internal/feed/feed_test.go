package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

type stubGenerator struct {
	calls int
}

func (g *stubGenerator) Generate(n int) []domain.Report {
	g.calls++
	out := make([]domain.Report, n)
	for i := range out {
		out[i] = domain.Report{ID: "r", LocationKey: "Adyar", ReportCount: 1}
	}
	return out
}

type mockReplacer struct {
	mu      sync.Mutex
	batches [][]domain.Report
	err     error
}

func (m *mockReplacer) Replace(_ context.Context, reports []domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, reports)
	return m.err
}

func (m *mockReplacer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefresh(t *testing.T) {
	gen := &stubGenerator{}
	sink := &mockReplacer{}
	metrics := observability.NewMetricsForTesting()
	f := New("@every 1h", 4, gen, sink, discardLogger(), metrics)

	f.Refresh(context.Background())

	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0], 4)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FeedRuns.WithLabelValues("success")), 0)
}

func TestRefresh_SinkError(t *testing.T) {
	sink := &mockReplacer{err: errors.New("boom")}
	metrics := observability.NewMetricsForTesting()
	f := New("@every 1h", 1, &stubGenerator{}, sink, discardLogger(), metrics)

	f.Refresh(context.Background())

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FeedRuns.WithLabelValues("error")), 0)
}

func TestRefresh_CancelledContext(t *testing.T) {
	gen := &stubGenerator{}
	sink := &mockReplacer{}
	f := New("@every 1h", 1, gen, sink, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.Refresh(ctx)

	assert.Zero(t, gen.calls)
	assert.Zero(t, sink.count())
}

func TestRun_RefreshesImmediatelyAndStops(t *testing.T) {
	sink := &mockReplacer{}
	f := New("@every 1h", 2, &stubGenerator{}, sink, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not stop after cancellation")
	}
}

func TestRun_Ticks(t *testing.T) {
	sink := &mockReplacer{}
	f := New("@every 1s", 1, &stubGenerator{}, sink, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.count() >= 2 }, 3*time.Second, 50*time.Millisecond)
}

func TestRun_InvalidSchedule(t *testing.T) {
	sink := &mockReplacer{}
	f := New("not a schedule", 1, &stubGenerator{}, sink, discardLogger(), observability.NewMetricsForTesting())

	err := f.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a schedule")
	assert.Zero(t, sink.count())
}
