//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/couchcryptid/incident-report-service/internal/adapter/postgres"
	"github.com/couchcryptid/incident-report-service/internal/alert"
	"github.com/couchcryptid/incident-report-service/internal/feed"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

// startPostgres runs a throwaway database for the duration of the test and
// returns an alert store with its schema in place.
func startPostgres(ctx context.Context, t *testing.T) *postgres.AlertStore {
	t.Helper()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("alerts"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})
	require.NoError(t, err, "start postgres container")

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := postgres.Open(ctx, dsn, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := postgres.NewAlertStore(db)
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx), "schema creation is idempotent")
	return store
}

func alertIDs(alerts []alert.Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.ID
	}
	return out
}

func TestPostgresAlertStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := startPostgres(ctx, t)

	day := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	seed := []alert.Alert{
		{ID: "a1", Type: alert.TypeTsunami, District: "CHENNAI", State: "TAMIL NADU", Color: alert.ColorRed,
			Latitude: 13.0827, Longitude: 80.2707, IssueDate: day, Message: "evacuate",
			Details: map[string]string{"magnitude": "7.4"}},
		{ID: "a2", Type: alert.TypeHighWave, District: "PURI", State: "ODISHA", Color: "orange",
			IssueDate: day.Add(24 * time.Hour)},
		{ID: "a3", Type: alert.TypeOceanCurrent, District: "KOCHI", State: "KERALA", Color: alert.ColorYellow,
			IssueDate: day.Add(48 * time.Hour)},
	}
	require.NoError(t, store.Upsert(ctx, seed))

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a2", "a1"}, alertIDs(all))

	first := all[2]
	assert.Equal(t, seed[0].Details, first.Details)
	assert.True(t, seed[0].IssueDate.Equal(first.IssueDate))
	assert.InDelta(t, 13.0827, first.Latitude, 1e-9)
	assert.Equal(t, alert.ColorOrange, all[1].Color, "colors read back upper-cased")

	found, err := store.Search(ctx, alert.Filter{DistrictOrState: "odisha"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2"}, alertIDs(found))

	found, err = store.Search(ctx, alert.Filter{StartDate: day.Add(time.Hour), EndDate: day.Add(48 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a2"}, alertIDs(found))

	high, err := store.HighSeverity(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a1"}, alertIDs(high))

	updated := seed[2]
	updated.Color = alert.ColorRed
	updated.Message = "upgraded"
	require.NoError(t, store.Upsert(ctx, []alert.Alert{updated}))

	all, err = store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, alert.ColorRed, all[0].Color)
	assert.Equal(t, "upgraded", all[0].Message)

	require.NoError(t, store.CheckReadiness(ctx))
}

func TestAlertFeedIntoPostgres(t *testing.T) {
	ctx := context.Background()
	store := startPostgres(ctx, t)
	now := time.Date(2025, 10, 1, 6, 0, 0, 0, time.UTC)

	f := feed.NewAlerts("@every 1h", alert.NewGenerator(11, clockwork.NewFakeClockAt(now)), store,
		discardLogger(), observability.NewMetricsForTesting())
	f.Refresh(ctx)

	first, err := store.All(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// A generator with the same seed repeats the batch, so every candidate
	// falls inside the duplicate window of a stored alert.
	again := feed.NewAlerts("@every 1h", alert.NewGenerator(11, clockwork.NewFakeClockAt(now)), store,
		discardLogger(), observability.NewMetricsForTesting())
	again.Refresh(ctx)

	second, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, second, len(first))
}
