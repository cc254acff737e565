package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/incident-report-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/incident-report-service/internal/adapter/kafka"
	"github.com/couchcryptid/incident-report-service/internal/adapter/mapbox"
	"github.com/couchcryptid/incident-report-service/internal/adapter/postgres"
	"github.com/couchcryptid/incident-report-service/internal/alert"
	"github.com/couchcryptid/incident-report-service/internal/config"
	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/feed"
	"github.com/couchcryptid/incident-report-service/internal/observability"
	"github.com/couchcryptid/incident-report-service/internal/pipeline"
	"github.com/couchcryptid/incident-report-service/internal/reportgen"
	"github.com/couchcryptid/incident-report-service/internal/reportset"
)

// readiness is ready only when every check passes.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// alertStore is an alert store the alert feed can write to.
type alertStore interface {
	alert.Store
	alert.Writer
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	alerts, closeAlerts, alertsReady, err := openAlerts(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open alert store", "error", err)
		os.Exit(1)
	}
	defer closeAlerts()

	var opts []reportset.Option
	var writer *kafkaadapter.Writer
	if cfg.ReportSource == config.SourceKafka && cfg.KafkaSinkTopic != "" {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, reportset.WithPublisher(writer))
	}
	store := reportset.New(cfg.MaxReports, logger, metrics, opts...)

	checks := readiness{store}
	if alertsReady != nil {
		checks = append(checks, alertsReady)
	}

	var reader *kafkaadapter.Reader
	var run func(context.Context) error
	switch cfg.ReportSource {
	case config.SourceKafka:
		geocoder, err := newGeocoder(cfg, metrics, logger)
		if err != nil {
			logger.Error("failed to build geocoder", "error", err)
			os.Exit(1)
		}
		reader = kafkaadapter.NewReader(cfg, logger)
		p := pipeline.New(reader, pipeline.NewTransformer(geocoder, logger), store, logger, metrics, cfg.BatchSize)
		checks = append(checks, p)
		run = p.Run
		logger.Info("ingesting reports from kafka", "topic", cfg.KafkaSourceTopic, "group", cfg.KafkaGroupID)
	default:
		f := feed.New(cfg.MockFeedSchedule, cfg.MockFeedSize, reportgen.New(cfg.MockSeed), store, logger, metrics)
		run = f.Run
		logger.Info("serving generated reports", "schedule", cfg.MockFeedSchedule, "size", cfg.MockFeedSize)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Reports:        store,
		Alerts:         alerts,
		Ready:          checks,
		AllowedOrigins: cfg.AllowedOrigins,
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	go func() {
		if err := run(ctx); err != nil {
			logger.Error("report source error", "error", err)
			stop()
		}
	}()

	if cfg.AlertFeedEnabled {
		af := feed.NewAlerts(cfg.AlertFeedSchedule, alert.NewGenerator(cfg.AlertSeed, clockwork.NewRealClock()), alerts, logger, metrics)
		go func() {
			if err := af.Run(ctx); err != nil {
				logger.Error("alert feed error", "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
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
}

// newGeocoder returns nil when geocoding is disabled.
func newGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.Geocoder, error) {
	if !cfg.MapboxEnabled {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("mapbox geocoding disabled")
		return nil, nil
	}
	client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
	cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
	if err != nil {
		return nil, err
	}
	metrics.GeocodeEnabled.Set(1)
	logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	return cached, nil
}

// openAlerts selects postgres when DATABASE_URL is set, seeding it from
// ALERTS_FILE, and the in-memory store otherwise.
func openAlerts(ctx context.Context, cfg *config.Config, logger *slog.Logger) (alertStore, func(), sharedobs.ReadinessChecker, error) {
	seed, err := alert.LoadFile(cfg.AlertsFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		logger.Info("using in-memory alert store", "file", cfg.AlertsFile)
		return seed, func() {}, nil, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.BunDebug)
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}

	store := postgres.NewAlertStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		closeDB()
		return nil, nil, nil, err
	}
	initial, err := seed.All(ctx)
	if err != nil {
		closeDB()
		return nil, nil, nil, err
	}
	if len(initial) > 0 {
		if err := store.Upsert(ctx, initial); err != nil {
			closeDB()
			return nil, nil, nil, err
		}
		logger.Info("seeded alert store", "alerts", len(initial))
	}
	logger.Info("using postgres alert store")
	return store, closeDB, store, nil
}
