package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Report sources selectable via REPORT_SOURCE.
const (
	SourceMock  = "mock"
	SourceKafka = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration
	AllowedOrigins   []string

	BatchSize          int
	BatchFlushInterval time.Duration

	// Report set and feed.
	ReportSource     string
	MaxReports       int
	MockFeedSchedule string
	MockFeedSize     int
	MockSeed         int64

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Alert storage. An empty DatabaseURL selects the in-memory store.
	DatabaseURL string
	AlertsFile  string
	BunDebug    bool

	// Generated alert feed.
	AlertFeedEnabled  bool
	AlertFeedSchedule string
	AlertSeed         int64
}

// LoadDotEnv loads variables from .env files (default ".env") into the
// process environment without overriding values already set. Missing files
// are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	maxReports, err := parsePositiveInt("MAX_REPORTS", 5000)
	if err != nil {
		return nil, err
	}
	feedSize, err := parsePositiveInt("MOCK_FEED_SIZE", 50)
	if err != nil {
		return nil, err
	}
	seed, err := strconv.ParseInt(sharedcfg.EnvOrDefault("MOCK_SEED", "0"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid MOCK_SEED")
	}

	alertSeed, err := strconv.ParseInt(sharedcfg.EnvOrDefault("ALERT_SEED", "0"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid ALERT_SEED")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-incident-reports"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "aggregated-locations"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "incident-report-service"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		AllowedOrigins:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		ReportSource:     strings.ToLower(sharedcfg.EnvOrDefault("REPORT_SOURCE", SourceMock)),
		MaxReports:       maxReports,
		MockFeedSchedule: sharedcfg.EnvOrDefault("MOCK_FEED_SCHEDULE", "@every 1m"),
		MockFeedSize:     feedSize,
		MockSeed:         seed,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		AlertsFile:  os.Getenv("ALERTS_FILE"),
		BunDebug:    os.Getenv("BUN_DEBUG") == "true",

		AlertFeedEnabled:  os.Getenv("ALERT_FEED_ENABLED") != "false",
		AlertFeedSchedule: sharedcfg.EnvOrDefault("ALERT_FEED_SCHEDULE", "@every 15m"),
		AlertSeed:         alertSeed,
	}

	if cfg.ReportSource != SourceMock && cfg.ReportSource != SourceKafka {
		return nil, fmt.Errorf("REPORT_SOURCE must be %q or %q", SourceMock, SourceKafka)
	}
	if cfg.ReportSource == SourceKafka {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
