package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	PipelineEnabled  bool
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Governorate boundaries: a GeoJSON file, or Postgres when DatabaseURL is set.
	GovernoratesFile string
	DatabaseURL      string
	ContentRadiusKm  float64

	// Overpass road-network lookups (P1).
	OverpassURL       string
	OverpassEnabled   bool
	OverpassTimeout   time.Duration
	OverpassCacheSize int

	// Shared road-network cache. Empty RedisAddr disables the tier.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisCacheTTL time.Duration

	DisabledPatterns []domain.PatternID
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	overpassTimeout, err := parsePositiveDuration("OVERPASS_TIMEOUT", "25s")
	if err != nil {
		return nil, err
	}

	redisTTL, err := parsePositiveDuration("REDIS_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}

	redisDB, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return nil, errors.New("invalid REDIS_DB")
	}

	radius, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("CONTENT_RADIUS_KM", "10"), 64)
	if err != nil || radius <= 0 {
		return nil, errors.New("invalid CONTENT_RADIUS_KM")
	}

	disabled, err := parseDisabledPatterns(os.Getenv("PATTERNS_DISABLED"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "pattern-detection-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "detected-patterns"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "spatial-pattern-service"),
		PipelineEnabled:    sharedcfg.EnvOrDefault("PIPELINE_ENABLED", "true") == "true",
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		GovernoratesFile: os.Getenv("GOVERNORATES_FILE"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		ContentRadiusKm:  radius,

		OverpassURL:       sharedcfg.EnvOrDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		OverpassEnabled:   sharedcfg.EnvOrDefault("OVERPASS_ENABLED", "true") == "true",
		OverpassTimeout:   overpassTimeout,
		OverpassCacheSize: parseCacheSize("OVERPASS_CACHE_SIZE", 1000),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		RedisCacheTTL: redisTTL,

		DisabledPatterns: disabled,
	}

	if cfg.PipelineEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.GovernoratesFile == "" && cfg.DatabaseURL == "" {
		return nil, errors.New("GOVERNORATES_FILE or DATABASE_URL is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// parseDisabledPatterns reads a comma-separated list such as "P1,P5".
func parseDisabledPatterns(s string) ([]domain.PatternID, error) {
	var ids []domain.PatternID
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := domain.ParsePatternID(part)
		if err != nil {
			return nil, fmt.Errorf("invalid PATTERNS_DISABLED: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
