package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/spatial-pattern-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/spatial-pattern-service/internal/adapter/kafka"
	"github.com/couchcryptid/spatial-pattern-service/internal/adapter/overpass"
	"github.com/couchcryptid/spatial-pattern-service/internal/adapter/postgres"
	"github.com/couchcryptid/spatial-pattern-service/internal/adapter/rediscache"
	"github.com/couchcryptid/spatial-pattern-service/internal/config"
	"github.com/couchcryptid/spatial-pattern-service/internal/domain"
	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
	"github.com/couchcryptid/spatial-pattern-service/internal/observability"
	"github.com/couchcryptid/spatial-pattern-service/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres is optional: it backs governorates when no file is given, and
	// supplies content density for P5.
	var store *postgres.Store
	var content domain.ContentSource
	if cfg.DatabaseURL != "" {
		store, err = postgres.Open(ctx, cfg.DatabaseURL, metrics, logger)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		content = store
		logger.Info("content density enabled", "radius_km", cfg.ContentRadiusKm)
	}

	governorates, err := loadGovernorates(ctx, cfg, store)
	if err != nil {
		logger.Error("failed to load governorates", "error", err)
		os.Exit(1)
	}
	logger.Info("governorates loaded", "count", len(governorates))

	// Road network analysis (feature-flagged via OVERPASS_ENABLED).
	// Lookups go through the in-process LRU, then Redis when configured.
	var roads domain.RoadAnalyzer
	var rdb *redis.Client
	if cfg.OverpassEnabled {
		roads = overpass.NewClient(cfg.OverpassURL, cfg.OverpassTimeout, metrics, logger)
		if cfg.RedisAddr != "" {
			rdb, err = rediscache.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				logger.Warn("redis unavailable, continuing without shared road cache", "addr", cfg.RedisAddr, "error", err)
			} else {
				roads = rediscache.NewRoadCache(rdb, roads, cfg.RedisCacheTTL, metrics, logger)
				logger.Info("redis road cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.RedisCacheTTL)
			}
		}
		roads = overpass.NewCachedAnalyzer(roads, cfg.OverpassCacheSize, metrics)
		metrics.RoadNetworkEnabled.Set(1)
		logger.Info("road network analysis enabled", "cache_size", cfg.OverpassCacheSize, "timeout", cfg.OverpassTimeout)
	} else {
		logger.Info("road network analysis disabled")
	}

	registry := domain.DefaultRegistry().WithDisabled(cfg.DisabledPatterns...)
	if !registry.HasEnabled() {
		logger.Warn("all patterns are disabled; detections will always be empty")
	}
	detector := domain.NewDetector(registry, roads, logger)

	ready := &readiness{store: store}

	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	if cfg.PipelineEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(detector, governorates, content, cfg.ContentRadiusKm, logger)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready.pipeline = p

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, httpadapter.Detection{
		Detector:        detector,
		Governorates:    governorates,
		Content:         content,
		ContentRadiusKm: cfg.ContentRadiusKm,
		Metrics:         metrics,
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

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
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("postgres close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// loadGovernorates prefers GOVERNORATES_FILE and falls back to Postgres.
func loadGovernorates(ctx context.Context, cfg *config.Config, store *postgres.Store) ([]geo.Governorate, error) {
	if cfg.GovernoratesFile != "" {
		return geo.LoadGovernoratesFile(cfg.GovernoratesFile)
	}
	return store.Governorates(ctx)
}

// readiness reports ready once the pipeline has processed a batch (when it
// runs) and Postgres answers (when configured).
type readiness struct {
	pipeline *pipeline.Pipeline
	store    *postgres.Store
}

func (r *readiness) CheckReadiness(ctx context.Context) error {
	if r.pipeline != nil {
		if err := r.pipeline.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	if r.store != nil {
		return r.store.Ping(ctx)
	}
	return nil
}
