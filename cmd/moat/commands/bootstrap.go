package commands

import (
	"context"
	"fmt"

	"github.com/wonny/moat/backend/internal/analyzer"
	"github.com/wonny/moat/backend/internal/calibration"
	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/internal/external/finviz"
	"github.com/wonny/moat/backend/internal/external/fmp"
	"github.com/wonny/moat/backend/internal/market"
	"github.com/wonny/moat/backend/internal/moat"
	"github.com/wonny/moat/backend/internal/overrides"
	"github.com/wonny/moat/backend/internal/snapshot"
	"github.com/wonny/moat/backend/pkg/config"
	"github.com/wonny/moat/backend/pkg/database"
	"github.com/wonny/moat/backend/pkg/httputil"
	"github.com/wonny/moat/backend/pkg/logger"
	"github.com/wonny/moat/backend/pkg/metrics"
	"github.com/wonny/moat/backend/pkg/redis"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	metrics     *metrics.Metrics
	calibration *calibration.Snapshot
	db          *database.DB // nil when DATABASE_URL is unset
	redis       *redis.Client
	limiter     *redis.RateLimiter
	store       *overrides.Store
	analyzer    *analyzer.Analyzer
}

// bootstrapOptions selects the log sink
type bootstrapOptions struct {
	// stdoutLogs sends logs to stdout (servers); one-shot commands log to stderr
	stdoutLogs bool
}

// bootstrap loads config and wires storage, market data and the analyzer
// 순서: config → logger → calibration → DB/Redis → override store → market → analyzer
func bootstrap(ctx context.Context, opts bootstrapOptions) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.NewStderr(cfg)
	if opts.stdoutLogs {
		log = logger.New(cfg)
	}

	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	// 3. Calibration → engine
	cal, err := calibration.LoadOrDefault(cfg.CalibrationPath)
	if err != nil {
		return nil, fmt.Errorf("load calibration: %w", err)
	}
	for _, w := range calibration.Warn(cal) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	source := cfg.CalibrationPath
	if source == "" {
		source = "builtin"
	}
	if a.calibration, err = calibration.NewSnapshot(cal, source); err != nil {
		return nil, fmt.Errorf("hash calibration: %w", err)
	}
	engine, err := moat.New(cal)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"model_id": a.calibration.ModelID,
		"version":  a.calibration.Version,
		"hash":     a.calibration.Hash,
		"source":   source,
	}).Debug("Calibration loaded")

	// 4. Connect to database (optional)
	if cfg.Database.Enabled() {
		if a.db, err = database.New(ctx, cfg); err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Info("Connected to database")
	}

	// 5. Connect to Redis (disabled client when REDIS_ENABLED=false)
	if a.redis, err = redis.New(ctx, cfg); err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.limiter = redis.NewRateLimiter(a.redis, redis.Prefix)

	// 6. Override store
	blobs, err := a.blobStore()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = overrides.NewStore(blobs, cfg.Overrides.Key, log, a.metrics)

	// 7. Market data: FMP fundamentals, Finviz beta fallback, Redis cache
	cache := redis.NewCache(a.redis, redis.Prefix)
	fmpClient := fmp.NewClient(
		httputil.New(log).
			WithLocalLimit(cfg.FMP.RateLimitRPS).
			WithRateLimiter(a.limiter, redis.FMPRateLimit(cfg.FMP.RateLimitRPS)),
		log, cfg.FMP).WithCache(cache)
	finvizClient := finviz.NewClient(
		httputil.New(log).
			WithLocalLimit(cfg.Finviz.RateLimitRPS).
			WithRateLimiter(a.limiter, redis.FinvizRateLimit(cfg.Finviz.RateLimitRPS)),
		log, cfg.Finviz)
	provider := market.NewProvider(fmpClient, finvizClient, cache, log, a.metrics)

	// 8. Analyzer
	a.analyzer = analyzer.New(engine, a.store, log, a.metrics).WithMarket(provider)
	if a.db != nil {
		a.analyzer.WithSnapshots(snapshot.NewRepository(a.db.Pool))
	}

	return a, nil
}

// blobStore selects the override backend (OVERRIDES_BACKEND)
func (a *app) blobStore() (contracts.BlobStore, error) {
	switch a.cfg.Overrides.Backend {
	case config.BackendMemory:
		return overrides.NewMemoryBlobStore(), nil
	case config.BackendFile:
		return overrides.NewFileBlobStore(a.cfg.Overrides.Path), nil
	case config.BackendRedis:
		return overrides.NewRedisBlobStore(a.redis), nil
	case config.BackendPostgres:
		if a.db == nil {
			return nil, fmt.Errorf("overrides backend postgres requires a database")
		}
		return overrides.NewPostgresBlobStore(a.db.Pool), nil
	default:
		return nil, fmt.Errorf("unknown overrides backend %q", a.cfg.Overrides.Backend)
	}
}

// Close releases DB and Redis connections
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
