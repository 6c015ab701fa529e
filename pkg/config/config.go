package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Override store backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: postgres override backend, valuation snapshots)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	FMP    FMPConfig
	Finviz FinvizConfig

	// Overrides
	Overrides OverridesConfig

	// Valuation
	CalibrationPath string
	Watchlist       []WatchlistEntry
	RevalueSchedule string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// FMPConfig holds Financial Modeling Prep API configuration
type FMPConfig struct {
	APIKey       string
	BaseURL      string
	GrowthYears  int // income statements used for average revenue growth
	RateLimitRPS int
}

// FinvizConfig holds Finviz quote page configuration
type FinvizConfig struct {
	BaseURL      string
	Enabled      bool
	RateLimitRPS int
}

// OverridesConfig holds override store configuration
type OverridesConfig struct {
	Backend string // memory, file, redis, postgres
	Path    string // file backend directory
	Key     string // blob key
}

// WatchlistEntry is one ticker revalued by the scheduler
type WatchlistEntry struct {
	Ticker string
	Sector string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	watchlist, err := parseWatchlist(getEnv("WATCHLIST", ""))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		FMP: FMPConfig{
			APIKey:       getEnv("FMP_API_KEY", ""),
			BaseURL:      getEnv("FMP_BASE_URL", "https://financialmodelingprep.com"),
			GrowthYears:  getEnvAsInt("FMP_GROWTH_YEARS", 4),
			RateLimitRPS: getEnvAsInt("FMP_RATE_LIMIT_RPS", 5),
		},
		Finviz: FinvizConfig{
			BaseURL:      getEnv("FINVIZ_BASE_URL", "https://finviz.com"),
			Enabled:      getEnvAsBool("FINVIZ_ENABLED", true),
			RateLimitRPS: getEnvAsInt("FINVIZ_RATE_LIMIT_RPS", 1),
		},

		// Overrides
		Overrides: OverridesConfig{
			Backend: strings.ToLower(getEnv("OVERRIDES_BACKEND", BackendFile)),
			Path:    getEnv("OVERRIDES_PATH", "data"),
			Key:     getEnv("OVERRIDES_KEY", "pm_overrides"),
		},

		// Valuation
		CalibrationPath: getEnv("CALIBRATION_PATH", ""),
		Watchlist:       watchlist,
		RevalueSchedule: getEnv("REVALUE_SCHEDULE", "0 30 21 * * 1-5"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that the configuration is consistent
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Overrides.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Overrides.Path == "" {
			return fmt.Errorf("OVERRIDES_PATH is required for the file backend")
		}
	case BackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("OVERRIDES_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case BackendPostgres:
		if !c.Database.Enabled() {
			return fmt.Errorf("OVERRIDES_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("OVERRIDES_BACKEND must be one of: memory, file, redis, postgres")
	}

	if c.Overrides.Key == "" {
		return fmt.Errorf("OVERRIDES_KEY must not be empty")
	}

	if c.FMP.GrowthYears < 2 {
		return fmt.Errorf("FMP_GROWTH_YEARS must be >= 2")
	}

	return nil
}

// parseWatchlist parses "AAPL:Information Technology,JPM:Financials"
func parseWatchlist(raw string) ([]WatchlistEntry, error) {
	var entries []WatchlistEntry
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		ticker, sector, ok := strings.Cut(item, ":")
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		sector = strings.TrimSpace(sector)
		if !ok || ticker == "" || sector == "" {
			return nil, fmt.Errorf("WATCHLIST entry %q must be TICKER:Sector", item)
		}
		entries = append(entries, WatchlistEntry{Ticker: ticker, Sector: sector})
	}
	return entries, nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
