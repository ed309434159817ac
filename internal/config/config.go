package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

var defaultCORSOrigins = []string{
	"http://localhost:8080",
	"http://localhost:5173",
	"http://localhost:3000",
	"http://localhost:4173",
	"http://localhost:8000",
}

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port        string
	Env         string
	JWTSecret   string
	StoreDriver string
	CORSOrigins []string

	// StrictStatusTransitions enables the product lifecycle graph.
	StrictStatusTransitions bool

	DB     DatabaseConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Log    LogConfig
	Worker WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// MongoConfig contains MongoDB connection parameters.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// LogConfig controls the optional rotating log file.
type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// WorkerConfig contains configuration for background workers.
type WorkerConfig struct {
	RepairInterval        time.Duration
	RepairBatchSize       int
	RepairMaxAttempts     int
	ReconcileSchedule     string
	ReconcilePruneOrphans bool
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres))
	cfg.CORSOrigins = getEnvList("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)
	cfg.StrictStatusTransitions = getEnvBool("STRICT_STATUS_TRANSITIONS", false)

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	cfg.Mongo = MongoConfig{
		URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database: getEnv("MONGO_DATABASE", "devhub"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	cfg.Log = LogConfig{
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
	}

	// Workers
	var err error
	if cfg.Worker.RepairInterval, err = parseDurationEnv("REPAIR_INTERVAL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid REPAIR_INTERVAL: %w", err)
	}
	cfg.Worker.RepairBatchSize = getEnvInt("REPAIR_BATCH_SIZE", 50)
	cfg.Worker.RepairMaxAttempts = getEnvInt("REPAIR_MAX_ATTEMPTS", 5)
	cfg.Worker.ReconcileSchedule = getEnv("RECONCILE_SCHEDULE", "@every 1h")
	cfg.Worker.ReconcilePruneOrphans = getEnvBool("RECONCILE_PRUNE_ORPHANS", false)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
			return errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
		}
	case DriverMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("mongo configuration incomplete: ensure MONGO_URI and MONGO_DATABASE are set")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q: use postgres, mongo or memory", c.StoreDriver)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set for authentication")
	}
	if c.Worker.RepairInterval <= 0 {
		return errors.New("REPAIR_INTERVAL must be positive")
	}
	if c.Worker.RepairBatchSize <= 0 {
		return errors.New("REPAIR_BATCH_SIZE must be positive")
	}
	if c.Worker.RepairMaxAttempts <= 0 {
		return errors.New("REPAIR_MAX_ATTEMPTS must be positive")
	}
	if _, err := cron.ParseStandard(c.Worker.ReconcileSchedule); err != nil {
		return fmt.Errorf("invalid RECONCILE_SCHEDULE: %w", err)
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
