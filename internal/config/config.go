package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// MergePolicy controls how a snapshot rewrite for the same (ticker, scan_date)
// treats fields the new write leaves null.
type MergePolicy string

const (
	// MergeOverwrite replaces every snapshot field on conflict. A partial
	// re-scan can erase previously stored scores.
	MergeOverwrite MergePolicy = "overwrite"
	// MergeCoalesce keeps the existing value for any field the new write
	// leaves null.
	MergeCoalesce MergePolicy = "coalesce"
)

// Config holds application configuration
type Config struct {
	DatabasePath        string
	DataDir             string
	Port                int
	LogLevel            string
	DevMode             bool
	MinYield            float64 // minimum dividend yield %, scan threshold
	MaxPayoutRatio      float64 // payout % above which a dividend is unsustainable
	ScanWorkers         int     // bounded fetch concurrency
	ScanSchedule        string  // cron expression (with seconds) for the nightly scan
	ScanMarkets         []string
	SnapshotMergePolicy MergePolicy
	AnalysisCacheTTL    int // hours before a cached analysis goes stale
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnvAsInt("PORT", 5000),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		DatabasePath:        getEnv("DATABASE_PATH", "./data/dividend_seeker.db"),
		DataDir:             getEnv("DATA_DIR", "./data"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		MinYield:            getEnvAsFloat("MIN_YIELD", 5.0),
		MaxPayoutRatio:      getEnvAsFloat("MAX_PAYOUT_RATIO", 100.0),
		ScanWorkers:         getEnvAsInt("SCAN_WORKERS", 5),
		ScanSchedule:        getEnv("SCAN_SCHEDULE", "0 0 2 * * *"),
		ScanMarkets:         splitList(getEnv("SCAN_MARKETS", "sp500")),
		SnapshotMergePolicy: MergePolicy(getEnv("SNAPSHOT_MERGE_POLICY", string(MergeOverwrite))),
		AnalysisCacheTTL:    getEnvAsInt("ANALYSIS_CACHE_TTL_HOURS", 24),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.SnapshotMergePolicy != MergeOverwrite && c.SnapshotMergePolicy != MergeCoalesce {
		return fmt.Errorf("SNAPSHOT_MERGE_POLICY must be %q or %q, got %q",
			MergeOverwrite, MergeCoalesce, c.SnapshotMergePolicy)
	}
	if c.ScanWorkers < 1 {
		return fmt.Errorf("SCAN_WORKERS must be at least 1")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
