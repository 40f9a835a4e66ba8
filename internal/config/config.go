// Package config loads the pipeline configuration from environment
// variables, which the entrypoint populates from a .env file when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Source kinds accepted in ETL_SOURCE.
const (
	SourceSynthetic = "synthetic"
	SourceCSV       = "csv"
	SourceSQLServer = "sqlserver"
	SourceMongo     = "mongo"
)

// Config holds everything a pipeline run needs. Zero-configuration runs use
// the synthetic demo source against a local SQLite file.
type Config struct {
	MaxRetries             int
	RetryDelay             time.Duration
	AdvisoryValueThreshold float64 // 0 disables the advisory check
	AllowEmptyBatch        bool
	SampleSize             int

	SinkPath  string
	SinkTable string

	Source          string
	SourceDSN       string // connection string for sqlserver/mongo sources
	SourceTable     string // table (sqlserver) or collection (mongo)
	SourceDatabase  string // mongo database name
	CSVPath         string

	LogPath string
	LogJSON bool
}

// Load reads the configuration from the environment, applying defaults that
// mirror the reference behavior (3 attempts, 1s fixed delay, 5-row sample).
func Load() (*Config, error) {
	cfg := &Config{
		MaxRetries:     3,
		RetryDelay:     time.Second,
		SampleSize:     5,
		SinkPath:       "etl_database.db",
		SinkTable:      "datos_transformados",
		Source:         SourceSynthetic,
		SourceDatabase: "etl",
		LogPath:        "etl_pipeline.log",
	}

	var err error
	if cfg.MaxRetries, err = intEnv("ETL_MAX_RETRIES", cfg.MaxRetries); err != nil {
		return nil, err
	}
	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("ETL_MAX_RETRIES must be at least 1, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay, err = durationEnv("ETL_RETRY_DELAY", cfg.RetryDelay); err != nil {
		return nil, err
	}
	if cfg.AdvisoryValueThreshold, err = floatEnv("ETL_VALUE_THRESHOLD", 0); err != nil {
		return nil, err
	}
	if cfg.SampleSize, err = intEnv("ETL_SAMPLE_SIZE", cfg.SampleSize); err != nil {
		return nil, err
	}
	cfg.AllowEmptyBatch = boolEnv("ETL_ALLOW_EMPTY_BATCH")
	cfg.LogJSON = boolEnv("ETL_LOG_JSON")

	cfg.SinkPath = stringEnv("ETL_SINK_PATH", cfg.SinkPath)
	cfg.SinkTable = stringEnv("ETL_SINK_TABLE", cfg.SinkTable)
	cfg.Source = stringEnv("ETL_SOURCE", cfg.Source)
	cfg.SourceDSN = os.Getenv("ETL_SOURCE_DSN")
	cfg.SourceTable = os.Getenv("ETL_SOURCE_TABLE")
	cfg.SourceDatabase = stringEnv("ETL_SOURCE_DATABASE", cfg.SourceDatabase)
	cfg.CSVPath = os.Getenv("ETL_CSV_PATH")
	cfg.LogPath = stringEnv("ETL_LOG_PATH", cfg.LogPath)

	switch cfg.Source {
	case SourceSynthetic:
	case SourceCSV:
		if cfg.CSVPath == "" {
			return nil, fmt.Errorf("ETL_CSV_PATH must be set when ETL_SOURCE is %q", SourceCSV)
		}
	case SourceSQLServer, SourceMongo:
		if cfg.SourceDSN == "" {
			return nil, fmt.Errorf("ETL_SOURCE_DSN must be set when ETL_SOURCE is %q", cfg.Source)
		}
		if cfg.SourceTable == "" {
			return nil, fmt.Errorf("ETL_SOURCE_TABLE must be set when ETL_SOURCE is %q", cfg.Source)
		}
	default:
		return nil, fmt.Errorf("unknown ETL_SOURCE %q", cfg.Source)
	}

	return cfg, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func boolEnv(key string) bool {
	v := os.Getenv(key)
	return v == "1" || v == "true" || v == "yes"
}
