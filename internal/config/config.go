// Package config loads process configuration from environment
// variables, with a .env file loaded first when present. The worker and
// the admin server use the same loader so they agree on Temporal
// connection details without duplicating defaults; rfqctl does not use
// it.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the full set of settings needed to run the RFQ worker
// or the admin HTTP server.
type Config struct {
	TemporalHostPort  string
	TemporalNamespace string
	TaskQueue         string

	HTTPAddr string

	SQLiteDataDir string

	S3Bucket string
	S3Region string

	LogLevel  string
	LogPretty bool
}

// Load reads configuration from the environment, loading a .env file
// first if one exists in the current directory. dataDirOverride, if
// given, takes precedence over RFQ_DATA_DIR / the default.
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error

	cfg := &Config{
		TemporalHostPort:  envOr("TEMPORAL_HOST_PORT", "localhost:7233"),
		TemporalNamespace: envOr("TEMPORAL_NAMESPACE", "default"),
		TaskQueue:         envOr("TASK_QUEUE", "structured-rfq"),
		HTTPAddr:          envOr("HTTP_ADDR", ":8080"),
		SQLiteDataDir:     envOr("RFQ_DATA_DIR", "./data"),
		S3Bucket:          envOr("RFQ_ARCHIVE_BUCKET", ""),
		S3Region:          envOr("AWS_REGION", "us-east-1"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		LogPretty:         envBoolOr("LOG_PRETTY", false),
	}

	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		cfg.SQLiteDataDir = dataDirOverride[0]
	}

	if cfg.TemporalHostPort == "" {
		return nil, fmt.Errorf("config: TEMPORAL_HOST_PORT must not be empty")
	}
	if cfg.TaskQueue == "" {
		return nil, fmt.Errorf("config: TASK_QUEUE must not be empty")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
