// Package config loads worker settings from the environment.
package config

import (
	"os"
	"time"
)

// Config holds all runtime settings. Every field has a default suitable for
// local development.
type Config struct {
	ServiceName   string
	RedisURL      string
	AnalysisQueue string
	MongoURL      string
	MongoDB       string
	HTTPAddr      string
	PollTimeout   time.Duration
}

// Load reads settings from the environment, falling back to defaults.
func Load() Config {
	return Config{
		ServiceName:   "analysis-worker",
		RedisURL:      getenv("REDIS_URL", "redis://localhost:6379"),
		AnalysisQueue: getenv("ANALYSIS_QUEUE", "analysis_queue"),
		MongoURL:      getenv("MONGO_URL", "mongodb://localhost:27017/rce-engine"),
		MongoDB:       getenv("MONGO_DB", "rce-engine"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8000"),
		PollTimeout:   getduration("POLL_TIMEOUT", time.Second),
	}
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
