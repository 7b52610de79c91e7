// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

// Package config loads service configuration with layered precedence:
// struct defaults, then an optional YAML file, then environment
// variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	API       APIConfig       `koanf:"api"`
	Recommend RecommendConfig `koanf:"recommend"`
	Snapshot  SnapshotConfig  `koanf:"snapshot"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// DatabaseConfig configures the embedded DuckDB store.
type DatabaseConfig struct {
	// Path is the database file. ":memory:" or empty runs in-memory.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads limits DuckDB worker threads; 0 uses all cores.
	Threads int `koanf:"threads"`

	// SeedMockData loads a small demo catalog on startup.
	SeedMockData bool `koanf:"seed_mock_data"`
}

// APIConfig bounds the HTTP API surface.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// RetrainPerHour throttles the admin retrain triggers.
	RetrainPerHour int `koanf:"retrain_per_hour"`
}

// RecommendConfig configures the recommendation engine and its
// training schedule.
type RecommendConfig struct {
	// TrainOnStartup trains both models as soon as the service starts.
	TrainOnStartup bool `koanf:"train_on_startup"`

	// TrainInterval is the periodic retrain cadence; 0 disables it.
	TrainInterval time.Duration `koanf:"train_interval"`

	// Factors, Epochs, LearningRate, Regularization and Seed are the
	// collaborative model hyperparameters.
	Factors        int     `koanf:"factors"`
	Epochs         int     `koanf:"epochs"`
	LearningRate   float64 `koanf:"learning_rate"`
	Regularization float64 `koanf:"regularization"`
	Seed           int64   `koanf:"seed"`

	// MaxSeedMovies bounds how many recently viewed movies seed the
	// content half of a request.
	MaxSeedMovies int `koanf:"max_seed_movies"`
}

// SnapshotConfig configures generation snapshot persistence.
type SnapshotConfig struct {
	// Enabled persists each published generation and restores the
	// latest one on startup.
	Enabled bool `koanf:"enabled"`

	// Path is the Badger directory for snapshots.
	Path string `koanf:"path"`

	// Keep is how many historical snapshots to retain.
	Keep int `koanf:"keep"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, overridden by file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			Timeout:     30 * time.Second,
			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Path:      "/data/movies.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		API: APIConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			RetrainPerHour:  12,
		},
		Recommend: RecommendConfig{
			TrainOnStartup: true,
			TrainInterval:  24 * time.Hour,
			Factors:        100,
			Epochs:         20,
			LearningRate:   0.005,
			Regularization: 0.02,
			Seed:           42,
			MaxSeedMovies:  3,
		},
		Snapshot: SnapshotConfig{
			Enabled: true,
			Path:    "/data/snapshots",
			Keep:    3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks cross-field constraints not expressible as tags.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be >= 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size must be >= api.default_page_size")
	}
	if c.Recommend.Factors < 1 {
		return fmt.Errorf("recommend.factors must be >= 1")
	}
	if c.Recommend.Epochs < 1 {
		return fmt.Errorf("recommend.epochs must be >= 1")
	}
	if c.Recommend.LearningRate <= 0 {
		return fmt.Errorf("recommend.learning_rate must be > 0")
	}
	if c.Snapshot.Enabled && c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path required when snapshots are enabled")
	}
	return nil
}
