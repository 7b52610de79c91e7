// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

// Package database provides the embedded DuckDB store for the movie
// catalog and rating history. It owns the schema and the popularity
// ranking query; the recommendation engine consumes its output through
// plain record slices.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the duckdb driver

	"github.com/Dio27073/movie-recommender/internal/config"
	"github.com/Dio27073/movie-recommender/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database and initializes the schema. An empty or
// ":memory:" path runs fully in-memory, which the tests rely on.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}
	if path != "" {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d", path, threads)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// DuckDB is embedded; a small pool avoids write contention.
	conn.SetMaxOpenConns(threads)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(30 * time.Minute)

	db := &DB{conn: conn, cfg: cfg}

	if err := db.initSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	if cfg.SeedMockData {
		if err := db.SeedMockData(context.Background()); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("seed mock data: %w", err)
		}
		logging.Info().Msg("mock catalog seeded")
	}

	logging.Info().Str("path", cfg.Path).Int("threads", threads).Msg("database opened")
	return db, nil
}

// initSchema creates the tables if they do not exist. List-valued movie
// fields are stored as JSON text columns.
func (db *DB) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS movies (
    id                  INTEGER PRIMARY KEY,
    title               VARCHAR NOT NULL,
    genres              VARCHAR DEFAULT '[]',
    director            VARCHAR DEFAULT '',
    cast_list           VARCHAR DEFAULT '[]',
    description         VARCHAR DEFAULT '',
    keywords            VARCHAR DEFAULT '[]',
    mood_tags           VARCHAR DEFAULT '[]',
    content_rating      VARCHAR DEFAULT '',
    streaming_platforms VARCHAR DEFAULT '[]',
    view_count          INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS ratings (
    user_id  INTEGER NOT NULL,
    movie_id INTEGER NOT NULL,
    rating   DOUBLE NOT NULL,
    rated_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
    PRIMARY KEY (user_id, movie_id)
);
`
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return err
	}
	return nil
}

// Ping verifies the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database.
func (db *DB) Close() error {
	return db.conn.Close()
}
