// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

// Package main is the entry point for the movie recommender server.
//
// The server combines two recommendation signals over a movie catalog:
// a TF-IDF content similarity index and a latent-factor collaborative
// model trained by SGD. Trained models are published as immutable
// generations behind an atomic pointer, so queries never block on
// training.
//
// Startup order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML file,
//     environment variables)
//  2. Database: embedded DuckDB catalog and rating store
//  3. Snapshots: BadgerDB generation store; the latest snapshot is
//     restored so a restart serves immediately
//  4. Supervision: suture tree with a training layer (periodic
//     retrains) and an API layer (chi HTTP server)
//
// # Configuration
//
// Highest priority wins: environment variables, then CONFIG_PATH (or
// ./config.yaml), then built-in defaults. Common variables:
//
//	HTTP_PORT=8000
//	DUCKDB_PATH=/data/movies.duckdb
//	SNAPSHOT_PATH=/data/snapshots
//	RECOMMEND_TRAIN_ON_STARTUP=true
//	RECOMMEND_TRAIN_INTERVAL=24h
//	SEED_MOCK_DATA=true  # demo catalog for local runs
//	LOG_LEVEL=info
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests (10s timeout) and the database is closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dio27073/movie-recommender/internal/api"
	"github.com/Dio27073/movie-recommender/internal/config"
	"github.com/Dio27073/movie-recommender/internal/database"
	"github.com/Dio27073/movie-recommender/internal/logging"
	"github.com/Dio27073/movie-recommender/internal/recommend"
	"github.com/Dio27073/movie-recommender/internal/recommend/storage"
	"github.com/Dio27073/movie-recommender/internal/supervisor"
	"github.com/Dio27073/movie-recommender/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Bool("snapshots", cfg.Snapshot.Enabled).
		Msg("Starting movie recommender")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	// Snapshot store, optional.
	var snapshots *storage.SnapshotStore
	if cfg.Snapshot.Enabled {
		badgerDB, err := storage.Open(cfg.Snapshot.Path)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open snapshot store")
		}
		defer func() {
			if err := badgerDB.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing snapshot store")
			}
		}()
		snapshots = storage.NewSnapshotStore(badgerDB, cfg.Snapshot.Keep)
	}

	// The database doubles as the popularity source for cold starts.
	engine, err := recommend.NewEngine(engineConfig(cfg), logging.Logger(), db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation engine")
	}

	// Warm start from the latest snapshot when one exists.
	if snapshots != nil {
		gen, err := snapshots.LoadLatest()
		switch {
		case err == nil:
			engine.Restore(gen)
			logging.Info().
				Int64("generation", gen.Version).
				Time("built_at", gen.BuiltAt).
				Int("movies", len(gen.Corpus)).
				Msg("Restored generation from snapshot")
		case errors.Is(err, storage.ErrNoSnapshot):
			logging.Info().Msg("No snapshot found, waiting for first retrain")
		default:
			logging.Warn().Err(err).Msg("Snapshot restore failed, waiting for first retrain")
		}
	}

	var snapshotSaver services.SnapshotSaver
	if snapshots != nil {
		snapshotSaver = snapshots
	}
	trainer := services.NewTrainer(engine, db, snapshotSaver, logging.Logger())

	handler := api.NewHandler(engine, db, trainer, cfg.API.RetrainPerHour)
	middleware := api.NewMiddleware(cfg.Server.CORSOrigins, cfg.API.RateLimitReqs, cfg.API.RateLimitWindow)
	router := api.NewRouter(handler, middleware)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddTrainingService(services.NewTrainerService(trainer, services.TrainerServiceConfig{
		TrainOnStartup: cfg.Recommend.TrainOnStartup,
		TrainInterval:  cfg.Recommend.TrainInterval,
	}, logging.Logger()))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := <-tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Err(err).Msg("Supervisor tree error")
	}

	logging.Info().Msg("Shutdown complete")
}

// engineConfig maps service configuration onto the engine defaults.
func engineConfig(cfg *config.Config) *recommend.Config {
	rec := recommend.DefaultConfig()
	rec.Content.MaxSeedMovies = cfg.Recommend.MaxSeedMovies
	rec.Collaborative.Factors = cfg.Recommend.Factors
	rec.Collaborative.Epochs = cfg.Recommend.Epochs
	rec.Collaborative.LearningRate = cfg.Recommend.LearningRate
	rec.Collaborative.Regularization = cfg.Recommend.Regularization
	rec.Collaborative.Seed = cfg.Recommend.Seed
	rec.Limits.DefaultN = cfg.API.DefaultPageSize
	rec.Limits.MaxN = cfg.API.MaxPageSize
	return rec
}
