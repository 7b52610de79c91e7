// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dio27073/movie-recommender/internal/metrics"
	"github.com/Dio27073/movie-recommender/internal/recommend"
)

// TrainingStore loads the records retrains are built from.
type TrainingStore interface {
	ListMovies(ctx context.Context) ([]recommend.MovieRecord, error)
	ListRatings(ctx context.Context) ([]recommend.RatingRecord, error)
}

// SnapshotSaver persists a published generation. Nil disables
// persistence.
type SnapshotSaver interface {
	SaveGeneration(gen *recommend.Generation) error
}

// Trainer runs full retrains: load records from the store, train, and
// persist the published generation. It is the single mutation path for
// the engine, shared by the periodic service and the admin endpoints.
type Trainer struct {
	engine    *recommend.Engine
	store     TrainingStore
	snapshots SnapshotSaver
	logger    zerolog.Logger
}

// NewTrainer creates a trainer. snapshots may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainer(engine *recommend.Engine, store TrainingStore, snapshots SnapshotSaver, logger zerolog.Logger) *Trainer {
	return &Trainer{
		engine:    engine,
		store:     store,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "trainer").Logger(),
	}
}

// RetrainContent rebuilds the content index from the stored catalog.
func (t *Trainer) RetrainContent(ctx context.Context) error {
	start := time.Now()

	movies, err := t.store.ListMovies(ctx)
	if err != nil {
		metrics.RecordTraining("content", time.Since(start), err)
		return fmt.Errorf("load movies: %w", err)
	}

	if err := t.engine.RetrainContent(ctx, movies); err != nil {
		metrics.RecordTraining("content", time.Since(start), err)
		return err
	}

	metrics.RecordTraining("content", time.Since(start), nil)
	return t.publish()
}

// RetrainCollaborative refits the latent-factor model from the stored
// rating history.
func (t *Trainer) RetrainCollaborative(ctx context.Context) error {
	start := time.Now()

	ratings, err := t.store.ListRatings(ctx)
	if err != nil {
		metrics.RecordTraining("collaborative", time.Since(start), err)
		return fmt.Errorf("load ratings: %w", err)
	}

	if err := t.engine.RetrainCollaborative(ctx, ratings); err != nil {
		metrics.RecordTraining("collaborative", time.Since(start), err)
		return err
	}

	metrics.RecordTraining("collaborative", time.Since(start), nil)
	return t.publish()
}

// RetrainAll retrains both models, content first so collaborative
// publishes the complete generation.
func (t *Trainer) RetrainAll(ctx context.Context) error {
	if err := t.RetrainContent(ctx); err != nil {
		return err
	}
	return t.RetrainCollaborative(ctx)
}

// publish updates the generation gauges and saves a snapshot of the
// freshly published generation.
func (t *Trainer) publish() error {
	gen := t.engine.Generation()
	if gen == nil {
		return nil
	}

	metrics.UpdateGeneration(gen.Version, len(gen.Corpus), gen.NumRatings())

	if t.snapshots == nil {
		return nil
	}
	if err := t.snapshots.SaveGeneration(gen); err != nil {
		// The generation is already serving; losing the snapshot only
		// costs warm-start on the next boot.
		t.logger.Warn().Err(err).Int64("generation", gen.Version).Msg("snapshot save failed")
	}
	return nil
}

// TrainerServiceConfig configures the periodic retraining service.
type TrainerServiceConfig struct {
	// TrainOnStartup triggers a full retrain when the service starts.
	TrainOnStartup bool

	// TrainInterval is how often both models are retrained.
	TrainInterval time.Duration
}

// TrainerService wraps the Trainer for Suture supervision, retraining
// both models on startup (optional) and on an interval.
type TrainerService struct {
	trainer *Trainer
	config  TrainerServiceConfig
	logger  zerolog.Logger
	name    string
}

// NewTrainerService creates the periodic retraining service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainerService(trainer *Trainer, cfg TrainerServiceConfig, logger zerolog.Logger) *TrainerService {
	return &TrainerService{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "trainer").Logger(),
		name:    "trainer-service",
	}
}

// Serve implements suture.Service.
func (s *TrainerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Msg("trainer service starting")

	if s.config.TrainOnStartup {
		if err := s.train(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("startup training failed, will retry on schedule")
		}
	}

	if s.config.TrainInterval <= 0 {
		s.config.TrainInterval = 24 * time.Hour
	}

	ticker := time.NewTicker(s.config.TrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("trainer service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.train(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled training failed")
			}
		}
	}
}

func (s *TrainerService) train(ctx context.Context) error {
	trainCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	start := time.Now()
	if err := s.trainer.RetrainAll(trainCtx); err != nil {
		return err
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Msg("training cycle complete")
	return nil
}

// String identifies the service in suture logs.
func (s *TrainerService) String() string {
	return s.name
}
