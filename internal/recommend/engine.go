// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package recommend

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Note: this package has no dependencies on other internal packages.
// The PopularitySource interface allows integration with the database
// package without creating circular imports.

// Engine is the hybrid recommender. A single instance is shared by many
// concurrent read requests and occasional retrain operations; it is safe
// for concurrent use. Reads only ever dereference the current generation
// pointer, retrains build a new generation off the serving path and
// publish it with one atomic swap.
type Engine struct {
	config     *Config
	logger     zerolog.Logger
	popularity PopularitySource

	current  atomic.Pointer[Generation]
	version  atomic.Int64
	training atomic.Bool

	// trainMu serializes retrains. TryLock keeps a second trigger from
	// queueing behind a long build.
	trainMu sync.Mutex
}

// NewEngine creates a recommendation engine. The popularity source
// supplies the cold-start fallback ordering and may be nil, in which
// case the fallback contributes nothing.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger, popularity PopularitySource) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		config:     cfg.Clone(),
		logger:     logger.With().Str("component", "recommend").Logger(),
		popularity: popularity,
	}, nil
}

// RetrainContent builds a new content index from the given movie corpus
// and publishes a new generation carrying the previous collaborative
// model forward. The previously published generation keeps serving reads
// until the swap and remains authoritative if the build fails.
func (e *Engine) RetrainContent(ctx context.Context, movies []MovieRecord) error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	e.training.Store(true)
	defer e.training.Store(false)

	start := time.Now()

	index, err := BuildContentIndex(ctx, movies, e.config.Content)
	if err != nil {
		e.logger.Error().Err(err).Int("movies", len(movies)).Msg("content retrain failed")
		return fmt.Errorf("build content index: %w", err)
	}

	corpus := make(map[int]MovieRecord, len(movies))
	for i := range movies {
		corpus[movies[i].ID] = movies[i]
	}

	old := e.current.Load()
	gen := &Generation{
		Version: e.version.Add(1),
		BuiltAt: time.Now().UTC(),
		Corpus:  corpus,
		Content: index,
	}
	if old != nil {
		gen.Collaborative = old.Collaborative
	}
	e.current.Store(gen)

	e.logger.Info().
		Int64("generation", gen.Version).
		Int("movies", len(movies)).
		Dur("elapsed", time.Since(start)).
		Msg("content index published")

	return nil
}

// RetrainCollaborative trains a new latent-factor model from the given
// ratings and publishes a new generation carrying the previous content
// index and corpus forward.
func (e *Engine) RetrainCollaborative(ctx context.Context, ratings []RatingRecord) error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	e.training.Store(true)
	defer e.training.Store(false)

	start := time.Now()

	model, err := TrainCollaborative(ctx, ratings, e.config.Collaborative)
	if err != nil {
		e.logger.Error().Err(err).Int("ratings", len(ratings)).Msg("collaborative retrain failed")
		return fmt.Errorf("train collaborative model: %w", err)
	}

	old := e.current.Load()
	gen := &Generation{
		Version:       e.version.Add(1),
		BuiltAt:       time.Now().UTC(),
		Collaborative: model,
	}
	if old != nil {
		gen.Corpus = old.Corpus
		gen.Content = old.Content
	}
	e.current.Store(gen)

	e.logger.Info().
		Int64("generation", gen.Version).
		Int("ratings", len(ratings)).
		Bool("trained", model.Trained).
		Dur("elapsed", time.Since(start)).
		Msg("collaborative model published")

	return nil
}

// Restore installs a previously persisted generation, typically at
// startup. It does not overwrite a generation published by a retrain
// that completed in the meantime.
func (e *Engine) Restore(gen *Generation) {
	if gen == nil {
		return
	}
	for {
		cur := e.version.Load()
		if cur >= gen.Version {
			return
		}
		if e.version.CompareAndSwap(cur, gen.Version) {
			break
		}
	}
	e.current.Store(gen)
	e.logger.Info().
		Int64("generation", gen.Version).
		Time("built_at", gen.BuiltAt).
		Msg("generation restored from snapshot")
}

// Generation returns the currently published generation, nil before the
// first retrain.
func (e *Engine) Generation() *Generation {
	return e.current.Load()
}

// Similar returns up to n movies most similar to movieID from the
// current generation's content index. Returns ErrModelNotReady before
// the first content retrain and ErrNotFound for an unknown id.
func (e *Engine) Similar(movieID, n int) ([]ScoredMovie, error) {
	gen := e.current.Load()
	if !gen.ContentReady() {
		return nil, ErrModelNotReady
	}
	return gen.Content.Similar(movieID, e.boundN(n))
}

// Predict estimates the rating userID would give movieID using the
// current generation's collaborative model.
func (e *Engine) Predict(userID, movieID int) (float64, error) {
	gen := e.current.Load()
	if gen == nil || gen.Collaborative == nil {
		return 0, ErrModelNotReady
	}
	return gen.Collaborative.Predict(userID, movieID)
}

// Recommend produces up to n hybrid recommendations for userID.
// recentlyViewed is ordered oldest first; the last entries are the most
// recent. The result never contains duplicates or recently viewed ids.
//
// The call never fails: component errors degrade to the remaining
// signals and finally to the popularity fallback, returning the largest
// prefix that can be constructed, possibly empty.
func (e *Engine) Recommend(ctx context.Context, userID int, recentlyViewed []int, n int) []int {
	n = e.boundN(n)
	gen := e.current.Load()

	exclude := make(map[int]struct{}, len(recentlyViewed))
	for _, id := range recentlyViewed {
		exclude[id] = struct{}{}
	}

	result := make([]int, 0, n)
	seen := make(map[int]struct{}, n)

	if len(recentlyViewed) > 0 && gen != nil {
		content := e.contentCandidates(gen, recentlyViewed, n/2)
		collab := e.collaborativeCandidates(gen, userID, exclude, n/2)
		result = interleave(result, seen, exclude, content, collab, n)
	}

	if len(result) < n {
		result = e.fillFromPopularity(ctx, result, seen, exclude, n)
	}

	return result
}

// contentCandidates accumulates similar movies for the most recent
// seeds, in seed order, preserving each seed's similarity order. Seeds
// missing from the index are skipped.
func (e *Engine) contentCandidates(gen *Generation, recentlyViewed []int, perSource int) []int {
	if !gen.ContentReady() || perSource <= 0 {
		return nil
	}

	seeds := recentlyViewed
	if max := e.config.Content.MaxSeedMovies; len(seeds) > max {
		seeds = seeds[len(seeds)-max:]
	}

	var out []int
	for _, seed := range seeds {
		similar, err := gen.Content.Similar(seed, perSource)
		if err != nil {
			continue
		}
		for _, s := range similar {
			out = append(out, s.MovieID)
		}
	}
	return out
}

// collaborativeCandidates ranks all known movies the user has not rated,
// excluding recently viewed ids. An untrained model yields an empty
// list.
func (e *Engine) collaborativeCandidates(gen *Generation, userID int, exclude map[int]struct{}, perSource int) []int {
	if !gen.CollaborativeReady() || perSource <= 0 {
		return nil
	}

	known := gen.KnownMovieIDs()
	candidates := make([]int, 0, len(known))
	for _, id := range known {
		if _, skip := exclude[id]; skip {
			continue
		}
		candidates = append(candidates, id)
	}

	top, err := gen.Collaborative.TopUnrated(userID, candidates, perSource)
	if err != nil {
		return nil
	}

	out := make([]int, 0, len(top))
	for _, s := range top {
		out = append(out, s.MovieID)
	}
	return out
}

// interleave alternates content and collaborative candidates, content
// first. A skipped duplicate consumes its source's turn; the length is
// checked before every append so the result never exceeds n.
func interleave(result []int, seen, exclude map[int]struct{}, content, collab []int, n int) []int {
	ci, gi := 0, 0
	for len(result) < n && (ci < len(content) || gi < len(collab)) {
		if ci < len(content) {
			id := content[ci]
			ci++
			result = appendUnique(result, seen, exclude, id)
		}
		if len(result) >= n {
			break
		}
		if gi < len(collab) {
			id := collab[gi]
			gi++
			result = appendUnique(result, seen, exclude, id)
		}
	}
	return result
}

func appendUnique(result []int, seen, exclude map[int]struct{}, id int) []int {
	if _, dup := seen[id]; dup {
		return result
	}
	if _, skip := exclude[id]; skip {
		return result
	}
	seen[id] = struct{}{}
	return append(result, id)
}

// fillFromPopularity completes the result from the popularity ordering.
// A failing or absent popularity source leaves the result as is.
func (e *Engine) fillFromPopularity(ctx context.Context, result []int, seen, exclude map[int]struct{}, n int) []int {
	if e.popularity == nil {
		return result
	}

	// Over-fetch to cover ids dropped by dedup/exclusion.
	top, err := e.popularity.TopN(ctx, n+len(seen)+len(exclude))
	if err != nil {
		e.logger.Warn().Err(err).Msg("popularity fallback failed")
		return result
	}

	for _, id := range top {
		if len(result) >= n {
			break
		}
		result = appendUnique(result, seen, exclude, id)
	}
	return result
}

// Status reports the engine's training state and published generation.
func (e *Engine) Status() TrainingStatus {
	gen := e.current.Load()

	st := TrainingStatus{
		Training: e.training.Load(),
	}
	if gen == nil {
		return st
	}

	st.Generation = gen.Version
	st.BuiltAt = gen.BuiltAt
	st.Movies = len(gen.Corpus)
	st.Ratings = gen.NumRatings()
	st.ContentReady = gen.ContentReady()
	st.CollaborativeReady = gen.CollaborativeReady()
	return st
}

// boundN applies the configured default and maximum result sizes.
func (e *Engine) boundN(n int) int {
	if n <= 0 {
		n = e.config.Limits.DefaultN
	}
	if n > e.config.Limits.MaxN {
		n = e.config.Limits.MaxN
	}
	return n
}
