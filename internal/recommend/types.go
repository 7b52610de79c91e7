// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package recommend

import (
	"context"
	"time"
)

// MovieRecord is one movie's metadata as consumed by the content index.
// Records are immutable for the lifetime of the generation they were
// trained into; the ingestion layer owns deduplication and normalization.
type MovieRecord struct {
	// ID is the stable unique movie identifier.
	ID int

	// Title is the display title.
	Title string

	// Genres holds genre labels, one per entry. Multi-value fields are
	// explicit lists here; no delimiter encoding reaches the vectorizer.
	Genres []string

	// Director may be empty.
	Director string

	// Cast holds actor names in billing order.
	Cast []string

	// Description is free text.
	Description string

	// Auxiliary tag fields. All optional.
	Keywords           []string
	MoodTags           []string
	ContentRating      string
	StreamingPlatforms []string
}

// RatingRecord is one user's rating of one movie. The persistence layer
// guarantees at most one current rating per (UserID, MovieID) pair.
type RatingRecord struct {
	UserID  int
	MovieID int
	Rating  float64
}

// ScoredMovie pairs a movie id with the score that ranked it.
type ScoredMovie struct {
	MovieID int
	Score   float64
}

// PopularitySource supplies the cold-start fallback ordering. It is
// implemented by the caller, typically as a database query ordering by
// average rating and view count.
type PopularitySource interface {
	// TopN returns up to limit movie ids in descending popularity order.
	TopN(ctx context.Context, limit int) ([]int, error)
}

// TrainingStatus describes the engine's current training state.
type TrainingStatus struct {
	// Training is true while a retrain is in progress.
	Training bool `json:"training"`

	// Generation is the version number of the published generation,
	// zero when nothing has been trained yet.
	Generation int64 `json:"generation"`

	// BuiltAt is when the published generation finished building.
	BuiltAt time.Time `json:"built_at"`

	// Movies is the corpus size of the published generation.
	Movies int `json:"movies"`

	// Ratings is the number of ratings the collaborative model saw.
	Ratings int `json:"ratings"`

	// ContentReady reports whether the content index has been built.
	ContentReady bool `json:"content_ready"`

	// CollaborativeReady reports whether the latent-factor model has
	// been trained on at least one rating.
	CollaborativeReady bool `json:"collaborative_ready"`
}
