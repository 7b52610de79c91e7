// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package recommend

import (
	"sort"
	"time"
)

// Generation is one immutable, atomically published snapshot of the
// trained models. Queries always read a single generation, so no
// locking of the matrix or model internals is needed; the only
// synchronization point is the engine's pointer swap. Retraining one
// half carries the other half forward unchanged.
type Generation struct {
	// Version increases by one per published generation.
	Version int64

	// BuiltAt is when the generation finished building.
	BuiltAt time.Time

	// Corpus holds the movie records the content index was built from,
	// keyed by movie id.
	Corpus map[int]MovieRecord

	// Content is the TF-IDF similarity index, nil until the first
	// content retrain.
	Content *ContentIndex

	// Collaborative is the latent-factor model, nil until the first
	// collaborative retrain. It may be present but untrained when the
	// rating set was empty.
	Collaborative *CollaborativeModel
}

// ContentReady reports whether the generation can answer similarity
// queries.
func (g *Generation) ContentReady() bool {
	return g != nil && g.Content != nil
}

// CollaborativeReady reports whether the generation can answer rating
// predictions.
func (g *Generation) CollaborativeReady() bool {
	return g != nil && g.Collaborative != nil && g.Collaborative.Trained
}

// KnownMovieIDs returns the union of corpus ids and collaborative model
// ids in ascending order. This is the candidate pool for the
// collaborative half of a hybrid request.
func (g *Generation) KnownMovieIDs() []int {
	if g == nil {
		return nil
	}

	set := make(map[int]struct{}, len(g.Corpus))
	for id := range g.Corpus {
		set[id] = struct{}{}
	}
	if g.Collaborative != nil {
		for id := range g.Collaborative.ItemFactors {
			set[id] = struct{}{}
		}
	}

	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// NumRatings returns the training set size of the collaborative model.
func (g *Generation) NumRatings() int {
	if g == nil || g.Collaborative == nil {
		return 0
	}
	return g.Collaborative.NumRatings
}
