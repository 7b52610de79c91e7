// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

// Package recommend implements the hybrid movie recommendation engine.
//
// The engine combines two complementary signals:
//
//   - Content similarity: a TF-IDF index over movie metadata (title,
//     genres, director, cast, description, tags) with a full pairwise
//     cosine similarity matrix, answering "movies like this one".
//   - Collaborative filtering: a biased latent-factor model trained on
//     (user, movie, rating) triples with stochastic gradient descent,
//     answering "movies users like you rated highly".
//
// Both models are bundled into an immutable Generation. The Engine holds
// exactly one current generation behind an atomic pointer; retraining
// builds a complete new generation off the serving path and publishes it
// with a single pointer swap, so concurrent reads always observe a
// consistent snapshot and never a half-built model.
//
// This package has no dependencies on other internal packages. Callers
// supply movie and rating records, and a PopularitySource for the
// cold-start fallback; the engine never computes popularity itself.
package recommend
