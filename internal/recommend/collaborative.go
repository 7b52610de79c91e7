// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package recommend

import (
	"context"
	"math/rand"
	"sort"
)

// CollaborativeModel is a biased latent-factor model trained with
// stochastic gradient descent. The predicted rating for (user, movie)
// is the global mean plus user and item biases plus the dot product of
// the latent vectors, clamped to the rating scale for output.
//
// Fields are exported for snapshot encoding; the model is immutable
// after training.
type CollaborativeModel struct {
	// Trained is false when the model was built from zero ratings.
	// Predictions against an untrained model fail with ErrModelNotReady.
	Trained bool

	// GlobalMean is the mean of all observed ratings.
	GlobalMean float64

	// UserBias and ItemBias are the learned bias terms.
	UserBias map[int]float64
	ItemBias map[int]float64

	// UserFactors and ItemFactors are the learned latent vectors.
	UserFactors map[int][]float64
	ItemFactors map[int][]float64

	// RatedBy records which movies each user has rated, for exclusion
	// in TopUnrated.
	RatedBy map[int]map[int]struct{}

	// MinRating and MaxRating bound the output scale.
	MinRating float64
	MaxRating float64

	// NumRatings is the size of the training set.
	NumRatings int
}

// TrainCollaborative fits a latent-factor model on the given ratings.
// Training is deterministic for a fixed cfg.Seed. Ratings outside the
// configured scale are rejected before any state is built. An empty
// rating set yields an untrained model without error.
func TrainCollaborative(ctx context.Context, ratings []RatingRecord, cfg CollaborativeConfig) (*CollaborativeModel, error) {
	for i := range ratings {
		if r := ratings[i].Rating; r < cfg.MinRating || r > cfg.MaxRating {
			return nil, &ValidationError{Field: "ratings", Reason: "rating outside valid scale"}
		}
	}

	m := &CollaborativeModel{
		UserBias:    make(map[int]float64),
		ItemBias:    make(map[int]float64),
		UserFactors: make(map[int][]float64),
		ItemFactors: make(map[int][]float64),
		RatedBy:     make(map[int]map[int]struct{}),
		MinRating:   cfg.MinRating,
		MaxRating:   cfg.MaxRating,
		NumRatings:  len(ratings),
	}

	if len(ratings) == 0 {
		return m, nil
	}

	var sum float64
	for i := range ratings {
		sum += ratings[i].Rating
	}
	m.GlobalMean = sum / float64(len(ratings))

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // fixed seed for reproducible training

	factors := cfg.Factors
	for i := range ratings {
		r := &ratings[i]
		if _, ok := m.UserFactors[r.UserID]; !ok {
			m.UserFactors[r.UserID] = randomVector(rng, factors)
		}
		if _, ok := m.ItemFactors[r.MovieID]; !ok {
			m.ItemFactors[r.MovieID] = randomVector(rng, factors)
		}
		rated, ok := m.RatedBy[r.UserID]
		if !ok {
			rated = make(map[int]struct{})
			m.RatedBy[r.UserID] = rated
		}
		rated[r.MovieID] = struct{}{}
	}

	lr := cfg.LearningRate
	reg := cfg.Regularization

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, idx := range rng.Perm(len(ratings)) {
			r := &ratings[idx]
			p := m.UserFactors[r.UserID]
			q := m.ItemFactors[r.MovieID]

			pred := m.GlobalMean + m.UserBias[r.UserID] + m.ItemBias[r.MovieID] + dot(p, q)
			err := r.Rating - pred

			m.UserBias[r.UserID] += lr * (err - reg*m.UserBias[r.UserID])
			m.ItemBias[r.MovieID] += lr * (err - reg*m.ItemBias[r.MovieID])

			for f := 0; f < factors; f++ {
				pf, qf := p[f], q[f]
				p[f] += lr * (err*qf - reg*pf)
				q[f] += lr * (err*pf - reg*qf)
			}
		}
	}

	m.Trained = true
	return m, nil
}

// randomVector returns a factor vector with small gaussian entries.
func randomVector(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.NormFloat64() * 0.1
	}
	return v
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Predict estimates the rating user userID would give movieID, clamped
// to the rating scale. Ids unknown to the model fall back to the global
// mean plus whatever bias terms are known, since predictions feed
// internal ranking rather than display. Returns ErrModelNotReady when
// the model was trained on zero ratings.
func (m *CollaborativeModel) Predict(userID, movieID int) (float64, error) {
	if !m.Trained {
		return 0, ErrModelNotReady
	}

	pred := m.GlobalMean + m.UserBias[userID] + m.ItemBias[movieID]

	p, userOK := m.UserFactors[userID]
	q, itemOK := m.ItemFactors[movieID]
	if userOK && itemOK {
		pred += dot(p, q)
	}

	return m.clamp(pred), nil
}

// TopUnrated ranks the candidate movies by predicted rating for userID,
// excluding movies the user has already rated. Descending predicted
// rating, ties broken by ascending movie id. Returns ErrModelNotReady
// when the model was trained on zero ratings.
func (m *CollaborativeModel) TopUnrated(userID int, candidates []int, n int) ([]ScoredMovie, error) {
	if !m.Trained {
		return nil, ErrModelNotReady
	}
	if n <= 0 {
		return nil, nil
	}

	rated := m.RatedBy[userID]

	out := make([]ScoredMovie, 0, len(candidates))
	for _, movieID := range candidates {
		if _, seen := rated[movieID]; seen {
			continue
		}
		pred, err := m.Predict(userID, movieID)
		if err != nil {
			return nil, err
		}
		out = append(out, ScoredMovie{MovieID: movieID, Score: pred})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].MovieID < out[j].MovieID
	})

	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// HasRated reports whether userID has rated movieID in the training set.
func (m *CollaborativeModel) HasRated(userID, movieID int) bool {
	_, ok := m.RatedBy[userID][movieID]
	return ok
}

// MovieIDs returns the movie ids known to the model, in ascending order.
func (m *CollaborativeModel) MovieIDs() []int {
	ids := make([]int, 0, len(m.ItemFactors))
	for id := range m.ItemFactors {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (m *CollaborativeModel) clamp(v float64) float64 {
	if v < m.MinRating {
		return m.MinRating
	}
	if v > m.MaxRating {
		return m.MaxRating
	}
	return v
}
