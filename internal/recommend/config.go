// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package recommend

// Config contains engine configuration.
type Config struct {
	Content       ContentConfig
	Collaborative CollaborativeConfig
	Limits        LimitsConfig
}

// ContentConfig controls the TF-IDF content index.
type ContentConfig struct {
	// MinTokenLength is the minimum token length kept by the tokenizer.
	MinTokenLength int

	// MaxSeedMovies is how many recently viewed movies seed the content
	// half of a hybrid request.
	MaxSeedMovies int
}

// CollaborativeConfig controls the latent-factor model.
type CollaborativeConfig struct {
	// Factors is the latent vector dimensionality.
	Factors int

	// Epochs is the number of SGD passes over the rating set.
	Epochs int

	// LearningRate is the SGD step size.
	LearningRate float64

	// Regularization is the L2 penalty on factors and biases.
	Regularization float64

	// Seed fixes the random source for factor initialization and epoch
	// shuffling, making training reproducible.
	Seed int64

	// MinRating and MaxRating bound the valid rating scale. Ratings
	// outside the scale are rejected at the Train boundary and
	// predictions are clamped into it.
	MinRating float64
	MaxRating float64
}

// LimitsConfig bounds request sizes.
type LimitsConfig struct {
	// DefaultN is the result size used when a request passes n <= 0.
	DefaultN int

	// MaxN caps the result size of any single request.
	MaxN int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Content: ContentConfig{
			MinTokenLength: 2,
			MaxSeedMovies:  3,
		},
		Collaborative: CollaborativeConfig{
			Factors:        100,
			Epochs:         20,
			LearningRate:   0.005,
			Regularization: 0.02,
			Seed:           42,
			MinRating:      1.0,
			MaxRating:      5.0,
		},
		Limits: LimitsConfig{
			DefaultN: 10,
			MaxN:     100,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Content.MinTokenLength < 1 {
		return &ValidationError{Field: "content.min_token_length", Reason: "must be >= 1"}
	}
	if c.Content.MaxSeedMovies < 1 {
		return &ValidationError{Field: "content.max_seed_movies", Reason: "must be >= 1"}
	}
	if c.Collaborative.Factors < 1 {
		return &ValidationError{Field: "collaborative.factors", Reason: "must be >= 1"}
	}
	if c.Collaborative.Epochs < 1 {
		return &ValidationError{Field: "collaborative.epochs", Reason: "must be >= 1"}
	}
	if c.Collaborative.LearningRate <= 0 {
		return &ValidationError{Field: "collaborative.learning_rate", Reason: "must be > 0"}
	}
	if c.Collaborative.Regularization < 0 {
		return &ValidationError{Field: "collaborative.regularization", Reason: "must be >= 0"}
	}
	if c.Collaborative.MinRating >= c.Collaborative.MaxRating {
		return &ValidationError{Field: "collaborative.min_rating", Reason: "must be < max_rating"}
	}
	if c.Limits.DefaultN < 1 {
		return &ValidationError{Field: "limits.default_n", Reason: "must be >= 1"}
	}
	if c.Limits.MaxN < c.Limits.DefaultN {
		return &ValidationError{Field: "limits.max_n", Reason: "must be >= default_n"}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
