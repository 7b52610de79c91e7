// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package recommend

import (
	"context"
	"errors"
	"math"
	"testing"
)

func testCollabConfig() CollaborativeConfig {
	cfg := DefaultConfig().Collaborative
	cfg.Factors = 10
	return cfg
}

func fourRatings() []RatingRecord {
	return []RatingRecord{
		{UserID: 1, MovieID: 1, Rating: 5},
		{UserID: 1, MovieID: 2, Rating: 1},
		{UserID: 2, MovieID: 1, Rating: 4},
		{UserID: 2, MovieID: 2, Rating: 5},
	}
}

func TestTrainCollaborative(t *testing.T) {
	tests := []struct {
		name    string
		ratings []RatingRecord
		wantErr bool
		verify  func(t *testing.T, m *CollaborativeModel)
	}{
		{
			name:    "zero ratings yields untrained model",
			ratings: nil,
			verify: func(t *testing.T, m *CollaborativeModel) {
				if m.Trained {
					t.Error("Trained = true, want false for empty rating set")
				}
				if _, err := m.Predict(1, 1); !errors.Is(err, ErrModelNotReady) {
					t.Errorf("Predict() error = %v, want ErrModelNotReady", err)
				}
				if _, err := m.TopUnrated(1, []int{1, 2}, 5); !errors.Is(err, ErrModelNotReady) {
					t.Errorf("TopUnrated() error = %v, want ErrModelNotReady", err)
				}
			},
		},
		{
			name:    "computes global mean",
			ratings: fourRatings(),
			verify: func(t *testing.T, m *CollaborativeModel) {
				if !m.Trained {
					t.Fatal("Trained = false, want true")
				}
				if m.GlobalMean != 3.75 {
					t.Errorf("GlobalMean = %f, want 3.75", m.GlobalMean)
				}
				if m.NumRatings != 4 {
					t.Errorf("NumRatings = %d, want 4", m.NumRatings)
				}
			},
		},
		{
			name: "rating outside scale rejected",
			ratings: []RatingRecord{
				{UserID: 1, MovieID: 1, Rating: 6},
			},
			wantErr: true,
		},
		{
			name: "negative rating rejected",
			ratings: []RatingRecord{
				{UserID: 1, MovieID: 1, Rating: -1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := TrainCollaborative(context.Background(), tt.ratings, testCollabConfig())
			if (err != nil) != tt.wantErr {
				t.Fatalf("TrainCollaborative() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !IsValidation(err) {
					t.Errorf("error = %v, want ValidationError", err)
				}
				return
			}
			tt.verify(t, m)
		})
	}
}

func TestTrainCollaborative_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TrainCollaborative(ctx, fourRatings(), testCollabConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("TrainCollaborative() error = %v, want context.Canceled", err)
	}
}

func TestTrainCollaborative_Determinism(t *testing.T) {
	cfg := testCollabConfig()

	a, err := TrainCollaborative(context.Background(), fourRatings(), cfg)
	if err != nil {
		t.Fatalf("TrainCollaborative() error = %v", err)
	}
	b, err := TrainCollaborative(context.Background(), fourRatings(), cfg)
	if err != nil {
		t.Fatalf("TrainCollaborative() error = %v", err)
	}

	for _, user := range []int{1, 2} {
		for _, movie := range []int{1, 2} {
			pa, _ := a.Predict(user, movie)
			pb, _ := b.Predict(user, movie)
			if pa != pb {
				t.Errorf("Predict(%d,%d) differs across runs with fixed seed: %f vs %f", user, movie, pa, pb)
			}
		}
	}
}

func TestCollaborativeModel_Predict(t *testing.T) {
	m, err := TrainCollaborative(context.Background(), fourRatings(), testCollabConfig())
	if err != nil {
		t.Fatalf("TrainCollaborative() error = %v", err)
	}

	tests := []struct {
		name    string
		userID  int
		movieID int
		verify  func(t *testing.T, pred float64)
	}{
		{
			name:    "unseen movie falls back near global mean",
			userID:  1,
			movieID: 3,
			verify: func(t *testing.T, pred float64) {
				if math.Abs(pred-3.75) > 0.5 {
					t.Errorf("Predict(1,3) = %f, want within 0.5 of 3.75", pred)
				}
			},
		},
		{
			name:    "unknown user falls back near global mean",
			userID:  99,
			movieID: 1,
			verify: func(t *testing.T, pred float64) {
				if math.Abs(pred-3.75) > 0.75 {
					t.Errorf("Predict(99,1) = %f, want near global mean", pred)
				}
			},
		},
		{
			name:    "prediction stays within rating scale",
			userID:  1,
			movieID: 1,
			verify: func(t *testing.T, pred float64) {
				if pred < 1 || pred > 5 {
					t.Errorf("Predict(1,1) = %f, want in [1,5]", pred)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := m.Predict(tt.userID, tt.movieID)
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			tt.verify(t, pred)
		})
	}
}

func TestCollaborativeModel_TopUnrated(t *testing.T) {
	// User 1 strongly prefers movie 1 over movie 2; user 2 liked both.
	// Movies 3 and 4 only have ratings from user 2.
	ratings := []RatingRecord{
		{UserID: 1, MovieID: 1, Rating: 5},
		{UserID: 1, MovieID: 2, Rating: 1},
		{UserID: 2, MovieID: 1, Rating: 5},
		{UserID: 2, MovieID: 2, Rating: 2},
		{UserID: 2, MovieID: 3, Rating: 5},
		{UserID: 2, MovieID: 4, Rating: 1},
	}

	m, err := TrainCollaborative(context.Background(), ratings, testCollabConfig())
	if err != nil {
		t.Fatalf("TrainCollaborative() error = %v", err)
	}

	tests := []struct {
		name       string
		userID     int
		candidates []int
		n          int
		verify     func(t *testing.T, got []ScoredMovie)
	}{
		{
			name:       "excludes already rated movies",
			userID:     1,
			candidates: []int{1, 2, 3, 4},
			n:          10,
			verify: func(t *testing.T, got []ScoredMovie) {
				for _, s := range got {
					if s.MovieID == 1 || s.MovieID == 2 {
						t.Errorf("TopUnrated returned already rated movie %d", s.MovieID)
					}
				}
				if len(got) != 2 {
					t.Errorf("len = %d, want 2", len(got))
				}
			},
		},
		{
			name:       "descending predicted rating",
			userID:     1,
			candidates: []int{3, 4},
			n:          10,
			verify: func(t *testing.T, got []ScoredMovie) {
				for i := 1; i < len(got); i++ {
					if got[i].Score > got[i-1].Score {
						t.Errorf("results not in descending score order: %v", got)
					}
				}
			},
		},
		{
			name:       "caps at n",
			userID:     1,
			candidates: []int{3, 4, 5, 6, 7},
			n:          2,
			verify: func(t *testing.T, got []ScoredMovie) {
				if len(got) != 2 {
					t.Errorf("len = %d, want 2", len(got))
				}
			},
		},
		{
			name:       "ties broken by ascending movie id",
			userID:     99,
			candidates: []int{42, 7, 13},
			n:          10,
			verify: func(t *testing.T, got []ScoredMovie) {
				// Unknown user and unknown movies all predict the same
				// fallback value, so ordering is purely by id.
				want := []int{7, 13, 42}
				if len(got) != len(want) {
					t.Fatalf("len = %d, want %d", len(got), len(want))
				}
				for i := range want {
					if got[i].MovieID != want[i] {
						t.Errorf("got[%d].MovieID = %d, want %d", i, got[i].MovieID, want[i])
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.TopUnrated(tt.userID, tt.candidates, tt.n)
			if err != nil {
				t.Fatalf("TopUnrated() error = %v", err)
			}
			tt.verify(t, got)
		})
	}
}

func TestCollaborativeModel_LearnsPreferences(t *testing.T) {
	// Two user groups with opposite tastes. Training should pull the
	// predictions for each group toward its observed ratings.
	ratings := []RatingRecord{
		{UserID: 1, MovieID: 1, Rating: 5},
		{UserID: 1, MovieID: 2, Rating: 5},
		{UserID: 1, MovieID: 3, Rating: 1},
		{UserID: 2, MovieID: 1, Rating: 5},
		{UserID: 2, MovieID: 2, Rating: 4},
		{UserID: 2, MovieID: 3, Rating: 1},
		{UserID: 3, MovieID: 1, Rating: 1},
		{UserID: 3, MovieID: 2, Rating: 2},
		{UserID: 3, MovieID: 3, Rating: 5},
	}

	cfg := testCollabConfig()
	cfg.Epochs = 100

	m, err := TrainCollaborative(context.Background(), ratings, cfg)
	if err != nil {
		t.Fatalf("TrainCollaborative() error = %v", err)
	}

	liked, _ := m.Predict(1, 1)
	disliked, _ := m.Predict(1, 3)
	if liked <= disliked {
		t.Errorf("Predict(1,1) = %f should exceed Predict(1,3) = %f", liked, disliked)
	}
}

func TestCollaborativeModel_MovieIDs(t *testing.T) {
	m, err := TrainCollaborative(context.Background(), fourRatings(), testCollabConfig())
	if err != nil {
		t.Fatalf("TrainCollaborative() error = %v", err)
	}

	ids := m.MovieIDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("MovieIDs() = %v, want [1 2]", ids)
	}

	if !m.HasRated(1, 2) {
		t.Error("HasRated(1,2) = false, want true")
	}
	if m.HasRated(1, 3) {
		t.Error("HasRated(1,3) = true, want false")
	}
}
