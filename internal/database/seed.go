// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package database

import (
	"context"
	"fmt"

	"github.com/Dio27073/movie-recommender/internal/recommend"
)

// SeedMockData loads a small demo catalog and rating history so the
// service is usable without an ingestion pipeline. Idempotent; upserts
// replace existing rows.
func (db *DB) SeedMockData(ctx context.Context) error {
	movies := []recommend.MovieRecord{
		{
			ID: 1, Title: "Starfall Odyssey",
			Genres:      []string{"Science Fiction", "Adventure"},
			Director:    "Mira Castellanos",
			Cast:        []string{"Dana Reyes", "Theo Park"},
			Description: "A deep space crew races a collapsing wormhole to bring a dying colony home.",
			Keywords:    []string{"space", "colony", "rescue"},
			MoodTags:    []string{"epic", "hopeful"},
		},
		{
			ID: 2, Title: "Echoes of the Nebula",
			Genres:      []string{"Science Fiction", "Drama"},
			Director:    "Mira Castellanos",
			Cast:        []string{"Theo Park", "Ines Okafor"},
			Description: "Two estranged pilots reunite on a generation ship drifting past a dying star.",
			Keywords:    []string{"space", "generation ship"},
			MoodTags:    []string{"melancholy", "epic"},
		},
		{
			ID: 3, Title: "The Last Reel",
			Genres:      []string{"Drama"},
			Director:    "Jonah Brandt",
			Cast:        []string{"Ava Lindqvist"},
			Description: "An aging projectionist fights to save the last film theater in a fading town.",
			Keywords:    []string{"cinema", "small town"},
			MoodTags:    []string{"nostalgic"},
		},
		{
			ID: 4, Title: "Midnight Garden Club",
			Genres:      []string{"Comedy", "Romance"},
			Director:    "Priya Nandakumar",
			Cast:        []string{"Ava Lindqvist", "Marcus Bell"},
			Description: "Rival rooftop gardeners fall for each other during a citywide flower contest.",
			Keywords:    []string{"romance", "city"},
			MoodTags:    []string{"lighthearted"},
		},
		{
			ID: 5, Title: "Cipher Street",
			Genres:      []string{"Thriller", "Crime"},
			Director:    "Jonah Brandt",
			Cast:        []string{"Marcus Bell", "Dana Reyes"},
			Description: "A codebreaker uncovers a laundering ring hidden inside a crossword syndicate.",
			Keywords:    []string{"heist", "puzzle"},
			MoodTags:    []string{"tense"},
		},
		{
			ID: 6, Title: "Orbit of Glass",
			Genres:      []string{"Science Fiction", "Thriller"},
			Director:    "Priya Nandakumar",
			Cast:        []string{"Ines Okafor"},
			Description: "A satellite engineer discovers her station is being quietly decommissioned with the crew aboard.",
			Keywords:    []string{"space", "conspiracy"},
			MoodTags:    []string{"tense"},
		},
	}

	if err := db.UpsertMovies(ctx, movies); err != nil {
		return fmt.Errorf("seed movies: %w", err)
	}

	ratings := []struct {
		userID  int
		movieID int
		rating  float64
	}{
		{1, 1, 5}, {1, 2, 4.5}, {1, 5, 3},
		{2, 1, 4}, {2, 3, 5}, {2, 4, 4},
		{3, 2, 5}, {3, 6, 4.5}, {3, 5, 2},
	}
	for _, r := range ratings {
		if err := db.UpsertRating(ctx, r.userID, r.movieID, r.rating); err != nil {
			return fmt.Errorf("seed rating (%d,%d): %w", r.userID, r.movieID, err)
		}
	}

	return nil
}
