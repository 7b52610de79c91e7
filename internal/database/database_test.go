// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package database

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Dio27073/movie-recommender/internal/config"
	"github.com/Dio27073/movie-recommender/internal/recommend"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

func testMovies() []recommend.MovieRecord {
	return []recommend.MovieRecord{
		{
			ID:          1,
			Title:       "Starfall Odyssey",
			Genres:      []string{"Science Fiction", "Adventure"},
			Director:    "Mira Castellanos",
			Cast:        []string{"Dana Reyes", "Theo Park"},
			Description: "A deep space rescue.",
			Keywords:    []string{"space"},
			MoodTags:    []string{"epic"},
		},
		{
			ID:       2,
			Title:    "The Last Reel",
			Genres:   []string{"Drama"},
			Director: "Jonah Brandt",
		},
		{
			ID:    3,
			Title: "Cipher Street",
		},
	}
}

func TestUpsertMovies_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	want := testMovies()
	if err := db.UpsertMovies(ctx, want); err != nil {
		t.Fatalf("UpsertMovies: %v", err)
	}

	got, err := db.ListMovies(ctx)
	if err != nil {
		t.Fatalf("ListMovies: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("ListMovies returned %d movies, want %d", len(got), len(want))
	}

	byID := make(map[int]recommend.MovieRecord, len(got))
	for _, m := range got {
		byID[m.ID] = m
	}
	for _, w := range want {
		g, ok := byID[w.ID]
		if !ok {
			t.Fatalf("movie %d missing from ListMovies", w.ID)
		}
		if g.Title != w.Title || g.Director != w.Director || g.Description != w.Description {
			t.Errorf("movie %d scalar fields = %+v, want %+v", w.ID, g, w)
		}
		if !equalList(g.Genres, w.Genres) {
			t.Errorf("movie %d genres = %v, want %v", w.ID, g.Genres, w.Genres)
		}
		if !equalList(g.Cast, w.Cast) {
			t.Errorf("movie %d cast = %v, want %v", w.ID, g.Cast, w.Cast)
		}
	}
}

// equalList treats nil and empty slices as the same catalog value.
func equalList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestUpsertMovies_Replace(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertMovies(ctx, testMovies()); err != nil {
		t.Fatalf("UpsertMovies: %v", err)
	}
	updated := []recommend.MovieRecord{{ID: 1, Title: "Starfall Odyssey: Redux", Genres: []string{"Adventure"}}}
	if err := db.UpsertMovies(ctx, updated); err != nil {
		t.Fatalf("UpsertMovies replace: %v", err)
	}

	n, err := db.CountMovies(ctx)
	if err != nil {
		t.Fatalf("CountMovies: %v", err)
	}
	if n != 3 {
		t.Fatalf("CountMovies = %d after replace, want 3", n)
	}

	title, err := db.GetMovieTitle(ctx, 1)
	if err != nil {
		t.Fatalf("GetMovieTitle: %v", err)
	}
	if title != "Starfall Odyssey: Redux" {
		t.Errorf("GetMovieTitle(1) = %q, want replaced title", title)
	}
}

func TestGetMovieTitle_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetMovieTitle(context.Background(), 999)
	if !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("GetMovieTitle(999) error = %v, want ErrMovieNotFound", err)
	}
}

func TestGetMovie_Aggregates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertMovies(ctx, testMovies()); err != nil {
		t.Fatalf("UpsertMovies: %v", err)
	}
	if err := db.UpsertRating(ctx, 1, 1, 5); err != nil {
		t.Fatalf("UpsertRating: %v", err)
	}
	if err := db.UpsertRating(ctx, 2, 1, 4); err != nil {
		t.Fatalf("UpsertRating: %v", err)
	}

	movie, err := db.GetMovie(ctx, 1)
	if err != nil {
		t.Fatalf("GetMovie: %v", err)
	}
	if movie.Title != "Starfall Odyssey" {
		t.Errorf("Title = %q, want Starfall Odyssey", movie.Title)
	}
	if movie.AverageRating != 4.5 {
		t.Errorf("AverageRating = %v, want 4.5", movie.AverageRating)
	}
	if movie.ViewCount != 2 {
		t.Errorf("ViewCount = %d, want 2", movie.ViewCount)
	}
	if len(movie.Genres) != 2 {
		t.Errorf("Genres = %v, want 2 entries", movie.Genres)
	}

	// Unrated movies report zero aggregates, not an error.
	unrated, err := db.GetMovie(ctx, 3)
	if err != nil {
		t.Fatalf("GetMovie(3): %v", err)
	}
	if unrated.AverageRating != 0 || unrated.ViewCount != 0 {
		t.Errorf("unrated aggregates = %v/%d, want 0/0", unrated.AverageRating, unrated.ViewCount)
	}

	if _, err := db.GetMovie(ctx, 999); !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("GetMovie(999) error = %v, want ErrMovieNotFound", err)
	}
}

func TestMovieTitles(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertMovies(ctx, testMovies()); err != nil {
		t.Fatalf("UpsertMovies: %v", err)
	}

	got, err := db.MovieTitles(ctx, []int{1, 3, 999})
	if err != nil {
		t.Fatalf("MovieTitles: %v", err)
	}
	want := map[int]string{1: "Starfall Odyssey", 3: "Cipher Street"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MovieTitles = %v, want %v (unknown ids silently skipped)", got, want)
	}

	empty, err := db.MovieTitles(ctx, nil)
	if err != nil {
		t.Fatalf("MovieTitles(nil): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("MovieTitles(nil) = %v, want empty map", empty)
	}
}

func TestUpsertRating_ReplaceAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertMovies(ctx, testMovies()); err != nil {
		t.Fatalf("UpsertMovies: %v", err)
	}

	if err := db.UpsertRating(ctx, 7, 1, 3); err != nil {
		t.Fatalf("UpsertRating: %v", err)
	}
	// Re-rating the same movie replaces the row rather than adding one.
	if err := db.UpsertRating(ctx, 7, 1, 4.5); err != nil {
		t.Fatalf("UpsertRating replace: %v", err)
	}
	if err := db.UpsertRating(ctx, 7, 2, 2); err != nil {
		t.Fatalf("UpsertRating: %v", err)
	}

	ratings, err := db.ListRatings(ctx)
	if err != nil {
		t.Fatalf("ListRatings: %v", err)
	}
	if len(ratings) != 2 {
		t.Fatalf("ListRatings returned %d rows, want 2", len(ratings))
	}
	byMovie := make(map[int]float64, len(ratings))
	for _, r := range ratings {
		if r.UserID != 7 {
			t.Errorf("rating user = %d, want 7", r.UserID)
		}
		byMovie[r.MovieID] = r.Rating
	}
	if byMovie[1] != 4.5 {
		t.Errorf("rating for movie 1 = %v, want replaced value 4.5", byMovie[1])
	}
	if byMovie[2] != 2 {
		t.Errorf("rating for movie 2 = %v, want 2", byMovie[2])
	}
}

func TestRecentlyViewed_OldestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertMovies(ctx, testMovies()); err != nil {
		t.Fatalf("UpsertMovies: %v", err)
	}

	// Space the inserts out so rated_at timestamps are strictly ordered.
	for i, movieID := range []int{3, 1, 2} {
		if err := db.UpsertRating(ctx, 7, movieID, float64(i+2)); err != nil {
			t.Fatalf("UpsertRating(%d): %v", movieID, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	got, err := db.RecentlyViewed(ctx, 7, 2)
	if err != nil {
		t.Fatalf("RecentlyViewed: %v", err)
	}
	// Limit keeps the two newest, returned oldest first.
	want := []int{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RecentlyViewed = %v, want %v", got, want)
	}

	none, err := db.RecentlyViewed(ctx, 99, 5)
	if err != nil {
		t.Fatalf("RecentlyViewed unknown user: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("RecentlyViewed for unknown user = %v, want empty", none)
	}
}

func TestTopN_PopularityOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertMovies(ctx, testMovies()); err != nil {
		t.Fatalf("UpsertMovies: %v", err)
	}

	// Movie 2 averages highest, movie 1 next, movie 3 unrated.
	if err := db.UpsertRating(ctx, 1, 2, 5); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertRating(ctx, 2, 2, 4); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertRating(ctx, 1, 1, 3); err != nil {
		t.Fatal(err)
	}

	got, err := db.TopN(ctx, 3)
	if err != nil {
		t.Fatalf("TopN: %v", err)
	}
	want := []int{2, 1, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopN = %v, want %v", got, want)
	}

	top1, err := db.TopN(ctx, 1)
	if err != nil {
		t.Fatalf("TopN(1): %v", err)
	}
	if !reflect.DeepEqual(top1, []int{2}) {
		t.Errorf("TopN(1) = %v, want [2]", top1)
	}
}

func TestSeedMockData(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SeedMockData(ctx); err != nil {
		t.Fatalf("SeedMockData: %v", err)
	}

	n, err := db.CountMovies(ctx)
	if err != nil {
		t.Fatalf("CountMovies: %v", err)
	}
	if n == 0 {
		t.Fatal("SeedMockData inserted no movies")
	}

	ratings, err := db.ListRatings(ctx)
	if err != nil {
		t.Fatalf("ListRatings: %v", err)
	}
	if len(ratings) == 0 {
		t.Fatal("SeedMockData inserted no ratings")
	}

	// Running it again must not error or duplicate catalog rows.
	if err := db.SeedMockData(ctx); err != nil {
		t.Fatalf("SeedMockData rerun: %v", err)
	}
	again, err := db.CountMovies(ctx)
	if err != nil {
		t.Fatalf("CountMovies: %v", err)
	}
	if again != n {
		t.Errorf("CountMovies after reseed = %d, want %d", again, n)
	}
}
