// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Dio27073/movie-recommender/internal/metrics"
	"github.com/Dio27073/movie-recommender/internal/models"
	"github.com/Dio27073/movie-recommender/internal/recommend"
)

// ErrMovieNotFound indicates a movie id absent from the catalog.
var ErrMovieNotFound = errors.New("movie not found")

// UpsertMovies inserts or replaces the given movies. The ingestion
// layer resolves duplicates before this call; within the batch the last
// record for an id wins.
func (db *DB) UpsertMovies(ctx context.Context, movies []recommend.MovieRecord) error {
	start := time.Now()
	err := db.upsertMovies(ctx, movies)
	metrics.RecordDBQuery("upsert", "movies", time.Since(start), err)
	return err
}

func (db *DB) upsertMovies(ctx context.Context, movies []recommend.MovieRecord) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
INSERT OR REPLACE INTO movies
    (id, title, genres, director, cast_list, description, keywords, mood_tags, content_rating, streaming_platforms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range movies {
		m := &movies[i]
		genres, cast, keywords, moods, platforms, encErr := encodeListFields(m)
		if encErr != nil {
			return encErr
		}
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.Title, genres, m.Director, cast, m.Description,
			keywords, moods, m.ContentRating, platforms,
		); err != nil {
			return fmt.Errorf("upsert movie %d: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

func encodeListFields(m *recommend.MovieRecord) (genres, cast, keywords, moods, platforms string, err error) {
	fields := []struct {
		val []string
		out *string
	}{
		{m.Genres, &genres},
		{m.Cast, &cast},
		{m.Keywords, &keywords},
		{m.MoodTags, &moods},
		{m.StreamingPlatforms, &platforms},
	}
	for _, f := range fields {
		v := f.val
		if v == nil {
			v = []string{}
		}
		b, jerr := json.Marshal(v)
		if jerr != nil {
			return "", "", "", "", "", fmt.Errorf("encode movie %d: %w", m.ID, jerr)
		}
		*f.out = string(b)
	}
	return genres, cast, keywords, moods, platforms, nil
}

// ListMovies returns the full catalog as engine records.
func (db *DB) ListMovies(ctx context.Context) ([]recommend.MovieRecord, error) {
	start := time.Now()
	movies, err := db.listMovies(ctx)
	metrics.RecordDBQuery("list", "movies", time.Since(start), err)
	return movies, err
}

func (db *DB) listMovies(ctx context.Context) ([]recommend.MovieRecord, error) {
	const q = `
SELECT id, title, genres, director, cast_list, description, keywords, mood_tags, content_rating, streaming_platforms
FROM movies
ORDER BY id`

	rows, err := db.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []recommend.MovieRecord
	for rows.Next() {
		var m recommend.MovieRecord
		var genres, cast, keywords, moods, platforms string
		if err := rows.Scan(
			&m.ID, &m.Title, &genres, &m.Director, &cast, &m.Description,
			&keywords, &moods, &m.ContentRating, &platforms,
		); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		if err := decodeListFields(&m, genres, cast, keywords, moods, platforms); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func decodeListFields(m *recommend.MovieRecord, genres, cast, keywords, moods, platforms string) error {
	fields := []struct {
		raw string
		out *[]string
	}{
		{genres, &m.Genres},
		{cast, &m.Cast},
		{keywords, &m.Keywords},
		{moods, &m.MoodTags},
		{platforms, &m.StreamingPlatforms},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw), f.out); err != nil {
			return fmt.Errorf("decode movie %d: %w", m.ID, err)
		}
	}
	return nil
}

// MovieTitles resolves movie ids to titles. Unknown ids are omitted.
func (db *DB) MovieTitles(ctx context.Context, ids []int) (map[int]string, error) {
	if len(ids) == 0 {
		return map[int]string{}, nil
	}

	start := time.Now()
	titles, err := db.movieTitles(ctx, ids)
	metrics.RecordDBQuery("titles", "movies", time.Since(start), err)
	return titles, err
}

func (db *DB) movieTitles(ctx context.Context, ids []int) (map[int]string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	q := "SELECT id, title FROM movies WHERE id IN (" + placeholders + ")"

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query titles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	titles := make(map[int]string, len(ids))
	for rows.Next() {
		var id int
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles[id] = title
	}
	return titles, rows.Err()
}

// CountMovies returns the catalog size.
func (db *DB) CountMovies(ctx context.Context) (int, error) {
	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT count(*) FROM movies").Scan(&count)
	metrics.RecordDBQuery("count", "movies", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

// GetMovie returns one catalog movie with its rating aggregates,
// ErrMovieNotFound when absent.
func (db *DB) GetMovie(ctx context.Context, id int) (*models.Movie, error) {
	start := time.Now()
	movie, err := db.getMovie(ctx, id)
	metrics.RecordDBQuery("get", "movies", time.Since(start), err)
	return movie, err
}

func (db *DB) getMovie(ctx context.Context, id int) (*models.Movie, error) {
	const q = `
SELECT m.id, m.title, m.genres, m.director, m.cast_list, m.description,
       m.keywords, m.mood_tags, m.content_rating, m.streaming_platforms,
       coalesce(avg(r.rating), 0) AS average_rating,
       m.view_count
FROM movies m
LEFT JOIN ratings r ON r.movie_id = m.id
WHERE m.id = ?
GROUP BY m.id, m.title, m.genres, m.director, m.cast_list, m.description,
         m.keywords, m.mood_tags, m.content_rating, m.streaming_platforms,
         m.view_count`

	var rec recommend.MovieRecord
	var genres, cast, keywords, moods, platforms string
	var avgRating float64
	var viewCount int
	err := db.conn.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.Title, &genres, &rec.Director, &cast, &rec.Description,
		&keywords, &moods, &rec.ContentRating, &platforms,
		&avgRating, &viewCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	if err := decodeListFields(&rec, genres, cast, keywords, moods, platforms); err != nil {
		return nil, err
	}

	return &models.Movie{
		ID:                 rec.ID,
		Title:              rec.Title,
		Genres:             rec.Genres,
		Director:           rec.Director,
		Cast:               rec.Cast,
		Description:        rec.Description,
		Keywords:           rec.Keywords,
		MoodTags:           rec.MoodTags,
		ContentRating:      rec.ContentRating,
		StreamingPlatforms: rec.StreamingPlatforms,
		AverageRating:      avgRating,
		ViewCount:          viewCount,
	}, nil
}

// GetMovieTitle resolves one movie id, returning ErrMovieNotFound when
// absent.
func (db *DB) GetMovieTitle(ctx context.Context, id int) (string, error) {
	start := time.Now()
	var title string
	err := db.conn.QueryRowContext(ctx, "SELECT title FROM movies WHERE id = ?", id).Scan(&title)
	metrics.RecordDBQuery("get", "movies", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMovieNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get movie %d: %w", id, err)
	}
	return title, nil
}
