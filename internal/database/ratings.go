// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Dio27073/movie-recommender/internal/metrics"
	"github.com/Dio27073/movie-recommender/internal/recommend"
)

// UpsertRating stores the user's current rating for a movie, replacing
// any previous one, and counts the interaction as a view.
func (db *DB) UpsertRating(ctx context.Context, userID, movieID int, rating float64) error {
	start := time.Now()
	err := db.upsertRating(ctx, userID, movieID, rating)
	metrics.RecordDBQuery("upsert", "ratings", time.Since(start), err)
	return err
}

func (db *DB) upsertRating(ctx context.Context, userID, movieID int, rating float64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
INSERT OR REPLACE INTO ratings (user_id, movie_id, rating, rated_at)
VALUES (?, ?, ?, current_timestamp)`
	if _, err := tx.ExecContext(ctx, q, userID, movieID, rating); err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE movies SET view_count = view_count + 1 WHERE id = ?", movieID,
	); err != nil {
		return fmt.Errorf("bump view count: %w", err)
	}

	return tx.Commit()
}

// ListRatings returns all current ratings as engine records.
func (db *DB) ListRatings(ctx context.Context) ([]recommend.RatingRecord, error) {
	start := time.Now()
	ratings, err := db.listRatings(ctx)
	metrics.RecordDBQuery("list", "ratings", time.Since(start), err)
	return ratings, err
}

func (db *DB) listRatings(ctx context.Context) ([]recommend.RatingRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT user_id, movie_id, rating FROM ratings ORDER BY user_id, movie_id")
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []recommend.RatingRecord
	for rows.Next() {
		var r recommend.RatingRecord
		if err := rows.Scan(&r.UserID, &r.MovieID, &r.Rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecentlyViewed returns up to limit of the user's most recently rated
// movie ids, oldest first, so the last entry is the newest interaction.
func (db *DB) RecentlyViewed(ctx context.Context, userID, limit int) ([]int, error) {
	start := time.Now()
	ids, err := db.recentlyViewed(ctx, userID, limit)
	metrics.RecordDBQuery("recently_viewed", "ratings", time.Since(start), err)
	return ids, err
}

func (db *DB) recentlyViewed(ctx context.Context, userID, limit int) ([]int, error) {
	const q = `
SELECT movie_id FROM (
    SELECT movie_id, rated_at
    FROM ratings
    WHERE user_id = ?
    ORDER BY rated_at DESC, movie_id DESC
    LIMIT ?
) ORDER BY rated_at ASC, movie_id ASC`

	rows, err := db.conn.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recently viewed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan movie id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TopN returns up to limit movie ids by popularity: average rating
// descending, then view count descending, then id ascending. Unrated
// movies rank by view count with a zero average. Implements
// recommend.PopularitySource.
func (db *DB) TopN(ctx context.Context, limit int) ([]int, error) {
	start := time.Now()
	ids, err := db.topN(ctx, limit)
	metrics.RecordDBQuery("popularity", "movies", time.Since(start), err)
	return ids, err
}

func (db *DB) topN(ctx context.Context, limit int) ([]int, error) {
	const q = `
SELECT m.id
FROM movies m
LEFT JOIN ratings r ON r.movie_id = m.id
GROUP BY m.id, m.view_count
ORDER BY coalesce(avg(r.rating), 0) DESC, m.view_count DESC, m.id ASC
LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query popularity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan movie id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ recommend.PopularitySource = (*DB)(nil)
