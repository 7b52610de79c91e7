// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

// Package models defines the wire types shared by the HTTP API.
package models

import "time"

// APIResponse is the envelope used by every HTTP endpoint.
//
// Status is "success" or "error". Data carries the payload on success;
// Error is populated only on failure.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the structured error payload.
//
// Common codes: VALIDATION_ERROR, NOT_FOUND, MODEL_NOT_READY,
// TRAINING_IN_PROGRESS, RATE_LIMIT_EXCEEDED, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Movie is the API representation of a catalog movie.
type Movie struct {
	ID                 int      `json:"id"`
	Title              string   `json:"title"`
	Genres             []string `json:"genres,omitempty"`
	Director           string   `json:"director,omitempty"`
	Cast               []string `json:"cast,omitempty"`
	Description        string   `json:"description,omitempty"`
	Keywords           []string `json:"keywords,omitempty"`
	MoodTags           []string `json:"mood_tags,omitempty"`
	ContentRating      string   `json:"content_rating,omitempty"`
	StreamingPlatforms []string `json:"streaming_platforms,omitempty"`
	AverageRating      float64  `json:"average_rating"`
	ViewCount          int      `json:"view_count"`
}

// RecommendedMovie is one ranked entry in a recommendation response.
// Confidence decreases with rank position.
type RecommendedMovie struct {
	MovieID    int     `json:"movie_id"`
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence_score"`
}

// RecommendationsResponse is the payload of the user recommendations
// endpoint. Type is "hybrid", or "trending" on the cold-start path.
type RecommendationsResponse struct {
	UserID          int                `json:"user_id"`
	Type            string             `json:"recommendation_type"`
	Recommendations []RecommendedMovie `json:"recommendations"`
}

// SimilarMoviesResponse is the payload of the similar movies endpoint.
// Title is the source movie's title, empty if it has no catalog row.
type SimilarMoviesResponse struct {
	MovieID int                `json:"movie_id"`
	Title   string             `json:"title,omitempty"`
	Similar []RecommendedMovie `json:"similar"`
}

// RetrainAccepted is returned when a retrain has been started.
type RetrainAccepted struct {
	Model   string `json:"model"`
	Started bool   `json:"started"`
}
