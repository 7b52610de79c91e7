// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/Dio27073/movie-recommender/internal/database"
	"github.com/Dio27073/movie-recommender/internal/logging"
	"github.com/Dio27073/movie-recommender/internal/metrics"
	"github.com/Dio27073/movie-recommender/internal/models"
	"github.com/Dio27073/movie-recommender/internal/recommend"
	"github.com/Dio27073/movie-recommender/internal/validation"
)

// recentlyViewedLimit caps how much rating history feeds a hybrid
// request. The engine only seeds from the tail of this window.
const recentlyViewedLimit = 10

const requestTimeout = 10 * time.Second

// Store is the catalog access the handlers need.
type Store interface {
	RecentlyViewed(ctx context.Context, userID, limit int) ([]int, error)
	MovieTitles(ctx context.Context, ids []int) (map[int]string, error)
	GetMovieTitle(ctx context.Context, id int) (string, error)
	GetMovie(ctx context.Context, id int) (*models.Movie, error)
	Ping(ctx context.Context) error
}

// Trainer runs a full retrain of one model from stored data and
// publishes the result. Implementations surface
// recommend.ErrTrainingInProgress when a retrain is already running.
type Trainer interface {
	RetrainContent(ctx context.Context) error
	RetrainCollaborative(ctx context.Context) error
}

// idParams carries the path identifier of the user recommendation and
// similar-movies endpoints. Ids are positive; an oversized n query
// parameter is clamped by the engine, not rejected.
type idParams struct {
	ID int `validate:"min=1"`
}

// Handler serves the recommendation API endpoints.
type Handler struct {
	engine  *recommend.Engine
	store   Store
	trainer Trainer

	// retrainLimiter throttles the admin retrain surface; SGD over the
	// full rating set is expensive.
	retrainLimiter *rate.Limiter
}

// NewHandler creates the API handler. retrainPerHour bounds how many
// admin-triggered retrains are accepted per hour.
func NewHandler(engine *recommend.Engine, store Store, trainer Trainer, retrainPerHour int) *Handler {
	if retrainPerHour < 1 {
		retrainPerHour = 1
	}
	return &Handler{
		engine:         engine,
		store:          store,
		trainer:        trainer,
		retrainLimiter: rate.NewLimiter(rate.Every(time.Hour/time.Duration(retrainPerHour)), retrainPerHour),
	}
}

// GetRecommendations handles GET /api/v1/recommendations/user/{userID}.
// Returns hybrid recommendations, or trending ones when the user has no
// rating history.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid user ID", err)
		return
	}
	if verr := validation.ValidateStruct(&idParams{ID: userID}); verr != nil {
		respondValidationError(w, verr)
		return
	}
	n := queryInt(r, "n", 0)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	recentlyViewed, err := h.store.RecentlyViewed(ctx, userID, recentlyViewedLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load rating history", err)
		return
	}

	ids := h.engine.Recommend(ctx, userID, recentlyViewed, n)

	recType := "hybrid"
	if len(recentlyViewed) == 0 {
		recType = "trending"
	}

	recs, err := h.resolveMovies(ctx, ids)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve movie titles", err)
		return
	}
	metrics.RecommendationsServed.WithLabelValues(recType).Inc()

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.RecommendationsResponse{
			UserID:          userID,
			Type:            recType,
			Recommendations: recs,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// GetSimilar handles GET /api/v1/recommendations/similar/{movieID}.
func (h *Handler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	movieID, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid movie ID", err)
		return
	}
	if verr := validation.ValidateStruct(&idParams{ID: movieID}); verr != nil {
		respondValidationError(w, verr)
		return
	}
	n := queryInt(r, "n", 0)

	scored, err := h.engine.Similar(movieID, n)
	switch {
	case errors.Is(err, recommend.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Movie not in the content index", nil)
		return
	case errors.Is(err, recommend.ErrModelNotReady):
		respondError(w, http.StatusServiceUnavailable, "MODEL_NOT_READY", "Content index has not been trained yet", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to find similar movies", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ids := make([]int, len(scored))
	for i, s := range scored {
		ids[i] = s.MovieID
	}
	similar, err := h.resolveMovies(ctx, ids)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve movie titles", err)
		return
	}

	// Source title is best effort; the index can know movies the
	// catalog no longer carries.
	sourceTitle, err := h.store.GetMovieTitle(ctx, movieID)
	if err != nil {
		sourceTitle = ""
	}
	metrics.RecommendationsServed.WithLabelValues("similar").Inc()

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.SimilarMoviesResponse{
			MovieID: movieID,
			Title:   sourceTitle,
			Similar: similar,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// GetMovie handles GET /api/v1/movies/{movieID}, returning the catalog
// row with its rating aggregates.
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	movieID, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid movie ID", err)
		return
	}
	if verr := validation.ValidateStruct(&idParams{ID: movieID}); verr != nil {
		respondValidationError(w, verr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	movie, err := h.store.GetMovie(ctx, movieID)
	switch {
	case errors.Is(err, database.ErrMovieNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Movie not in the catalog", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load movie", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   movie,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// TriggerRetrain handles POST /api/v1/admin/retrain/{model} where model
// is "content" or "collaborative". Training runs in the background; the
// response is 202 once the retrain has been accepted.
func (h *Handler) TriggerRetrain(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")

	var train func(context.Context) error
	switch model {
	case "content":
		train = h.trainer.RetrainContent
	case "collaborative":
		train = h.trainer.RetrainCollaborative
	default:
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown model, want content or collaborative", nil)
		return
	}

	if h.engine.Status().Training {
		respondError(w, http.StatusConflict, "TRAINING_IN_PROGRESS", "A retrain is already running", nil)
		return
	}

	if !h.retrainLimiter.Allow() {
		respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Retrain budget exhausted, try again later", nil)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		if err := train(ctx); err != nil {
			logging.Error().Err(err).Str("model", model).Msg("retrain failed")
			return
		}
		logging.Info().Str("model", model).Msg("retrain completed")
	}()

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: models.RetrainAccepted{
			Model:   model,
			Started: true,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// GetStatus handles GET /api/v1/recommendations/status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   h.engine.Status(),
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive handles GET /api/v1/health/live. Always 200 while the
// process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   map[string]string{"state": "live"},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady handles GET /api/v1/health/ready. Ready means the store
// answers; model readiness is reported but does not fail the probe,
// the popularity fallback serves traffic before the first retrain.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "INTERNAL_ERROR", "Database not reachable", err)
		return
	}

	status := h.engine.Status()
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"state":               "ready",
			"content_ready":       status.ContentReady,
			"collaborative_ready": status.CollaborativeReady,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// resolveMovies maps ranked ids to titled records with descending
// confidence scores. Ids missing from the catalog are dropped.
func (h *Handler) resolveMovies(ctx context.Context, ids []int) ([]models.RecommendedMovie, error) {
	recs := make([]models.RecommendedMovie, 0, len(ids))
	if len(ids) == 0 {
		return recs, nil
	}

	titles, err := h.store.MovieTitles(ctx, ids)
	if err != nil {
		return nil, err
	}

	for rank, id := range ids {
		title, ok := titles[id]
		if !ok {
			continue
		}
		recs = append(recs, models.RecommendedMovie{
			MovieID:    id,
			Title:      title,
			Confidence: 0.9 - 0.05*float64(rank),
		})
	}
	return recs, nil
}
