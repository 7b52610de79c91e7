// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package api

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/Dio27073/movie-recommender/internal/logging"
	"github.com/Dio27073/movie-recommender/internal/metrics"
)

// Middleware builds the chi middleware stack from server configuration.
type Middleware struct {
	corsHandler       func(http.Handler) http.Handler
	rateLimitRequests int
	rateLimitWindow   time.Duration
}

// NewMiddleware creates the middleware factory. An empty origin list
// means CORS preflight is denied for cross-origin callers.
func NewMiddleware(corsOrigins []string, rateLimitReqs int, rateLimitWindow time.Duration) *Middleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	})

	return &Middleware{
		corsHandler:       corsHandler,
		rateLimitRequests: rateLimitReqs,
		rateLimitWindow:   rateLimitWindow,
	}
}

// CORS returns the go-chi/cors middleware.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return m.corsHandler
}

// RateLimit returns the default per-IP rate limiter.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		m.rateLimitRequests,
		m.rateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

// RateLimitHealth is permissive so monitoring probes never get throttled.
func (m *Middleware) RateLimitHealth() func(http.Handler) http.Handler {
	return httprate.LimitByIP(1000, time.Minute)
}

func rateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests", nil)
}

// RequestID ensures every request carries an X-Request-ID header, on
// both the request (for downstream log correlation) and the response.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
				r.Header.Set("X-Request-ID", requestID)
			}
			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r)
		})
	}
}

// PrometheusMetrics records request counts and latency per route
// pattern. Applied after routing so the chi pattern is resolved.
func PrometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		metrics.RecordAPIRequest(r.Method, r.URL.Path, strconv.Itoa(ww.Status()), duration)

		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", duration).
			Msg("request completed")
	})
}
