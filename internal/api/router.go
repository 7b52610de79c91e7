// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

// Package api provides HTTP routing and handlers for the
// recommendation service using the chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the HTTP surface.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a router over the given handler and middleware.
func NewRouter(handler *Handler, middleware *Middleware) *Router {
	return &Router{handler: handler, middleware: middleware}
}

// Setup configures all routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Health endpoints get permissive rate limiting so monitoring
	// probes are never throttled.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/movies", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(PrometheusMetrics)

		r.Get("/{movieID}", router.handler.GetMovie)
	})

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(PrometheusMetrics)

		r.Get("/user/{userID}", router.handler.GetRecommendations)
		r.Get("/similar/{movieID}", router.handler.GetSimilar)
		r.Get("/status", router.handler.GetStatus)
	})

	// Retrain triggers are additionally throttled inside the handler;
	// a full SGD pass is expensive.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(PrometheusMetrics)

		r.Post("/retrain/{model}", router.handler.TriggerRetrain)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
