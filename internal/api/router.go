// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/transsync/fleetcore/internal/config"
	"github.com/transsync/fleetcore/internal/metrics"
)

// Router builds the HTTP routing tree.
type Router struct {
	handler *Handler
	cfg     *config.Config
}

// NewRouter creates a router over the given handler and configuration.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup assembles the chi routing tree with the global middleware stack.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health and metrics stay outside the rate limiter so monitoring is
	// never throttled away.
	r.Get("/api/v1/health", router.handler.Health)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if router.cfg.Security.RateLimitReqs > 0 {
			r.Use(httprate.Limit(
				router.cfg.Security.RateLimitReqs,
				router.cfg.Security.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
			))
		}

		r.Get("/ws", router.handler.WebSocket)
		r.Get("/ws/stats", router.handler.WSStats)
		r.Get("/ws/clients", router.handler.WSClients)

		r.Get("/cache/stats", router.handler.CacheStats)
		r.Post("/cache/invalidate", router.handler.CacheInvalidate)

		r.Post("/notifications", router.handler.SendNotification)
	})

	return r
}

// requestMetrics counts requests per method, route pattern, and status code.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.APIRequestsTotal.WithLabelValues(
			r.Method, pattern, strconv.Itoa(ww.Status()),
		).Inc()
	})
}
