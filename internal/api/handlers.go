// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

// Package api provides the HTTP surface: websocket handshakes, cache
// diagnostics, and notification publishing, routed with chi.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/transsync/fleetcore/internal/auth"
	"github.com/transsync/fleetcore/internal/cache"
	"github.com/transsync/fleetcore/internal/logging"
	"github.com/transsync/fleetcore/internal/models"
	"github.com/transsync/fleetcore/internal/websocket"
)

// Pinger is the connectivity probe the health endpoint uses.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler carries the services the HTTP endpoints operate on.
type Handler struct {
	store    *cache.Store
	hub      *websocket.Hub
	jwt      *auth.JWTManager
	db       Pinger
	validate *validator.Validate
}

// NewHandler wires a handler to its services. db may be nil in tests; the
// health endpoint then reports only the in-process components.
func NewHandler(store *cache.Store, hub *websocket.Hub, jwt *auth.JWTManager, db Pinger) *Handler {
	return &Handler{
		store:    store,
		hub:      hub,
		jwt:      jwt,
		db:       db,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("failed to encode error response")
	}
}

// Health reports component status. The endpoint degrades to 503 when the
// database is unreachable but still reports per-component detail.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"cache":     "ok",
		"websocket": "ok",
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			components["database"] = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			components["database"] = "ok"
		}
	}

	respondJSON(w, status, map[string]interface{}{
		"components":  components,
		"connections": h.hub.ClientCount(),
	})
}

// CacheStats returns the cache hit/miss counters and derived hit rate.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Stats())
}

// cacheInvalidateRequest is the payload for POST /api/v1/cache/invalidate.
type cacheInvalidateRequest struct {
	Table    string `json:"table" validate:"required"`
	TenantID string `json:"tenantId"`
}

// CacheInvalidate removes every cached entry derived from a table,
// optionally restricted to one tenant.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	var req cacheInvalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", "table is required")
		return
	}

	removed := h.store.InvalidateTable(req.Table, req.TenantID)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"table":   req.Table,
		"removed": removed,
	})
}

// notificationRequest is the payload for POST /api/v1/notifications.
type notificationRequest struct {
	TargetType string      `json:"targetType" validate:"required,oneof=tenant user role"`
	TargetID   string      `json:"targetId" validate:"required"`
	Event      string      `json:"event" validate:"required"`
	Data       interface{} `json:"data"`
}

// SendNotification publishes a notification to a tenant, user, or role room.
// Delivery is fire-and-forget: accepted means queued, not received.
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed",
			"targetType must be tenant, user, or role, and targetId and event are required")
		return
	}

	if err := h.hub.Route(req.TargetType, req.TargetID, req.Event, req.Data); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_target", err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"targetType": req.TargetType,
		"targetId":   req.TargetID,
		"event":      req.Event,
	})
}

// WSStats returns the hub's connection summary.
func (h *Handler) WSStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.hub.Stats())
}

// WSClients lists the live connections.
func (h *Handler) WSClients(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.hub.ConnectedClients())
}
