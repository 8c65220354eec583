// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package api

import (
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/transsync/fleetcore/internal/logging"
	"github.com/transsync/fleetcore/internal/websocket"
)

// allowedOrigins restricts websocket handshakes; "*" allows any origin.
var allowedOrigins = []string{"*"}

// SetAllowedOrigins replaces the origin allowlist for websocket handshakes.
// Called once during startup, before the server accepts connections.
func SetAllowedOrigins(origins []string) {
	if len(origins) > 0 {
		allowedOrigins = origins
	}
}

func checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients (mobile apps, scripts) omit Origin.
		return true
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
	return false
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	CheckOrigin:      checkWebSocketOrigin,
	HandshakeTimeout: 10 * time.Second,
}

// WebSocket authenticates the handshake and hands the connection to the hub.
// The token must carry a complete identity; the connection is refused before
// the upgrade otherwise, so an unauthenticated socket never exists.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := h.jwt.Authenticate(r)
	if err != nil {
		logging.Warn().Err(err).Msg("websocket handshake rejected")
		respondError(w, http.StatusUnauthorized, "unauthorized", "a valid token with userId, tenantId, and role is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, websocket.Identity{
		TenantID: claims.TenantID,
		UserID:   claims.UserID,
		Role:     claims.Role,
	})
	if err := h.hub.Connect(client); err != nil {
		logging.Warn().Err(err).Msg("websocket registration rejected")
		_ = conn.Close()
		return
	}
	client.Start()
}
