// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/transsync/fleetcore/internal/auth"
	"github.com/transsync/fleetcore/internal/cache"
	"github.com/transsync/fleetcore/internal/config"
	"github.com/transsync/fleetcore/internal/logging"
	"github.com/transsync/fleetcore/internal/models"
	"github.com/transsync/fleetcore/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	store   *cache.Store
	hub     *websocket.Hub
	jwt     *auth.JWTManager
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := cache.NewStore(cache.StoreConfig{CleanupInterval: -1})
	t.Cleanup(store.Close)

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.RunWithContext(ctx) }()

	jwt, err := auth.NewJWTManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	cfg := &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:       testSecret,
			RateLimitReqs:   0, // disabled in tests
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
	}

	h := NewHandler(store, hub, jwt, nil)
	return &testEnv{
		store:   store,
		hub:     hub,
		jwt:     jwt,
		handler: NewRouter(h, cfg).Setup(),
	}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Status != "success" {
		t.Errorf("Status = %q, want success", resp.Status)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("connection refused") }

func TestHealthDegradedDatabase(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.store, env.hub, env.jwt, failingPinger{})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/api/v1/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCacheStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.store.Set("42_7_select_1_no_params", "row", time.Minute)
	env.store.Get("42_7_select_1_no_params")
	env.store.Get("42_7_missing")

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/cache/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data is %T, want object", resp.Data)
	}
	if data["hits"] != float64(1) {
		t.Errorf("hits = %v, want 1", data["hits"])
	}
	if data["misses"] != float64(1) {
		t.Errorf("misses = %v, want 1", data["misses"])
	}
	if data["hitRate"] != 0.5 {
		t.Errorf("hitRate = %v, want 0.5", data["hitRate"])
	}
}

func TestCacheInvalidateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.store.Set("42_7_select_from_drivers_no_params", "rows", time.Minute, "drivers")
	env.store.Set("42_7_select_from_vehicles_no_params", "rows", time.Minute, "vehicles")

	body := strings.NewReader(`{"table":"drivers"}`)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/cache/invalidate", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	if data["removed"] != float64(1) {
		t.Errorf("removed = %v, want 1", data["removed"])
	}

	if _, found := env.store.Get("42_7_select_from_vehicles_no_params"); !found {
		t.Error("vehicles entry must survive drivers invalidation")
	}
}

func TestCacheInvalidateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing table", `{"tenantId":"42"}`},
		{"not json", `table=drivers`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/cache/invalidate", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			resp := decodeResponse(t, rec)
			if resp.Status != "error" || resp.Error == nil {
				t.Error("expected error envelope")
			}
		})
	}
}

func TestSendNotificationEndpoint(t *testing.T) {
	env := newTestEnv(t)

	body := strings.NewReader(`{"targetType":"tenant","targetId":"42","event":"trip:created","data":{"id":"t-1"}}`)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/notifications", body))

	// Fire-and-forget: accepted even though no client is in the room.
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	if data["targetType"] != "tenant" {
		t.Errorf("targetType = %v, want tenant", data["targetType"])
	}
}

func TestSendNotificationRejectsInvalidTarget(t *testing.T) {
	env := newTestEnv(t)

	body := strings.NewReader(`{"targetType":"fleet","targetId":"42","event":"trip:created"}`)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/notifications", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWSStatsAndClientsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/ws/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ws/stats status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	if data["totalConnections"] != float64(0) {
		t.Errorf("totalConnections = %v, want 0", data["totalConnections"])
	}

	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/ws/clients", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ws/clients status = %d, want 200", rec.Code)
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/ws", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestWebSocketRejectsIncompleteToken(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.jwt.GenerateToken("7", "", "admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/ws?token="+token, nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fleetcore_cache_hits_total") {
		t.Error("metrics output missing fleetcore counters")
	}
}
