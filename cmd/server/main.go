// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

// Package main is the entry point for the FleetCore server.
//
// FleetCore backs a multi-tenant fleet management platform with three
// cooperating subsystems:
//
//  1. A tenant-aware query-result cache that keeps hot and common query
//     results in memory with per-volatility-class TTLs.
//  2. A room-based websocket notification hub that fans fleet events out
//     to tenant, user, and role rooms.
//  3. A background scheduler that scans for expiring documents (licenses,
//     insurance, technical reviews) and pushes high-priority alerts.
//
// Configuration is loaded via Koanf with layered sources (highest wins):
// environment variables, an optional config.yaml, then built-in defaults.
// The required settings are JWT_SECRET (32+ characters) and the DB_*
// connection variables.
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the suture
// tree stops the HTTP listener, closes every websocket client, and cancels
// the scheduled tasks before the process exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/transsync/fleetcore/internal/api"
	"github.com/transsync/fleetcore/internal/auth"
	"github.com/transsync/fleetcore/internal/cache"
	"github.com/transsync/fleetcore/internal/config"
	"github.com/transsync/fleetcore/internal/database"
	"github.com/transsync/fleetcore/internal/logging"
	"github.com/transsync/fleetcore/internal/scheduler"
	"github.com/transsync/fleetcore/internal/supervisor"
	"github.com/transsync/fleetcore/internal/supervisor/services"
	"github.com/transsync/fleetcore/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting fleetcore")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing database")
		}
	}()

	store := cache.NewStore(cache.StoreConfig{
		HotTTL:          cfg.Cache.HotTTL,
		CommonTTL:       cfg.Cache.CommonTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})
	defer store.Close()

	hub := websocket.NewHub()

	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize JWT manager")
	}

	if cfg.Cache.PreloadEnabled {
		for _, tenantID := range cfg.Cache.PreloadTenants {
			store.PreloadCommonQueries(ctx, db, tenantID)
		}
	}

	api.SetAllowedOrigins(cfg.Security.CORSOrigins)
	handler := api.NewHandler(store, hub, jwtManager, db)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewHubService(hub))

	if cfg.Scheduler.Enabled {
		tree.AddMessagingService(services.NewSchedulerService(
			registerTasks(cfg, store, hub, db),
		))
	} else {
		logging.Info().Msg("scheduler disabled")
	}

	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("http server added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	logging.Info().Msg("fleetcore stopped gracefully")
}

// registerTasks builds the task registration used by the supervised
// scheduler. It runs on every scheduler (re)start.
func registerTasks(cfg *config.Config, store *cache.Store, hub *websocket.Hub, db *database.DB) services.RegisterFunc {
	checker := scheduler.NewExpirationChecker(db, hub)

	return func(ctx context.Context, s *scheduler.Scheduler) error {
		if err := s.Every(ctx, "expiration-check", cfg.Scheduler.ExpirationInterval, checker.Check); err != nil {
			return err
		}

		// The daily run duplicates the hourly scan on purpose: it is the
		// morning report fleets rely on even when hourly checks found
		// nothing new overnight.
		if err := s.DailyAt(ctx, "daily-expiration-report",
			cfg.Scheduler.DailyReportHour, cfg.Scheduler.DailyReportMinute, checker.Check); err != nil {
			return err
		}

		if err := s.Every(ctx, "cache-cleanup", cfg.Scheduler.CacheCleanupInterval, func(ctx context.Context) error {
			store.Cleanup()
			return nil
		}); err != nil {
			return err
		}

		if cfg.Cache.PreloadEnabled && len(cfg.Cache.PreloadTenants) > 0 {
			if err := s.Every(ctx, "status-refresh", cfg.Scheduler.StatusRefreshInterval, func(ctx context.Context) error {
				for _, tenantID := range cfg.Cache.PreloadTenants {
					store.PreloadCommonQueries(ctx, db, tenantID)
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}
}
