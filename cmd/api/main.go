// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

// Command api runs the Cadenza platform API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cadenza-music/cadenza/internal/accounts"
	"github.com/cadenza-music/cadenza/internal/api"
	"github.com/cadenza-music/cadenza/internal/catalog"
	"github.com/cadenza-music/cadenza/internal/gateway"
	"github.com/cadenza-music/cadenza/internal/identity"
	"github.com/cadenza-music/cadenza/internal/platform/config"
	"github.com/cadenza-music/cadenza/internal/platform/constants"
	"github.com/cadenza-music/cadenza/internal/platform/migration"
	"github.com/cadenza-music/cadenza/internal/platform/postgres"
	"github.com/cadenza-music/cadenza/internal/platform/redis"
	"github.com/cadenza-music/cadenza/internal/platform/sec"
	"github.com/cadenza-music/cadenza/internal/signin"
)

func main() {
	log := newLogger(false)

	cfg, err := config.Load()
	must(log, err, "loading configuration")
	if cfg.Debug {
		log = newLogger(true)
	}

	ctx := context.Background()

	// ── 1. Infrastructure ────────────────────────────────────────────────

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, log)
	must(log, err, "connecting to postgres")
	defer pool.Close()

	cache, err := redis.NewClient(ctx, cfg.RedisURL, log)
	must(log, err, "connecting to redis")
	defer cache.Close()

	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "running migrations")

	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "loading signing keys")

	// ── 2. Identity core ─────────────────────────────────────────────────

	accountStore := accounts.NewAccountStore(pool)
	provider := accounts.NewProvider(
		accountStore,
		accounts.NewCodeStore(cache),
		accounts.NewSendLimiter(cache, accounts.OTCSendWindow, accounts.OTCSendMax),
		accounts.NewSessionStore(cache),
		tokens,
		accounts.NewSlogMailer(log),
		log,
	)

	resolver := identity.NewResolver(provider, provider, log)
	gw := gateway.New(resolver, log)

	attemptStore := signin.NewStore()
	defer attemptStore.Close()
	machine := signin.NewMachine(provider, resolver, log)

	// ── 3. HTTP surface ──────────────────────────────────────────────────

	server := api.NewServer(cfg, gw, api.Handlers{
		SignIn:  signin.NewHandler(machine, attemptStore, provider, provider),
		Catalog: catalog.NewHandler(catalog.NewStore(pool)),
		Health:  api.NewHealthHandler(pool, cache),
	}, log)

	go func() {
		must(log, server.ListenAndServe(), "serving http")
	}()

	// ── 4. Graceful shutdown ─────────────────────────────────────────────

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown did not complete cleanly", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// newLogger builds the process logger. Debug-level records are emitted only
// when the deployment runs in debug mode.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// must aborts startup on a fatal wiring error.
func must(log *slog.Logger, err error, action string) {
	if err != nil {
		log.Error("startup failed", slog.String("action", action), slog.String("error", err.Error()))
		os.Exit(1)
	}
}
