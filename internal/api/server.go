// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

// Package api assembles the HTTP server: middleware chain, route mounting,
// and lifecycle. Access control is applied once here, via the gateway
// middleware; mounted handlers never re-check it.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/cadenza-music/cadenza/internal/catalog"
	"github.com/cadenza-music/cadenza/internal/gateway"
	"github.com/cadenza-music/cadenza/internal/platform/config"
	"github.com/cadenza-music/cadenza/internal/platform/constants"
	"github.com/cadenza-music/cadenza/internal/platform/middleware"
	"github.com/cadenza-music/cadenza/internal/signin"
)

// Handlers groups the mounted feature handlers.
type Handlers struct {
	SignIn  *signin.Handler
	Catalog *catalog.Handler
	Health  *HealthHandler
}

// Server is the HTTP front of the platform.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer builds the router and wraps it in a tuned http.Server.
func NewServer(
	cfg *config.Config,
	gw *gateway.Gateway,
	handlers Handlers,
	log *slog.Logger,
) *Server {
	router := chi.NewRouter()

	// Order matters: the request id and logger must exist before anything
	// that logs; the gateway runs last so denied requests still get logged
	// and rate-limited.
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(log))
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.RateLimit(context.Background()))
	router.Use(middleware.PanicRecovery(log))
	router.Use(middleware.CORS(cfg))
	router.Use(chimw.CleanPath)
	router.Use(gw.Middleware())

	router.Get("/health", handlers.Health.Liveness)
	router.Get("/ready", handlers.Health.Readiness)

	router.Route("/api/v1", func(router chi.Router) {
		router.Mount("/auth", handlers.SignIn.Routes())
		router.Mount("/lyrics", handlers.Catalog.Routes())
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
		},
		log: log,
	}
}

// ListenAndServe starts accepting connections. It blocks until the server
// stops; a clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", slog.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: server stopped: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
