// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cadenza-music/cadenza/internal/platform/apperr"
	"github.com/cadenza-music/cadenza/internal/platform/constants"
	"github.com/cadenza-music/cadenza/internal/platform/postgres"
	"github.com/cadenza-music/cadenza/internal/platform/redis"
	"github.com/cadenza-music/cadenza/internal/platform/respond"
)

// HealthHandler answers the infrastructure probes.
type HealthHandler struct {
	pool  *pgxpool.Pool
	cache *goredis.Client
}

// NewHealthHandler builds the probe handler.
func NewHealthHandler(pool *pgxpool.Pool, cache *goredis.Client) *HealthHandler {
	return &HealthHandler{pool: pool, cache: cache}
}

// Liveness reports that the process is up. It checks nothing external.
func (h *HealthHandler) Liveness(writer http.ResponseWriter, req *http.Request) {
	respond.OK(writer, map[string]string{
		"status":  "ok",
		"app":     constants.AppName,
		"version": constants.AppVersion,
	})
}

// Readiness reports whether the backing stores answer. A failing dependency
// yields 503 so the load balancer drains this instance.
func (h *HealthHandler) Readiness(writer http.ResponseWriter, req *http.Request) {
	if err := postgres.Ping(req.Context(), h.pool); err != nil {
		respond.Error(writer, req, apperr.ServiceUnavailable("Database unreachable"))
		return
	}
	if err := redis.Ping(req.Context(), h.cache); err != nil {
		respond.Error(writer, req, apperr.ServiceUnavailable("Cache unreachable"))
		return
	}

	respond.OK(writer, map[string]string{"status": "ready"})
}
