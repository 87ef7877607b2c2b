// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cadenza-music/cadenza/internal/platform/request"
	"github.com/cadenza-music/cadenza/internal/platform/respond"
	"github.com/cadenza-music/cadenza/pkg/pagination"
	"github.com/cadenza-music/cadenza/pkg/slug"
)

// Handler serves the public lyrics endpoints.
type Handler struct {
	store *Store
}

// NewHandler builds the catalog HTTP handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Routes returns the chi router for the lyrics surface.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", h.ListSongs)
	router.Get("/{songSlug}", h.GetSong)
	return router
}

// ListSongs returns a paginated page of published songs.
func (h *Handler) ListSongs(writer http.ResponseWriter, req *http.Request) {
	params := pagination.FromRequest(req)

	songs, total, err := h.store.List(req.Context(), params)
	if err != nil {
		respond.Error(writer, req, err)
		return
	}

	respond.Paginated(writer, songs, pagination.NewMeta(params.Page, params.Limit, total))
}

// GetSong returns one song by slug. The slug is normalized before lookup so
// mixed-case and accented links still resolve.
func (h *Handler) GetSong(writer http.ResponseWriter, req *http.Request) {
	songSlug := slug.From(requestutil.Param(req, "songSlug"))

	song, err := h.store.FindBySlug(req.Context(), songSlug)
	if err != nil {
		respond.Error(writer, req, err)
		return
	}

	respond.OK(writer, song)
}
