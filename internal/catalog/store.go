// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package catalog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cadenza-music/cadenza/internal/platform/dberr"
	"github.com/cadenza-music/cadenza/pkg/pagination"
)

// Store provides read access to published songs.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// List returns a page of published songs, newest first, without lyrics
// bodies, plus the total count for pagination metadata.
func (store *Store) List(ctx context.Context, params pagination.Params) ([]Song, int, error) {
	query := `
		SELECT id, slug, title, artist_name, published_at
		FROM song
		WHERE published_at <= NOW()
		ORDER BY published_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := store.pool.Query(ctx, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err)
	}
	defer rows.Close()

	songs := make([]Song, 0, params.Limit)
	for rows.Next() {
		var song Song
		if err := rows.Scan(&song.ID, &song.Slug, &song.Title, &song.ArtistName, &song.PublishedAt); err != nil {
			return nil, 0, dberr.Wrap(err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM song WHERE published_at <= NOW()`
	if err := store.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err)
	}

	return songs, total, nil
}

// FindBySlug returns one published song with its full lyrics body.
func (store *Store) FindBySlug(ctx context.Context, slug string) (*Song, error) {
	query := `
		SELECT id, slug, title, artist_name, lyrics, published_at
		FROM song
		WHERE slug = $1 AND published_at <= NOW()`

	var song Song
	err := store.pool.QueryRow(ctx, query, slug).Scan(
		&song.ID,
		&song.Slug,
		&song.Title,
		&song.ArtistName,
		&song.Lyrics,
		&song.PublishedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err)
	}

	return &song, nil
}
