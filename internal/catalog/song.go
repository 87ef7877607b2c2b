// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

// Package catalog serves the public lyrics listing. It is a read-only
// collaborator behind the authorization gateway and carries no access logic
// of its own.
package catalog

import "time"

// Song is one published lyrics entry.
type Song struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	ArtistName  string    `json:"artist_name"`
	Lyrics      string    `json:"lyrics,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
