// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package accounts

import (
	"context"
	"log/slog"
)

// Mailer delivers one-time codes to an email address. The delivery channel
// is external infrastructure and can be degraded independently of the
// platform; implementations report that as an error rather than swallowing it.
type Mailer interface {
	SendCode(ctx context.Context, email, code string) error
}

// SlogMailer writes codes to the log instead of sending mail. Development
// only; it must never be wired in production.
type SlogMailer struct {
	log *slog.Logger
}

// NewSlogMailer creates a SlogMailer.
func NewSlogMailer(log *slog.Logger) *SlogMailer {
	return &SlogMailer{log: log.With(slog.String("component", "mailer"))}
}

// SendCode logs the code at warn level so it stands out in development output.
func (mailer *SlogMailer) SendCode(ctx context.Context, email, code string) error {
	mailer.log.WarnContext(ctx, "one-time code issued (dev mailer, not delivered)",
		slog.String("email", email),
		slog.String("code", code),
	)
	return nil
}
