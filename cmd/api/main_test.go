// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestNewLogger_DebugGate verifies that debug-level records are only enabled
when the deployment runs in debug mode.
*/
func TestNewLogger_DebugGate(t *testing.T) {
	ctx := context.Background()

	quiet := newLogger(false)
	assert.False(t, quiet.Enabled(ctx, slog.LevelDebug))
	assert.True(t, quiet.Enabled(ctx, slog.LevelInfo))

	verbose := newLogger(true)
	assert.True(t, verbose.Enabled(ctx, slog.LevelDebug))
}
