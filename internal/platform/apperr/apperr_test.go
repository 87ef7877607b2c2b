// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenza-music/cadenza/internal/platform/apperr"
)

/*
TestConstructors_CodesAndStatuses verifies the closed code set and its HTTP
status mapping.
*/
func TestConstructors_CodesAndStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		code   string
		status int
	}{
		{"not_found", apperr.NotFound("Song"), "NOT_FOUND", http.StatusNotFound},
		{"unauthorized", apperr.Unauthorized("nope"), "UNAUTHORIZED", http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("nope"), "FORBIDDEN", http.StatusForbidden},
		{"conflict", apperr.Conflict("dup"), "CONFLICT", http.StatusConflict},
		{"gone", apperr.Gone("expired"), "GONE", http.StatusGone},
		{"validation", apperr.ValidationError("bad"), "VALIDATION_ERROR", http.StatusBadRequest},
		{"rate_limited", apperr.RateLimited(60), "RATE_LIMITED", http.StatusTooManyRequests},
		{"internal", apperr.Internal(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
		{"unavailable", apperr.ServiceUnavailable("down"), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

/*
TestInternal_HidesCause verifies that the wrapped cause stays server-side:
the client-facing message never contains it, but errors.Is can still reach it.
*/
func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: syntax error at line 3")
	err := apperr.Internal(cause)

	assert.NotContains(t, err.Error(), "syntax error")
	assert.True(t, errors.Is(err, cause))
}

/*
TestAs_TraversesWrapping verifies extraction through fmt.Errorf wrapping.
*/
func TestAs_TraversesWrapping(t *testing.T) {
	inner := apperr.NotFound("Account")
	wrapped := fmt.Errorf("loading profile: %w", inner)

	assert.True(t, apperr.IsAppError(wrapped))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)

	assert.Nil(t, apperr.As(errors.New("plain")))
	assert.False(t, apperr.IsAppError(errors.New("plain")))
}
