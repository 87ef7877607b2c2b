// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package sec

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateNumericCode returns a cryptographically random code of exactly
// `digits` decimal digits, zero-padded.
//
// # Usage
//
// One-time codes delivered by email. The leading digit may be zero, so the
// code must always be handled as a string, never an integer.
func GenerateNumericCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("sec: failed to generate numeric code: %w", err)
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}
