// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// identity provider implementation.
package sec

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired re-exports the library sentinel so callers can distinguish
// "expired but otherwise sound" from "garbage" without importing jwt directly.
var ErrTokenExpired = jwt.ErrTokenExpired

// SessionClaims represents the payload embedded inside a session access token.
//
// # Why custom claims?
//
// By embedding the identity ID, email, and session ID directly inside the JWT,
// the session resolver can reconstruct the caller WITHOUT querying the
// database on every single request; the anchor session record is only
// consulted when the short-lived token needs refreshing.
type SessionClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	IdentityID     string `json:"uid"`
	Email          string `json:"eml"`
	EmailConfirmed bool   `json:"emc"`
	SessionID      string `json:"sid"`
}

// TokenService handles generation and verification of JWT tokens using RS256.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
}

// NewTokenService creates a new TokenService.
// It reads RSA keys from the provided filesystem paths.
func NewTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read private key from %s: %w", privateKeyPath, err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse private key: %w", err)
	}

	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
	}, nil
}

// NewTokenServiceFromKeys creates a TokenService from in-memory keys.
// Used by tests that generate throwaway key pairs.
func NewTokenServiceFromKeys(privateKey *rsa.PrivateKey, issuer string) *TokenService {
	return &TokenService{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
	}
}

// GenerateSessionToken creates a new signed access token for a session.
func (service *TokenService) GenerateSessionToken(claims SessionClaims, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.IdentityID,
		Issuer:    service.issuer,
		IssuedAt:  jwt.NewNumericDate(currentTime),
		ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a JWT string.
//
// # Expiry Handling
//
// When the signature is sound but the token has merely expired, VerifyToken
// returns the decoded claims TOGETHER with an error satisfying
// errors.Is(err, [ErrTokenExpired]). This lets the session resolver attempt a
// refresh without re-parsing. Any other failure returns nil claims.
func (service *TokenService) VerifyToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.publicKey, nil
	})

	if err != nil {
		// Expired-but-authentic tokens keep their decoded claims so that the
		// caller can look up the anchoring session record.
		if errors.Is(err, jwt.ErrTokenExpired) && token != nil {
			return claims, fmt.Errorf("sec: token expired: %w", err)
		}
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("sec: invalid token claims")
	}

	return claims, nil
}
