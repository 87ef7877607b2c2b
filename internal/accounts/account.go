// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package accounts

import (
	"time"

	"github.com/cadenza-music/cadenza/internal/identity"
)

// Account is the persisted account record. PasswordHash never leaves this
// package.
type Account struct {
	ID             string        `json:"id"`
	Email          string        `json:"email"`
	PasswordHash   string        `json:"-"`
	DisplayName    string        `json:"display_name"`
	Role           identity.Role `json:"role"`
	EmailConfirmed bool          `json:"email_confirmed"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// User converts the account to the provider-facing view consumed by the core.
func (a *Account) User() identity.User {
	return identity.User{
		IdentityID:     a.ID,
		Email:          a.Email,
		EmailConfirmed: a.EmailConfirmed,
	}
}
