// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package accounts

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cadenza-music/cadenza/internal/identity"
	"github.com/cadenza-music/cadenza/internal/platform/dberr"
)

// AccountStore provides access to persisted account records.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore creates an AccountStore backed by the given pool.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

const accountColumns = `
	id, email, password_hash, display_name, role, email_confirmed,
	created_at, updated_at`

func scanAccount(row interface{ Scan(dest ...any) error }) (*Account, error) {
	var account Account
	var role string

	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.DisplayName,
		&role,
		&account.EmailConfirmed,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err)
	}

	account.Role = identity.ParseRole(role)
	return &account, nil
}

/*
Create inserts a new account record.

A duplicate email surfaces as a conflict through [dberr.Wrap], which maps the
unique-violation SQLSTATE; callers return it to the client as-is.
*/
func (store *AccountStore) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO account (id, email, password_hash, display_name, role, email_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := store.pool.Exec(ctx, query,
		account.ID,
		strings.ToLower(strings.TrimSpace(account.Email)),
		account.PasswordHash,
		account.DisplayName,
		string(account.Role),
		account.EmailConfirmed,
	)
	if err != nil {
		return dberr.Wrap(err)
	}
	return nil
}

/*
FindByEmail retrieves the account with the given email address.

The lookup is case-insensitive: addresses are stored lowercased and the
input is folded before comparison.
*/
func (store *AccountStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	query := `
		SELECT` + accountColumns + `
		FROM account
		WHERE email = $1`

	row := store.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email)))
	return scanAccount(row)
}

// FindByID retrieves the account with the given identifier.
func (store *AccountStore) FindByID(ctx context.Context, id string) (*Account, error) {
	query := `
		SELECT` + accountColumns + `
		FROM account
		WHERE id = $1`

	row := store.pool.QueryRow(ctx, query, id)
	return scanAccount(row)
}

/*
RoleByID retrieves just the role column for the given identity.

Split from FindByID because the authorization gateway calls this on every
role-restricted request; fetching a single column keeps that hot path cheap.
*/
func (store *AccountStore) RoleByID(ctx context.Context, id string) (identity.Role, error) {
	query := `
		SELECT role
		FROM account
		WHERE id = $1`

	var role string
	if err := store.pool.QueryRow(ctx, query, id).Scan(&role); err != nil {
		return "", dberr.Wrap(err)
	}

	return identity.ParseRole(role), nil
}

// ConfirmEmail marks the account's email address as confirmed.
func (store *AccountStore) ConfirmEmail(ctx context.Context, id string) error {
	query := `
		UPDATE account
		SET email_confirmed = TRUE, updated_at = NOW()
		WHERE id = $1`

	if _, err := store.pool.Exec(ctx, query, id); err != nil {
		return dberr.Wrap(err)
	}
	return nil
}
