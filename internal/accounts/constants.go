// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

/*
Package accounts is the first-party identity provider backing the core.

It implements the [identity.Provider] and [identity.ProfileStore] contracts
on top of Postgres (account records and roles), Redis (one-time codes, send
limits, and session anchors), and RS256 access tokens. The core never talks
to these stores directly; it only sees the classified sentinels of the
identity package.
*/
package accounts

import "time"

const (
	// AccessTokenTTL is the lifetime of one signed access token. Tokens this
	// short keep the revocation window small; the session record below is
	// what actually anchors a login.
	AccessTokenTTL = 15 * time.Minute

	// SessionTTL is the lifetime of the server-side session record. An
	// expired access token whose session record is still live is refreshed
	// transparently.
	SessionTTL = 30 * 24 * time.Hour

	// OTCTTL is how long an issued one-time code stays verifiable.
	OTCTTL = 10 * time.Minute

	// OTCLength is the number of digits in a newly issued code. Historical
	// 8-digit codes remain verifiable until they age out.
	OTCLength = 6

	// OTCSendWindow and OTCSendMax bound code delivery per email address:
	// at most OTCSendMax sends within any OTCSendWindow.
	OTCSendWindow = 10 * time.Minute
	OTCSendMax    = 3
)
