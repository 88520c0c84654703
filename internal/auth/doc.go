// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

/*
Package auth owns the backend session: the access token, the refresh token and
the signed-in user.

Key Components:

  - Manager: session holder with single-flight token refresh
  - TokenStore: persistence for the session (MemoryTokenStore, BadgerTokenStore)
  - TokenExpiry: reads the exp claim of an access token without verifying it

Refresh Semantics:

Any number of callers may observe a 401 at the same time. Refresh(ctx, stale)
coalesces them onto one POST /auth/refresh:

	token, err := mgr.Refresh(ctx, tokenThatGot401)

A caller whose stale token has already been replaced receives the current token
without a network call. A missing refresh token or a 4xx rejection from the
backend ends the session: tokens are cleared, OnSessionExpired hooks run, and
transport.ErrSessionExpired is returned. Timeouts, network failures and 5xx
responses are returned as-is and leave the session intact, so the next request
can try again.

Storage Keys:

BadgerTokenStore uses the same key names as the web dashboard's local storage:
cold-room-token, cold-room-refresh and cold-room-user. Token values are sealed
with config.CredentialEncryptor when an encryption key is configured.
*/
package auth
