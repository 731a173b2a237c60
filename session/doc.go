// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session keeps a client signed in to the Nagarniti API.
//
// A [Manager] owns the whole session: the short-lived access token, the
// user it belongs to, and the one timer that renews the token shortly
// before it expires. State is split in two on purpose. The access token
// lives only in a volatile lib/secret buffer inside the manager, while
// the user, the authenticated flag and the expiry are written to a
// [SnapshotStore] after every change so the next process can show who
// was signed in before it has confirmed anything with the server.
//
// Lifecycle:
//
//	manager, _ := session.NewManager(session.Config{Client: client, Snapshots: snapshots})
//	defer manager.Close()
//	manager.CheckAuth(ctx) // reconcile with the server's refresh cookie
//	...
//	manager.Do(ctx, http.MethodGet, "/api/wards", nil, &wards)
//
// Renewals go through one in-flight guard, so the timer, an explicit
// [Manager.RefreshToken] and a 401 retry inside [Manager.Do] never
// issue two refresh requests at once. A failed refresh ends the session
// locally; there is no retry. Consumers observe changes through
// [Manager.Subscribe] and never mutate state themselves.
package session
