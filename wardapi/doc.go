// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wardapi is a client for the Nagarniti ward-transparency REST
// API.
//
// [Client] covers the /api/auth endpoints (login, register, refresh, me,
// logout) and exposes [Client.Do] for every other endpoint. Access
// tokens are passed in as *secret.Buffer values and only converted to
// strings at the Authorization header boundary; the client itself
// holds no session state.
//
// The refresh credential is an httpOnly cookie the client never reads.
// It travels through the http.CookieJar attached to the client. A
// [PersistentJar] writes those cookies through to a [CookieStore] so
// that a later process can still refresh; [LocalCookieStore] keeps them
// in a lib/localstore file, age-sealed when requested.
//
// Failures are reported as *[APIError] whenever the server answered,
// including a 2xx body that carries success:false. [Message] turns any
// error from this package into the text a user should see.
package wardapi
