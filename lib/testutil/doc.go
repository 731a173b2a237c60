// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireClosed] and [RequireEventually] wrap the
// timeout safety valve pattern (select with a time.After fallback) so
// individual tests never call time.After themselves. They are the only
// place in the test suite where real wall-clock timeouts appear; all
// timer behavior under test runs on the lib/clock fake.
package testutil
