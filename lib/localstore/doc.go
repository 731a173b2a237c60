// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package localstore is a small durable key/value store, the command
// line counterpart of a browser's local storage.
//
// Each namespace (in practice the API base URL) maps to one CBOR file
// in the state directory, named by a keyed BLAKE3 hash of the
// namespace so that different servers never share entries. Values are
// CBOR-encoded with lib/codec. Sealed entries are additionally
// age-encrypted to an identity kept in the same directory, which is
// how the refresh cookie is kept at rest.
//
// Writes replace the file atomically (temp file + rename). A Store is
// safe for concurrent use within one process; concurrent processes
// writing the same namespace race with last-writer-wins semantics.
package localstore
