// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single CBOR configuration used for on-disk
// state (the local store file and its entries).
//
// JSON is the wire format of the ward API; CBOR is the storage format.
// Types that cross both (wardapi.User inside a persisted session
// snapshot) carry only `json` tags: fxamacker/cbor falls back to them
// when no `cbor` tag is present, so one tag set names the fields in
// both encodings. Storage-only types use `cbor` tags.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
package codec
