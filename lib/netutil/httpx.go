// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds HTTP response reads so that a misbehaving
// server cannot make the client allocate without limit.
package netutil

import (
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON API response bodies: 32 MB. Ward listings
// with embedded project media are the largest responses the API
// produces and stay well under this.
const MaxResponseSize int64 = 32 << 20

// ReadResponse reads an HTTP response body up to MaxResponseSize bytes.
// A body that exceeds the bound is an error rather than a silently
// truncated document.
func ReadResponse(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, fmt.Errorf("response body exceeds %d bytes", MaxResponseSize)
	}
	return data, nil
}
