// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"

	"github.com/nagarniti/nagarniti/lib/secret"
)

// tokenHolder is the volatile home of the access token. It is guarded
// by the manager's mutex; callers outside the lock get a copy so a
// concurrent reset cannot unmap memory they are still reading.
type tokenHolder struct {
	buffer *secret.Buffer
}

// set replaces the held token, wiping the previous one.
func (h *tokenHolder) set(token string) error {
	buffer, err := secret.NewFromString(token)
	if err != nil {
		return fmt.Errorf("session: protecting access token: %w", err)
	}
	h.clear()
	h.buffer = buffer
	return nil
}

// clear wipes the held token. Idempotent.
func (h *tokenHolder) clear() {
	if h.buffer != nil {
		h.buffer.Close()
		h.buffer = nil
	}
}

func (h *tokenHolder) has() bool {
	return h.buffer != nil && h.buffer.Len() > 0
}

// copy returns an independent buffer holding the token, or nil when
// there is none. The caller closes it.
func (h *tokenHolder) copy() (*secret.Buffer, error) {
	if !h.has() {
		return nil, nil
	}
	copied, err := secret.NewFromBytes(append([]byte(nil), h.buffer.Bytes()...))
	if err != nil {
		return nil, fmt.Errorf("session: copying access token: %w", err)
	}
	return copied, nil
}
