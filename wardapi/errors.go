// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wardapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// APIError is a failure the server reported, either as a non-2xx status
// or as success:false in a 2xx body. Callers can use errors.As:
//
//	var apiErr *APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict { ... }
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Message is the server's human-readable explanation, taken from
	// "message" or else "error". For non-JSON bodies it is the status
	// text.
	Message string
	// Code is the machine-readable "code" field when present.
	Code string
	// Body is the raw response body when it was not JSON.
	Body string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("wardapi: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("wardapi: server returned %d: %s", e.StatusCode, e.Message)
}

// ErrInvalidRequest marks arguments rejected before any network I/O.
var ErrInvalidRequest = errors.New("wardapi: invalid request")

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

const (
	unreachableMessage = "Unable to reach the server. Please try again."
	unexpectedMessage  = "The server sent an unexpected response."
)

// Message returns the text a user should see for err: the server's own
// message for an *APIError, a generic connectivity message for transport
// failures, and the error text for invalid arguments.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if text := http.StatusText(apiErr.StatusCode); text != "" {
			return text
		}
		return unexpectedMessage
	}

	if errors.Is(err, ErrInvalidRequest) {
		return err.Error()
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return unreachableMessage
	}
	return unexpectedMessage
}
