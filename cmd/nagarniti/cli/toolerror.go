// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nagarniti/nagarniti/wardapi"
)

// ErrorCategory classifies command errors so scripts can decide whether
// to fix input, sign in again, or retry without parsing message text.
type ErrorCategory string

const (
	// CategoryValidation: bad arguments or flags, or a request the
	// server rejected as malformed. Fix the input and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryForbidden: not signed in, bad credentials, or a role
	// without access to the endpoint.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryConflict: the request conflicts with existing state, such
	// as an email that is already registered.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryNotFound: the endpoint or resource does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryTransient: the server was unreachable or timed out.
	// Retrying later may help.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything else, including local I/O failures.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by CLI commands. It wraps
// the underlying error so errors.Is and errors.As still reach it.
// Use the category constructors rather than building one directly.
type ToolError struct {
	Category ErrorCategory
	Err      error
	// Hint is an optional next step appended to the message.
	Hint string
}

// Error returns the message followed by the hint, if any.
func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *ToolError) Unwrap() error { return e.Err }

// WithHint sets the hint and returns the receiver for chaining.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

func Forbidden(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryForbidden, Err: fmt.Errorf(format, args...)}
}

func Conflict(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryConflict, Err: fmt.Errorf(format, args...)}
}

func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// FromAPI turns a failed server call into a categorized error whose
// text is the user-facing message for err, prefixed with action.
func FromAPI(action string, err error) *ToolError {
	message := wardapi.Message(err)

	category := CategoryInternal
	var apiErr *wardapi.APIError
	var urlErr *url.Error
	switch {
	case errors.As(err, &apiErr):
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			category = CategoryValidation
		case http.StatusUnauthorized, http.StatusForbidden:
			category = CategoryForbidden
		case http.StatusNotFound:
			category = CategoryNotFound
		case http.StatusConflict:
			category = CategoryConflict
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			category = CategoryTransient
		}
	case errors.Is(err, wardapi.ErrInvalidRequest):
		category = CategoryValidation
	case errors.As(err, &urlErr), errors.Is(err, context.DeadlineExceeded):
		category = CategoryTransient
	}

	toolErr := &ToolError{Category: category, Err: fmt.Errorf("%s: %s: %w", action, message, err)}
	if category == CategoryForbidden {
		toolErr.Hint = "Run 'nagarniti login <email>' to sign in."
	}
	return toolErr
}
