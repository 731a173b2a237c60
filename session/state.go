// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"time"

	"github.com/nagarniti/nagarniti/wardapi"
)

// Status is the session state machine position.
type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticating  Status = "authenticating"
	StatusAuthenticated   Status = "authenticated"
	StatusRefreshing      Status = "refreshing"
)

// State is a read-only copy of the session. The access token itself is
// never part of it.
type State struct {
	Status          Status
	User            *wardapi.User
	IsAuthenticated bool
	// HasAccessToken is false for a session the server recognized
	// without a bearer (cookie session) and after any reset.
	HasAccessToken bool
	TokenExpiresAt time.Time
	// IsInitialized is set once CheckAuth has reached a verdict. It is
	// never persisted.
	IsInitialized bool
	IsLoading     bool
	// Error is the last credential rejection, for display.
	Error string
	// NextRefreshAt is zero when no refresh timer is armed.
	NextRefreshAt time.Time
}

// clone returns a copy that shares nothing mutable with s.
func (s State) clone() State {
	s.User = cloneUser(s.User)
	return s
}

func cloneUser(user *wardapi.User) *wardapi.User {
	if user == nil {
		return nil
	}
	copied := *user
	if user.Ward != nil {
		ward := *user.Ward
		copied.Ward = &ward
	}
	return &copied
}
