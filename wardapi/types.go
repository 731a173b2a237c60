// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wardapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nagarniti/nagarniti/lib/secret"
)

// Role is a user's authorization level.
type Role string

const (
	RoleVoter      Role = "voter"
	RoleWardAdmin  Role = "ward_admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is one of the known roles. Unknown roles are
// kept verbatim when decoding so newer servers do not break old clients.
func (r Role) Valid() bool {
	switch r {
	case RoleVoter, RoleWardAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// ID identifies a user, ward or society. Servers send either a JSON
// string (UUIDs, ObjectIds) or a JSON number (serial keys); both decode
// to the same textual form and encode back as a string.
type ID string

// UnmarshalJSON accepts a JSON string, an integer or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*id = ID(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("wardapi: id must be a string or number, got %s", data)
	}
	if _, err := number.Int64(); err != nil {
		return fmt.Errorf("wardapi: id must be an integer, got %s", data)
	}
	*id = ID(number.String())
	return nil
}

// Ward is the ward a user belongs to, as embedded in the user record.
type Ward struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Number int    `json:"number"`
}

// User is the authenticated principal.
type User struct {
	ID         ID     `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Mobile     string `json:"mobile,omitempty"`
	VoterID    string `json:"voterId,omitempty"`
	Role       Role   `json:"role"`
	WardID     ID     `json:"wardId,omitempty"`
	Ward       *Ward  `json:"ward,omitempty"`
	SocietyID  ID     `json:"societyId,omitempty"`
	IsVerified bool   `json:"isVerified"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest describes a new account. Password is borrowed, not
// closed.
type RegisterRequest struct {
	Email     string
	Name      string
	Mobile    string
	VoterID   string
	WardSlug  string
	SocietyID string
	Password  *secret.Buffer
}

// registerBody is the wire form of RegisterRequest.
type registerBody struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Mobile    string `json:"mobile,omitempty"`
	VoterID   string `json:"voterId,omitempty"`
	WardSlug  string `json:"wardSlug"`
	Password  string `json:"password"`
	SocietyID string `json:"societyId,omitempty"`
}

// AuthResponse is returned by login and register. Register may omit
// the access token when the account still needs verification.
type AuthResponse struct {
	Success     bool   `json:"success"`
	User        *User  `json:"user,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	ExpiresIn   int64  `json:"expiresIn,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Lifetime returns ExpiresIn as a duration.
func (r *AuthResponse) Lifetime() time.Duration {
	return time.Duration(r.ExpiresIn) * time.Second
}

// RefreshResponse is returned by POST /api/auth/refresh.
type RefreshResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// Lifetime returns ExpiresIn as a duration.
func (r *RefreshResponse) Lifetime() time.Duration {
	return time.Duration(r.ExpiresIn) * time.Second
}

type meResponse struct {
	Success bool  `json:"success"`
	User    *User `json:"user"`
}

// envelope is the part of every response body the client inspects
// before handing the body to the caller.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}
