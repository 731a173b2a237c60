// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/nagarniti/nagarniti/lib/secret"
	"github.com/nagarniti/nagarniti/wardapi"
)

var errNetwork = errors.New("dial tcp 127.0.0.1:5000: connect: connection refused")

func rejected(status int, message string) error {
	return &wardapi.APIError{StatusCode: status, Message: message}
}

// fakeAPI is a scriptable API. Each hook receives the bearer as a
// string ("" when none was sent). Nil hooks fail with errNetwork.
type fakeAPI struct {
	mu sync.Mutex

	login    func(email, password string) (*wardapi.AuthResponse, error)
	register func(request wardapi.RegisterRequest) (*wardapi.AuthResponse, error)
	refresh  func() (*wardapi.RefreshResponse, error)
	me       func(token string) (*wardapi.User, error)
	logout   func(token string) error
	do       func(request wardapi.Request, token string) ([]byte, error)

	loginCalls   int
	refreshCalls int
	meTokens     []string
	logoutTokens []string
	doTokens     []string
}

func bearer(token *secret.Buffer) string {
	if token == nil {
		return ""
	}
	return token.String()
}

func (f *fakeAPI) Login(ctx context.Context, email string, password *secret.Buffer) (*wardapi.AuthResponse, error) {
	f.mu.Lock()
	f.loginCalls++
	hook := f.login
	f.mu.Unlock()
	if hook == nil {
		return nil, errNetwork
	}
	return hook(email, bearer(password))
}

func (f *fakeAPI) Register(ctx context.Context, request wardapi.RegisterRequest) (*wardapi.AuthResponse, error) {
	f.mu.Lock()
	hook := f.register
	f.mu.Unlock()
	if hook == nil {
		return nil, errNetwork
	}
	return hook(request)
}

func (f *fakeAPI) Refresh(ctx context.Context) (*wardapi.RefreshResponse, error) {
	f.mu.Lock()
	f.refreshCalls++
	hook := f.refresh
	f.mu.Unlock()
	if hook == nil {
		return nil, errNetwork
	}
	return hook()
}

func (f *fakeAPI) Me(ctx context.Context, token *secret.Buffer) (*wardapi.User, error) {
	f.mu.Lock()
	f.meTokens = append(f.meTokens, bearer(token))
	hook := f.me
	f.mu.Unlock()
	if hook == nil {
		return nil, errNetwork
	}
	return hook(bearer(token))
}

func (f *fakeAPI) Logout(ctx context.Context, token *secret.Buffer) error {
	f.mu.Lock()
	f.logoutTokens = append(f.logoutTokens, bearer(token))
	hook := f.logout
	f.mu.Unlock()
	if hook == nil {
		return errNetwork
	}
	return hook(bearer(token))
}

func (f *fakeAPI) Do(ctx context.Context, request wardapi.Request) ([]byte, error) {
	f.mu.Lock()
	f.doTokens = append(f.doTokens, bearer(request.Token))
	hook := f.do
	f.mu.Unlock()
	if hook == nil {
		return nil, errNetwork
	}
	return hook(request, bearer(request.Token))
}

func (f *fakeAPI) set(apply func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	apply(f)
}

func (f *fakeAPI) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

func (f *fakeAPI) sentMeTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.meTokens...)
}

func (f *fakeAPI) sentDoTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.doTokens...)
}

var superAdmin = &wardapi.User{
	ID:         "u-admin",
	Email:      "admin@nagarniti.gov.in",
	Name:       "Super Admin",
	Role:       wardapi.RoleSuperAdmin,
	IsVerified: true,
}

func loginAccepting(user *wardapi.User, token string, expiresIn int64) func(string, string) (*wardapi.AuthResponse, error) {
	return func(email, password string) (*wardapi.AuthResponse, error) {
		return &wardapi.AuthResponse{Success: true, User: user, AccessToken: token, ExpiresIn: expiresIn}, nil
	}
}

func refreshIssuing(token string, expiresIn int64) func() (*wardapi.RefreshResponse, error) {
	return func() (*wardapi.RefreshResponse, error) {
		return &wardapi.RefreshResponse{Success: true, AccessToken: token, ExpiresIn: expiresIn}, nil
	}
}

func meReturning(user *wardapi.User, acceptToken string) func(string) (*wardapi.User, error) {
	return func(token string) (*wardapi.User, error) {
		if token != acceptToken {
			return nil, rejected(http.StatusUnauthorized, "Not authenticated")
		}
		return user, nil
	}
}
