// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/nagarniti/nagarniti/lib/localstore"
	"github.com/nagarniti/nagarniti/wardapi"
)

// wardBackend is a minimal auth server: login issues a refresh cookie,
// refresh rotates the access token, me demands the current one and
// logout expires the cookie.
type wardBackend struct {
	t *testing.T

	mu     sync.Mutex
	issued int
	access string
}

func (b *wardBackend) writeJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(value); err != nil {
		b.t.Errorf("encoding response: %v", err)
	}
}

func (b *wardBackend) nextAccess() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issued++
	b.access = "access-" + strconv.Itoa(b.issued)
	return b.access
}

func (b *wardBackend) currentAccess() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.access
}

func (b *wardBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+wardapi.PathLogin, func(writer http.ResponseWriter, request *http.Request) {
		var body wardapi.LoginRequest
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil || body.Password != "Admin@123" {
			b.writeJSON(writer, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password"})
			return
		}
		http.SetCookie(writer, &http.Cookie{Name: "refreshToken", Value: "opaque", Path: "/api/auth", HttpOnly: true, MaxAge: 7 * 24 * 3600})
		b.writeJSON(writer, http.StatusOK, map[string]any{
			"success": true, "user": superAdmin, "accessToken": b.nextAccess(), "expiresIn": 900,
		})
	})
	mux.HandleFunc("POST "+wardapi.PathRefresh, func(writer http.ResponseWriter, request *http.Request) {
		if cookie, err := request.Cookie("refreshToken"); err != nil || cookie.Value != "opaque" {
			b.writeJSON(writer, http.StatusUnauthorized, map[string]any{"success": false, "message": "Refresh token missing"})
			return
		}
		b.writeJSON(writer, http.StatusOK, map[string]any{"success": true, "accessToken": b.nextAccess(), "expiresIn": 900})
	})
	mux.HandleFunc("GET "+wardapi.PathMe, func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "Bearer "+b.currentAccess() {
			b.writeJSON(writer, http.StatusUnauthorized, map[string]any{"success": false, "message": "Not authenticated"})
			return
		}
		b.writeJSON(writer, http.StatusOK, map[string]any{"success": true, "user": superAdmin})
	})
	mux.HandleFunc("POST "+wardapi.PathLogout, func(writer http.ResponseWriter, request *http.Request) {
		http.SetCookie(writer, &http.Cookie{Name: "refreshToken", Path: "/api/auth", MaxAge: -1})
		b.writeJSON(writer, http.StatusOK, map[string]any{"success": true})
	})
	return mux
}

// openProcess wires a manager the way a fresh CLI invocation does:
// state file, persistent sealed jar, client, snapshot store.
func openProcess(t *testing.T, directory, baseURL string) *Manager {
	t.Helper()
	store, err := localstore.Open(directory, baseURL)
	if err != nil {
		t.Fatalf("localstore.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jar, err := wardapi.NewPersistentJar(wardapi.JarConfig{
		Store:  &wardapi.LocalCookieStore{Store: store, Key: "cookies", Seal: true},
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewPersistentJar: %v", err)
	}
	if err := jar.Load(); err != nil {
		t.Fatalf("jar.Load: %v", err)
	}

	client, err := wardapi.NewClient(wardapi.ClientConfig{BaseURL: baseURL, Jar: jar, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(client.CloseIdleConnections)

	manager, _ := newTestManager(t, client, NewLocalStoreSnapshots(store, ""))
	return manager
}

func TestSessionAcrossProcesses(t *testing.T) {
	backend := &wardBackend{t: t}
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)
	directory := t.TempDir()

	first := openProcess(t, directory, server.URL)
	login(t, first)
	first.Close()

	second := openProcess(t, directory, server.URL)
	if state := second.State(); !state.IsAuthenticated || state.IsInitialized {
		t.Fatalf("rehydrated state = %+v, want provisional authenticated", state)
	}
	if err := second.CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth with persisted cookie: %v", err)
	}
	state := second.State()
	if !state.IsAuthenticated || !state.HasAccessToken || !state.IsInitialized {
		t.Fatalf("state after CheckAuth = %+v", state)
	}
	if got := heldToken(t, second); got != backend.currentAccess() {
		t.Errorf("held token = %q, want the refreshed %q", got, backend.currentAccess())
	}

	if err := second.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	second.Close()

	third := openProcess(t, directory, server.URL)
	if third.State().IsAuthenticated {
		t.Error("snapshot survived logout")
	}
	if err := third.CheckAuth(context.Background()); err == nil {
		t.Error("CheckAuth succeeded after logout expired the refresh cookie")
	}
}
