// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"log/slog"

	"github.com/nagarniti/nagarniti/lib/config"
	"github.com/nagarniti/nagarniti/lib/localstore"
	"github.com/nagarniti/nagarniti/session"
	"github.com/nagarniti/nagarniti/wardapi"
)

// cookieStorageKey is the state-file key holding the cookie jar.
const cookieStorageKey = "cookies"

// SessionParams adds the global flags shared by every command that
// talks to the server. Embed it in a command's params struct.
type SessionParams struct {
	ConfigPath string `json:"-" flag:"config"  desc:"path to nagarniti.yaml (default: $NAGARNITI_CONFIG, then built-in defaults)"`
	Verbose    bool   `json:"-" flag:"verbose" desc:"log debug detail to stderr"`
}

// IsVerbose reports whether --verbose was given.
func (p *SessionParams) IsVerbose() bool { return p.Verbose }

// Open resolves the configuration named by the flags and opens a
// Session for it.
func (p *SessionParams) Open(logger *slog.Logger) (*Session, error) {
	cfg, err := config.Resolve(p.ConfigPath)
	if err != nil {
		return nil, Validation("loading configuration: %w", err)
	}
	return OpenSession(cfg, logger)
}

// Session is everything one CLI invocation needs to act as a signed-in
// client. State lives in a single file per backend under the configured
// state directory: the snapshot and the cookie jar, with cookies sealed
// when SealCookies is set.
type Session struct {
	Config  *config.Config
	Client  *wardapi.Client
	Jar     *wardapi.PersistentJar
	Manager *session.Manager

	store *localstore.Store
}

// OpenSession wires the state store, cookie jar, REST client and
// session manager for cfg. The manager starts rehydrated from the last
// run; callers run CheckAuth when they need a verdict.
func OpenSession(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if err := cfg.EnsurePaths(); err != nil {
		return nil, Internal("preparing state directory: %w", err)
	}

	store, err := localstore.Open(cfg.Session.StateDir, cfg.API.BaseURL)
	if err != nil {
		return nil, Internal("opening session state: %w", err)
	}

	jar, err := wardapi.NewPersistentJar(wardapi.JarConfig{
		Store: &wardapi.LocalCookieStore{
			Store: store,
			Key:   cookieStorageKey,
			Seal:  cfg.Session.SealCookies,
		},
		Logger: logger,
	})
	if err != nil {
		store.Close()
		return nil, Internal("creating cookie jar: %w", err)
	}
	if err := jar.Load(); err != nil {
		// A jar that cannot be read is a signed-out session, not a
		// reason to refuse to run.
		logger.Warn("stored cookies unreadable, starting without them", "error", err)
		if clearErr := jar.Clear(); clearErr != nil {
			logger.Warn("clearing unreadable cookies failed", "error", clearErr)
		}
	}

	client, err := wardapi.NewClient(wardapi.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Jar:     jar,
		Logger:  logger,
	})
	if err != nil {
		store.Close()
		return nil, Validation("creating API client: %w", err)
	}

	manager, err := session.NewManager(session.Config{
		Client:         client,
		Snapshots:      session.NewLocalStoreSnapshots(store, cfg.Session.StorageKey),
		Logger:         logger,
		RequestTimeout: cfg.API.Timeout(),
	})
	if err != nil {
		store.Close()
		return nil, Internal("creating session manager: %w", err)
	}

	logger.Debug("session opened",
		"environment", cfg.Environment,
		"base_url", cfg.API.BaseURL,
		"state_file", store.Path(),
		"sealed_cookies", cfg.Session.SealCookies,
	)
	return &Session{
		Config:  cfg,
		Client:  client,
		Jar:     jar,
		Manager: manager,
		store:   store,
	}, nil
}

// Close stops the manager and releases the store. The snapshot and
// cookies stay on disk for the next invocation.
func (s *Session) Close() error {
	err := s.Manager.Close()
	s.Client.CloseIdleConnections()
	return errors.Join(err, s.store.Close())
}
