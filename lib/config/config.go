// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "NAGARNITI_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development against a local backend.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for the public deployment.
	Production Environment = "production"
)

// Config is the client configuration.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// API configures the REST backend.
	API APIConfig `yaml:"api"`

	// Session configures where and how session state is persisted.
	Session SessionConfig `yaml:"session"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	API     *APIConfig       `yaml:"api,omitempty"`
	Session *SessionOverride `yaml:"session,omitempty"`
}

// APIConfig configures the REST backend.
type APIConfig struct {
	// BaseURL is the backend origin, without the /api suffix.
	// Default: http://localhost:5000
	BaseURL string `yaml:"base_url"`

	// RequestTimeout bounds each request, including timer-driven
	// refreshes. Go duration syntax.
	// Default: 30s
	RequestTimeout string `yaml:"request_timeout"`
}

// SessionConfig configures session persistence.
type SessionConfig struct {
	// StateDir holds the persisted snapshot, cookie records and the
	// sealing identity.
	// Default: ${XDG_STATE_HOME:-${HOME}/.local/state}/nagarniti
	StateDir string `yaml:"state_dir"`

	// StorageKey is the key the snapshot is stored under.
	// Default: auth-storage
	StorageKey string `yaml:"storage_key"`

	// SealCookies age-encrypts the refresh cookie at rest.
	// Default: true. Always true in production.
	SealCookies bool `yaml:"seal_cookies"`
}

// SessionOverride mirrors SessionConfig with a pointer for the bool so
// an override can tell "false" from "absent".
type SessionOverride struct {
	StateDir    string `yaml:"state_dir,omitempty"`
	StorageKey  string `yaml:"storage_key,omitempty"`
	SealCookies *bool  `yaml:"seal_cookies,omitempty"`
}

// Default returns the default configuration. These values are the base
// a config file is merged into.
func Default() *Config {
	return &Config{
		Environment: Development,
		API: APIConfig{
			BaseURL:        "http://localhost:5000",
			RequestTimeout: "30s",
		},
		Session: SessionConfig{
			StateDir:    defaultStateDir(),
			StorageKey:  "auth-storage",
			SealCookies: true,
		},
	}
}

func defaultStateDir() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "nagarniti")
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "state", "nagarniti")
}

// Load loads configuration from the NAGARNITI_CONFIG environment
// variable. It fails if the variable is unset; callers that accept a
// default use [Resolve].
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your nagarniti.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// Resolve picks the configuration for a command: flagPath if non-empty,
// otherwise NAGARNITI_CONFIG if set, otherwise [Default]. The result is
// validated.
func Resolve(flagPath string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch {
	case flagPath != "":
		cfg, err = LoadFile(flagPath)
	case os.Getenv(EnvironmentVariable) != "":
		cfg, err = Load()
	default:
		cfg = Default()
		cfg.expandVariables()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides != nil {
		if overrides.API != nil {
			if overrides.API.BaseURL != "" {
				c.API.BaseURL = overrides.API.BaseURL
			}
			if overrides.API.RequestTimeout != "" {
				c.API.RequestTimeout = overrides.API.RequestTimeout
			}
		}

		if overrides.Session != nil {
			if overrides.Session.StateDir != "" {
				c.Session.StateDir = overrides.Session.StateDir
			}
			if overrides.Session.StorageKey != "" {
				c.Session.StorageKey = overrides.Session.StorageKey
			}
			if overrides.Session.SealCookies != nil {
				c.Session.SealCookies = *overrides.Session.SealCookies
			}
		}
	}

	// The refresh cookie is the long-lived credential; production never
	// keeps it in plaintext.
	if c.Environment == Production {
		c.Session.SealCookies = true
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Session.StateDir = expandVars(c.Session.StateDir, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Timeout returns the parsed request timeout. Call after Validate.
func (a APIConfig) Timeout() time.Duration {
	timeout, err := time.ParseDuration(a.RequestTimeout)
	if err != nil || timeout <= 0 {
		return 30 * time.Second
	}
	return timeout
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.API.BaseURL == "" {
		errs = append(errs, fmt.Errorf("api.base_url is required"))
	} else if parsed, err := url.Parse(c.API.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("api.base_url: %w", err))
	} else if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an http or https URL, got %q", c.API.BaseURL))
	}

	if timeout, err := time.ParseDuration(c.API.RequestTimeout); err != nil {
		errs = append(errs, fmt.Errorf("api.request_timeout: %w", err))
	} else if timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.request_timeout must be positive, got %s", c.API.RequestTimeout))
	}

	if c.Session.StateDir == "" {
		errs = append(errs, fmt.Errorf("session.state_dir is required"))
	}

	if c.Session.StorageKey == "" {
		errs = append(errs, fmt.Errorf("session.storage_key is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the state directory if it doesn't exist.
func (c *Config) EnsurePaths() error {
	if err := os.MkdirAll(c.Session.StateDir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", c.Session.StateDir, err)
	}
	return nil
}
