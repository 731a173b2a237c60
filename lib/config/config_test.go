// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "nagarniti.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.API.BaseURL != "http://localhost:5000" {
		t.Errorf("expected base_url=http://localhost:5000, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout() != 30*time.Second {
		t.Errorf("expected request_timeout=30s, got %s", cfg.API.Timeout())
	}
	if cfg.Session.StorageKey != "auth-storage" {
		t.Errorf("expected storage_key=auth-storage, got %s", cfg.Session.StorageKey)
	}
	if !cfg.Session.SealCookies {
		t.Error("expected seal_cookies=true by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestDefaultStateDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/xdg/state")
	cfg := Default()
	if cfg.Session.StateDir != "/xdg/state/nagarniti" {
		t.Errorf("expected state_dir=/xdg/state/nagarniti, got %s", cfg.Session.StateDir)
	}
}

func TestLoad_RequiresConfigVariable(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when NAGARNITI_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "NAGARNITI_CONFIG environment variable not set") {
		t.Errorf("unexpected error message %q", err.Error())
	}
}

func TestLoad_WithConfigVariable(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging
api:
  base_url: https://staging.nagarniti.example
`)
	t.Setenv(EnvironmentVariable, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if cfg.API.BaseURL != "https://staging.nagarniti.example" {
		t.Errorf("expected staging base_url, got %s", cfg.API.BaseURL)
	}
}

func TestResolve(t *testing.T) {
	flagPath := writeConfig(t, `
api:
  base_url: http://flag.example
`)
	envPath := writeConfig(t, `
api:
  base_url: http://env.example
`)

	t.Run("flag wins over environment", func(t *testing.T) {
		t.Setenv(EnvironmentVariable, envPath)
		cfg, err := Resolve(flagPath)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if cfg.API.BaseURL != "http://flag.example" {
			t.Errorf("base_url = %s, want the --config value", cfg.API.BaseURL)
		}
	})

	t.Run("environment variable", func(t *testing.T) {
		t.Setenv(EnvironmentVariable, envPath)
		cfg, err := Resolve("")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if cfg.API.BaseURL != "http://env.example" {
			t.Errorf("base_url = %s, want the NAGARNITI_CONFIG value", cfg.API.BaseURL)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv(EnvironmentVariable, "")
		cfg, err := Resolve("")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if cfg.API.BaseURL != "http://localhost:5000" {
			t.Errorf("base_url = %s, want the default", cfg.API.BaseURL)
		}
	})

	t.Run("invalid file is rejected", func(t *testing.T) {
		bad := writeConfig(t, `
api:
  base_url: ftp://nowhere
`)
		if _, err := Resolve(bad); err == nil {
			t.Fatal("Resolve accepted a non-http base_url")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Resolve(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatal("Resolve accepted a missing file")
		}
	})
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging

api:
  base_url: http://10.0.0.5:5000
  request_timeout: 5s

session:
  state_dir: /custom/state
  storage_key: custom-storage
  seal_cookies: false
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if cfg.API.BaseURL != "http://10.0.0.5:5000" {
		t.Errorf("expected base_url=http://10.0.0.5:5000, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout() != 5*time.Second {
		t.Errorf("expected request_timeout=5s, got %s", cfg.API.Timeout())
	}
	if cfg.Session.StateDir != "/custom/state" {
		t.Errorf("expected state_dir=/custom/state, got %s", cfg.Session.StateDir)
	}
	if cfg.Session.StorageKey != "custom-storage" {
		t.Errorf("expected storage_key=custom-storage, got %s", cfg.Session.StorageKey)
	}
	if cfg.Session.SealCookies {
		t.Error("expected seal_cookies=false")
	}
}

func TestLoadFileRejectsMalformedYAML(t *testing.T) {
	configPath := writeConfig(t, "api: [unterminated")
	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("LoadFile accepted malformed YAML")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging

api:
  base_url: http://localhost:5000

session:
  seal_cookies: true

staging:
  api:
    base_url: https://staging.nagarniti.example
    request_timeout: 10s
  session:
    storage_key: staging-storage
    seal_cookies: false

production:
  api:
    base_url: https://nagarniti.gov.in
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.API.BaseURL != "https://staging.nagarniti.example" {
		t.Errorf("expected staging base_url, got %s", cfg.API.BaseURL)
	}
	if cfg.API.RequestTimeout != "10s" {
		t.Errorf("expected request_timeout=10s, got %s", cfg.API.RequestTimeout)
	}
	if cfg.Session.StorageKey != "staging-storage" {
		t.Errorf("expected storage_key=staging-storage, got %s", cfg.Session.StorageKey)
	}
	if cfg.Session.SealCookies {
		t.Error("expected seal_cookies=false from staging override")
	}
}

func TestOverrideWithoutSealCookiesKeepsBase(t *testing.T) {
	configPath := writeConfig(t, `
environment: development
session:
  seal_cookies: false
development:
  session:
    storage_key: dev-storage
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Session.SealCookies {
		t.Error("an override without seal_cookies changed the base value")
	}
	if cfg.Session.StorageKey != "dev-storage" {
		t.Errorf("expected storage_key=dev-storage, got %s", cfg.Session.StorageKey)
	}
}

func TestProductionForcesSealing(t *testing.T) {
	configPath := writeConfig(t, `
environment: production
api:
  base_url: https://nagarniti.gov.in
session:
  seal_cookies: false
production:
  session:
    seal_cookies: false
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !cfg.Session.SealCookies {
		t.Error("production must always seal cookies")
	}
}

func TestStateDirExpansion(t *testing.T) {
	t.Setenv("HOME", "/home/citizen")
	configPath := writeConfig(t, `
session:
  state_dir: ${HOME}/.nagarniti/${NAGARNITI_PROFILE:-default}
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Session.StateDir != "/home/citizen/.nagarniti/default" {
		t.Errorf("expected expanded state_dir, got %s", cfg.Session.StateDir)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/nagarniti",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/nagarniti",
		},
		{
			input:    "${NAGARNITI_TEST_MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid environment",
			modify:  func(c *Config) { c.Environment = "invalid" },
			wantErr: true,
		},
		{
			name:    "empty base url",
			modify:  func(c *Config) { c.API.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "base url without scheme",
			modify:  func(c *Config) { c.API.BaseURL = "localhost:5000" },
			wantErr: true,
		},
		{
			name:    "https base url",
			modify:  func(c *Config) { c.API.BaseURL = "https://nagarniti.gov.in" },
			wantErr: false,
		},
		{
			name:    "unparseable timeout",
			modify:  func(c *Config) { c.API.RequestTimeout = "soon" },
			wantErr: true,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.API.RequestTimeout = "0s" },
			wantErr: true,
		},
		{
			name:    "empty state dir",
			modify:  func(c *Config) { c.Session.StateDir = "" },
			wantErr: true,
		},
		{
			name:    "empty storage key",
			modify:  func(c *Config) { c.Session.StorageKey = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Session.StateDir = "/state"
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Environment = "bogus"
	cfg.API.BaseURL = ""
	cfg.Session.StorageKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, fragment := range []string{"invalid environment", "api.base_url", "session.storage_key"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("Validate error %q does not mention %q", err.Error(), fragment)
		}
	}
}

func TestEnsurePaths(t *testing.T) {
	cfg := Default()
	cfg.Session.StateDir = filepath.Join(t.TempDir(), "nagarniti", "state")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	info, err := os.Stat(cfg.Session.StateDir)
	if err != nil {
		t.Fatalf("state dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("state dir %s is not a directory", cfg.Session.StateDir)
	}
	if mode := info.Mode().Perm(); mode != 0700 {
		t.Errorf("state dir mode = %o, want 0700", mode)
	}
}
