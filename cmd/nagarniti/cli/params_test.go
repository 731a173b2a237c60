// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlags_Types(t *testing.T) {
	var params struct {
		Email   string        `flag:"email,e" desc:"account email" default:"nobody@example.org"`
		Seal    bool          `flag:"seal" default:"true"`
		Retries int           `flag:"retries" default:"2"`
		Timeout time.Duration `flag:"timeout" default:"30s"`
		Headers []string      `flag:"header"`
		Ignored string
	}
	flagSet := FlagsFromParams("test", &params)

	if params.Email != "nobody@example.org" || !params.Seal || params.Retries != 2 || params.Timeout != 30*time.Second {
		t.Fatalf("defaults not applied: %+v", params)
	}
	if flagSet.Lookup("ignored") != nil {
		t.Error("untagged field bound as a flag")
	}

	err := flagSet.Parse([]string{"-e", "admin@nagarniti.gov.in", "--seal=false", "--retries", "5", "--timeout", "1m", "--header", "a", "--header", "b"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.Email != "admin@nagarniti.gov.in" || params.Seal || params.Retries != 5 || params.Timeout != time.Minute {
		t.Errorf("parsed = %+v", params)
	}
	if len(params.Headers) != 2 || params.Headers[1] != "b" {
		t.Errorf("Headers = %v", params.Headers)
	}
}

func TestBindFlags_Embedded(t *testing.T) {
	var params struct {
		SessionParams
		JSONOutput
	}
	flagSet := FlagsFromParams("status", &params)
	for _, name := range []string{"config", "verbose", "json"} {
		if flagSet.Lookup(name) == nil {
			t.Errorf("--%s not bound", name)
		}
	}
}

type customBinder struct {
	value string
}

func (c *customBinder) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.value, "custom", "set-by-binder", "bound by AddFlags")
}

func TestBindFlags_FlagBinder(t *testing.T) {
	var params struct {
		Custom customBinder
	}
	flagSet := FlagsFromParams("test", &params)
	if flagSet.Lookup("custom") == nil || params.Custom.value != "set-by-binder" {
		t.Fatal("FlagBinder.AddFlags not used")
	}
}

func TestBindFlags_Errors(t *testing.T) {
	if err := BindFlags(struct{}{}, pflag.NewFlagSet("x", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags accepted a non-pointer")
	}

	var unsupported struct {
		Ratio float32 `flag:"ratio"`
	}
	err := BindFlags(&unsupported, pflag.NewFlagSet("x", pflag.ContinueOnError))
	if err == nil || !strings.Contains(err.Error(), "unsupported type") {
		t.Errorf("error = %v, want unsupported type", err)
	}

	var badDefault struct {
		Count int `flag:"count" default:"many"`
	}
	if err := BindFlags(&badDefault, pflag.NewFlagSet("x", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags accepted an unparseable default")
	}
}
