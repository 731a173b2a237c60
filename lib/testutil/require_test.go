// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"testing"
	"time"
)

// recorder captures Fatalf instead of stopping the test. Helpers that
// call Fatalf on a recorder fall through to their zero-value returns.
type recorder struct {
	failed  bool
	message string
}

func (r *recorder) Helper() {}

func (r *recorder) Fatalf(format string, args ...any) {
	r.failed = true
	r.message = fmt.Sprintf(format, args...)
}

func TestRequireReceive(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	if got := RequireReceive(t, ch, time.Second, "buffered value"); got != 7 {
		t.Fatalf("RequireReceive = %d, want 7", got)
	}
}

func TestRequireClosedDrains(t *testing.T) {
	ch := make(chan string, 2)
	ch <- "first"
	ch <- "second"
	close(ch)
	RequireClosed(t, ch, time.Second, "closed after values")
}

func TestRequireEventually(t *testing.T) {
	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	got := RequireEventually(t, ch, func(v int) bool { return v >= 2 }, time.Second, "second value")
	if got != 2 {
		t.Fatalf("RequireEventually = %d, want 2", got)
	}
}

func TestRequireEventuallyReportsClose(t *testing.T) {
	ch := make(chan int)
	close(ch)
	r := &recorder{}
	RequireEventually(r, ch, func(int) bool { return true }, time.Second, "value %d", 1)
	if !r.failed {
		t.Fatal("closed channel did not fail the test")
	}
	if r.message != "channel closed before a matching value: value 1" {
		t.Errorf("message = %q", r.message)
	}
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		args []any
		want string
	}{
		{nil, "(no message)"},
		{[]any{"plain"}, "plain"},
		{[]any{42}, "42"},
		{[]any{"user %s role %s", "u1", "voter"}, "user u1 role voter"},
	}
	for _, tt := range tests {
		if got := formatMessage(tt.args); got != tt.want {
			t.Errorf("formatMessage(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
