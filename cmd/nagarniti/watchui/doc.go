// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package watchui is the bubbletea view behind "nagarniti watch". It
// reads a session manager subscription and redraws the status, the
// signed-in user and the token and refresh countdowns, while the
// manager's own timer keeps the token alive in the background.
package watchui
