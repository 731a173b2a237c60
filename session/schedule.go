// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "time"

const (
	// refreshLeadTime is how long before expiry a long-lived token is
	// renewed.
	refreshLeadTime = 60 * time.Second

	// refreshLeadThreshold is the lifetime above which refreshLeadTime
	// applies. Shorter tokens are renewed at half their lifetime.
	refreshLeadThreshold = 120 * time.Second

	// MinRefreshDelay is the floor for any scheduled refresh, so the
	// renewal always runs after the operation that armed it returns.
	MinRefreshDelay = time.Second
)

// RefreshDelay returns how long after issue a token with the given
// lifetime should be renewed: 60s before expiry for lifetimes over two
// minutes, half the lifetime otherwise, and never less than
// MinRefreshDelay.
//
//	RefreshDelay(900 * time.Second) // 840s
//	RefreshDelay(90 * time.Second)  // 45s
func RefreshDelay(expiresIn time.Duration) time.Duration {
	var delay time.Duration
	if expiresIn > refreshLeadThreshold {
		delay = expiresIn - refreshLeadTime
	} else {
		delay = expiresIn / 2
	}
	if delay < MinRefreshDelay {
		delay = MinRefreshDelay
	}
	return delay
}
