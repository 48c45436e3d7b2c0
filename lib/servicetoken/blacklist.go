// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package servicetoken

import (
	"sync"
	"time"
)

// Blacklist is an in-memory set of revoked token IDs, keyed to each
// token's natural expiry. The operator pushes signed revocation
// batches at the service when an executor is decommissioned or a
// token file leaks; verification then refuses any token whose ID is
// in the set.
//
// Entries are only worth holding until the token would have expired
// anyway — Verify rejects expired tokens without consulting the
// blacklist — so Cleanup drops them past that point and the set never
// outgrows one revocation window.
type Blacklist struct {
	mu sync.RWMutex

	// expiry maps token ID to the token's own expiry time.
	expiry map[string]time.Time
}

// NewBlacklist creates an empty blacklist.
func NewBlacklist() *Blacklist {
	return &Blacklist{expiry: make(map[string]time.Time)}
}

// Revoke adds a token ID. tokenExpiresAt is the token's own expiry;
// Cleanup removes the entry once that time has passed.
func (b *Blacklist) Revoke(tokenID string, tokenExpiresAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expiry[tokenID] = tokenExpiresAt
}

// IsRevoked reports whether a token ID has been revoked.
func (b *Blacklist) IsRevoked(tokenID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, revoked := b.expiry[tokenID]
	return revoked
}

// Cleanup removes entries whose tokens have expired on their own and
// returns how many were dropped. The socket server sweeps on every
// revocation batch.
func (b *Blacklist) Cleanup(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for tokenID, expiresAt := range b.expiry {
		if !now.Before(expiresAt) {
			delete(b.expiry, tokenID)
			removed++
		}
	}
	return removed
}

// Len returns the number of revoked token IDs currently held.
func (b *Blacklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.expiry)
}
