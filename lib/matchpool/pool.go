// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package matchpool defines the matching capability the orchestrator
// is built against, plus the default implementation: a bracketed
// first-come-first-served pool with a fixed group size.
//
// Matching quality is expressly not this package's concern. Anything
// smarter (skill ratings, latency regions, role composition) slots in
// behind the Matcher interface without touching the orchestrator.
package matchpool

import (
	"fmt"
	"slices"

	"github.com/arena-foundation/arena/lib/ref"
)

// DefaultGroupSize is the group size used when configuration does
// not name one: head-to-head matches.
const DefaultGroupSize = 2

// Matcher admits participants and forms groups. Implementations
// need no internal locking; the orchestrator serializes all calls.
type Matcher interface {
	// Add admits an account into the pool at the given bracket and
	// reports whether it was admitted. An account already in the
	// pool (any bracket) is refused.
	Add(account ref.AccountID, bracket uint8) bool

	// TryMatch removes and returns one formed group, or nil when no
	// bracket can currently form one. Group order is the admission
	// order within the bracket.
	TryMatch() []ref.AccountID
}

// Pool is the default Matcher: per-bracket FIFO lists, matched
// lowest bracket first, groups of a fixed size.
type Pool struct {
	groupSize int
	brackets  map[uint8][]ref.AccountID
	member    map[ref.AccountID]uint8
}

// NewPool returns an empty pool forming groups of groupSize. Panics
// if groupSize is less than 1; sizes come from validated
// configuration.
func NewPool(groupSize int) *Pool {
	if groupSize < 1 {
		panic(fmt.Sprintf("matchpool.NewPool: group size %d", groupSize))
	}
	return &Pool{
		groupSize: groupSize,
		brackets:  make(map[uint8][]ref.AccountID),
		member:    make(map[ref.AccountID]uint8),
	}
}

// Add admits account at bracket. Refuses zero accounts and accounts
// already pooled in any bracket.
func (p *Pool) Add(account ref.AccountID, bracket uint8) bool {
	if account.IsZero() {
		return false
	}
	if _, pooled := p.member[account]; pooled {
		return false
	}
	p.member[account] = bracket
	p.brackets[bracket] = append(p.brackets[bracket], account)
	return true
}

// TryMatch scans brackets in ascending order and takes the first
// groupSize accounts from the first bracket that has enough,
// removing them from the pool. Returns nil when no bracket can form
// a group.
func (p *Pool) TryMatch() []ref.AccountID {
	for _, bracket := range p.bracketOrder() {
		pooled := p.brackets[bracket]
		if len(pooled) < p.groupSize {
			continue
		}
		group := slices.Clone(pooled[:p.groupSize])
		rest := pooled[p.groupSize:]
		if len(rest) == 0 {
			delete(p.brackets, bracket)
		} else {
			p.brackets[bracket] = slices.Clone(rest)
		}
		for _, account := range group {
			delete(p.member, account)
		}
		return group
	}
	return nil
}

// Len returns the number of pooled accounts across all brackets.
func (p *Pool) Len() int { return len(p.member) }

// bracketOrder returns the bracket keys in ascending order so
// matching is deterministic.
func (p *Pool) bracketOrder() []uint8 {
	order := make([]uint8, 0, len(p.brackets))
	for bracket := range p.brackets {
		order = append(order, bracket)
	}
	slices.Sort(order)
	return order
}
