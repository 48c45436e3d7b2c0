// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"

	"github.com/arena-foundation/arena/lib/ref"
)

// RuleSet is the stored rule document for one game category.
//
// Rule sets are descriptive today: the service stores and serves
// them, and nothing evaluates them against sessions yet. Rule
// enforcement at the matching and finish boundaries is planned; the
// storage format is stable so rules authored now survive that
// change.
type RuleSet struct {
	// Category is the (game, version) pair the rules apply to.
	Category ref.GameCategory `json:"category"`

	// PlayersPerMatch bounds the group size: index 0 is the
	// minimum, index 1 the maximum. A fixed size is expressed as
	// min == max.
	PlayersPerMatch [2]uint8 `json:"players_per_match"`

	// Params carries free-form game parameters (board size, time
	// controls, map pools). Opaque to the service.
	Params map[string]any `json:"params,omitempty"`
}

// Validate checks internal consistency: a real category, a minimum
// of at least one player, and ordered bounds.
func (r RuleSet) Validate() error {
	if r.Category.IsZero() {
		return fmt.Errorf("rule set: category is unset")
	}
	if r.PlayersPerMatch[0] == 0 {
		return fmt.Errorf("rule set %s: minimum players is 0", r.Category)
	}
	if r.PlayersPerMatch[1] < r.PlayersPerMatch[0] {
		return fmt.Errorf("rule set %s: players_per_match [%d,%d] is inverted",
			r.Category, r.PlayersPerMatch[0], r.PlayersPerMatch[1])
	}
	return nil
}
