// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package rulesdef

import (
	"fmt"
	"regexp"
)

// paramNamePattern matches valid parameter names: start with a letter
// or underscore, followed by letters, digits, or underscores. Anchored
// to the full string.
var paramNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a RuleSet for structural issues. Returns a list of
// human-readable issue descriptions. An empty list means the rules are
// valid.
//
// Structural checks include:
//   - Category is required
//   - PlayersPerMatch (when present) must be exactly [min, max]
//   - min must be at least 1 and max must be at least min
//   - Param names must be valid identifiers
//
// Param values are free-form and never inspected.
func Validate(rules *RuleSet) []string {
	var issues []string

	if rules.Category.IsZero() {
		issues = append(issues, "category is required")
	}

	if rules.PlayersPerMatch != nil {
		if len(rules.PlayersPerMatch) != 2 {
			issues = append(issues, fmt.Sprintf(
				"players_per_match must be [min, max], got %d elements", len(rules.PlayersPerMatch)))
		} else {
			minPlayers, maxPlayers := rules.PlayersPerMatch[0], rules.PlayersPerMatch[1]
			if minPlayers < 1 {
				issues = append(issues, fmt.Sprintf("players_per_match: min %d must be at least 1", minPlayers))
			}
			if maxPlayers < minPlayers {
				issues = append(issues, fmt.Sprintf(
					"players_per_match: max %d is below min %d", maxPlayers, minPlayers))
			}
		}
	}

	for name := range rules.Params {
		if !paramNamePattern.MatchString(name) {
			issues = append(issues, fmt.Sprintf(
				"params[%q]: name must be a valid identifier ([A-Za-z_][A-Za-z0-9_]*)", name))
		}
	}

	return issues
}
