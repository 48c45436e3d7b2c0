// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arena-foundation/arena/lib/rulesdef"
	"github.com/arena-foundation/arena/lib/schema/session"
)

// storedRules converts an authored rule document into the stored
// form. The authoring format leaves players_per_match optional; the
// stored form always carries it, so an omitted range defaults to the
// configured group size as both min and max. Notes are an authoring
// convenience and are not stored.
func storedRules(def *rulesdef.RuleSet, defaultGroupSize int) (session.RuleSet, error) {
	if issues := rulesdef.Validate(def); len(issues) > 0 {
		return session.RuleSet{}, fmt.Errorf("invalid rules: %s", strings.Join(issues, "; "))
	}

	rules := session.RuleSet{Category: def.Category}

	if def.PlayersPerMatch == nil {
		if defaultGroupSize < 1 || defaultGroupSize > 255 {
			return session.RuleSet{}, fmt.Errorf(
				"rules for %s omit players_per_match and the configured group size %d cannot stand in",
				def.Category, defaultGroupSize)
		}
		size := uint8(defaultGroupSize)
		rules.PlayersPerMatch = [2]uint8{size, size}
	} else {
		minPlayers, maxPlayers := def.PlayersPerMatch[0], def.PlayersPerMatch[1]
		if maxPlayers > 255 {
			return session.RuleSet{}, fmt.Errorf(
				"rules for %s: players_per_match max %d exceeds 255", def.Category, maxPlayers)
		}
		rules.PlayersPerMatch = [2]uint8{uint8(minPlayers), uint8(maxPlayers)}
	}

	if len(def.Params) > 0 {
		rules.Params = make(map[string]any, len(def.Params))
		for name, raw := range def.Params {
			var value any
			if err := json.Unmarshal(raw, &value); err != nil {
				return session.RuleSet{}, fmt.Errorf("rules for %s: params[%q]: %w", def.Category, name, err)
			}
			rules.Params[name] = value
		}
	}

	if err := rules.Validate(); err != nil {
		return session.RuleSet{}, err
	}
	return rules, nil
}
