// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package rulesdef provides parsing and validation for per-category
// rule documents. Rules describe how matches in a game category are
// meant to be played (player counts, free-form game parameters); the
// service stores and serves them for clients and tooling but never
// consults them when forming matches.
//
// Rule documents are authored on disk as JSONC files (JSON extended
// with comments and trailing commas) and stored as compact JSON. This
// package handles both formats.
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → RuleSet
//  2. Validate: structural checks (category present, player bounds ordered)
//  3. Encode: compact JSON for storage and serving
package rulesdef

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/arena-foundation/arena/lib/ref"
)

// RuleSet is one category's rule document.
type RuleSet struct {
	// Category is the game category the rules apply to.
	Category ref.GameCategory `json:"category"`

	// PlayersPerMatch is the inclusive [min, max] player count range,
	// when declared. Purely descriptive: match formation uses the
	// service's configured group size regardless.
	PlayersPerMatch []int `json:"players_per_match,omitempty"`

	// Params holds free-form game parameters (map pools, round
	// counts, whatever the game defines). Values are kept as raw JSON
	// and never interpreted by the service.
	Params map[string]json.RawMessage `json:"params,omitempty"`

	// Notes is optional free-text for operators.
	Notes string `json:"notes,omitempty"`
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a RuleSet. The input format is the same
// JSON the service stores, extended with // line comments, /* block
// comments */, and trailing commas.
func Parse(data []byte) (*RuleSet, error) {
	stripped := jsonc.ToJSON(data)

	var rules RuleSet
	if err := json.Unmarshal(stripped, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}

	return &rules, nil
}

// ReadFile reads a JSONC rules file from disk and parses it into a
// RuleSet. Returns a descriptive error if the file cannot be read or
// the JSON is malformed.
func ReadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rules, nil
}

// Encode serializes a RuleSet as compact JSON, the form the service
// stores and serves back to clients.
func (r *RuleSet) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding rules for %s: %w", r.Category, err)
	}
	return data, nil
}
