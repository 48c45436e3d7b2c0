// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strconv"
	"strings"
)

// GameCategory identifies a (game, version) pair: which game a
// session plays and which revision of its rules. Categories key the
// session queues and the stored rule sets. The canonical text form is
// "g<game>v<version>", e.g. "g1v1".
//
// Game numbers start at 1, so the zero value is never a valid
// category; use IsZero to check. Versions may be 0 (a game's
// pre-release rules).
type GameCategory struct {
	game    uint8
	version uint8
}

// NewGameCategory creates a validated category. The game number must
// be at least 1.
func NewGameCategory(game, version uint8) (GameCategory, error) {
	if game == 0 {
		return GameCategory{}, fmt.Errorf("invalid game category: game number 0 is reserved")
	}
	return GameCategory{game: game, version: version}, nil
}

// ParseGameCategory parses the canonical "g<game>v<version>" form.
func ParseGameCategory(raw string) (GameCategory, error) {
	rest, ok := strings.CutPrefix(raw, "g")
	if !ok {
		return GameCategory{}, fmt.Errorf("invalid game category %q: want g<game>v<version>", raw)
	}
	gameText, versionText, ok := strings.Cut(rest, "v")
	if !ok {
		return GameCategory{}, fmt.Errorf("invalid game category %q: want g<game>v<version>", raw)
	}
	game, err := parseCategoryNumber(gameText)
	if err != nil {
		return GameCategory{}, fmt.Errorf("invalid game category %q: game: %w", raw, err)
	}
	version, err := parseCategoryNumber(versionText)
	if err != nil {
		return GameCategory{}, fmt.Errorf("invalid game category %q: version: %w", raw, err)
	}
	return NewGameCategory(game, version)
}

// parseCategoryNumber parses a decimal uint8 with no sign, no
// leading zeros, and no stray characters.
func parseCategoryNumber(text string) (uint8, error) {
	if text == "" {
		return 0, fmt.Errorf("empty number")
	}
	if len(text) > 1 && text[0] == '0' {
		return 0, fmt.Errorf("leading zero in %q", text)
	}
	n, err := strconv.ParseUint(text, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", text, err)
	}
	return uint8(n), nil
}

// MustParseGameCategory is like ParseGameCategory but panics on
// error. Use in tests and static initialization.
func MustParseGameCategory(raw string) GameCategory {
	c, err := ParseGameCategory(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseGameCategory(%q): %v", raw, err))
	}
	return c
}

// String returns the canonical form ("g1v1"), or "" for the zero
// value.
func (c GameCategory) String() string {
	if c.IsZero() {
		return ""
	}
	return "g" + strconv.Itoa(int(c.game)) + "v" + strconv.Itoa(int(c.version))
}

// Game returns the game number. Panics on the zero value.
func (c GameCategory) Game() uint8 {
	if c.IsZero() {
		panic("GameCategory.Game called on zero value")
	}
	return c.game
}

// Version returns the rules version. Panics on the zero value.
func (c GameCategory) Version() uint8 {
	if c.IsZero() {
		panic("GameCategory.Version called on zero value")
	}
	return c.version
}

// IsZero reports whether the GameCategory is the zero value.
func (c GameCategory) IsZero() bool { return c.game == 0 }

// MarshalText implements encoding.TextMarshaler using the canonical
// form.
func (c GameCategory) MarshalText() ([]byte, error) {
	if c.IsZero() {
		return nil, nil
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset category).
func (c *GameCategory) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*c = GameCategory{}
		return nil
	}
	parsed, err := ParseGameCategory(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
