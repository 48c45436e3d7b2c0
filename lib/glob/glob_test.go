// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package glob

import "testing"

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    bool
	}{
		// Exact matches.
		{"exact match", "session/queue", "session/queue", true},
		{"exact mismatch", "session/queue", "session/drop", false},
		{"exact with slashes", "session/admin/compact", "session/admin/compact", true},
		{"exact with slashes mismatch", "session/admin/compact", "session/admin/rules", false},

		// Universal match.
		{"double star matches anything", "**", "session/queue", true},
		{"double star matches nested", "**", "session/admin/compact", true},
		{"double star matches deeply nested", "**", "a/b/c/d/e", true},

		// Single-segment wildcard (does not cross /).
		{"star matches single segment", "session/*", "session/queue", true},
		{"star does not cross slash", "session/*", "session/admin/compact", false},
		{"star at end", "archive/*", "archive/seal", true},
		{"star in middle", "session/*/read", "session/admin/read", true},
		{"star in middle no match", "session/*/read", "session/admin/rules", false},
		{"star in middle too deep", "session/*/read", "session/admin/sub/read", false},

		// Suffix double star: "prefix/**".
		{"suffix doublestar matches child", "session/**", "session/queue", true},
		{"suffix doublestar matches grandchild", "session/**", "session/admin/compact", true},
		{"suffix doublestar matches deep", "session/**", "session/admin/sub/deep", true},
		{"suffix doublestar matches exact prefix", "session/**", "session", true},
		{"suffix doublestar no match different prefix", "session/**", "archive/seal", false},
		{"suffix doublestar no match partial prefix", "session/**", "sessions/queue", false},
		{"suffix doublestar multi-level prefix", "session/admin/**", "session/admin/compact", true},
		{"suffix doublestar multi-level prefix deep", "session/admin/**", "session/admin/sub/compact", true},
		{"suffix doublestar multi-level prefix no match", "session/admin/**", "session/read/compact", false},

		// Prefix double star: "**/suffix".
		{"prefix doublestar matches child", "**/read", "session/read", true},
		{"prefix doublestar matches grandchild", "**/read", "session/admin/read", true},
		{"prefix doublestar matches exact", "**/read", "read", true},
		{"prefix doublestar no match", "**/read", "session/rules", false},
		{"prefix doublestar multi-level suffix", "**/admin/read", "session/admin/read", true},

		// Interior double star: "prefix/**/suffix".
		{"interior doublestar zero segments", "session/**/read", "session/read", true},
		{"interior doublestar one segment", "session/**/read", "session/admin/read", true},
		{"interior doublestar two segments", "session/**/read", "session/admin/sub/read", true},
		{"interior doublestar no match suffix", "session/**/read", "session/admin/rules", false},
		{"interior doublestar no match prefix", "session/**/read", "archive/admin/read", false},
		{"interior doublestar rejects empty segment", "session/**/read", "session//read", false},

		// Question mark wildcard.
		{"question mark matches single char", "session/ready?", "session/ready2", true},
		{"question mark does not match slash", "session?queue", "session/queue", false},
		{"question mark too short", "session/read?", "session/read", false},

		// Edge cases.
		{"empty pattern", "", "", true},
		{"empty pattern nonempty input", "", "x", false},
		{"empty input nonempty pattern", "x", "", false},
		{"malformed bracket pattern denies", "[invalid", "x", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := MatchPattern(test.pattern, test.input)
			if got != test.want {
				t.Errorf("MatchPattern(%q, %q) = %v, want %v",
					test.pattern, test.input, got, test.want)
			}
		})
	}
}

func TestMatchAnyPattern(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		input    string
		want     bool
	}{
		{
			"empty patterns denies",
			nil,
			"session/queue",
			false,
		},
		{
			"single exact match",
			[]string{"session/queue"},
			"session/queue",
			true,
		},
		{
			"no match in list",
			[]string{"session/read", "session/watch"},
			"session/admin",
			false,
		},
		{
			"second pattern matches",
			[]string{"session/read", "session/watch"},
			"session/watch",
			true,
		},
		{
			"multiple patterns first wins",
			[]string{"**", "session/**"},
			"anything/at/all",
			true,
		},
		{
			"realistic executor grant set",
			[]string{"session/acknowledge", "session/ready", "session/finish", "session/read"},
			"session/ready",
			true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := MatchAnyPattern(test.patterns, test.input)
			if got != test.want {
				t.Errorf("MatchAnyPattern(%v, %q) = %v, want %v",
					test.patterns, test.input, got, test.want)
			}
		})
	}
}
