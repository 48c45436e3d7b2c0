// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package glob matches slash-separated names against glob patterns.
// It backs grant checks in service tokens: action paths such as
// "session/queue" are matched against grant patterns such as
// "session/*" or "session/**".
package glob

import (
	"path"
	"strings"
)

// MatchPattern checks whether a slash-separated name matches a glob
// pattern:
//
//   - Exact match: "session/queue" matches only "session/queue"
//   - Single-segment wildcard: "session/*" matches "session/queue" but
//     not "session/admin/compact"
//   - Recursive wildcard: "session/**" matches "session/queue",
//     "session/admin/compact", etc.
//   - Universal: "**" matches any name
//   - Interior recursive: "session/**/read" matches "session/read",
//     "session/admin/read", etc.
//   - Character wildcards: "?" matches a single non-slash character
//
// Wildcards in * and ? work in all positions, including around **. The
// single-segment wildcard "*" does not match "/" — this is the standard
// path.Match behavior and matches the gitignore convention. Use "**" to
// match across hierarchy boundaries.
//
// Returns false for malformed patterns (unmatched brackets, etc.) rather
// than propagating errors — a malformed pattern should never grant access.
func MatchPattern(pattern, name string) bool {
	// Universal match.
	if pattern == "**" {
		return true
	}

	// No ** in the pattern — delegate to path.Match which handles
	// single-segment * and ? correctly (not matching /).
	if !strings.Contains(pattern, "**") {
		matched, err := path.Match(pattern, name)
		if err != nil {
			// Malformed pattern — deny.
			return false
		}
		return matched
	}

	// Pattern contains **. Handle the three cases: suffix, prefix, interior.

	// Suffix: "session/**" or "team-*/**" — match the prefix (with glob
	// wildcards), then anything after.
	if strings.HasSuffix(pattern, "/**") {
		prefix := pattern[:len(pattern)-3]
		// ** matches zero additional segments: entire name is the prefix.
		if matchGlob(prefix, name) {
			return true
		}
		// ** matches one or more additional segments.
		return hasMatchingPrefix(prefix, name)
	}

	// Prefix: "**/read" or "**/queue-*" — match anything before, then the
	// suffix (with glob wildcards).
	if strings.HasPrefix(pattern, "**/") {
		suffix := pattern[3:]
		// ** matches zero additional segments: entire name is the suffix.
		if matchGlob(suffix, name) {
			return true
		}
		// ** matches one or more additional segments.
		return hasMatchingSuffix(suffix, name)
	}

	// Interior: "session/**/read" or "team-*/**/slot-?" — split on the
	// first /**, match prefix and suffix independently with glob wildcards.
	separatorIndex := strings.Index(pattern, "/**/")
	if separatorIndex >= 0 {
		prefix := pattern[:separatorIndex]
		suffix := pattern[separatorIndex+4:]

		// Zero-segment case: ** matches nothing, prefix and suffix
		// are adjacent. "session/**/read" matches "session/read".
		if matchGlob(prefix+"/"+suffix, name) {
			return true
		}

		// Multi-segment case: prefix matches the start, suffix matches
		// the end, with at least one segment between for ** to consume.
		prefixDepth := strings.Count(prefix, "/") + 1
		suffixDepth := strings.Count(suffix, "/") + 1
		segments := strings.Split(name, "/")

		if len(segments) < prefixDepth+1+suffixDepth {
			return false
		}

		prefixCandidate := strings.Join(segments[:prefixDepth], "/")
		if !matchGlob(prefix, prefixCandidate) {
			return false
		}

		suffixCandidate := strings.Join(segments[len(segments)-suffixDepth:], "/")
		if !matchGlob(suffix, suffixCandidate) {
			return false
		}

		// Verify segments consumed by ** are all non-empty (reject
		// names with consecutive slashes between prefix and suffix).
		for _, segment := range segments[prefixDepth : len(segments)-suffixDepth] {
			if segment == "" {
				return false
			}
		}
		return true
	}

	// Multiple ** segments or other complex patterns — not supported.
	// Deny by default.
	return false
}

// matchGlob matches a pattern against a string using path.Match semantics
// (wildcards * and ? do not cross / boundaries). Returns false for
// malformed patterns.
func matchGlob(pattern, s string) bool {
	matched, err := path.Match(pattern, s)
	return err == nil && matched
}

// hasMatchingPrefix reports whether the name starts with segments that
// match the given glob pattern, with at least one additional segment
// after the matched portion. The pattern's depth (number of /-separated
// segments) determines how many leading segments of the name are tested.
func hasMatchingPrefix(pattern, name string) bool {
	depth := strings.Count(pattern, "/") + 1
	segments := strings.SplitN(name, "/", depth+1)
	if len(segments) <= depth {
		return false
	}
	candidate := strings.Join(segments[:depth], "/")
	return matchGlob(pattern, candidate)
}

// hasMatchingSuffix reports whether the name ends with segments that
// match the given glob pattern, with at least one additional segment
// before the matched portion.
func hasMatchingSuffix(pattern, name string) bool {
	depth := strings.Count(pattern, "/") + 1
	segments := strings.Split(name, "/")
	if len(segments) <= depth {
		return false
	}
	candidate := strings.Join(segments[len(segments)-depth:], "/")
	return matchGlob(pattern, candidate)
}

// MatchAnyPattern checks whether a name matches any of the given glob
// patterns. Returns true on the first match. Returns false if the
// patterns slice is empty (default-deny).
func MatchAnyPattern(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if MatchPattern(pattern, name) {
			return true
		}
	}
	return false
}
