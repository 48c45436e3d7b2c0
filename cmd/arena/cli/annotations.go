// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package cli

// ToolAnnotations describes behavioral properties of a CLI command.
// Wrappers that drive the CLI programmatically use these to decide
// which commands are safe to call without confirmation and which can
// be retried; the command tree lint test uses them to keep metadata
// complete.
//
// All fields are pointers. A nil field means "unspecified" — consumers
// apply their own conservative defaults (not read-only, destructive,
// not idempotent).
//
// Command authors should set Annotations on every service-facing
// command using one of the preset constructors: [ReadOnly],
// [Idempotent], [Create], or [Destructive].
type ToolAnnotations struct {
	// ReadOnly is true when the command only reads state and never
	// modifies it.
	ReadOnly *bool

	// Destructive is true when the command may irreversibly remove
	// or damage data.
	Destructive *bool

	// Idempotent is true when repeated calls with identical arguments
	// produce the same result. Idempotent commands can be safely
	// retried on transient failures.
	Idempotent *bool
}

// ReadOnly returns annotations for commands that query state without
// modifying it: status, show, list, inspect, watch.
func ReadOnly() *ToolAnnotations {
	return &ToolAnnotations{
		ReadOnly:    boolPtr(true),
		Destructive: boolPtr(false),
		Idempotent:  boolPtr(true),
	}
}

// Idempotent returns annotations for commands that modify state but
// converge to the same result when called repeatedly with identical
// arguments: drop, ready, finish, set-rules, revoke.
func Idempotent() *ToolAnnotations {
	return &ToolAnnotations{
		ReadOnly:    boolPtr(false),
		Destructive: boolPtr(false),
		Idempotent:  boolPtr(true),
	}
}

// Create returns annotations for commands that create new resources
// or produce side effects that accumulate on repeated calls: queue
// join, acknowledge, token mint, key backup.
func Create() *ToolAnnotations {
	return &ToolAnnotations{
		ReadOnly:    boolPtr(false),
		Destructive: boolPtr(false),
		Idempotent:  boolPtr(false),
	}
}

// Destructive returns annotations for commands that irreversibly
// remove or overwrite resources: compact, key restore.
func Destructive() *ToolAnnotations {
	return &ToolAnnotations{
		ReadOnly:    boolPtr(false),
		Destructive: boolPtr(true),
		Idempotent:  boolPtr(false),
	}
}

func boolPtr(value bool) *bool {
	return &value
}
