// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for Arena components.
//
// Configuration comes from exactly one file, named either by the
// ARENA_CONFIG environment variable (via [Load]) or by a --config
// flag (via [LoadFile]). There is no ~/.config discovery and no
// search path: a component's effective configuration is always
// auditable from the one file it was pointed at.
//
// The file supports environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches.
//
// After loading, path fields undergo variable expansion: ${HOME},
// ${ARENA_ROOT}, and ${VAR:-default}. Nothing else in the process
// environment overrides config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Service, Matching, Archive
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends only on lib/ref (admin handle validation).
package config
