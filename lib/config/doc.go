// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for Plateforge
// binaries.
//
// Configuration is loaded from a single file specified by either the
// PLATEFORGE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks, no ~/.config
// discovery, and no automatic file search — deterministic, auditable
// configuration with no hidden overrides.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
package config
