// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package batch generates customized plate archives in bulk.
//
// One batch run fetches the template archive once, validates its
// embedded descriptor, then produces one archive variant per requested
// unit: the descriptor is deep-cloned, the four text layers are
// substituted with per-unit values (full name, serial, date text,
// receipt token), and the variant is repacked alongside the template's
// untouched payload entries. All variants are bundled into a single
// outer archive with collision-free filenames.
//
// The pipeline is strictly sequential — filename deduplication and
// progress cadence depend on unit order. Concurrency happens across
// independent batch jobs, each with fully local mutable state.
//
// Failures surface as two typed errors: [*TemplateFetchError] for an
// unreachable or unconfigured template source, [*FormatError] for a
// template that is not a valid archive or whose descriptor is missing
// or incomplete. No partial output is ever returned.
package batch
