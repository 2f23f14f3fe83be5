// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive packs and unpacks the zip containers used by plate
// templates and generated batches. Both directions operate on in-memory
// byte buffers and entry maps — nothing touches the filesystem.
//
// Packing is deterministic so that repeated runs over identical inputs
// produce byte-identical containers: entry metadata is fixed and entry
// order is explicit (or sorted when the caller has no ordering
// requirement). Entries are compressed with raw deflate via
// klauspost/compress, which is format-compatible with archive/zip.
package archive
