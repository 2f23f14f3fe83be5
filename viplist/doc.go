// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package viplist stores the VIP records served by the HTTP API. The
// working set lives in memory; every mutation writes a full snapshot
// to disk (CBOR, LZ4-compressed, optionally encrypted at rest) with an
// atomic temp-file-and-rename so a crash never leaves a torn file.
package viplist
