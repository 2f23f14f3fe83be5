// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package descriptor parses and mutates the JSON document embedded in a
// plate template archive. The document is an arbitrary nested tree; this
// package interprets only the parts substitution needs — the "objects"
// bundle, the four required text layers, their text fields, and the
// interval records under each layer's auxiliary maps.
//
// The flow per generated unit is Parse once (on the template), Clone per
// unit, Substitute per layer, Marshal. Clones are fully independent deep
// copies, so per-unit mutation never leaks across units.
package descriptor
