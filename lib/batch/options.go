// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package batch

// NameMode selects how a name field is filled per unit.
type NameMode string

const (
	// ModeRandom samples uniformly from the built-in name pool,
	// independently per unit, with replacement. Repeats across units
	// are intended behavior — filename suffixing covers collisions.
	ModeRandom NameMode = "random"

	// ModeFixed uses the configured fixed value, title-cased.
	ModeFixed NameMode = "fixed"
)

// DefaultDateText is the date-layer value used when a batch does not
// configure one.
const DefaultDateText = "01/01/2030"

// DefaultLastName is used in fixed mode when no last name value was
// configured.
const DefaultLastName = "Ahmed"

// Options describes one batch job. Created at job submission, immutable
// for the duration of the run, discarded afterwards.
//
// Count bounds (1–200, further capped by deployment configuration) are
// enforced by whoever collects the options — the chat front-end or the
// CLI — not here.
type Options struct {
	// Count is the number of units to generate.
	Count int

	// FirstNameMode and FixedFirstName control the first-name field.
	FirstNameMode  NameMode
	FixedFirstName string

	// LastNameMode and FixedLastName control the last-name field.
	// An empty FixedLastName in fixed mode falls back to
	// DefaultLastName.
	LastNameMode  NameMode
	FixedLastName string

	// DateText is used verbatim for the date layer of every unit in
	// the batch. Empty means DefaultDateText.
	DateText string
}

// dateText returns the configured date-layer value with the default
// applied.
func (o Options) dateText() string {
	if o.DateText == "" {
		return DefaultDateText
	}
	return o.DateText
}
