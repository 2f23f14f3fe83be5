// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/tidwall/jsonc"
)

// pools.jsonc is authored with comments; jsonc.ToJSON strips them
// before decoding.
//
//go:embed pools.jsonc
var poolsJSONC []byte

// namePools holds the built-in first and last name pools sampled in
// random mode.
type namePools struct {
	First []string `json:"first"`
	Last  []string `json:"last"`
}

var pools = mustLoadPools()

func mustLoadPools() namePools {
	var loaded namePools
	if err := json.Unmarshal(jsonc.ToJSON(poolsJSONC), &loaded); err != nil {
		panic("batch: embedded name pools are malformed: " + err.Error())
	}
	if len(loaded.First) == 0 || len(loaded.Last) == 0 {
		panic("batch: embedded name pools are empty")
	}
	return loaded
}

// Record holds the per-unit field values fed into layer substitution.
// Records are ephemeral — they exist only to produce one output entry.
type Record struct {
	// FullName is first + last joined by a single space, trimmed.
	FullName string

	// Serial is a dash-delimited identifier: 451-XXX-YYY with
	// zero-padded three-digit segments.
	Serial string

	// DateText is the batch's configured date value, shared by every
	// unit.
	DateText string

	// Receipt is an alphanumeric token: NSU-RCPT-NNNNNNF with a
	// zero-padded six-digit core.
	Receipt string
}

// Generator produces per-unit records. Randomness does not need to be
// cryptographically strong; a seeded source makes tests deterministic.
type Generator struct {
	random *rand.Rand
}

// NewGenerator creates a generator. A nil random falls back to a
// time-seeded source.
func NewGenerator(random *rand.Rand) *Generator {
	if random == nil {
		now := uint64(time.Now().UnixNano())
		random = rand.New(rand.NewPCG(now, now>>32))
	}
	return &Generator{random: random}
}

// Next produces the field values for one unit.
func (g *Generator) Next(options Options) Record {
	first := g.pickName(options.FirstNameMode, options.FixedFirstName, pools.First)
	last := g.pickName(options.LastNameMode, lastNameOrDefault(options.FixedLastName), pools.Last)

	return Record{
		FullName: strings.TrimSpace(first + " " + last),
		Serial:   fmt.Sprintf("451-%03d-%03d", g.random.IntN(1000), g.random.IntN(1000)),
		DateText: options.dateText(),
		Receipt:  fmt.Sprintf("NSU-RCPT-%06dF", g.random.IntN(1000000)),
	}
}

func lastNameOrDefault(fixed string) string {
	if strings.TrimSpace(fixed) == "" {
		return DefaultLastName
	}
	return fixed
}

// pickName resolves one name field: fixed values are title-cased,
// random values are sampled from the pool as stored.
func (g *Generator) pickName(mode NameMode, fixed string, pool []string) string {
	if mode == ModeFixed {
		return titleCase(fixed)
	}
	return pool[g.random.IntN(len(pool))]
}

// titleCase uppercases the first character and lowercases the rest of
// every whitespace-delimited word.
func titleCase(value string) string {
	words := strings.Fields(value)
	for index, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[index] = string(runes)
	}
	return strings.Join(words, " ")
}
