// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"fmt"
	"strings"
)

// Extension is the filename extension of generated plate archives.
const Extension = ".plp"

// maxBaseLength caps the sanitized base name at 80 characters.
const maxBaseLength = 80

// AllocateFilename derives a filesystem-safe output name from a unit's
// full name and guarantees uniqueness within the batch by suffixing
// _2, _3, … before the extension. The chosen name is recorded in used.
//
// Must be called sequentially within one batch — used is shared
// mutable state and the suffix chosen depends on prior allocations.
func AllocateFilename(fullName string, used map[string]bool) string {
	base := sanitizeFilename(fullName)

	candidate := base + Extension
	for suffix := 2; used[candidate]; suffix++ {
		candidate = fmt.Sprintf("%s_%d%s", base, suffix, Extension)
	}
	used[candidate] = true
	return candidate
}

// sanitizeFilename strips filesystem-reserved characters, collapses
// whitespace runs to single spaces, trims, falls back to "output" when
// nothing remains, and truncates to 80 characters.
func sanitizeFilename(name string) string {
	var builder strings.Builder
	for _, character := range name {
		if strings.ContainsRune(`\/:*?"<>|`, character) {
			continue
		}
		builder.WriteRune(character)
	}

	cleaned := strings.Join(strings.Fields(builder.String()), " ")
	if cleaned == "" {
		return "output"
	}

	runes := []rune(cleaned)
	if len(runes) > maxBaseLength {
		return string(runes[:maxBaseLength])
	}
	return cleaned
}
