// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/plateforge/plateforge/lib/archive"
	"github.com/plateforge/plateforge/lib/descriptor"
)

// preferredDescriptorName is checked first when locating the
// descriptor entry. Templates exported by the plate application name
// it this way; older exports use other names, so a *.json scan is the
// fallback.
const preferredDescriptorName = "data.json"

// ProgressFunc receives human-readable status messages at a bounded
// cadence during a batch run. Invocations are best-effort: a returned
// error is logged and ignored, never aborting the run.
type ProgressFunc func(ctx context.Context, message string) error

// BatcherConfig configures a Batcher.
type BatcherConfig struct {
	// TemplateURL is the template source location. Leaving it empty
	// makes every Generate call fail with a *TemplateFetchError.
	TemplateURL string

	// Fetcher retrieves the template bytes. Defaults to an
	// HTTPFetcher over http.DefaultClient.
	Fetcher TemplateFetcher

	// CompressionLevel is the flate level for generated archives,
	// passed through as-is (0 stores entries uncompressed; -1 is the
	// flate default level).
	CompressionLevel int

	// Random overrides the record generator's randomness source.
	// Tests inject a seeded source; nil means time-seeded.
	Random *rand.Rand

	// Logger is the structured logger. Nil means slog.Default().
	Logger *slog.Logger
}

// Batcher runs batch generation jobs. One Batcher may serve many
// concurrent jobs — all per-job mutable state lives inside Generate.
type Batcher struct {
	templateURL string
	fetcher     TemplateFetcher
	level       int
	random      *rand.Rand
	logger      *slog.Logger
}

// NewBatcher creates a Batcher from config.
func NewBatcher(config BatcherConfig) *Batcher {
	fetcher := config.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(nil, config.Logger)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Batcher{
		templateURL: config.TemplateURL,
		fetcher:     fetcher,
		level:       config.CompressionLevel,
		random:      config.Random,
		logger:      logger,
	}
}

// Generate runs one batch job: fetch the template, validate it,
// generate options.Count unit archives, and pack them into one outer
// archive. Progress messages are emitted on the first unit, the last
// unit, every multiple of max(1, count/10) units, and once more
// immediately before the final packing step.
//
// On failure nothing is returned — partially generated output is
// discarded. Failures are *TemplateFetchError, *FormatError, or a
// plain error for internal packing problems.
func (b *Batcher) Generate(ctx context.Context, options Options, progress ProgressFunc) ([]byte, error) {
	if strings.TrimSpace(b.templateURL) == "" {
		return nil, &TemplateFetchError{Err: errors.New("template source location is not configured")}
	}

	templateData, err := b.fetcher.Fetch(ctx, b.templateURL)
	if err != nil {
		return nil, &TemplateFetchError{URL: b.templateURL, Err: err}
	}

	digest := blake3.Sum256(templateData)
	b.logger.Info("template fetched",
		"url", b.templateURL,
		"bytes", len(templateData),
		"digest", hex.EncodeToString(digest[:8]),
	)

	templateEntries, err := archive.Unpack(templateData)
	if err != nil {
		return nil, &FormatError{Reason: "unpacking template archive", Err: err}
	}

	descriptorName, descriptorBytes, err := findDescriptor(templateEntries)
	if err != nil {
		return nil, &FormatError{Reason: "locating descriptor entry", Err: err}
	}

	base, err := descriptor.Parse(descriptorBytes)
	if err != nil {
		return nil, &FormatError{Reason: "parsing descriptor entry", Err: err}
	}
	if err := base.ValidateLayers(); err != nil {
		return nil, &FormatError{Reason: "validating descriptor layers", Err: err}
	}

	count := options.Count
	progressStep := count / 10
	if progressStep < 1 {
		progressStep = 1
	}

	generator := NewGenerator(b.random)
	used := make(map[string]bool, count)
	outputs := make(map[string][]byte, count)
	order := make([]string, 0, count)

	for unit := 1; unit <= count; unit++ {
		record := generator.Next(options)

		packed, err := b.generateUnit(base, templateEntries, descriptorName, record)
		if err != nil {
			return nil, err
		}

		filename := AllocateFilename(record.FullName, used)
		outputs[filename] = packed
		order = append(order, filename)

		if unit == 1 || unit == count || unit%progressStep == 0 {
			b.emitProgress(ctx, progress, fmt.Sprintf("generated %d of %d units", unit, count))
		}
	}

	b.emitProgress(ctx, progress, "packing output archive")

	result, err := archive.Pack(outputs, order, b.level)
	if err != nil {
		return nil, fmt.Errorf("packing output archive: %w", err)
	}

	b.logger.Info("batch complete", "units", count, "bytes", len(result))
	return result, nil
}

// generateUnit produces one packed unit archive: clone the validated
// descriptor, substitute the four layers with the record's values, and
// repack with the template's payload entries untouched.
func (b *Batcher) generateUnit(base *descriptor.Descriptor, templateEntries map[string][]byte, descriptorName string, record Record) ([]byte, error) {
	clone := base.Clone()

	substitutions := []struct {
		layer string
		text  string
	}{
		{descriptor.RequiredLayers[0], record.FullName},
		{descriptor.RequiredLayers[1], record.Serial},
		{descriptor.RequiredLayers[2], record.DateText},
		{descriptor.RequiredLayers[3], record.Receipt},
	}
	for _, substitution := range substitutions {
		if err := clone.Substitute(substitution.layer, substitution.text); err != nil {
			// Presence was validated before the unit loop, so this
			// indicates the descriptor changed shape mid-run.
			return nil, &FormatError{Reason: "substituting layer text", Err: err}
		}
	}

	serialized, err := clone.Marshal()
	if err != nil {
		return nil, fmt.Errorf("serializing unit descriptor: %w", err)
	}

	// Payload entries are immutable and shared by reference across
	// units; only the descriptor entry's bytes differ per unit.
	unitEntries := make(map[string][]byte, len(templateEntries))
	for name, content := range templateEntries {
		unitEntries[name] = content
	}
	unitEntries[descriptorName] = serialized

	packed, err := archive.Pack(unitEntries, nil, b.level)
	if err != nil {
		return nil, fmt.Errorf("packing unit archive: %w", err)
	}
	return packed, nil
}

// findDescriptor locates the descriptor entry: the preferred name when
// present, otherwise the lexicographically first *.json entry.
func findDescriptor(entries map[string][]byte) (string, []byte, error) {
	if content, ok := entries[preferredDescriptorName]; ok {
		return preferredDescriptorName, content, nil
	}

	var candidates []string
	for name := range entries {
		if strings.HasSuffix(strings.ToLower(name), ".json") {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", nil, errors.New("no descriptor (*.json) entry present")
	}
	sort.Strings(candidates)
	return candidates[0], entries[candidates[0]], nil
}

func (b *Batcher) emitProgress(ctx context.Context, progress ProgressFunc, message string) {
	if progress == nil {
		return
	}
	if err := progress(ctx, message); err != nil {
		b.logger.Warn("progress sink failed", "error", err)
	}
}
