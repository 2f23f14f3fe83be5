// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// ErrNotArchive indicates that a byte buffer is not a valid zip
// container. Callers use errors.Is to distinguish malformed input
// from I/O failures.
var ErrNotArchive = errors.New("not a zip container")

// Unpack decodes a zip container into a mapping of entry name to
// entry content. Directory entries are skipped. Returns ErrNotArchive
// (wrapped) when the buffer is not a zip container or an entry's
// compressed stream is corrupt.
func Unpack(data []byte) (map[string][]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("archive: %w: %v", ErrNotArchive, err)
	}

	entries := make(map[string][]byte, len(reader.File))
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		content, err := readEntry(file)
		if err != nil {
			return nil, fmt.Errorf("archive: entry %q: %w: %v", file.Name, ErrNotArchive, err)
		}
		entries[file.Name] = content
	}
	return entries, nil
}

func readEntry(file *zip.File) ([]byte, error) {
	entryReader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer entryReader.Close()
	return io.ReadAll(entryReader)
}

// Pack encodes a mapping of entry name to entry content into a zip
// container with raw-deflate entries at the given flate level.
//
// The output is deterministic: entry metadata is fixed (zero
// modification time, mode 0644) and entries are written in the given
// order. A nil order writes entries in sorted-name order. Packing the
// same mapping with the same order and level twice yields byte-identical
// output.
func Pack(entries map[string][]byte, order []string, level int) ([]byte, error) {
	if order == nil {
		order = make([]string, 0, len(entries))
		for name := range entries {
			order = append(order, name)
		}
		sort.Strings(order)
	}

	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	writer.RegisterCompressor(zip.Deflate, func(output io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(output, level)
	})

	for _, name := range order {
		content, ok := entries[name]
		if !ok {
			return nil, fmt.Errorf("archive: pack order references unknown entry %q", name)
		}

		header := &zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		}
		header.SetMode(0o644)

		entryWriter, err := writer.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("archive: creating entry %q: %w", name, err)
		}
		if _, err := entryWriter.Write(content); err != nil {
			return nil, fmt.Errorf("archive: writing entry %q: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("archive: finalizing container: %w", err)
	}
	return buffer.Bytes(), nil
}
