// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/flate"
)

func sampleEntries() map[string][]byte {
	return map[string][]byte{
		"data.json":    []byte(`{"objects":{}}`),
		"images/a.png": {0x89, 0x50, 0x4e, 0x47, 0x00, 0x01, 0x02},
		"empty.bin":    {},
	}
}

func TestPackUnpackRoundtrip(t *testing.T) {
	entries := sampleEntries()

	packed, err := Pack(entries, nil, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	unpacked, err := Unpack(packed)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	if len(unpacked) != len(entries) {
		t.Fatalf("unpacked %d entries, want %d", len(unpacked), len(entries))
	}
	for name, content := range entries {
		got, ok := unpacked[name]
		if !ok {
			t.Errorf("entry %q missing after roundtrip", name)
			continue
		}
		if !bytes.Equal(got, content) {
			t.Errorf("entry %q content mismatch: got %d bytes, want %d", name, len(got), len(content))
		}
	}
}

func TestPackDeterministic(t *testing.T) {
	entries := sampleEntries()

	first, err := Pack(entries, nil, flate.BestCompression)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	second, err := Pack(entries, nil, flate.BestCompression)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("packing the same mapping twice produced different bytes")
	}
}

func TestPackExplicitOrder(t *testing.T) {
	entries := map[string][]byte{
		"b": []byte("bee"),
		"a": []byte("ay"),
	}

	packed, err := Pack(entries, []string{"b", "a"}, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	sorted, err := Pack(entries, nil, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	// Different entry order must change the container layout.
	if bytes.Equal(packed, sorted) {
		t.Error("explicit reversed order produced the same bytes as sorted order")
	}

	unpacked, err := Unpack(packed)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if string(unpacked["a"]) != "ay" || string(unpacked["b"]) != "bee" {
		t.Errorf("roundtrip with explicit order lost content: %v", unpacked)
	}
}

func TestPackOrderUnknownEntry(t *testing.T) {
	_, err := Pack(map[string][]byte{"a": nil}, []string{"a", "missing"}, flate.DefaultCompression)
	if err == nil {
		t.Fatal("Pack with an order naming an unknown entry should fail")
	}
}

func TestUnpackRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("this is not a zip container")},
		{"truncated magic", []byte{0x50, 0x4b, 0x03}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Unpack(test.data)
			if err == nil {
				t.Fatal("Unpack should fail")
			}
			if !errors.Is(err, ErrNotArchive) {
				t.Errorf("error %v should wrap ErrNotArchive", err)
			}
		})
	}
}
