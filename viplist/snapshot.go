// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package viplist

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/plateforge/plateforge/lib/codec"
	"github.com/plateforge/plateforge/lib/secret"
)

// Snapshot file framing. These values are format constants — changing
// them makes existing snapshot files unreadable.
var (
	// magicPlain opens an unencrypted snapshot file.
	magicPlain = []byte("PFVL")

	// magicSealed opens an encrypted snapshot file.
	magicSealed = []byte("PFVS")
)

// Compression tags stored in the snapshot header (1 byte).
const (
	compressionNone byte = 0
	compressionLZ4  byte = 1
)

// plainHeaderSize is magic (4) + compression tag (1) + uncompressed
// size (4, little-endian).
const plainHeaderSize = 4 + 1 + 4

// hkdfInfoSnapshot is the HKDF info string deriving the snapshot
// encryption key from the admin secret. Domain-separates this
// derivation from any other use of the same secret.
var hkdfInfoSnapshot = []byte("plateforge.viplist.snapshot.v1")

// snapshotKeySize is the XChaCha20-Poly1305 key size.
const snapshotKeySize = chacha20poly1305.KeySize

// snapshot is the CBOR document written to disk.
type snapshot struct {
	Version int      `cbor:"version"`
	Records []Record `cbor:"records"`
}

const snapshotVersion = 1

// DeriveSnapshotKey derives the at-rest encryption key from the admin
// secret via HKDF-SHA256. The adminSecret buffer is borrowed and NOT
// closed; the returned buffer must be closed by the caller.
func DeriveSnapshotKey(adminSecret *secret.Buffer) (*secret.Buffer, error) {
	reader := hkdf.New(sha256.New, adminSecret.Bytes(), nil, hkdfInfoSnapshot)
	derived := make([]byte, snapshotKeySize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		secret.Zero(derived)
		return nil, fmt.Errorf("viplist: deriving snapshot key: %w", err)
	}
	return secret.NewFromBytes(derived)
}

// encodeSnapshot serializes records to the on-disk snapshot format:
// deterministic CBOR, LZ4 block compression (skipped when the data
// does not shrink), and, when key is non-nil, an XChaCha20-Poly1305
// seal over the whole compressed frame.
func encodeSnapshot(records []Record, key *secret.Buffer) ([]byte, error) {
	document, err := codec.Marshal(snapshot{Version: snapshotVersion, Records: records})
	if err != nil {
		return nil, fmt.Errorf("viplist: encoding snapshot: %w", err)
	}

	tag := compressionLZ4
	payload, err := compressBlock(document)
	if err != nil {
		// Incompressible or degenerate input: store raw.
		tag = compressionNone
		payload = document
	}

	frame := make([]byte, plainHeaderSize, plainHeaderSize+len(payload))
	copy(frame, magicPlain)
	frame[4] = tag
	binary.LittleEndian.PutUint32(frame[5:], uint32(len(document)))
	frame = append(frame, payload...)

	if key == nil {
		return frame, nil
	}
	return sealFrame(frame, key)
}

// decodeSnapshot reverses encodeSnapshot. A nil key rejects sealed
// files; a non-nil key accepts both forms so an operator can turn
// encryption on over an existing plaintext snapshot.
func decodeSnapshot(data []byte, key *secret.Buffer) ([]Record, error) {
	if len(data) >= 4 && string(data[:4]) == string(magicSealed) {
		if key == nil {
			return nil, fmt.Errorf("viplist: snapshot is encrypted but no key is configured")
		}
		opened, err := openFrame(data, key)
		if err != nil {
			return nil, err
		}
		data = opened
	}

	if len(data) < plainHeaderSize || string(data[:4]) != string(magicPlain) {
		return nil, fmt.Errorf("viplist: snapshot file is not in a recognized format")
	}
	tag := data[4]
	uncompressedSize := int(binary.LittleEndian.Uint32(data[5:]))
	payload := data[plainHeaderSize:]

	var document []byte
	switch tag {
	case compressionNone:
		if len(payload) != uncompressedSize {
			return nil, fmt.Errorf("viplist: snapshot payload is %d bytes, header says %d",
				len(payload), uncompressedSize)
		}
		document = payload
	case compressionLZ4:
		decompressed, err := decompressBlock(payload, uncompressedSize)
		if err != nil {
			return nil, err
		}
		document = decompressed
	default:
		return nil, fmt.Errorf("viplist: unknown snapshot compression tag %d", tag)
	}

	var decoded snapshot
	if err := codec.Unmarshal(document, &decoded); err != nil {
		return nil, fmt.Errorf("viplist: decoding snapshot: %w", err)
	}
	if decoded.Version != snapshotVersion {
		return nil, fmt.Errorf("viplist: snapshot version %d is not supported", decoded.Version)
	}
	return decoded.Records, nil
}

func compressBlock(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("viplist: lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, fmt.Errorf("viplist: snapshot did not compress")
	}
	return destination[:written], nil
}

func decompressBlock(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("viplist: lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("viplist: lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

// sealFrame encrypts a plaintext frame:
//
//	[magic "PFVS"] [nonce: 24 bytes] [ciphertext+tag]
//
// The sealed magic doubles as additional authenticated data, so a
// file whose magic was tampered with fails authentication.
func sealFrame(frame []byte, key *secret.Buffer) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("viplist: creating cipher: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("viplist: generating nonce: %w", err)
	}

	output := make([]byte, 4+chacha20poly1305.NonceSizeX, 4+chacha20poly1305.NonceSizeX+len(frame)+aead.Overhead())
	copy(output, magicSealed)
	copy(output[4:], nonce[:])
	return aead.Seal(output, nonce[:], frame, magicSealed), nil
}

func openFrame(sealed []byte, key *secret.Buffer) ([]byte, error) {
	minimum := 4 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(sealed) < minimum {
		return nil, fmt.Errorf("viplist: sealed snapshot is %d bytes, minimum is %d", len(sealed), minimum)
	}

	aead, err := chacha20poly1305.NewX(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("viplist: creating cipher: %w", err)
	}

	nonce := sealed[4 : 4+chacha20poly1305.NonceSizeX]
	ciphertext := sealed[4+chacha20poly1305.NonceSizeX:]

	frame, err := aead.Open(nil, nonce, ciphertext, magicSealed)
	if err != nil {
		return nil, fmt.Errorf("viplist: snapshot decryption failed (wrong key or tampered file): %w", err)
	}
	return frame, nil
}
