// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package viplist

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Record is one VIP list entry.
type Record struct {
	// ID is assigned at creation and never changes.
	ID uuid.UUID `cbor:"id" json:"id"`

	// Name is the display name. Never empty — Put rejects blank
	// names.
	Name string `cbor:"name" json:"name"`

	// Note is free-form operator text. May be empty.
	Note string `cbor:"note" json:"note,omitempty"`

	// AddedAt is when the record was created.
	AddedAt time.Time `cbor:"added_at" json:"added_at"`
}

// ErrNotFound is returned by Get and Delete for an unknown record ID.
var ErrNotFound = errors.New("viplist: record not found")

// Store is the record store the HTTP API serves. Implementations are
// safe for concurrent use.
type Store interface {
	// List returns all records ordered by AddedAt, ties broken by ID.
	List() ([]Record, error)

	// Get returns one record, or ErrNotFound.
	Get(id uuid.UUID) (Record, error)

	// Put inserts or replaces the record with record.ID.
	Put(record Record) error

	// Delete removes a record, or returns ErrNotFound.
	Delete(id uuid.UUID) error
}
