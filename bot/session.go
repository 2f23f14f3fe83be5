// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"sync"
	"time"

	"github.com/plateforge/plateforge/lib/batch"
	"github.com/plateforge/plateforge/lib/clock"
)

// Stage is a dialog position. A session advances strictly forward;
// /cancel is the only way back.
type Stage int

const (
	// StageCount waits for the unit count.
	StageCount Stage = iota
	// StageFirstName waits for the first-name choice.
	StageFirstName
	// StageLastName waits for the last-name choice.
	StageLastName
	// StageDate waits for the date-layer text.
	StageDate
	// StageRunning means a batch is in flight for this chat. Input
	// is rejected until the job finishes and deletes the session.
	StageRunning
)

// Session is one chat's in-progress dialog.
type Session struct {
	ChatID  int64
	Stage   Stage
	Options batch.Options

	// UpdatedAt drives TTL expiry. Maintained by the store on Put.
	UpdatedAt time.Time
}

// SessionStore holds in-progress dialogs keyed by chat ID. Expired
// sessions behave as absent.
type SessionStore interface {
	Get(chatID int64) (*Session, bool)
	Put(session *Session)
	Delete(chatID int64)
}

// MemorySessionStore is an in-memory SessionStore with TTL expiry.
// Expiry is checked lazily on Get; Sweep reclaims abandoned sessions
// in the background.
type MemorySessionStore struct {
	ttl   time.Duration
	clock clock.Clock

	mutex    sync.Mutex
	sessions map[int64]*Session
}

// NewMemorySessionStore creates a store whose sessions expire ttl
// after their last Put.
func NewMemorySessionStore(ttl time.Duration, clk clock.Clock) *MemorySessionStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemorySessionStore{
		ttl:      ttl,
		clock:    clk,
		sessions: make(map[int64]*Session),
	}
}

// Get returns the chat's session, treating an expired one as absent.
func (s *MemorySessionStore) Get(chatID int64) (*Session, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, ok := s.sessions[chatID]
	if !ok {
		return nil, false
	}
	if s.clock.Now().Sub(session.UpdatedAt) > s.ttl {
		delete(s.sessions, chatID)
		return nil, false
	}
	return session, true
}

// Put stores the session and refreshes its expiry.
func (s *MemorySessionStore) Put(session *Session) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session.UpdatedAt = s.clock.Now()
	s.sessions[session.ChatID] = session
}

// Delete removes the chat's session, if any.
func (s *MemorySessionStore) Delete(chatID int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.sessions, chatID)
}

// Sweep removes expired sessions every half TTL until ctx is
// cancelled. Run it in its own goroutine.
func (s *MemorySessionStore) Sweep(ctx context.Context) {
	ticker := s.clock.NewTicker(s.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *MemorySessionStore) sweepOnce() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.clock.Now()
	for chatID, session := range s.sessions {
		if now.Sub(session.UpdatedAt) > s.ttl {
			delete(s.sessions, chatID)
		}
	}
}
