// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
)

func init() {
	RegisterBackend("memory", func(string) (SchedulingStore, error) {
		return NewMemoryStore(), nil
	})
}

// Compile-time interface check.
var _ SchedulingStore = (*MemoryStore)(nil)

// MemoryStore is an in-process SchedulingStore used by tests and as the
// "memory" backend. It mirrors the sqlite backend's semantics, including the
// log-then-state commit and integrity filtering on due queries.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]*SchedulingState
	log    []*ReviewLogEntry
	logIDs map[string]bool
}

// NewMemoryStore returns an empty in-memory scheduling store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: map[string]*SchedulingState{},
		logIDs: map[string]bool{},
	}
}

func (m *MemoryStore) GetState(_ context.Context, cardID string) (*SchedulingState, error) {
	if cardID == "" {
		return nil, xerr.New(xerr.CodeStoreInvalidInput, "get state: card id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[cardID]
	if !ok {
		return NewState(cardID), nil
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// UpsertState stores the record without integrity validation, unlike the
// sqlite backend: tests rely on this to plant corrupt records and observe
// the read-side quarantine.
func (m *MemoryStore) UpsertState(_ context.Context, state *SchedulingState) error {
	if state == nil || state.CardID == "" {
		return xerr.New(xerr.CodeStoreInvalidInput, "upsert state: card id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.CardID] = state.Clone()
	return nil
}

func (m *MemoryStore) AppendLog(_ context.Context, entry *ReviewLogEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(entry)
}

// appendLocked enforces the log id uniqueness the sqlite backend gets from
// its primary key. Caller holds m.mu.
func (m *MemoryStore) appendLocked(entry *ReviewLogEntry) error {
	if m.logIDs[entry.ID] {
		return xerr.New(xerr.CodeStoreWriteFailure, "append log: duplicate entry id",
			xerr.Field("entry_id", entry.ID))
	}
	m.log = append(m.log, cloneEntry(entry))
	m.logIDs[entry.ID] = true
	return nil
}

func (m *MemoryStore) CommitReview(_ context.Context, state *SchedulingState, entry *ReviewLogEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if state == nil || state.CardID == "" {
		return xerr.New(xerr.CodeStoreInvalidInput, "commit review: card id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Log first, then state, under one lock: equivalent to the sqlite
	// transaction for crash-free in-process use.
	if err := m.appendLocked(entry); err != nil {
		return err
	}
	m.states[state.CardID] = state.Clone()
	return nil
}

func (m *MemoryStore) DueStates(_ context.Context, now time.Time) ([]*SchedulingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*SchedulingState
	for _, s := range m.states {
		if err := s.Validate(); err != nil {
			slog.Warn("excluding corrupt scheduling record from due set",
				"card_id", s.CardID, "error", err)
			continue
		}
		if s.Reps == 0 || !s.DueAt.After(now) {
			due = append(due, s.Clone())
		}
	}

	sort.Slice(due, func(i, j int) bool { return due[i].CardID < due[j].CardID })
	return due, nil
}

func (m *MemoryStore) AllStates(_ context.Context) ([]*SchedulingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*SchedulingState, 0, len(m.states))
	for _, s := range m.states {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CardID < out[j].CardID })
	return out, nil
}

func (m *MemoryStore) StateIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) LogEntries(_ context.Context, cardID string, limit int) ([]*ReviewLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*ReviewLogEntry
	for _, e := range m.log {
		if cardID != "" && e.CardID != cardID {
			continue
		}
		out = append(out, cloneEntry(e))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) ReviewCounts(_ context.Context) (RatingCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := RatingCounts{}
	for _, e := range m.log {
		counts[e.Rating]++
	}
	return counts, nil
}

func (m *MemoryStore) DeleteState(_ context.Context, cardID string) error {
	if cardID == "" {
		return xerr.New(xerr.CodeStoreInvalidInput, "delete state: card id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, cardID)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func cloneEntry(e *ReviewLogEntry) *ReviewLogEntry {
	c := *e
	return &c
}
