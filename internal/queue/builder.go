// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

// Package queue selects and orders the cards due for review at a point in
// time. It owns the interleave policy that bounds how much brand-new
// material enters one session.
package queue

import (
	"context"
	"sort"
	"time"

	"github.com/excalibur-srs/excalibur/internal/deck"
	"github.com/excalibur-srs/excalibur/internal/store"
	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
)

// DefaultDuePerNew is the number of due review cards presented between two
// new cards.
const DefaultDuePerNew = 3

// Builder assembles ordered due-queues from the scheduling store and the
// deck listing.
type Builder struct {
	store     store.SchedulingStore
	src       deck.Source
	duePerNew int
}

// Option configures a Builder.
type Option func(*Builder)

// WithDuePerNew sets how many due cards are interleaved per new card.
// Values below 1 fall back to the default.
func WithDuePerNew(n int) Option {
	return func(b *Builder) {
		if n >= 1 {
			b.duePerNew = n
		}
	}
}

// NewBuilder returns a Builder over the given store and card source.
func NewBuilder(st store.SchedulingStore, src deck.Source, opts ...Option) *Builder {
	b := &Builder{store: st, src: src, duePerNew: DefaultDuePerNew}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the ordered card ids due at now, filtered by tags (any-of;
// empty filter matches all). Due cards are ordered most-overdue first with
// card-id tie-breaks; new cards are interleaved at the configured ratio.
// maxSize > 0 truncates after ordering without re-ordering. Calling Build
// twice with the same now and no intervening ratings yields the same
// sequence.
func (b *Builder) Build(ctx context.Context, now time.Time, tagFilter []string, maxSize int) ([]string, error) {
	idx, err := deck.BuildIndex(ctx, b.src)
	if err != nil {
		return nil, xerr.Wrapf(err, xerr.CodeQueueBuildFailure, "listing cards")
	}

	dueStates, err := b.store.DueStates(ctx, now)
	if err != nil {
		return nil, xerr.Wrapf(err, xerr.CodeQueueBuildFailure, "loading due states")
	}

	recorded, err := b.store.StateIDs(ctx)
	if err != nil {
		return nil, xerr.Wrapf(err, xerr.CodeQueueBuildFailure, "listing recorded cards")
	}
	hasRecord := make(map[string]bool, len(recorded))
	for _, id := range recorded {
		hasRecord[id] = true
	}

	// Reviewed cards whose due time has passed, restricted to cards the
	// repository still has and the filter admits.
	var due []*store.SchedulingState
	newSeen := make(map[string]bool)
	for _, st := range dueStates {
		if !idx.Matches(st.CardID, tagFilter) {
			continue
		}
		if st.Reps == 0 {
			newSeen[st.CardID] = true
			continue
		}
		due = append(due, st)
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].DueAt.Equal(due[j].DueAt) {
			return due[i].DueAt.Before(due[j].DueAt)
		}
		return due[i].CardID < due[j].CardID
	})

	// Never-reviewed cards: a recorded New state, or no record at all. A
	// card with a record that DueStates withheld (future due or corrupt)
	// is excluded entirely.
	var fresh []string
	for _, id := range idx.CardIDs() {
		if !idx.Matches(id, tagFilter) {
			continue
		}
		if newSeen[id] || !hasRecord[id] {
			fresh = append(fresh, id)
		}
	}
	sort.Strings(fresh)

	dueIDs := make([]string, len(due))
	for i, st := range due {
		dueIDs[i] = st.CardID
	}

	q := interleave(dueIDs, fresh, b.duePerNew)
	if maxSize > 0 && len(q) > maxSize {
		q = q[:maxSize]
	}
	return q, nil
}

// interleave merges the due and new sequences, emitting one new card after
// every duePerNew due cards until either side runs out, then appending the
// remainder in order.
func interleave(due, fresh []string, duePerNew int) []string {
	out := make([]string, 0, len(due)+len(fresh))
	di, ni := 0, 0
	for di < len(due) && ni < len(fresh) {
		for k := 0; k < duePerNew && di < len(due); k++ {
			out = append(out, due[di])
			di++
		}
		out = append(out, fresh[ni])
		ni++
	}
	out = append(out, due[di:]...)
	out = append(out, fresh[ni:]...)
	return out
}
