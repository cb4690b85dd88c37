// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package store

import (
	"context"
	"time"
)

// SchedulingStore owns the per-card scheduling records and the append-only
// review log. Implementations must serialize AppendLog + UpsertState for one
// rating as a single logical transaction, log first, so a crash can never
// leave a state update without its log line.
type SchedulingStore interface {
	// GetState returns the record for a card, or the default New record if
	// the card has never been reviewed. It never fails for a syntactically
	// valid id; a stored record failing invariant checks is an integrity
	// error.
	GetState(ctx context.Context, cardID string) (*SchedulingState, error)

	// UpsertState atomically replaces the record for state.CardID.
	UpsertState(ctx context.Context, state *SchedulingState) error

	// AppendLog appends one immutable review log entry.
	AppendLog(ctx context.Context, entry *ReviewLogEntry) error

	// CommitReview appends the log entry and upserts the state in one
	// transaction. On error nothing is applied and the same call may be
	// retried with the same inputs.
	CommitReview(ctx context.Context, state *SchedulingState, entry *ReviewLogEntry) error

	// DueStates returns the records of all cards eligible for review at
	// now: never-reviewed cards plus cards whose due timestamp has passed.
	// Records failing integrity checks are excluded and reported via a
	// logged warning, not silently defaulted.
	DueStates(ctx context.Context, now time.Time) ([]*SchedulingState, error)

	// AllStates returns every stored record that passes integrity checks;
	// corrupt records are excluded with a logged warning.
	AllStates(ctx context.Context) ([]*SchedulingState, error)

	// StateIDs returns the ids of every card with a stored record,
	// including corrupt ones. Queue building uses this to tell a card
	// with no history apart from a card whose record is quarantined.
	StateIDs(ctx context.Context) ([]string, error)

	// LogEntries returns a card's review history ordered by rated-at
	// ascending, or the full log when cardID is empty. A limit <= 0 means
	// no limit.
	LogEntries(ctx context.Context, cardID string, limit int) ([]*ReviewLogEntry, error)

	// ReviewCounts returns the number of log entries per rating.
	ReviewCounts(ctx context.Context) (RatingCounts, error)

	// DeleteState removes a card's scheduling record. The review log is
	// never touched; history stays auditable after a reset.
	DeleteState(ctx context.Context, cardID string) error

	Close() error
}
