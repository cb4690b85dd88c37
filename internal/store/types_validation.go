// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package store

import (
	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
)

// Validate checks that the state record honors the scheduling invariants. A
// record claiming prior reviews with missing or out-of-range memory fields is
// corrupt: it must be surfaced, excluded from due-queues, and never silently
// defaulted back to New.
func (s *SchedulingState) Validate() error {
	if s.CardID == "" {
		return xerr.New(xerr.CodeStoreInvalidInput, "scheduling state: card id is required")
	}
	if s.Reps < 0 || s.Lapses < 0 {
		return xerr.New(xerr.CodeStoreStateIntegrity,
			"scheduling state: reps and lapses must be non-negative",
			xerr.FieldCardID(s.CardID))
	}
	if !s.LearningState.Valid() {
		return xerr.New(xerr.CodeStoreStateIntegrity,
			"scheduling state: unknown learning state",
			xerr.FieldCardID(s.CardID), xerr.Field("state", string(s.LearningState)))
	}

	if s.Reps == 0 {
		return nil
	}

	// Invariants for cards with at least one committed review.
	if s.Stability <= 0 {
		return xerr.New(xerr.CodeStoreStateIntegrity,
			"scheduling state: reps > 0 requires positive stability",
			xerr.FieldCardID(s.CardID), xerr.Field("stability", s.Stability))
	}
	if s.Difficulty < 1 || s.Difficulty > 10 {
		return xerr.New(xerr.CodeStoreStateIntegrity,
			"scheduling state: difficulty outside [1,10]",
			xerr.FieldCardID(s.CardID), xerr.Field("difficulty", s.Difficulty))
	}
	if s.DueAt.IsZero() || s.LastReviewedAt.IsZero() {
		return xerr.New(xerr.CodeStoreStateIntegrity,
			"scheduling state: reps > 0 requires due and last-review timestamps",
			xerr.FieldCardID(s.CardID))
	}
	if s.DueAt.Before(s.LastReviewedAt) {
		return xerr.New(xerr.CodeStoreStateIntegrity,
			"scheduling state: due timestamp precedes last review",
			xerr.FieldCardID(s.CardID))
	}

	return nil
}

// Validate checks a log entry before it is appended.
func (e *ReviewLogEntry) Validate() error {
	if e.ID == "" {
		return xerr.New(xerr.CodeStoreInvalidInput, "review log: entry id is required")
	}
	if e.CardID == "" {
		return xerr.New(xerr.CodeStoreInvalidInput, "review log: card id is required")
	}
	if !e.Rating.Valid() {
		return xerr.New(xerr.CodeStoreInvalidInput, "review log: rating outside the four-value set",
			xerr.FieldCardID(e.CardID), xerr.Field("rating", int(e.Rating)))
	}
	if e.RatedAt.IsZero() {
		return xerr.New(xerr.CodeStoreInvalidInput, "review log: rated-at timestamp is required",
			xerr.FieldCardID(e.CardID))
	}
	if e.ElapsedDays < 0 {
		return xerr.New(xerr.CodeStoreInvalidInput, "review log: elapsed days must be non-negative",
			xerr.FieldCardID(e.CardID))
	}
	return nil
}
