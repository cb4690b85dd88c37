// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package store

import (
	"time"

	"github.com/excalibur-srs/excalibur/pkg/types"
)

// --- Scheduling state ---

// SchedulingState is the per-card memory-state record. The scheduling store
// exclusively owns these records; sessions hold only card ids and re-read
// state at rating time to avoid staleness.
type SchedulingState struct {
	CardID     string
	Stability  float64
	Difficulty float64
	// DueAt is the absolute timestamp at which the card becomes eligible
	// for review. Well-defined once Reps > 0.
	DueAt time.Time
	// LastReviewedAt is zero for a card that has never been rated. Once
	// set, it is always the clock value used for the rating that produced
	// the stored stability and difficulty.
	LastReviewedAt time.Time
	LearningState  types.LearningState
	Reps           int
	Lapses         int
}

// NewState returns the default record for a card with no prior reviews.
func NewState(cardID string) *SchedulingState {
	return &SchedulingState{
		CardID:        cardID,
		LearningState: types.StateNew,
	}
}

// Clone returns an independent copy of the state.
func (s *SchedulingState) Clone() *SchedulingState {
	c := *s
	return &c
}

// --- Review log ---

// ReviewLogEntry is one immutable line of review history, appended on every
// rating and never mutated or deleted. The log is the source of truth for
// statistics and for reconstructing state after a crash.
type ReviewLogEntry struct {
	ID               string
	CardID           string
	RatedAt          time.Time
	Rating           types.Rating
	ElapsedDays      float64
	StabilityBefore  float64
	StabilityAfter   float64
	DifficultyBefore float64
	DifficultyAfter  float64
	// ScheduledDays is the whole-day interval committed for this rating.
	ScheduledDays int
}

// RatingCounts is the number of log entries per rating.
type RatingCounts map[types.Rating]int64

// Total returns the total number of reviews across all ratings.
func (c RatingCounts) Total() int64 {
	var n int64
	for _, v := range c {
		n += v
	}
	return n
}
