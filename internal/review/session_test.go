// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excalibur-srs/excalibur/internal/scheduler"
	"github.com/excalibur-srs/excalibur/internal/store"
	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
	"github.com/excalibur-srs/excalibur/pkg/types"
)

var sessionNow = time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

func newTestScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()
	s, err := scheduler.New(scheduler.DefaultParams())
	require.NoError(t, err)
	return s
}

// seedReviewed plants a graduated record reviewed ten days before sessionNow.
func seedReviewed(t *testing.T, ss store.SchedulingStore, cardID string) {
	t.Helper()
	err := ss.UpsertState(context.Background(), &store.SchedulingState{
		CardID:         cardID,
		Stability:      10,
		Difficulty:     5,
		DueAt:          sessionNow.Add(-time.Hour),
		LastReviewedAt: sessionNow.AddDate(0, 0, -10),
		LearningState:  types.StateReview,
		Reps:           3,
	})
	require.NoError(t, err)
}

func TestSessionStartEmptyQueueCompletes(t *testing.T) {
	sess := NewSession(newTestScheduler(t), store.NewMemoryStore(), nil)
	require.Equal(t, PhaseAwaitingQueue, sess.Phase())

	require.NoError(t, sess.Start(nil))
	assert.Equal(t, PhaseCompleted, sess.Phase())
	assert.Empty(t, sess.Current())

	// A started session cannot be started again.
	err := sess.Start([]string{"card-1"})
	require.Error(t, err)
	assert.True(t, xerr.HasCode(err, xerr.CodeReviewPhaseInvalid))
}

func TestSessionPhaseGuards(t *testing.T) {
	sess := NewSession(newTestScheduler(t), store.NewMemoryStore(), nil)
	require.NoError(t, sess.Start([]string{"card-1"}))
	require.Equal(t, PhaseQuestion, sess.Phase())
	assert.Equal(t, "card-1", sess.Current())

	// Question phase: no hiding, no rating.
	err := sess.Hide()
	assert.True(t, xerr.HasCode(err, xerr.CodeReviewPhaseInvalid))
	_, err = sess.Rate(context.Background(), types.RatingGood, sessionNow)
	assert.True(t, xerr.HasCode(err, xerr.CodeReviewPhaseInvalid))

	require.NoError(t, sess.Reveal())
	require.Equal(t, PhaseAnswer, sess.Phase())
	assert.Equal(t, "card-1", sess.Current())

	// Answer phase: no second reveal.
	err = sess.Reveal()
	assert.True(t, xerr.HasCode(err, xerr.CodeReviewPhaseInvalid))

	// Hide flips back without losing the card.
	require.NoError(t, sess.Hide())
	assert.Equal(t, PhaseQuestion, sess.Phase())
	assert.Equal(t, "card-1", sess.Current())
}

func TestSessionRateRejectsInvalidRatingBeforeAnyWrite(t *testing.T) {
	ss := store.NewMemoryStore()
	sess := NewSession(newTestScheduler(t), ss, nil)
	require.NoError(t, sess.Start([]string{"card-1"}))
	require.NoError(t, sess.Reveal())

	_, err := sess.Rate(context.Background(), types.Rating(0), sessionNow)
	require.Error(t, err)
	assert.True(t, xerr.HasCode(err, xerr.CodeReviewRatingInvalid))

	// Nothing was logged and the session still accepts a valid rating.
	entries, err := ss.LogEntries(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, PhaseAnswer, sess.Phase())
}

func TestSessionRateCommitsAndAdvances(t *testing.T) {
	ctx := context.Background()
	ss := store.NewMemoryStore()
	sess := NewSession(newTestScheduler(t), ss, nil)
	require.NoError(t, sess.Start([]string{"card-1", "card-2"}))

	require.NoError(t, sess.Reveal())
	res, err := sess.Rate(ctx, types.RatingGood, sessionNow)
	require.NoError(t, err)
	assert.Equal(t, "card-1", res.CardID)
	assert.Positive(t, res.ScheduledDays)
	assert.True(t, res.DueAt.Equal(sessionNow.AddDate(0, 0, res.ScheduledDays)))

	// Cursor moved to the second card's question.
	assert.Equal(t, PhaseQuestion, sess.Phase())
	assert.Equal(t, "card-2", sess.Current())
	rated, total := sess.Progress()
	assert.Equal(t, 1, rated)
	assert.Equal(t, 2, total)

	// The committed record carries the rating clock.
	st, err := ss.GetState(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Reps)
	assert.True(t, st.LastReviewedAt.Equal(sessionNow))
	assert.True(t, st.DueAt.Equal(res.DueAt))

	require.NoError(t, sess.Reveal())
	_, err = sess.Rate(ctx, types.RatingAgain, sessionNow)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, sess.Phase())

	entries, err := ss.LogEntries(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestSessionRateElapsedDaysFromLastReview(t *testing.T) {
	ctx := context.Background()
	ss := store.NewMemoryStore()
	seedReviewed(t, ss, "card-1")

	sess := NewSession(newTestScheduler(t), ss, nil)
	require.NoError(t, sess.Start([]string{"card-1"}))
	require.NoError(t, sess.Reveal())

	_, err := sess.Rate(ctx, types.RatingGood, sessionNow)
	require.NoError(t, err)

	entries, err := ss.LogEntries(ctx, "card-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.InDelta(t, 10.0, entries[0].ElapsedDays, 1e-9)
	assert.InDelta(t, 10.0, entries[0].StabilityBefore, 1e-9)
	assert.Greater(t, entries[0].StabilityAfter, entries[0].StabilityBefore)
}

func TestSessionSkipsCardsMissingFromDeck(t *testing.T) {
	ctx := context.Background()
	ss := store.NewMemoryStore()
	known := func(id string) bool { return id != "card-gone" }

	sess := NewSession(newTestScheduler(t), ss, known)
	require.NoError(t, sess.Start([]string{"card-gone", "card-1", "card-gone"}))

	// The leading unknown card is skipped at start.
	assert.Equal(t, "card-1", sess.Current())

	require.NoError(t, sess.Reveal())
	_, err := sess.Rate(ctx, types.RatingGood, sessionNow)
	require.NoError(t, err)

	// The trailing unknown card is skipped, completing the session.
	assert.Equal(t, PhaseCompleted, sess.Phase())

	// Skipped ids must never reach the store.
	entries, err := ss.LogEntries(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "card-1", entries[0].CardID)
}

// flakyStore fails a configurable number of commits, then delegates.
type flakyStore struct {
	store.SchedulingStore
	failures int
}

func (f *flakyStore) CommitReview(ctx context.Context, state *store.SchedulingState, entry *store.ReviewLogEntry) error {
	if f.failures > 0 {
		f.failures--
		return xerr.New(xerr.CodeStoreWriteFailure, "disk full")
	}
	return f.SchedulingStore.CommitReview(ctx, state, entry)
}

func TestSessionRateRetriesAfterWriteFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	ss := &flakyStore{SchedulingStore: mem, failures: 1}

	sess := NewSession(newTestScheduler(t), ss, nil)
	require.NoError(t, sess.Start([]string{"card-1"}))
	require.NoError(t, sess.Reveal())

	_, err := sess.Rate(ctx, types.RatingGood, sessionNow)
	require.Error(t, err)
	assert.True(t, xerr.IsWriteFailure(err))

	// Same card, same phase: the rating was reported as not applied.
	assert.Equal(t, PhaseAnswer, sess.Phase())
	assert.Equal(t, "card-1", sess.Current())
	st, err := mem.GetState(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Reps)

	// The retry succeeds and advances.
	res, err := sess.Rate(ctx, types.RatingGood, sessionNow)
	require.NoError(t, err)
	assert.Equal(t, "card-1", res.CardID)
	assert.Equal(t, PhaseCompleted, sess.Phase())
}

func TestSessionCancelKeepsCommittedRatings(t *testing.T) {
	ctx := context.Background()
	ss := store.NewMemoryStore()
	sess := NewSession(newTestScheduler(t), ss, nil)
	require.NoError(t, sess.Start([]string{"card-1", "card-2"}))

	require.NoError(t, sess.Reveal())
	_, err := sess.Rate(ctx, types.RatingGood, sessionNow)
	require.NoError(t, err)

	require.NoError(t, sess.Cancel())
	assert.Equal(t, PhaseCancelled, sess.Phase())
	assert.Empty(t, sess.Current())

	// The first rating survives cancellation.
	st, err := ss.GetState(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Reps)

	// Terminal is terminal.
	err = sess.Cancel()
	assert.True(t, xerr.HasCode(err, xerr.CodeReviewSessionDone))
	err = sess.Reveal()
	assert.True(t, xerr.HasCode(err, xerr.CodeReviewPhaseInvalid))
}
