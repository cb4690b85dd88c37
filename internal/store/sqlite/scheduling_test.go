// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package sqlite_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/excalibur-srs/excalibur/internal/store"
	"github.com/excalibur-srs/excalibur/internal/store/sqlite"
	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
	"github.com/excalibur-srs/excalibur/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

func reviewedState(cardID string, due time.Time) *store.SchedulingState {
	return &store.SchedulingState{
		CardID:         cardID,
		Stability:      4.2,
		Difficulty:     5.5,
		DueAt:          due,
		LastReviewedAt: baseTime,
		LearningState:  types.StateReview,
		Reps:           3,
		Lapses:         1,
	}
}

func logEntry(cardID string, ratedAt time.Time) *store.ReviewLogEntry {
	return &store.ReviewLogEntry{
		ID:               "log-" + cardID + "-" + ratedAt.Format("150405.000"),
		CardID:           cardID,
		RatedAt:          ratedAt,
		Rating:           types.RatingGood,
		ElapsedDays:      3.5,
		StabilityBefore:  2.1,
		StabilityAfter:   4.2,
		DifficultyBefore: 5.8,
		DifficultyAfter:  5.5,
		ScheduledDays:    4,
	}
}

func TestGetStateDefaultsToNew(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSchedulingStore(testDBPath(t, "scheduling"))
	require.NoError(t, err)
	defer ss.Close()

	got, err := ss.GetState(ctx, "never-seen")
	require.NoError(t, err)
	assert.Equal(t, "never-seen", got.CardID)
	assert.Equal(t, types.StateNew, got.LearningState)
	assert.Zero(t, got.Reps)
	assert.Zero(t, got.Stability)
	assert.True(t, got.DueAt.IsZero())
}

func TestStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSchedulingStore(testDBPath(t, "roundtrip"))
	require.NoError(t, err)
	defer ss.Close()

	want := reviewedState("card-1", baseTime.Add(96*time.Hour))
	require.NoError(t, ss.UpsertState(ctx, want))

	got, err := ss.GetState(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, want.CardID, got.CardID)
	assert.Equal(t, want.Stability, got.Stability)
	assert.Equal(t, want.Difficulty, got.Difficulty)
	assert.True(t, got.DueAt.Equal(want.DueAt))
	assert.True(t, got.LastReviewedAt.Equal(want.LastReviewedAt))
	assert.Equal(t, want.LearningState, got.LearningState)
	assert.Equal(t, want.Reps, got.Reps)
	assert.Equal(t, want.Lapses, got.Lapses)
}

func TestUpsertStateReplacesExisting(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSchedulingStore(testDBPath(t, "upsert"))
	require.NoError(t, err)
	defer ss.Close()

	st := reviewedState("card-1", baseTime.Add(24*time.Hour))
	require.NoError(t, ss.UpsertState(ctx, st))

	st.Stability = 9.9
	st.Reps = 4
	require.NoError(t, ss.UpsertState(ctx, st))

	got, err := ss.GetState(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, 9.9, got.Stability)
	assert.Equal(t, 4, got.Reps)
}

func TestUpsertStateRejectsCorruptRecord(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSchedulingStore(testDBPath(t, "reject"))
	require.NoError(t, err)
	defer ss.Close()

	st := reviewedState("card-1", baseTime.Add(24*time.Hour))
	st.Stability = -1

	err = ss.UpsertState(ctx, st)
	require.Error(t, err)
	assert.True(t, xerr.IsIntegrity(err))
}

func TestLogRoundTrip(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSchedulingStore(testDBPath(t, "log"))
	require.NoError(t, err)
	defer ss.Close()

	want := logEntry("card-1", baseTime)
	require.NoError(t, ss.AppendLog(ctx, want))

	entries, err := ss.LogEntries(ctx, "card-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.CardID, got.CardID)
	assert.True(t, got.RatedAt.Equal(want.RatedAt))
	assert.Equal(t, want.Rating, got.Rating)
	assert.Equal(t, want.ElapsedDays, got.ElapsedDays)
	assert.Equal(t, want.StabilityBefore, got.StabilityBefore)
	assert.Equal(t, want.StabilityAfter, got.StabilityAfter)
	assert.Equal(t, want.DifficultyBefore, got.DifficultyBefore)
	assert.Equal(t, want.DifficultyAfter, got.DifficultyAfter)
	assert.Equal(t, want.ScheduledDays, got.ScheduledDays)
}

func TestLogEntriesOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSchedulingStore(testDBPath(t, "log-order"))
	require.NoError(t, err)
	defer ss.Close()

	for i := 0; i < 5; i++ {
		e := logEntry("card-1", baseTime.Add(time.Duration(i)*time.Hour))
		e.ID = fmt.Sprintf("log-%d", i)
		require.NoError(t, ss.AppendLog(ctx, e))
	}

	entries, err := ss.LogEntries(ctx, "card-1", 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "log-0", entries[0].ID)
	assert.Equal(t, "log-2", entries[2].ID)

	all, err := ss.LogEntries(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestAppendLogRejectsInvalidRating(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSchedulingStore(testDBPath(t, "log-invalid"))
	require.NoError(t, err)
	defer ss.Close()

	e := logEntry("card-1", baseTime)
	e.Rating = 9
	err = ss.AppendLog(ctx, e)
	require.Error(t, err)
	assert.True(t, xerr.IsInvalidInput(err))
}

func TestCommitReviewAppliesLogAndState(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSchedulingStore(testDBPath(t, "commit"))
	require.NoError(t, err)
	defer ss.Close()

	st := reviewedState("card-1", baseTime.Add(4*24*time.Hour))
	entry := logEntry("card-1", baseTime)
	require.NoError(t, ss.CommitReview(ctx, st, entry))

	got, err := ss.GetState(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, st.Stability, got.Stability)

	entries, err := ss.LogEntries(ctx, "card-1", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCommitReviewIsAtomic(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSchedulingStore(testDBPath(t, "atomic"))
	require.NoError(t, err)
	defer ss.Close()

	// First commit occupies the log entry's primary key.
	st := reviewedState("card-1", baseTime.Add(24*time.Hour))
	entry := logEntry("card-1", baseTime)
	require.NoError(t, ss.CommitReview(ctx, st, entry))

	// A commit whose log insert collides must leave the state untouched.
	st2 := reviewedState("card-1", baseTime.Add(24*time.Hour))
	st2.Stability = 77
	err = ss.CommitReview(ctx, st2, entry)
	require.Error(t, err)
	assert.True(t, xerr.IsWriteFailure(err))

	got, err := ss.GetState(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, st.Stability, got.Stability, "failed commit must not apply the state")

	entries, err := ss.LogEntries(ctx, "card-1", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed commit must not append to the log")
}

func TestDueStates(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSchedulingStore(testDBPath(t, "due"))
	require.NoError(t, err)
	defer ss.Close()

	now := baseTime.Add(10 * 24 * time.Hour)

	// Overdue, due exactly now, and not yet due.
	require.NoError(t, ss.UpsertState(ctx, reviewedState("overdue", baseTime.Add(24*time.Hour))))
	require.NoError(t, ss.UpsertState(ctx, reviewedState("on-time", now)))
	require.NoError(t, ss.UpsertState(ctx, reviewedState("future", now.Add(time.Hour))))
	// Never reviewed: always due.
	require.NoError(t, ss.UpsertState(ctx, store.NewState("brand-new")))

	due, err := ss.DueStates(ctx, now)
	require.NoError(t, err)

	ids := make([]string, 0, len(due))
	for _, st := range due {
		ids = append(ids, st.CardID)
	}
	assert.ElementsMatch(t, []string{"overdue", "on-time", "brand-new"}, ids)
}

func TestIntegrityFailureExcludedFromDueAndSurfacedOnGet(t *testing.T) {
	ctx := context.Background()
	dbPath := testDBPath(t, "integrity")
	ss, err := sqlite.NewSchedulingStore(dbPath)
	require.NoError(t, err)
	defer ss.Close()

	require.NoError(t, ss.UpsertState(ctx, reviewedState("good", baseTime.Add(time.Hour))))
	require.NoError(t, ss.UpsertState(ctx, reviewedState("corrupt", baseTime.Add(time.Hour))))

	// Break the record behind the store's back: reps > 0 with zero stability.
	rawExec(t, dbPath, `UPDATE scheduling SET stability = 0 WHERE card_id = 'corrupt'`)

	_, err = ss.GetState(ctx, "corrupt")
	require.Error(t, err)
	assert.True(t, xerr.IsIntegrity(err))

	due, err := ss.DueStates(ctx, baseTime.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "good", due[0].CardID)
}

func TestDeleteStateKeepsLog(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSchedulingStore(testDBPath(t, "delete"))
	require.NoError(t, err)
	defer ss.Close()

	require.NoError(t, ss.CommitReview(ctx,
		reviewedState("card-1", baseTime.Add(24*time.Hour)),
		logEntry("card-1", baseTime)))

	require.NoError(t, ss.DeleteState(ctx, "card-1"))

	got, err := ss.GetState(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, types.StateNew, got.LearningState)
	assert.Zero(t, got.Reps)

	entries, err := ss.LogEntries(ctx, "card-1", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "reset must not erase review history")
}

func TestReviewCounts(t *testing.T) {
	ctx := context.Background()
	ss, err := sqlite.NewSchedulingStore(testDBPath(t, "counts"))
	require.NoError(t, err)
	defer ss.Close()

	ratings := []types.Rating{
		types.RatingGood, types.RatingGood, types.RatingAgain, types.RatingEasy,
	}
	for i, r := range ratings {
		e := logEntry("card-1", baseTime.Add(time.Duration(i)*time.Minute))
		e.ID = fmt.Sprintf("log-%d", i)
		e.Rating = r
		require.NoError(t, ss.AppendLog(ctx, e))
	}

	counts, err := ss.ReviewCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[types.RatingGood])
	assert.Equal(t, int64(1), counts[types.RatingAgain])
	assert.Equal(t, int64(1), counts[types.RatingEasy])
	assert.Equal(t, int64(0), counts[types.RatingHard])
	assert.Equal(t, int64(4), counts.Total())
}

func TestSecondWriterRefused(t *testing.T) {
	dbPath := testDBPath(t, "locked")
	ss, err := sqlite.NewSchedulingStore(dbPath)
	require.NoError(t, err)

	_, err = sqlite.NewSchedulingStore(dbPath)
	require.Error(t, err)
	assert.True(t, xerr.IsLocked(err))

	require.NoError(t, ss.Close())

	// Lock released on close: reopening succeeds.
	ss2, err := sqlite.NewSchedulingStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, ss2.Close())
}

func TestStaleLockTakenOver(t *testing.T) {
	dbPath := testDBPath(t, "stale-lock")

	// Plant a lock file naming a pid that cannot be alive.
	require.NoError(t, os.WriteFile(dbPath+".lock", []byte("99999999\n"), 0o600))

	ss, err := sqlite.NewSchedulingStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, ss.Close())
}
