// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/excalibur-srs/excalibur/internal/deck"
	"github.com/excalibur-srs/excalibur/internal/queue"
	"github.com/excalibur-srs/excalibur/internal/store"
	"github.com/excalibur-srs/excalibur/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func reviewed(cardID string, due time.Time) *store.SchedulingState {
	return &store.SchedulingState{
		CardID:         cardID,
		Stability:      3,
		Difficulty:     5,
		DueAt:          due,
		LastReviewedAt: due.Add(-72 * time.Hour),
		LearningState:  types.StateReview,
		Reps:           2,
	}
}

func seedStore(t *testing.T, states ...*store.SchedulingState) *store.MemoryStore {
	t.Helper()
	ms := store.NewMemoryStore()
	for _, st := range states {
		require.NoError(t, ms.UpsertState(context.Background(), st))
	}
	return ms
}

func TestBuildOrdersMostOverdueFirst(t *testing.T) {
	src := deck.StaticSource{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	ms := seedStore(t,
		reviewed("a", now.Add(-time.Hour)),
		reviewed("b", now.Add(-48*time.Hour)),
		reviewed("c", now.Add(-24*time.Hour)),
	)

	q, err := queue.NewBuilder(ms, src).Build(context.Background(), now, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, q)
}

func TestBuildBreaksDueTiesByCardID(t *testing.T) {
	due := now.Add(-time.Hour)
	src := deck.StaticSource{{ID: "z"}, {ID: "a"}, {ID: "m"}}
	ms := seedStore(t, reviewed("z", due), reviewed("a", due), reviewed("m", due))

	q, err := queue.NewBuilder(ms, src).Build(context.Background(), now, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "m", "z"}, q)
}

func TestBuildExcludesNotYetDue(t *testing.T) {
	src := deck.StaticSource{{ID: "due"}, {ID: "future"}}
	ms := seedStore(t,
		reviewed("due", now.Add(-time.Minute)),
		reviewed("future", now.Add(time.Minute)),
	)

	q, err := queue.NewBuilder(ms, src).Build(context.Background(), now, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"due"}, q, "no peeking ahead of the due date")
}

func TestBuildInterleavesNewAtRatio(t *testing.T) {
	src := deck.StaticSource{
		{ID: "d1"}, {ID: "d2"}, {ID: "d3"}, {ID: "d4"},
		{ID: "n1"}, {ID: "n2"},
	}
	ms := seedStore(t,
		reviewed("d1", now.Add(-4*time.Hour)),
		reviewed("d2", now.Add(-3*time.Hour)),
		reviewed("d3", now.Add(-2*time.Hour)),
		reviewed("d4", now.Add(-time.Hour)),
	)

	q, err := queue.NewBuilder(ms, src).Build(context.Background(), now, nil, 0)
	require.NoError(t, err)
	// Default ratio: one new card after every three due cards.
	assert.Equal(t, []string{"d1", "d2", "d3", "n1", "d4", "n2"}, q)
}

func TestBuildCustomRatio(t *testing.T) {
	src := deck.StaticSource{{ID: "d1"}, {ID: "d2"}, {ID: "n1"}, {ID: "n2"}}
	ms := seedStore(t,
		reviewed("d1", now.Add(-2*time.Hour)),
		reviewed("d2", now.Add(-time.Hour)),
	)

	q, err := queue.NewBuilder(ms, src, queue.WithDuePerNew(1)).
		Build(context.Background(), now, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "n1", "d2", "n2"}, q)
}

func TestBuildNewOnlyDeck(t *testing.T) {
	src := deck.StaticSource{{ID: "b"}, {ID: "a"}, {ID: "c"}}
	ms := store.NewMemoryStore()

	q, err := queue.NewBuilder(ms, src).Build(context.Background(), now, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, q, "never-reviewed cards are always due")
}

func TestBuildTagFilterAnyOf(t *testing.T) {
	// Two math-tagged due cards among three untagged due cards.
	src := deck.StaticSource{
		{ID: "m1", Tags: []string{"math"}},
		{ID: "m2", Tags: []string{"math", "algebra"}},
		{ID: "u1"}, {ID: "u2"}, {ID: "u3"},
	}
	ms := seedStore(t,
		reviewed("m1", now.Add(-time.Hour)),
		reviewed("m2", now.Add(-2*time.Hour)),
		reviewed("u1", now.Add(-time.Hour)),
		reviewed("u2", now.Add(-time.Hour)),
		reviewed("u3", now.Add(-time.Hour)),
	)

	q, err := queue.NewBuilder(ms, src).Build(context.Background(), now, []string{"math"}, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"m1", "m2"}, q)
}

func TestBuildExcludesCardsGoneFromRepository(t *testing.T) {
	src := deck.StaticSource{{ID: "kept"}}
	ms := seedStore(t,
		reviewed("kept", now.Add(-time.Hour)),
		reviewed("deleted", now.Add(-time.Hour)),
	)

	q, err := queue.NewBuilder(ms, src).Build(context.Background(), now, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, q)
}

func TestBuildExcludesCorruptRecordsWithoutTreatingThemAsNew(t *testing.T) {
	src := deck.StaticSource{{ID: "good"}, {ID: "bad"}}
	ms := seedStore(t, reviewed("good", now.Add(-time.Hour)))

	corrupt := reviewed("bad", now.Add(-time.Hour))
	corrupt.Stability = -1 // fails integrity once stored
	require.NoError(t, ms.UpsertState(context.Background(), corrupt))

	q, err := queue.NewBuilder(ms, src).Build(context.Background(), now, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, q,
		"a quarantined record must neither schedule nor fall back to new")
}

func TestBuildTruncatesAfterOrdering(t *testing.T) {
	src := deck.StaticSource{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	ms := seedStore(t,
		reviewed("a", now.Add(-4*time.Hour)),
		reviewed("b", now.Add(-3*time.Hour)),
		reviewed("c", now.Add(-2*time.Hour)),
		reviewed("d", now.Add(-time.Hour)),
	)

	full, err := queue.NewBuilder(ms, src).Build(context.Background(), now, nil, 0)
	require.NoError(t, err)
	truncated, err := queue.NewBuilder(ms, src).Build(context.Background(), now, nil, 2)
	require.NoError(t, err)

	assert.Equal(t, full[:2], truncated, "truncation must not re-order")
}

func TestBuildIdempotentForFixedNow(t *testing.T) {
	src := deck.StaticSource{
		{ID: "d1"}, {ID: "d2"}, {ID: "n1"}, {ID: "n2"},
	}
	ms := seedStore(t,
		reviewed("d1", now.Add(-2*time.Hour)),
		reviewed("d2", now.Add(-time.Hour)),
	)

	b := queue.NewBuilder(ms, src)
	first, err := b.Build(context.Background(), now, nil, 0)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), now, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
