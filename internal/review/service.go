// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package review

import (
	"context"
	"time"

	"github.com/excalibur-srs/excalibur/internal/deck"
	"github.com/excalibur-srs/excalibur/internal/queue"
	"github.com/excalibur-srs/excalibur/internal/scheduler"
	"github.com/excalibur-srs/excalibur/internal/store"
	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
	"github.com/excalibur-srs/excalibur/pkg/types"
)

// Service is the boundary API over the scheduling store, the memory model
// and the deck listing. Everything a frontend needs goes through here.
type Service struct {
	ss      store.SchedulingStore
	sched   *scheduler.Scheduler
	src     deck.Source
	builder *queue.Builder
}

// NewService wires a Service. Queue options are forwarded to the builder.
func NewService(ss store.SchedulingStore, sched *scheduler.Scheduler, src deck.Source, opts ...queue.Option) *Service {
	return &Service{
		ss:      ss,
		sched:   sched,
		src:     src,
		builder: queue.NewBuilder(ss, src, opts...),
	}
}

// GetDueQueue returns the ordered card ids due at now. An empty tagFilter
// matches every card; maxSize > 0 truncates the queue.
func (s *Service) GetDueQueue(ctx context.Context, now time.Time, tagFilter []string, maxSize int) ([]string, error) {
	return s.builder.Build(ctx, now, tagFilter, maxSize)
}

// StartSession builds the due queue and returns a started session over it.
// The deck is re-listed so cards removed since queue construction are
// skipped rather than rated.
func (s *Service) StartSession(ctx context.Context, now time.Time, tagFilter []string, maxSize int) (*Session, error) {
	q, err := s.builder.Build(ctx, now, tagFilter, maxSize)
	if err != nil {
		return nil, err
	}
	idx, err := deck.BuildIndex(ctx, s.src)
	if err != nil {
		return nil, err
	}

	sess := NewSession(s.sched, s.ss, idx.Has)
	if err := sess.Start(q); err != nil {
		return nil, err
	}
	return sess, nil
}

// PreviewInterval returns the interval, in whole days, that rating the card
// at now would commit. It reads state and writes nothing: previewing all
// four ratings and then rating leaves exactly one review in the log, and
// the committed interval equals the previewed one for the same clock value.
func (s *Service) PreviewInterval(ctx context.Context, cardID string, rating types.Rating, now time.Time) (int, error) {
	if !rating.Valid() {
		return 0, xerr.New(xerr.CodeReviewRatingInvalid, "rating outside the four-value set",
			xerr.Field("rating", int(rating)))
	}
	_, entry, err := applyRating(ctx, s.sched, s.ss, cardID, rating, now)
	if err != nil {
		return 0, err
	}
	return entry.ScheduledDays, nil
}

// PreviewIntervals previews all four ratings for a card at now.
func (s *Service) PreviewIntervals(ctx context.Context, cardID string, now time.Time) (map[types.Rating]int, error) {
	out := make(map[types.Rating]int, len(types.AllRatings()))
	for _, r := range types.AllRatings() {
		days, err := s.PreviewInterval(ctx, cardID, r, now)
		if err != nil {
			return nil, err
		}
		out[r] = days
	}
	return out, nil
}

// CardStats is a card's scheduling record annotated with its modeled recall
// probability at the asking time.
type CardStats struct {
	CardID         string
	LearningState  types.LearningState
	Stability      float64
	Difficulty     float64
	Retrievability float64
	Reps           int
	Lapses         int
	DueAt          time.Time
	LastReviewedAt time.Time
}

// CardStats returns the card's record and its retrievability at now. A card
// never rated reports retrievability 1.
func (s *Service) CardStats(ctx context.Context, cardID string, now time.Time) (*CardStats, error) {
	st, err := s.ss.GetState(ctx, cardID)
	if err != nil {
		return nil, err
	}

	elapsed := elapsedDays(st, now)
	return &CardStats{
		CardID:         st.CardID,
		LearningState:  st.LearningState,
		Stability:      st.Stability,
		Difficulty:     st.Difficulty,
		Retrievability: scheduler.Retrievability(elapsed, st.Stability),
		Reps:           st.Reps,
		Lapses:         st.Lapses,
		DueAt:          st.DueAt,
		LastReviewedAt: st.LastReviewedAt,
	}, nil
}

// RetentionStats summarizes the whole review log.
type RetentionStats struct {
	Total int64
	Again int64
	// Retention is the fraction of reviews rated above Again, zero when
	// the log is empty.
	Retention float64
	ByRating  store.RatingCounts
}

// RetentionStats aggregates the review log into per-rating counts and an
// overall retention rate.
func (s *Service) RetentionStats(ctx context.Context) (*RetentionStats, error) {
	counts, err := s.ss.ReviewCounts(ctx)
	if err != nil {
		return nil, err
	}

	stats := &RetentionStats{
		Total:    counts.Total(),
		Again:    counts[types.RatingAgain],
		ByRating: counts,
	}
	if stats.Total > 0 {
		stats.Retention = float64(stats.Total-stats.Again) / float64(stats.Total)
	}
	return stats, nil
}

// DueCounts returns, per tag, how many cards are eligible for review at
// now: overdue reviewed cards plus never-reviewed cards, restricted to
// cards the deck still lists. Untagged cards count toward no tag.
func (s *Service) DueCounts(ctx context.Context, now time.Time) (map[string]int, error) {
	idx, err := deck.BuildIndex(ctx, s.src)
	if err != nil {
		return nil, err
	}

	dueStates, err := s.ss.DueStates(ctx, now)
	if err != nil {
		return nil, err
	}
	recorded, err := s.ss.StateIDs(ctx)
	if err != nil {
		return nil, err
	}

	eligible := make(map[string]bool, len(dueStates))
	for _, st := range dueStates {
		if idx.Has(st.CardID) {
			eligible[st.CardID] = true
		}
	}
	hasRecord := make(map[string]bool, len(recorded))
	for _, id := range recorded {
		hasRecord[id] = true
	}
	for _, id := range idx.CardIDs() {
		if !hasRecord[id] {
			eligible[id] = true
		}
	}

	counts := make(map[string]int)
	for id := range eligible {
		for _, tag := range idx.Tags(id) {
			counts[tag]++
		}
	}
	return counts, nil
}

// ResetCard deletes a card's scheduling record, returning it to the new
// pile. The review log keeps every past rating.
func (s *Service) ResetCard(ctx context.Context, cardID string) error {
	if cardID == "" {
		return xerr.New(xerr.CodeStoreInvalidInput, "reset card: card id is required")
	}
	return s.ss.DeleteState(ctx, cardID)
}
