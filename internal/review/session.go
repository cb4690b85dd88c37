// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

// Package review drives the rating loop: it walks an ordered queue of card
// ids through a show-answer/rate state machine and commits every rating to
// the scheduling store. The boundary Service bundles queue building, the
// memory model and the store behind one API.
package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/excalibur-srs/excalibur/internal/scheduler"
	"github.com/excalibur-srs/excalibur/internal/store"
	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
	"github.com/excalibur-srs/excalibur/pkg/types"
)

// Phase is the session state machine's current phase.
type Phase string

const (
	// PhaseAwaitingQueue is the initial phase, before Start provides a queue.
	PhaseAwaitingQueue Phase = "awaiting_queue"
	// PhaseQuestion presents the current card's prompt side.
	PhaseQuestion Phase = "question"
	// PhaseAnswer presents the revealed answer; only here may a rating be
	// accepted.
	PhaseAnswer Phase = "answer"
	// PhaseCompleted is terminal: every queued card was rated or skipped.
	PhaseCompleted Phase = "completed"
	// PhaseCancelled is terminal: the session was abandoned. Ratings
	// committed before cancellation stay committed.
	PhaseCancelled Phase = "cancelled"
)

// Terminal reports whether the phase admits no further transitions.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled
}

// RatingResult describes one committed rating.
type RatingResult struct {
	CardID        string
	Rating        types.Rating
	ScheduledDays int
	DueAt         time.Time
	LearningState types.LearningState
}

// Session walks a queue of card ids through the question/answer/rate loop.
// It holds ids only, never scheduling records: state is re-read from the
// store at rating time, so a session can span other writers without going
// stale. Sessions are not safe for concurrent use.
type Session struct {
	sched *scheduler.Scheduler
	ss    store.SchedulingStore
	known func(cardID string) bool
	log   *slog.Logger

	queue  []string
	cursor int
	phase  Phase
	rated  int
}

// NewSession returns a session in the awaiting-queue phase. The known
// predicate tells the session which card ids the deck still lists; a nil
// predicate treats every id as known.
func NewSession(sched *scheduler.Scheduler, ss store.SchedulingStore, known func(string) bool) *Session {
	if known == nil {
		known = func(string) bool { return true }
	}
	return &Session{
		sched: sched,
		ss:    ss,
		known: known,
		log:   slog.Default(),
		phase: PhaseAwaitingQueue,
	}
}

// Start accepts the ordered queue and moves to the first card's question.
// An empty queue completes the session immediately.
func (s *Session) Start(queue []string) error {
	if s.phase != PhaseAwaitingQueue {
		return xerr.New(xerr.CodeReviewPhaseInvalid, "session already started",
			xerr.Field("phase", string(s.phase)))
	}
	s.queue = append([]string(nil), queue...)
	s.cursor = 0
	s.settle()
	return nil
}

// Current returns the card id being presented. It is empty outside the
// question and answer phases.
func (s *Session) Current() string {
	if s.phase != PhaseQuestion && s.phase != PhaseAnswer {
		return ""
	}
	return s.queue[s.cursor]
}

// Phase returns the session's current phase.
func (s *Session) Phase() Phase { return s.phase }

// Progress returns how many cards have been rated and the queue length.
func (s *Session) Progress() (rated, total int) {
	return s.rated, len(s.queue)
}

// Reveal shows the answer side of the current card.
func (s *Session) Reveal() error {
	if s.phase != PhaseQuestion {
		return xerr.New(xerr.CodeReviewPhaseInvalid, "no question to reveal",
			xerr.Field("phase", string(s.phase)))
	}
	s.phase = PhaseAnswer
	return nil
}

// Hide flips back to the question side without rating.
func (s *Session) Hide() error {
	if s.phase != PhaseAnswer {
		return xerr.New(xerr.CodeReviewPhaseInvalid, "no answer to hide",
			xerr.Field("phase", string(s.phase)))
	}
	s.phase = PhaseQuestion
	return nil
}

// Rate grades the current card at now and commits the resulting log entry
// and state in one store transaction, then advances to the next card. The
// rating is validated before anything is read or written. On a store
// failure the session stays in the answer phase with the same card, so the
// same Rate call can be retried.
func (s *Session) Rate(ctx context.Context, rating types.Rating, now time.Time) (*RatingResult, error) {
	if s.phase != PhaseAnswer {
		return nil, xerr.New(xerr.CodeReviewPhaseInvalid, "rating requires a revealed answer",
			xerr.Field("phase", string(s.phase)))
	}
	if !rating.Valid() {
		return nil, xerr.New(xerr.CodeReviewRatingInvalid, "rating outside the four-value set",
			xerr.Field("rating", int(rating)))
	}

	cardID := s.queue[s.cursor]
	next, entry, err := applyRating(ctx, s.sched, s.ss, cardID, rating, now)
	if err != nil {
		return nil, err
	}

	if err := s.ss.CommitReview(ctx, next, entry); err != nil {
		return nil, xerr.Wrap(err, xerr.CodeStoreWriteFailure, "committing rating",
			xerr.FieldCardID(cardID))
	}

	s.rated++
	s.cursor++
	s.settle()

	return &RatingResult{
		CardID:        cardID,
		Rating:        rating,
		ScheduledDays: entry.ScheduledDays,
		DueAt:         next.DueAt,
		LearningState: next.LearningState,
	}, nil
}

// Cancel abandons the session. Ratings already committed are untouched.
func (s *Session) Cancel() error {
	if s.phase.Terminal() {
		return xerr.New(xerr.CodeReviewSessionDone, "session already finished",
			xerr.Field("phase", string(s.phase)))
	}
	s.phase = PhaseCancelled
	return nil
}

// settle moves the cursor past cards the deck no longer lists and lands on
// the next question, or completes the session when the queue is exhausted.
func (s *Session) settle() {
	for s.cursor < len(s.queue) {
		id := s.queue[s.cursor]
		if s.known(id) {
			s.phase = PhaseQuestion
			return
		}
		s.log.Warn("skipping card missing from deck", "card_id", id)
		s.cursor++
	}
	s.phase = PhaseCompleted
}

// applyRating runs the memory model for one rating and produces the state
// and log entry to commit. It writes nothing.
func applyRating(ctx context.Context, sched *scheduler.Scheduler, ss store.SchedulingStore, cardID string, rating types.Rating, now time.Time) (*store.SchedulingState, *store.ReviewLogEntry, error) {
	prior, err := ss.GetState(ctx, cardID)
	if err != nil {
		return nil, nil, err
	}

	elapsed := elapsedDays(prior, now)
	next, err := sched.NextState(prior, rating, elapsed)
	if err != nil {
		return nil, nil, err
	}

	interval := sched.NextInterval(next.Stability)
	interval = sched.FuzzInterval(interval, cardID, now.AddDate(0, 0, interval))
	next.LastReviewedAt = now
	next.DueAt = now.AddDate(0, 0, interval)

	entry := &store.ReviewLogEntry{
		ID:               uuid.New().String(),
		CardID:           cardID,
		RatedAt:          now,
		Rating:           rating,
		ElapsedDays:      elapsed,
		StabilityBefore:  prior.Stability,
		StabilityAfter:   next.Stability,
		DifficultyBefore: prior.Difficulty,
		DifficultyAfter:  next.Difficulty,
		ScheduledDays:    interval,
	}
	return next, entry, nil
}

// elapsedDays is the fractional-day distance from the previous rating, zero
// for a card never rated before. Clock skew can put now before the recorded
// last review; the model rejects negative elapsed time, so clamp.
func elapsedDays(prior *store.SchedulingState, now time.Time) float64 {
	if prior.Reps == 0 || prior.LastReviewedAt.IsZero() {
		return 0
	}
	d := now.Sub(prior.LastReviewedAt).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}
