// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

// Package scheduler implements the forgetting-curve memory model: pure
// functions over stability, difficulty and elapsed time. It holds no mutable
// state and touches no storage.
package scheduler

import (
	"math"

	"github.com/excalibur-srs/excalibur/internal/store"
	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
	"github.com/excalibur-srs/excalibur/pkg/types"
)

const (
	// retentionFactor scales stability into the forgetting curve:
	// R(t) = (1 + t/(9S))^-1, so R(S) = 0.9 by construction.
	retentionFactor = 9.0

	// minStability keeps every produced stability finite and positive.
	minStability = 0.01

	minDifficulty = 1.0
	maxDifficulty = 10.0
)

// Params are the named configuration constants of the model.
type Params struct {
	// TargetRetention is the desired retrievability at the scheduled due
	// date, in (0,1).
	TargetRetention float64
	// GraduationStability is the stability above which a Learning card
	// graduates to the Review schedule.
	GraduationStability float64
	// MaxIntervalDays caps every computed interval.
	MaxIntervalDays int
	// FuzzEnabled perturbs committed intervals by a bounded percentage to
	// avoid due-date clustering.
	FuzzEnabled bool
	Weights     Weights
}

// DefaultParams returns the standard configuration: 90% target retention,
// graduation at 2 days of stability, intervals capped at 100 years.
func DefaultParams() Params {
	return Params{
		TargetRetention:     0.9,
		GraduationStability: 2.0,
		MaxIntervalDays:     36500,
		FuzzEnabled:         false,
		Weights:             DefaultWeights(),
	}
}

// Scheduler computes memory-state transitions for a fixed parameter set.
type Scheduler struct {
	p Params
}

// New validates the parameters and returns a Scheduler.
func New(p Params) (*Scheduler, error) {
	if p.TargetRetention <= 0 || p.TargetRetention >= 1 {
		return nil, xerr.Errorf(xerr.CodeSchedulerWeightsInvalid,
			"target retention must be within (0,1), got %g", p.TargetRetention)
	}
	if p.GraduationStability <= 0 {
		return nil, xerr.Errorf(xerr.CodeSchedulerWeightsInvalid,
			"graduation stability must be positive, got %g", p.GraduationStability)
	}
	if p.MaxIntervalDays < 1 {
		return nil, xerr.Errorf(xerr.CodeSchedulerWeightsInvalid,
			"maximum interval must be at least 1 day, got %d", p.MaxIntervalDays)
	}
	if errs := p.Weights.Validate(); len(errs) > 0 {
		return nil, xerr.Wrap(xerr.Join(errs...), xerr.CodeSchedulerWeightsInvalid, "invalid weight vector")
	}
	return &Scheduler{p: p}, nil
}

// Params returns the scheduler's configuration.
func (s *Scheduler) Params() Params { return s.p }

// Retrievability is the modeled probability of successful recall after
// elapsedDays against a memory of the given stability. Elapsed time at or
// below zero means the memory has not decayed: R = 1.
func Retrievability(elapsedDays, stability float64) float64 {
	if elapsedDays <= 0 {
		return 1
	}
	if stability <= 0 {
		return 0
	}
	return math.Pow(1+elapsedDays/(retentionFactor*stability), -1)
}

// InitialState returns the stability and difficulty produced by the first
// rating of a card.
func (s *Scheduler) InitialState(rating types.Rating) (stability, difficulty float64) {
	w := s.p.Weights
	stability = math.Max(w[rating-1], minStability)
	difficulty = clampDifficulty(s.initialDifficulty(rating))
	return stability, difficulty
}

// initialDifficulty is linear in the rating around the Good anchor w4.
func (s *Scheduler) initialDifficulty(rating types.Rating) float64 {
	w := s.p.Weights
	return w[4] - float64(rating-types.RatingGood)*w[5]
}

// NextState computes the memory state after rating a card elapsedDays after
// its previous review. The prior state is not mutated; due and last-review
// timestamps are the caller's to set, since the model is pure over days.
func (s *Scheduler) NextState(prior *store.SchedulingState, rating types.Rating, elapsedDays float64) (*store.SchedulingState, error) {
	if !rating.Valid() {
		return nil, xerr.New(xerr.CodeReviewRatingInvalid, "rating outside the four-value set",
			xerr.Field("rating", int(rating)))
	}
	if elapsedDays < 0 {
		return nil, xerr.Errorf(xerr.CodeSchedulerElapsedInvalid,
			"elapsed days must be non-negative, got %g", elapsedDays)
	}

	next := prior.Clone()
	next.Reps = prior.Reps + 1

	if prior.Reps == 0 {
		next.Stability, next.Difficulty = s.InitialState(rating)
		next.LearningState = s.nextLearningState(types.StateNew, rating, next.Stability)
		return next, nil
	}

	r := Retrievability(elapsedDays, prior.Stability)
	next.Difficulty = s.nextDifficulty(prior.Difficulty, rating)

	if rating == types.RatingAgain {
		next.Stability = s.lapseStability(prior.Stability, next.Difficulty, r)
		if prior.LearningState == types.StateReview {
			next.Lapses = prior.Lapses + 1
		}
	} else {
		next.Stability = s.successStability(prior.Stability, next.Difficulty, r, rating)
	}

	next.LearningState = s.nextLearningState(prior.LearningState, rating, next.Stability)
	return next, nil
}

// nextDifficulty moves difficulty inversely with the rating, then regresses a
// fraction toward the Good-rated initial difficulty so repeated extreme
// ratings cannot drive it into a wall.
func (s *Scheduler) nextDifficulty(difficulty float64, rating types.Rating) float64 {
	w := s.p.Weights
	d := difficulty - w[6]*float64(rating-types.RatingGood)
	d = w[7]*s.initialDifficulty(types.RatingGood) + (1-w[7])*d
	return clampDifficulty(d)
}

// successStability grows stability multiplicatively, with diminishing returns
// as stability and difficulty rise, scaled by how close the card was to being
// forgotten (1 - R).
func (s *Scheduler) successStability(stability, difficulty, r float64, rating types.Rating) float64 {
	w := s.p.Weights

	hardPenalty := 1.0
	if rating == types.RatingHard {
		hardPenalty = w[15]
	}
	easyBonus := 1.0
	if rating == types.RatingEasy {
		easyBonus = w[16]
	}

	growth := math.Exp(w[8]) *
		(11 - difficulty) *
		math.Pow(stability, -w[9]) *
		(math.Exp(w[10]*(1-r)) - 1) *
		hardPenalty * easyBonus

	return math.Max(stability*(1+growth), minStability)
}

// lapseStability recomputes stability from scratch after a failed recall.
// The result is capped below the prior stability: a lapse must never push a
// card further out than its previous schedule.
func (s *Scheduler) lapseStability(stability, difficulty, r float64) float64 {
	w := s.p.Weights

	next := w[11] *
		math.Pow(difficulty, -w[12]) *
		(math.Pow(stability+1, w[13]) - 1) *
		math.Exp(w[14]*(1-r))

	ceiling := stability / (1 + w[14])
	return math.Max(math.Min(next, ceiling), minStability)
}

func (s *Scheduler) nextLearningState(prior types.LearningState, rating types.Rating, newStability float64) types.LearningState {
	if rating == types.RatingAgain {
		switch prior {
		case types.StateReview, types.StateRelearning:
			return types.StateRelearning
		default:
			// A failed brand-new or learning card stays in acquisition,
			// never graduates off a failure.
			return types.StateLearning
		}
	}

	switch prior {
	case types.StateNew, types.StateLearning:
		if newStability >= s.p.GraduationStability {
			return types.StateReview
		}
		return types.StateLearning
	case types.StateRelearning, types.StateReview:
		return types.StateReview
	default:
		return types.StateLearning
	}
}

// NextInterval converts stability into the whole-day interval at which
// retrievability decays to the target retention. Never below one day, never
// above the configured maximum.
func (s *Scheduler) NextInterval(stability float64) int {
	days := retentionFactor * stability * (1/s.p.TargetRetention - 1)
	interval := int(math.Round(days))
	if interval < 1 {
		interval = 1
	}
	if interval > s.p.MaxIntervalDays {
		interval = s.p.MaxIntervalDays
	}
	return interval
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, minDifficulty), maxDifficulty)
}
