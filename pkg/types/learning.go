// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package types

// LearningState is the lifecycle phase of a card's memory trace.
type LearningState string

const (
	// StateNew marks a card that has never been reviewed.
	StateNew LearningState = "new"
	// StateLearning marks a card in its initial acquisition phase.
	StateLearning LearningState = "learning"
	// StateReview marks a graduated card on the long-term review schedule.
	StateReview LearningState = "review"
	// StateRelearning marks a lapsed card being re-acquired.
	StateRelearning LearningState = "relearning"
)

// Valid reports whether the learning state is a known lifecycle phase.
func (s LearningState) Valid() bool {
	switch s {
	case StateNew, StateLearning, StateReview, StateRelearning:
		return true
	default:
		return false
	}
}
