// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package types

import "strings"

// Rating is a recall-quality grade given by the reviewer after seeing the
// answer side of a card. Ordering matters: Again < Hard < Good < Easy.
type Rating int

const (
	RatingAgain Rating = 1
	RatingHard  Rating = 2
	RatingGood  Rating = 3
	RatingEasy  Rating = 4
)

// Valid reports whether the rating is one of the four recall grades.
func (r Rating) Valid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

// Success reports whether the rating counts as a successful recall.
func (r Rating) Success() bool {
	return r != RatingAgain && r.Valid()
}

func (r Rating) String() string {
	switch r {
	case RatingAgain:
		return "again"
	case RatingHard:
		return "hard"
	case RatingGood:
		return "good"
	case RatingEasy:
		return "easy"
	default:
		return "unknown"
	}
}

// ParseRating maps a user-facing rating name to a Rating. The zero Rating
// and false are returned for anything outside the four-value set.
func ParseRating(s string) (Rating, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "again":
		return RatingAgain, true
	case "hard":
		return RatingHard, true
	case "good":
		return RatingGood, true
	case "easy":
		return RatingEasy, true
	default:
		return 0, false
	}
}

// AllRatings returns the four ratings in ascending order. Callers use this
// for interval previews and statistics breakdowns.
func AllRatings() []Rating {
	return []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy}
}
