// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package scheduler

import (
	"hash/fnv"
	"math"
	"time"
)

// fuzzRange is the maximum relative perturbation applied to an interval.
const fuzzRange = 0.05

// minFuzzDays: one- and two-day intervals carry learning-phase meaning and
// are never fuzzed.
const minFuzzDays = 3

// FuzzInterval perturbs an interval by at most ±5%, seeded deterministically
// from the card id and its current due timestamp. Repeated previews of the
// same not-yet-committed schedule therefore agree, while distinct cards do
// not cluster on identical due dates. Returns the interval unchanged when
// fuzzing is disabled or the interval is too short to matter.
func (s *Scheduler) FuzzInterval(days int, cardID string, dueAt time.Time) int {
	if !s.p.FuzzEnabled || days < minFuzzDays {
		return days
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(cardID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(dueAt.UTC().Format(time.RFC3339Nano)))

	// Map the hash onto [-fuzzRange, +fuzzRange].
	unit := float64(h.Sum64()%100001) / 100000
	factor := 1 + fuzzRange*(2*unit-1)

	fuzzed := int(math.Round(float64(days) * factor))
	if fuzzed < 1 {
		fuzzed = 1
	}
	if fuzzed > s.p.MaxIntervalDays {
		fuzzed = s.p.MaxIntervalDays
	}
	return fuzzed
}
