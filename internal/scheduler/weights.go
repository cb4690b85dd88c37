// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package scheduler

import (
	"math"

	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
)

// WeightCount is the length of a model weight vector.
const WeightCount = 17

// Weights is the numeric parameter vector of the memory model. The shape of
// the update formulas is fixed; the weights are a versioned artifact that can
// be swapped out via configuration when a revised parameter set is published.
//
// Layout:
//
//	w0..w3   initial stability per rating (Again, Hard, Good, Easy)
//	w4       initial difficulty for a Good rating
//	w5       initial difficulty slope per rating step
//	w6       difficulty delta per rating step on review
//	w7       mean-reversion fraction toward the Good initial difficulty
//	w8       stability growth scale (exponent base)
//	w9       stability saturation exponent
//	w10      retrievability gain exponent
//	w11..w14 post-lapse stability: base, difficulty exponent,
//	         stability exponent, retrievability factor
//	w15      Hard interval penalty (multiplier < 1)
//	w16      Easy interval bonus (multiplier > 1)
type Weights [WeightCount]float64

// DefaultWeights returns the built-in parameter set.
func DefaultWeights() Weights {
	return Weights{
		0.40, 0.60, 2.40, 5.80, // w0..w3
		4.93, // w4
		0.94, // w5
		0.86, // w6
		0.05, // w7
		1.49, // w8
		0.14, // w9
		0.94, // w10
		2.18, 0.05, 0.34, 1.26, // w11..w14
		0.29, // w15
		2.61, // w16
	}
}

// Validate checks the weight vector for values that would break the model
// invariants (non-positive initial stabilities, out-of-range multipliers).
// It returns all problems found, not just the first.
func (w Weights) Validate() []error {
	var errs []error

	for i := 0; i < 4; i++ {
		if w[i] <= 0 {
			errs = append(errs, xerr.Errorf(xerr.CodeSchedulerWeightsInvalid,
				"weights: initial stability w%d must be positive, got %g", i, w[i]))
		}
	}

	if w[4] < 1 || w[4] > 10 {
		errs = append(errs, xerr.Errorf(xerr.CodeSchedulerWeightsInvalid,
			"weights: initial difficulty w4 must be within [1,10], got %g", w[4]))
	}

	if w[7] < 0 || w[7] > 1 {
		errs = append(errs, xerr.Errorf(xerr.CodeSchedulerWeightsInvalid,
			"weights: mean-reversion fraction w7 must be within [0,1], got %g", w[7]))
	}

	if w[15] <= 0 || w[15] >= 1 {
		errs = append(errs, xerr.Errorf(xerr.CodeSchedulerWeightsInvalid,
			"weights: hard penalty w15 must be within (0,1), got %g", w[15]))
	}

	if w[16] <= 1 {
		errs = append(errs, xerr.Errorf(xerr.CodeSchedulerWeightsInvalid,
			"weights: easy bonus w16 must be greater than 1, got %g", w[16]))
	}

	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, xerr.Errorf(xerr.CodeSchedulerWeightsInvalid,
				"weights: w%d is not finite", i))
		}
	}

	return errs
}
