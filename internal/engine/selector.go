package engine

import (
	"errors"
	"math"
)

const (
	// WeightTotal is what every usable configuration's weights must sum to.
	WeightTotal = 100.0
	// WeightTolerance absorbs floating-point noise in the sum check.
	WeightTolerance = 1e-9
)

var (
	ErrInvalidConfiguration = errors.New("invalid segment configuration")
	ErrNoEligibleSegment    = errors.New("no eligible segment for draw")
)

// Select picks one segment by cumulative-weight scan over the eligible
// members of segments, using a draw in [0, 100). Capped-out segments keep
// their slot in weight-space: a draw landing there falls through to the next
// eligible segment, and if the scan runs out it falls back to the uncapped
// "none" segment the configuration is required to carry. Weights are used as
// configured, never renormalized.
//
// segments must be the full configured set in configuration order; Select
// validates the total weight defensively and refuses to approximate.
func Select(segments []PrizeSegment, draw float64) (*PrizeSegment, error) {
	total := 0.0
	for i := range segments {
		total += segments[i].Weight
	}
	if math.Abs(total-WeightTotal) > WeightTolerance {
		return nil, ErrInvalidConfiguration
	}
	if draw < 0 || draw >= WeightTotal {
		return nil, ErrInvalidConfiguration
	}

	cumulative := 0.0
	for i := range segments {
		seg := &segments[i]
		if !seg.Eligible() {
			continue
		}
		cumulative += seg.Weight
		if draw < cumulative {
			return seg, nil
		}
	}

	// All remaining weight belongs to capped-out segments; award the
	// uncapped no-win fallback instead.
	for i := range segments {
		seg := &segments[i]
		if seg.RewardType == RewardTypeNone && !seg.IsCapped() {
			return seg, nil
		}
	}
	return nil, ErrNoEligibleSegment
}
