package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func testSegments() []PrizeSegment {
	return []PrizeSegment{
		{SegmentID: "cash10", RewardType: RewardTypeCash, RewardValue: decimal.NewFromInt(1000), Weight: 10, MaxSupply: int64Ptr(1)},
		{SegmentID: "points", RewardType: RewardTypePoints, RewardValue: decimal.NewFromInt(50), Weight: 20},
		{SegmentID: "no_win", RewardType: RewardTypeNone, Weight: 70},
	}
}

func TestSelectPicksByCumulativeWeight(t *testing.T) {
	segments := testSegments()

	seg, err := Select(segments, 5)
	require.NoError(t, err)
	require.Equal(t, "cash10", seg.SegmentID)

	seg, err = Select(segments, 10)
	require.NoError(t, err)
	require.Equal(t, "points", seg.SegmentID)

	seg, err = Select(segments, 29.999)
	require.NoError(t, err)
	require.Equal(t, "points", seg.SegmentID)

	seg, err = Select(segments, 99.999)
	require.NoError(t, err)
	require.Equal(t, "no_win", seg.SegmentID)
}

func TestSelectSkipsCappedSegment(t *testing.T) {
	segments := testSegments()
	segments[0].ConsumedCount = 1 // at cap

	// A draw that would have landed on the capped segment falls through to
	// the next eligible one.
	seg, err := Select(segments, 5)
	require.NoError(t, err)
	require.Equal(t, "points", seg.SegmentID)
}

func TestSelectFallsBackWhenEligibleWeightExhausted(t *testing.T) {
	segments := []PrizeSegment{
		{SegmentID: "cash", RewardType: RewardTypeCash, RewardValue: decimal.NewFromInt(1000), Weight: 90, MaxSupply: int64Ptr(1), ConsumedCount: 1},
		{SegmentID: "no_win", RewardType: RewardTypeNone, Weight: 10},
	}

	// Only 10 units of eligible weight remain; a draw beyond it lands on
	// the fallback rather than erroring.
	seg, err := Select(segments, 95)
	require.NoError(t, err)
	require.Equal(t, "no_win", seg.SegmentID)
}

func TestSelectErrorsWithoutFallback(t *testing.T) {
	segments := []PrizeSegment{
		{SegmentID: "cash", RewardType: RewardTypeCash, RewardValue: decimal.NewFromInt(1000), Weight: 100, MaxSupply: int64Ptr(1), ConsumedCount: 1},
	}

	_, err := Select(segments, 50)
	require.ErrorIs(t, err, ErrNoEligibleSegment)
}

func TestSelectRejectsBadWeightSum(t *testing.T) {
	segments := []PrizeSegment{
		{SegmentID: "a", RewardType: RewardTypeNone, Weight: 50},
		{SegmentID: "b", RewardType: RewardTypeNone, Weight: 49},
	}

	_, err := Select(segments, 10)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestSelectRejectsOutOfRangeDraw(t *testing.T) {
	segments := testSegments()

	_, err := Select(segments, -1)
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = Select(segments, 100)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestSeededRNGIsReplicable(t *testing.T) {
	a := NewSeededRNG(42)
	b := NewSeededRNG(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestSelectDistributionWithSeededRNG(t *testing.T) {
	segments := []PrizeSegment{
		{SegmentID: "win", RewardType: RewardTypePoints, RewardValue: decimal.NewFromInt(10), Weight: 30},
		{SegmentID: "no_win", RewardType: RewardTypeNone, Weight: 70},
	}

	rng := NewSeededRNG(7)
	wins := 0
	const draws = 100000
	for i := 0; i < draws; i++ {
		seg, err := Select(segments, rng.Float64()*WeightTotal)
		require.NoError(t, err)
		if seg.SegmentID == "win" {
			wins++
		}
	}

	// 30% +- 1.5% over 100k draws; far outside this means the scan is wrong.
	require.InDelta(t, 0.30, float64(wins)/float64(draws), 0.015)
}
