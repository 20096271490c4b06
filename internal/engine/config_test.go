package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func validConfig() *SegmentConfiguration {
	return &SegmentConfiguration{
		ConfigID: "cfg-1",
		GameType: GameTypeSpin,
		Segments: []PrizeSegment{
			{SegmentID: "cash10", ConfigID: "cfg-1", RewardType: RewardTypeCash, RewardValue: decimal.NewFromInt(1000), Weight: 10, MaxSupply: int64Ptr(5)},
			{SegmentID: "free", ConfigID: "cfg-1", RewardType: RewardTypeFreePlay, Weight: 15},
			{SegmentID: "no_win", ConfigID: "cfg-1", RewardType: RewardTypeNone, Weight: 75},
		},
	}
}

func TestValidateAcceptsGoodConfiguration(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadWeightSum(t *testing.T) {
	cfg := validConfig()
	cfg.Segments[0].Weight = 11

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
}

func TestValidateRejectsDuplicateSegmentIDs(t *testing.T) {
	cfg := validConfig()
	cfg.Segments[1].SegmentID = "cash10"

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
}

func TestValidateRejectsMissingFallback(t *testing.T) {
	cfg := validConfig()
	cfg.Segments[2].MaxSupply = int64Ptr(10) // capping the only "none" segment

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
}

func TestValidateRejectsNegativeWeight(t *testing.T) {
	cfg := validConfig()
	cfg.Segments[0].Weight = -10
	cfg.Segments[2].Weight = 95

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
}

func TestValidateRejectsUnknownRewardType(t *testing.T) {
	cfg := validConfig()
	cfg.Segments[0].RewardType = "voucher"

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
}

func TestValidateRejectsUnknownGameType(t *testing.T) {
	cfg := validConfig()
	cfg.GameType = "roulette"

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
}

func TestValidateRejectsNegativeMaxSupply(t *testing.T) {
	cfg := validConfig()
	cfg.Segments[0].MaxSupply = int64Ptr(-1)

	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
}

func TestValidateToleratesFloatNoise(t *testing.T) {
	cfg := &SegmentConfiguration{
		GameType: GameTypeScratch,
		Segments: []PrizeSegment{
			{SegmentID: "a", RewardType: RewardTypePoints, RewardValue: decimal.NewFromInt(5), Weight: 0.1},
			{SegmentID: "b", RewardType: RewardTypePoints, RewardValue: decimal.NewFromInt(1), Weight: 0.2},
			{SegmentID: "no_win", RewardType: RewardTypeNone, Weight: 99.7},
		},
	}

	// 0.1 + 0.2 + 99.7 does not sum to exactly 100 in float64.
	require.NoError(t, cfg.Validate())
}

func TestConfigStoreActivateRejectsInvalid(t *testing.T) {
	store := NewConfigStore()
	cfg := validConfig()
	cfg.Segments[0].Weight = 50

	require.Error(t, store.Activate(cfg))
	require.Nil(t, store.Active(GameTypeSpin))
}

func TestConfigStoreActivateAndSwap(t *testing.T) {
	store := NewConfigStore()

	first := validConfig()
	require.NoError(t, store.Activate(first))
	require.Equal(t, first, store.Active(GameTypeSpin))

	second := validConfig()
	second.ConfigID = "cfg-2"
	for i := range second.Segments {
		second.Segments[i].ConfigID = "cfg-2"
	}
	require.NoError(t, store.Activate(second))
	require.Equal(t, second, store.Active(GameTypeSpin))
}
