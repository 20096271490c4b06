package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-jose/go-jose/v4/testutils/assert"
	"github.com/stretchr/testify/require"
)

const spinYAML = `game_type: spin
segments:
  - id: cash_1000
    label: "£10 Cash"
    reward_type: cash
    reward_value: "1000"
    weight: 10
    max_supply: 5
  - id: free_spin
    label: "Free Spin"
    reward_type: free_play
    weight: 5
  - id: no_win
    label: "Better luck next time"
    reward_type: none
    weight: 85
`

func TestLoadConfigurations(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "spin.yaml"), []byte(spinYAML), 0o644)
	require.NoError(t, err)

	configs, err := LoadConfigurations(dir)
	assert.NoError(t, err)
	require.Len(t, configs, 1)

	cfg := configs[0]
	require.Equal(t, GameTypeSpin, cfg.GameType)
	require.NotEmpty(t, cfg.ConfigID)
	require.Len(t, cfg.Segments, 3)

	for i, seg := range cfg.Segments {
		require.Equal(t, cfg.ConfigID, seg.ConfigID)
		require.Equal(t, i, seg.Position)
	}

	cash := cfg.Segments[0]
	require.Equal(t, "cash_1000", cash.SegmentID)
	require.Equal(t, RewardTypeCash, cash.RewardType)
	require.Equal(t, "1000", cash.RewardValue.String())
	require.NotNil(t, cash.MaxSupply)
	require.EqualValues(t, 5, *cash.MaxSupply)

	require.Nil(t, cfg.Segments[2].MaxSupply)
}

func TestLoadConfigurationsStableIdentity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(spinYAML), 0o644))

	first, err := LoadConfigurations(dir)
	require.NoError(t, err)
	second, err := LoadConfigurations(dir)
	require.NoError(t, err)
	require.Equal(t, first[0].ConfigID, second[0].ConfigID,
		"unchanged content must keep its identity across restarts")

	// An edited file is a different configuration.
	require.NoError(t, os.WriteFile(path, []byte(spinYAML+"# v2\n"), 0o644))
	third, err := LoadConfigurations(dir)
	require.NoError(t, err)
	require.NotEqual(t, first[0].ConfigID, third[0].ConfigID)
}

func TestLoadConfigurationsSkipsMissingFiles(t *testing.T) {
	configs, err := LoadConfigurations(t.TempDir())
	assert.NoError(t, err)
	require.Empty(t, configs)
}

func TestLoadConfigurationsRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	bad := `game_type: pop
segments:
  - id: cash
    reward_type: cash
    reward_value: "500"
    weight: 50
  - id: no_win
    reward_type: none
    weight: 40
`
	err := os.WriteFile(filepath.Join(dir, "pop.yaml"), []byte(bad), 0o644)
	require.NoError(t, err)

	_, err = LoadConfigurations(dir)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}
