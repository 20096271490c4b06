package engine

import (
	"fmt"
	"math"
	"sync"
)

// Validate checks the invariants a configuration must satisfy before any
// play may run against it: weights are non-negative and sum to exactly
// WeightTotal (within tolerance), segment IDs are unique, reward types are
// known, and an uncapped "none" fallback segment exists. The engine fails
// closed on violations; it never renormalizes.
func (c *SegmentConfiguration) Validate() error {
	if len(c.Segments) == 0 {
		return fmt.Errorf("%w: no segments", ErrInvalidConfiguration)
	}
	switch c.GameType {
	case GameTypeSpin, GameTypeScratch, GameTypePop, GameTypePlinko:
	default:
		return fmt.Errorf("%w: unknown game type %q", ErrInvalidConfiguration, c.GameType)
	}

	total := 0.0
	seen := make(map[string]bool, len(c.Segments))
	hasFallback := false
	for i := range c.Segments {
		seg := &c.Segments[i]
		if seg.SegmentID == "" {
			return fmt.Errorf("%w: segment with empty id", ErrInvalidConfiguration)
		}
		if seen[seg.SegmentID] {
			return fmt.Errorf("%w: duplicate segment id %q", ErrInvalidConfiguration, seg.SegmentID)
		}
		seen[seg.SegmentID] = true

		switch seg.RewardType {
		case RewardTypeCash, RewardTypePoints, RewardTypeFreePlay, RewardTypeNone:
		default:
			return fmt.Errorf("%w: segment %q has unknown reward type %q", ErrInvalidConfiguration, seg.SegmentID, seg.RewardType)
		}
		if seg.Weight < 0 || math.IsNaN(seg.Weight) || math.IsInf(seg.Weight, 0) {
			return fmt.Errorf("%w: segment %q has invalid weight", ErrInvalidConfiguration, seg.SegmentID)
		}
		if seg.MaxSupply != nil && *seg.MaxSupply < 0 {
			return fmt.Errorf("%w: segment %q has negative max supply", ErrInvalidConfiguration, seg.SegmentID)
		}
		if seg.RewardType == RewardTypeNone && !seg.IsCapped() {
			hasFallback = true
		}
		total += seg.Weight
	}

	if math.Abs(total-WeightTotal) > WeightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want %v", ErrInvalidConfiguration, total, WeightTotal)
	}
	if !hasFallback {
		return fmt.Errorf("%w: no uncapped %q fallback segment", ErrInvalidConfiguration, RewardTypeNone)
	}
	return nil
}

// ConfigStore holds the active configuration per game type. Admins can swap
// configurations live; plays always snapshot reward fields, so a swap never
// rewrites history.
type ConfigStore struct {
	mu     sync.RWMutex
	active map[string]*SegmentConfiguration // key: game type
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		active: make(map[string]*SegmentConfiguration),
	}
}

// Activate validates cfg and makes it the active configuration for its game
// type, replacing any previous one.
func (s *ConfigStore) Activate(cfg *SegmentConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[cfg.GameType] = cfg
	return nil
}

// Active returns the active configuration for a game type, or nil.
func (s *ConfigStore) Active(gameType string) *SegmentConfiguration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[gameType]
}
