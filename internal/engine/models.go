package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RewardTypeCash     = "cash"
	RewardTypePoints   = "points"
	RewardTypeFreePlay = "free_play"
	RewardTypeNone     = "none"
)

const (
	GameTypeSpin    = "spin"
	GameTypeScratch = "scratch"
	GameTypePop     = "pop"
	GameTypePlinko  = "plinko"
)

const (
	OrderStatusActive    = "active"
	OrderStatusCompleted = "completed"
)

// PrizeSegment is one configured outcome of a play. MaxSupply nil means the
// segment can be awarded without limit; ConsumedCount is shared by every
// order playing against the same configuration.
type PrizeSegment struct {
	SegmentID     string          `gorm:"column:segment_id;primaryKey;type:varchar(64)" json:"segment_id" yaml:"id"`
	ConfigID      string          `gorm:"column:config_id;primaryKey;type:uuid" json:"config_id" yaml:"-"`
	Label         string          `gorm:"column:label;type:varchar(100);not null" json:"label" yaml:"label"`
	RewardType    string          `gorm:"column:reward_type;type:varchar(20);not null" json:"reward_type" yaml:"reward_type"`
	RewardValue   decimal.Decimal `gorm:"column:reward_value;type:numeric(20,2);not null;default:0" json:"reward_value" yaml:"reward_value"`
	Weight        float64         `gorm:"column:weight;type:numeric(8,4);not null" json:"weight" yaml:"weight"`
	MaxSupply     *int64          `gorm:"column:max_supply" json:"max_supply" yaml:"max_supply"`
	ConsumedCount int64           `gorm:"column:consumed_count;not null;default:0" json:"consumed_count" yaml:"-"`
	Position      int             `gorm:"column:position;not null;default:0" json:"position" yaml:"-"`
}

// SegmentConfiguration is the immutable-per-draw set of segments a game type
// plays against. Segments keep their configured order; the selector scans
// them in that order.
type SegmentConfiguration struct {
	ConfigID string         `json:"config_id" yaml:"-"`
	GameType string         `json:"game_type" yaml:"game_type"`
	Segments []PrizeSegment `json:"segments" yaml:"segments"`
}

// GameOrder is a purchased entitlement to TotalPlays plays of one game type.
type GameOrder struct {
	OrderID        string    `gorm:"column:order_id;primaryKey;type:uuid" json:"order_id"`
	UserID         string    `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	GameType       string    `gorm:"column:game_type;type:varchar(20);not null" json:"game_type"`
	ConfigID       string    `gorm:"column:config_id;type:uuid;not null" json:"config_id"`
	TotalPlays     int       `gorm:"column:total_plays;not null" json:"total_plays"`
	RemainingPlays int       `gorm:"column:remaining_plays;not null" json:"remaining_plays"`
	PlayCount      int       `gorm:"column:play_count;not null;default:0" json:"play_count"`
	Status         string    `gorm:"column:status;type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

// PlayResult is one appended row per executed play. Reward fields are a
// snapshot of the segment at award time; later configuration edits never
// change history.
type PlayResult struct {
	ResultID       string          `gorm:"column:result_id;primaryKey;type:uuid" json:"result_id"`
	OrderID        string          `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_order_seq,priority:1;uniqueIndex:idx_order_request,priority:1" json:"order_id"`
	RequestID      string          `gorm:"column:request_id;type:varchar(255);not null;uniqueIndex:idx_order_request,priority:2" json:"request_id"`
	SequenceNumber int             `gorm:"column:sequence_number;not null;uniqueIndex:idx_order_seq,priority:2" json:"sequence_number"`
	SegmentID      string          `gorm:"column:segment_id;type:varchar(64);not null" json:"segment_id"`
	RewardType     string          `gorm:"column:reward_type;type:varchar(20);not null" json:"reward_type"`
	RewardValue    decimal.Decimal `gorm:"column:reward_value;type:numeric(20,2);not null" json:"reward_value"`
	IsWin          bool            `gorm:"column:is_win;not null" json:"is_win"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null;default:now()" json:"created_at"`

	// Set on idempotent replays, never persisted.
	Replayed bool `gorm:"-" json:"replayed,omitempty"`

	// Order entitlement as of this commit, carried out of the transaction
	// for notifications. Never persisted.
	RemainingPlays int `gorm:"-" json:"-"`
}

type CreateOrderRequest struct {
	UserID   string `json:"user_id"`
	GameType string `json:"game_type"`
	Plays    int    `json:"plays"`
}

type PlayRequest struct {
	UserID    string `json:"user_id"`
	RequestID string `json:"request_id"`
}

type OrderStatus struct {
	OrderID        string       `json:"order_id"`
	GameType       string       `json:"game_type"`
	RemainingPlays int          `json:"remaining_plays"`
	TotalPlays     int          `json:"total_plays"`
	Status         string       `json:"status"`
	History        []PlayResult `json:"history"`
}

// PlayUpdate is pushed to subscribers after each committed play.
type PlayUpdate struct {
	OrderID        string          `json:"order_id"`
	UserID         string          `json:"user_id"`
	SequenceNumber int             `json:"sequence_number"`
	SegmentID      string          `json:"segment_id"`
	RewardType     string          `json:"reward_type"`
	RewardValue    decimal.Decimal `json:"reward_value"`
	IsWin          bool            `json:"is_win"`
	RemainingPlays int             `json:"remaining_plays"`
	Timestamp      time.Time       `json:"timestamp"`
}

// IsCapped reports whether the segment has a supply cap.
func (s *PrizeSegment) IsCapped() bool {
	return s.MaxSupply != nil
}

// Eligible reports whether the segment may still be awarded.
func (s *PrizeSegment) Eligible() bool {
	return s.MaxSupply == nil || s.ConsumedCount < *s.MaxSupply
}
