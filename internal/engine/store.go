package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prize_engine/internal/wallet"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderExhausted     = errors.New("no plays remaining on order")
	ErrUnauthorized       = errors.New("order does not belong to user")
	ErrSegmentExhausted   = errors.New("segment supply exhausted")
	ErrAllocationConflict = errors.New("allocation conflict, try again")
)

// Store persists orders, results and segment supply. CommitPlay is the one
// atomic unit: it serializes per order, reserves supply per segment, applies
// the reward and appends history, or commits nothing at all.
type Store interface {
	SaveConfiguration(ctx context.Context, cfg *SegmentConfiguration) error
	SegmentsForConfig(ctx context.Context, configID string) ([]PrizeSegment, error)
	CreateOrder(ctx context.Context, order *GameOrder) error
	GetOrder(ctx context.Context, orderID string) (*GameOrder, error)
	GetResultByRequest(ctx context.Context, orderID, requestID string) (*PlayResult, error)
	ListResults(ctx context.Context, orderID string) ([]PlayResult, error)
	CommitPlay(ctx context.Context, orderID string, seg *PrizeSegment, requestID string) (*PlayResult, error)
	GetBalance(ctx context.Context, userID string) (*wallet.Balance, error)
}

type GormStore struct {
	db      *gorm.DB
	wallets wallet.Repository
}

func NewGormStore(db *gorm.DB, wallets wallet.Repository) *GormStore {
	return &GormStore{db: db, wallets: wallets}
}

// SaveConfiguration registers a configuration's segments. Re-saving an
// already known configuration keeps the stored rows and their consumed
// counts; boot-time re-registration must never re-arm a supply cap.
func (s *GormStore) SaveConfiguration(ctx context.Context, cfg *SegmentConfiguration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range cfg.Segments {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cfg.Segments[i]).Error
			if err != nil {
				return fmt.Errorf("failed to save segment %q: %w", cfg.Segments[i].SegmentID, err)
			}
		}
		return nil
	})
}

func (s *GormStore) SegmentsForConfig(ctx context.Context, configID string) ([]PrizeSegment, error) {
	var segments []PrizeSegment
	err := s.db.WithContext(ctx).
		Where("config_id = ?", configID).
		Order("position ASC").
		Find(&segments).Error
	if err != nil {
		return nil, err
	}
	return segments, nil
}

func (s *GormStore) CreateOrder(ctx context.Context, order *GameOrder) error {
	return s.db.WithContext(ctx).Create(order).Error
}

func (s *GormStore) GetOrder(ctx context.Context, orderID string) (*GameOrder, error) {
	var order GameOrder
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *GormStore) GetResultByRequest(ctx context.Context, orderID, requestID string) (*PlayResult, error) {
	var result PlayResult
	err := s.db.WithContext(ctx).
		Where("order_id = ? AND request_id = ?", orderID, requestID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (s *GormStore) ListResults(ctx context.Context, orderID string) ([]PlayResult, error) {
	var results []PlayResult
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("sequence_number ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CommitPlay runs one play as a single transaction. The order row lock
// serializes plays per order; the conditional supply update is the per
// segment critical section. A lost supply race returns ErrSegmentExhausted
// with nothing committed, and the caller reselects.
func (s *GormStore) CommitPlay(ctx context.Context, orderID string, seg *PrizeSegment, requestID string) (*PlayResult, error) {
	var result *PlayResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order GameOrder
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ?", orderID).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		// Replay check under the order lock closes the race between the
		// caller's fast-path check and a concurrent retry of the same
		// request.
		var existing PlayResult
		err = tx.Where("order_id = ? AND request_id = ?", orderID, requestID).First(&existing).Error
		if err == nil {
			existing.Replayed = true
			existing.RemainingPlays = order.RemainingPlays
			result = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if order.Status != OrderStatusActive || order.RemainingPlays <= 0 {
			return ErrOrderExhausted
		}

		// Supply reservation: eligibility check and increment are one
		// statement, so two plays can never both claim the last unit.
		res := tx.Model(&PrizeSegment{}).
			Where("config_id = ? AND segment_id = ?", seg.ConfigID, seg.SegmentID).
			Where("max_supply IS NULL OR consumed_count < max_supply").
			UpdateColumn("consumed_count", gorm.Expr("consumed_count + 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to reserve segment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrSegmentExhausted
		}

		play := &PlayResult{
			ResultID:       uuid.New().String(),
			OrderID:        orderID,
			RequestID:      requestID,
			SequenceNumber: order.PlayCount + 1,
			SegmentID:      seg.SegmentID,
			RewardType:     seg.RewardType,
			RewardValue:    seg.RewardValue,
			IsWin:          seg.RewardType != RewardTypeNone,
			CreatedAt:      time.Now(),
		}
		if err := tx.Create(play).Error; err != nil {
			return fmt.Errorf("failed to append play result: %w", err)
		}

		switch seg.RewardType {
		case RewardTypeCash:
			if err := s.wallets.CreditCash(ctx, tx, order.UserID, seg.RewardValue, play.ResultID); err != nil {
				return err
			}
		case RewardTypePoints:
			if err := s.wallets.CreditPoints(ctx, tx, order.UserID, seg.RewardValue.IntPart(), play.ResultID); err != nil {
				return err
			}
		}

		remaining := order.RemainingPlays - 1
		if seg.RewardType == RewardTypeFreePlay {
			// The consumed slot is credited straight back; the play is free.
			remaining++
		}
		status := OrderStatusActive
		if remaining == 0 {
			status = OrderStatusCompleted
		}
		updates := map[string]interface{}{
			"remaining_plays": remaining,
			"play_count":      order.PlayCount + 1,
			"status":          status,
			"updated_at":      time.Now(),
		}
		if err := tx.Model(&GameOrder{}).Where("order_id = ?", orderID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		play.RemainingPlays = remaining
		result = play
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GormStore) GetBalance(ctx context.Context, userID string) (*wallet.Balance, error) {
	w, err := s.wallets.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return &wallet.Balance{UserID: userID, CashBalance: decimal.Zero}, nil
		}
		return nil, err
	}
	return &wallet.Balance{
		UserID:        w.UserID,
		CashBalance:   w.CashBalance,
		PointsBalance: w.PointsBalance,
	}, nil
}
