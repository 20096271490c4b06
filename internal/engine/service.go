package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"
)

// ErrInvalidOrderRequest marks rejected order creation input, as opposed to
// a store failure.
var ErrInvalidOrderRequest = errors.New("invalid order request")

// MaxSelectRetries bounds how often a play reselects after losing a supply
// race before it fails with ErrAllocationConflict.
const MaxSelectRetries = 3

// Service is the play executor. The outcome is selected and committed here,
// before any response is returned; client-side animation only replays a
// decision that is already final.
type Service struct {
	store   Store
	configs *ConfigStore
	rng     RandomSource
	hub     *NotificationHub
}

func NewService(store Store, configs *ConfigStore, rng RandomSource) *Service {
	if rng == nil {
		rng = DefaultRNG()
	}
	return &Service{
		store:   store,
		configs: configs,
		rng:     rng,
		hub:     NewNotificationHub(),
	}
}

// CreateOrder grants the entitlement for a paid bundle of plays. It is the
// only way entitlement comes into existence; the checkout collaborator calls
// it once payment has cleared.
func (s *Service) CreateOrder(ctx context.Context, userID, gameType string, plays int) (*GameOrder, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidOrderRequest)
	}
	if plays <= 0 {
		return nil, fmt.Errorf("%w: plays must be positive", ErrInvalidOrderRequest)
	}
	cfg := s.configs.Active(gameType)
	if cfg == nil {
		return nil, fmt.Errorf("%w: no active configuration for game type %s", ErrInvalidOrderRequest, gameType)
	}

	order := &GameOrder{
		OrderID:        uuid.New().String(),
		UserID:         userID,
		GameType:       gameType,
		ConfigID:       cfg.ConfigID,
		TotalPlays:     plays,
		RemainingPlays: plays,
		Status:         OrderStatusActive,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	logger.Infof("order created: order=%s user=%s game=%s plays=%d", order.OrderID, userID, gameType, plays)
	return order, nil
}

// ExecutePlay runs one play against the order's configuration. requestID is
// the client's idempotency token: a retried request returns the committed
// result of the first attempt instead of playing again.
func (s *Service) ExecutePlay(ctx context.Context, orderID, userID, requestID string) (*PlayResult, error) {
	if requestID == "" {
		return nil, errors.New("request id required")
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrUnauthorized
	}

	// Fast-path replay check; CommitPlay re-checks under the order lock.
	if existing, err := s.store.GetResultByRequest(ctx, orderID, requestID); err != nil {
		return nil, err
	} else if existing != nil {
		existing.Replayed = true
		return existing, nil
	}

	if order.Status != OrderStatusActive || order.RemainingPlays <= 0 {
		return nil, ErrOrderExhausted
	}

	// Plays run against the currently active configuration for the game
	// type; an admin swap applies to in-flight orders from their next play.
	cfg := s.configs.Active(order.GameType)
	if cfg == nil {
		return nil, ErrInvalidConfiguration
	}
	// The admin collaborator guarantees this, but money is at stake: never
	// run a play against a configuration that fails validation.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < MaxSelectRetries; attempt++ {
		segments, err := s.store.SegmentsForConfig(ctx, cfg.ConfigID)
		if err != nil {
			return nil, err
		}

		seg, err := Select(segments, s.rng.Float64()*WeightTotal)
		if err != nil {
			return nil, err
		}

		result, err := s.store.CommitPlay(ctx, orderID, seg, requestID)
		if errors.Is(err, ErrSegmentExhausted) {
			// Lost the supply race after selection; the reload next
			// iteration sees the segment capped out and excludes it.
			logger.Infof("supply race lost: order=%s segment=%s attempt=%d", orderID, seg.SegmentID, attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}
		if !result.Replayed {
			s.hub.Notify(order.UserID, PlayUpdate{
				OrderID:        result.OrderID,
				UserID:         order.UserID,
				SequenceNumber: result.SequenceNumber,
				SegmentID:      result.SegmentID,
				RewardType:     result.RewardType,
				RewardValue:    result.RewardValue,
				IsWin:          result.IsWin,
				RemainingPlays: result.RemainingPlays,
				Timestamp:      time.Now(),
			})
		}
		return result, nil
	}
	return nil, ErrAllocationConflict
}

// GetOrderStatus returns committed state only; in-flight reservations are
// invisible until their transaction lands.
func (s *Service) GetOrderStatus(ctx context.Context, orderID, userID string) (*OrderStatus, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrUnauthorized
	}

	history, err := s.store.ListResults(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderStatus{
		OrderID:        order.OrderID,
		GameType:       order.GameType,
		RemainingPlays: order.RemainingPlays,
		TotalPlays:     order.TotalPlays,
		Status:         order.Status,
		History:        history,
	}, nil
}

func (s *Service) SubscribeToPlayUpdates(userID string) <-chan PlayUpdate {
	return s.hub.Subscribe(userID)
}
