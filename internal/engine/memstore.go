package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"prize_engine/internal/wallet"
)

// MemStore is a single-node Store. The correctness boundary is the same as
// the database-backed store: one mutex per order serializes its plays, one
// mutex per segment makes the supply check-and-increment atomic. Unrelated
// orders and segments proceed in parallel; s.mu only guards the maps.
type MemStore struct {
	mu        sync.RWMutex
	segments  map[string][]*PrizeSegment // configID -> segments in position order
	orders    map[string]*GameOrder
	results   map[string][]PlayResult
	byRequest map[string]*PlayResult // orderID + "\x00" + requestID
	wallets   map[string]*wallet.Balance

	lockMu     sync.Mutex
	orderLocks map[string]*sync.Mutex
	segLocks   map[string]*sync.Mutex
}

func NewMemStore() *MemStore {
	return &MemStore{
		segments:   make(map[string][]*PrizeSegment),
		orders:     make(map[string]*GameOrder),
		results:    make(map[string][]PlayResult),
		byRequest:  make(map[string]*PlayResult),
		wallets:    make(map[string]*wallet.Balance),
		orderLocks: make(map[string]*sync.Mutex),
		segLocks:   make(map[string]*sync.Mutex),
	}
}

func (s *MemStore) orderLock(orderID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	m, ok := s.orderLocks[orderID]
	if !ok {
		m = &sync.Mutex{}
		s.orderLocks[orderID] = m
	}
	return m
}

func (s *MemStore) segLock(configID, segmentID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	key := configID + "\x00" + segmentID
	m, ok := s.segLocks[key]
	if !ok {
		m = &sync.Mutex{}
		s.segLocks[key] = m
	}
	return m
}

func (s *MemStore) SaveConfiguration(ctx context.Context, cfg *SegmentConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-registering a known configuration keeps its consumed counts.
	if _, ok := s.segments[cfg.ConfigID]; ok {
		return nil
	}
	segs := make([]*PrizeSegment, len(cfg.Segments))
	for i := range cfg.Segments {
		copy := cfg.Segments[i]
		segs[i] = &copy
	}
	s.segments[cfg.ConfigID] = segs
	return nil
}

func (s *MemStore) SegmentsForConfig(ctx context.Context, configID string) ([]PrizeSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	segs := s.segments[configID]
	out := make([]PrizeSegment, len(segs))
	for i, seg := range segs {
		out[i] = *seg
	}
	return out, nil
}

func (s *MemStore) CreateOrder(ctx context.Context, order *GameOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *order
	s.orders[order.OrderID] = &copy
	return nil
}

func (s *MemStore) GetOrder(ctx context.Context, orderID string) (*GameOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copy := *order
	return &copy, nil
}

func (s *MemStore) GetResultByRequest(ctx context.Context, orderID, requestID string) (*PlayResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.byRequest[orderID+"\x00"+requestID]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, nil
}

func (s *MemStore) ListResults(ctx context.Context, orderID string) ([]PlayResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := s.results[orderID]
	out := make([]PlayResult, len(results))
	copy(out, results)
	return out, nil
}

func (s *MemStore) CommitPlay(ctx context.Context, orderID string, seg *PrizeSegment, requestID string) (*PlayResult, error) {
	lock := s.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	order, ok := s.orders[orderID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrOrderNotFound
	}

	if existing, _ := s.GetResultByRequest(ctx, orderID, requestID); existing != nil {
		existing.Replayed = true
		existing.RemainingPlays = order.RemainingPlays
		return existing, nil
	}

	// Order fields are only written under the order lock, so reading them
	// here without s.mu is safe.
	if order.Status != OrderStatusActive || order.RemainingPlays <= 0 {
		return nil, ErrOrderExhausted
	}

	if err := s.reserve(seg); err != nil {
		return nil, err
	}

	play := PlayResult{
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

	remaining := order.RemainingPlays - 1
	if seg.RewardType == RewardTypeFreePlay {
		remaining++
	}

	s.mu.Lock()
	switch seg.RewardType {
	case RewardTypeCash:
		b := s.balance(order.UserID)
		b.CashBalance = b.CashBalance.Add(seg.RewardValue)
	case RewardTypePoints:
		b := s.balance(order.UserID)
		b.PointsBalance += seg.RewardValue.IntPart()
	}
	s.results[orderID] = append(s.results[orderID], play)
	s.byRequest[orderID+"\x00"+requestID] = &play
	order.PlayCount++
	order.RemainingPlays = remaining
	if remaining == 0 {
		order.Status = OrderStatusCompleted
	}
	order.UpdatedAt = time.Now()
	s.mu.Unlock()

	copy := play
	copy.RemainingPlays = remaining
	return &copy, nil
}

// reserve is the supply ledger critical section: eligibility check and
// increment under the segment's own mutex.
func (s *MemStore) reserve(seg *PrizeSegment) error {
	lock := s.segLock(seg.ConfigID, seg.SegmentID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	var live *PrizeSegment
	for _, candidate := range s.segments[seg.ConfigID] {
		if candidate.SegmentID == seg.SegmentID {
			live = candidate
			break
		}
	}
	if live == nil || !live.Eligible() {
		return ErrSegmentExhausted
	}
	live.ConsumedCount++
	return nil
}

func (s *MemStore) GetBalance(ctx context.Context, userID string) (*wallet.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.wallets[userID]; ok {
		copy := *b
		return &copy, nil
	}
	return &wallet.Balance{UserID: userID, CashBalance: decimal.Zero}, nil
}

func (s *MemStore) balance(userID string) *wallet.Balance {
	b, ok := s.wallets[userID]
	if !ok {
		b = &wallet.Balance{UserID: userID, CashBalance: decimal.Zero}
		s.wallets[userID] = b
	}
	return b
}
