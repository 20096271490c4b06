package engine

import "sync"

// NotificationHub fans committed play results out to per-user subscribers,
// so the UI layer can push balances and history without polling.
type NotificationHub struct {
	mu          sync.RWMutex
	subscribers map[string][]chan PlayUpdate
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		subscribers: make(map[string][]chan PlayUpdate),
	}
}

func (h *NotificationHub) Subscribe(userID string) <-chan PlayUpdate {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan PlayUpdate, 10)
	h.subscribers[userID] = append(h.subscribers[userID], ch)
	return ch
}

func (h *NotificationHub) Notify(userID string, update PlayUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers[userID] {
		select {
		case ch <- update:
		default:
			// Channel full, skip (don't block)
		}
	}
}
