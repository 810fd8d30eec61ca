// Package payment implements the two-phase checkout protocol (reserve, then
// confirm) behind the same interface a real gateway client would expose, so a
// real processor can replace the simulator without caller changes.
package payment

import (
	"context"
	"errors"
	"sync"
	"time"
)

type OrderStatus string

const (
	OrderStatusCreated  OrderStatus = "created"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusConsumed OrderStatus = "consumed"
)

// ErrOrderNotFound covers both unknown and expired orders; the store does not
// distinguish the two.
var ErrOrderNotFound = errors.New("order not found or expired")

// OrderNotes links the ephemeral order back to the checkout it reserves.
type OrderNotes struct {
	CourseID    string `json:"courseId"`
	StudentID   string `json:"studentId"`
	CourseTitle string `json:"courseTitle"`
}

// Order is an ephemeral reservation. Amount is in minor units (paise for
// INR). Orders live only in the OrderStore and expire with it.
type Order struct {
	ID        string      `json:"orderId"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
	Receipt   string      `json:"receipt"`
	Notes     OrderNotes  `json:"notes"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// OrderStore holds live orders keyed by id. The Redis implementation backs
// production; the memory implementation backs tests and single-process runs.
type OrderStore interface {
	Put(ctx context.Context, order *Order, ttl time.Duration) error
	Get(ctx context.Context, orderID string) (*Order, error)
	SetStatus(ctx context.Context, orderID string, status OrderStatus) error
}

// MemoryOrderStore keeps orders in a map with lazy expiry.
type MemoryOrderStore struct {
	mu     sync.Mutex
	orders map[string]memoryOrder
}

type memoryOrder struct {
	order     Order
	expiresAt time.Time
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		orders: make(map[string]memoryOrder),
	}
}

func (s *MemoryOrderStore) Put(_ context.Context, order *Order, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = memoryOrder{order: *order, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryOrderStore) Get(_ context.Context, orderID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.orders[orderID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.orders, orderID)
		return nil, ErrOrderNotFound
	}
	order := entry.order
	return &order, nil
}

func (s *MemoryOrderStore) SetStatus(_ context.Context, orderID string, status OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.orders[orderID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.orders, orderID)
		return ErrOrderNotFound
	}
	entry.order.Status = status
	s.orders[orderID] = entry
	return nil
}
