// Package store keeps checkout and order state in memory.
package store

import (
	"context"
	"sync"

	"ucphost/internal/shopping/models"
	"ucphost/pkg/platform/sentinel"
)

// InMemoryStore is a process-local checkout and order store.
// Values are copied on the way in and out.
type InMemoryStore struct {
	mu        sync.RWMutex
	checkouts map[string]*models.Checkout
	orders    map[string]*models.Order
}

// New creates an empty store.
func New() *InMemoryStore {
	return &InMemoryStore{
		checkouts: make(map[string]*models.Checkout),
		orders:    make(map[string]*models.Order),
	}
}

// CreateCheckout stores a new checkout. Returns sentinel.ErrConflict if the
// ID is taken.
func (s *InMemoryStore) CreateCheckout(_ context.Context, c *models.Checkout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.checkouts[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.checkouts[c.ID] = c.Clone()
	return nil
}

// FindCheckout returns the checkout with id or sentinel.ErrNotFound.
func (s *InMemoryStore) FindCheckout(_ context.Context, id string) (*models.Checkout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.checkouts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

// UpdateCheckout applies fn to a copy of the checkout and stores the result
// atomically. An error from fn leaves the stored checkout unchanged.
func (s *InMemoryStore) UpdateCheckout(_ context.Context, id string, fn func(*models.Checkout) error) (*models.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.checkouts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.checkouts[id] = next
	return next.Clone(), nil
}

// CreateOrder stores a new order. Returns sentinel.ErrConflict if the ID is taken.
func (s *InMemoryStore) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID]; exists {
		return sentinel.ErrConflict
	}
	s.orders[o.ID] = o.Clone()
	return nil
}

// FindOrder returns the order with id or sentinel.ErrNotFound.
func (s *InMemoryStore) FindOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return o.Clone(), nil
}
