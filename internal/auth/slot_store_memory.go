package auth

import (
	"context"
	"sync"
)

// NewInMemorySlotStore returns a SlotStore backed by an in-memory map.
func NewInMemorySlotStore() *InMemorySlotStore {
	return &InMemorySlotStore{slots: make(map[string]string)}
}

// InMemorySlotStore implements SlotStore for tests and local development.
// Each user id maps to its single current refresh token.
type InMemorySlotStore struct {
	mu    sync.RWMutex
	slots map[string]string
}

// SetRefreshToken overwrites the user's slot unconditionally.
func (s *InMemorySlotStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	s.slots[userID] = token
	s.mu.Unlock()
	return nil
}

// SwapRefreshToken replaces the slot only when it still holds current.
func (s *InMemorySlotStore) SwapRefreshToken(_ context.Context, userID, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.slots[userID]
	if !ok || stored == "" || stored != current {
		return ErrSlotMismatch
	}
	s.slots[userID] = next
	return nil
}

// ClearRefreshToken empties the user's slot.
func (s *InMemorySlotStore) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	s.slots[userID] = ""
	s.mu.Unlock()
	return nil
}

// Current returns the slot's value. Useful for tests.
func (s *InMemorySlotStore) Current(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[userID]
}
