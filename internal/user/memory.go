package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. Used for local runs and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]*Record),
	}
}

func (m *MemoryRepository) GetByPhone(_ context.Context, phone string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.users[phone]
	if !ok {
		return nil, ErrNotFound
	}
	return r.clone(), nil
}

func (m *MemoryRepository) Create(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[r.PhoneNumber]; exists {
		return ErrAlreadyExists
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	m.users[r.PhoneNumber] = r.clone()
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[r.PhoneNumber]; !exists {
		return ErrNotFound
	}
	r.UpdatedAt = time.Now().UTC()

	m.users[r.PhoneNumber] = r.clone()
	return nil
}

func (m *MemoryRepository) DeleteByPhone(_ context.Context, phone string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.users[phone]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.users, phone)
	return r, nil
}
