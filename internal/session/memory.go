package session

import (
	"context"
	"sync"

	"github.com/geleverd/geleverd-web/internal/model"
)

// MemoryStore хранит сессию в памяти процесса.
type MemoryStore struct {
	mu      sync.Mutex
	session model.Session
	ok      bool
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get возвращает сохранённую сессию.
func (m *MemoryStore) Get(context.Context) (model.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, m.ok, nil
}

// Set сохраняет сессию целиком.
func (m *MemoryStore) Set(_ context.Context, s model.Session) error {
	if !s.Complete() {
		return ErrIncompleteSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	m.ok = true
	return nil
}

// Clear удаляет сессию.
func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = model.Session{}
	m.ok = false
	return nil
}
