package store

import (
	"context"
	"slices"
	"sync"

	"stocktracker/internal/watchlist"
)

// Memory keeps everything in process memory.
type Memory struct {
	mu      sync.RWMutex
	entries []watchlist.Entry
	users   map[string]User
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{users: map[string]User{}}
}

func (m *Memory) List(context.Context) ([]watchlist.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.entries)
	if out == nil {
		out = []watchlist.Entry{}
	}
	return out, nil
}

func (m *Memory) Append(_ context.Context, entries []watchlist.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *Memory) CreateUser(_ context.Context, u User) error {
	u.Email = normalizeEmail(u.Email)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return ErrUserExists
	}
	m.users[u.Email] = u
	return nil
}

func (m *Memory) User(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[normalizeEmail(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}
