package storage

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory implements Storage in process memory. Everything is lost on restart.
type Memory struct {
	mu          sync.Mutex
	subscribers map[int64]struct{}
	seen        map[string]time.Time
	settings    map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		subscribers: make(map[int64]struct{}),
		seen:        make(map[string]time.Time),
		settings:    make(map[string]string),
	}
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// AddSubscriber registers chatID. It reports false if already subscribed.
func (m *Memory) AddSubscriber(_ context.Context, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscribers[chatID]; ok {
		return false, nil
	}
	m.subscribers[chatID] = struct{}{}
	return true, nil
}

// RemoveSubscriber unregisters chatID. It reports false if it was not subscribed.
func (m *Memory) RemoveSubscriber(_ context.Context, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscribers[chatID]; !ok {
		return false, nil
	}
	delete(m.subscribers, chatID)
	return true, nil
}

// ListSubscribers returns subscribed chat IDs in ascending order.
func (m *Memory) ListSubscribers(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.subscribers))
	for id := range m.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// MarkSeen records key. An existing entry keeps its original time.
func (m *Memory) MarkSeen(_ context.Context, key string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[key]; !ok {
		m.seen[key] = at
	}
	return nil
}

// IsSeen reports whether key was recorded.
func (m *Memory) IsSeen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[key]
	return ok, nil
}

// ClearSeen removes entries recorded before the given time.
func (m *Memory) ClearSeen(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, at := range m.seen {
		if at.Before(before) {
			delete(m.seen, k)
			n++
		}
	}
	return n, nil
}

// GetSetting returns a stored setting.
func (m *Memory) GetSetting(_ context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[name]
	return v, ok, nil
}

// SetSetting stores a setting.
func (m *Memory) SetSetting(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[name] = value
	return nil
}
