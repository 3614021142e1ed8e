package store

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero = no expiry
}

// Memory is an in-process Store for tests and local development.
// The now hook makes expiry behaviour testable without sleeping.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetNow overrides the clock used for expiry checks (tests only).
func (m *Memory) SetNow(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now != nil {
		m.now = now
	}
}

func (m *Memory) live(e memoryEntry) bool {
	return e.expiresAt.IsZero() || e.expiresAt.After(m.now())
}

// Get returns the value for key or ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || !m.live(e) {
		return "", ErrNotFound
	}
	return e.value, nil
}

// Put writes the value for key unconditionally.
func (m *Memory) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value}
	return nil
}

// PutNX writes the value only if the key is absent.
func (m *Memory) PutNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok && m.live(e) {
		return false, nil
	}
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
	return true, nil
}

// Delete removes the key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// List returns all live key/value pairs whose key starts with prefix.
func (m *Memory) List(_ context.Context, prefix string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string)
	for k, e := range m.entries {
		if strings.HasPrefix(k, prefix) && m.live(e) {
			out[k] = e.value
		}
	}
	return out, nil
}

// IncrBy atomically adds delta to the integer value at key.
func (m *Memory) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var current int64
	if e, ok := m.entries[key]; ok && m.live(e) {
		parsed, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, err
		}
		current = parsed
	}
	current += delta
	m.entries[key] = memoryEntry{value: strconv.FormatInt(current, 10)}
	return current, nil
}

// TTL returns the remaining lifetime of key.
func (m *Memory) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || !m.live(e) {
		return 0, ErrNotFound
	}
	if e.expiresAt.IsZero() {
		return 0, nil
	}
	return e.expiresAt.Sub(m.now()), nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error {
	return nil
}
