// Package store defines the record store port used for all cross-request
// state. Keys are flat strings with colon-separated namespaces
// (chat:<chatId>, points:<userId>, redeem:<code>, ...); values are strings,
// with JSON documents for structured records.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist (or has expired).
var ErrNotFound = errors.New("store: key not found")

// Store is the record store port. There are no multi-key transactions;
// IncrBy is the only atomic read-modify-write primitive and PutNX the only
// conditional write. Everything else is last-write-wins.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Put writes the value for key unconditionally, clearing any expiry.
	Put(ctx context.Context, key, value string) error
	// PutNX writes the value only if the key is absent. ttl of zero means
	// no expiry. Reports whether the write happened.
	PutNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Delete removes the key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all live key/value pairs whose key starts with prefix.
	List(ctx context.Context, prefix string) (map[string]string, error)
	// IncrBy atomically adds delta to the integer value at key, creating
	// the key at delta if absent, and returns the new value.
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	// TTL returns the remaining lifetime of key: zero when the key has no
	// expiry, ErrNotFound when the key is absent.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Close releases underlying connections.
	Close() error
}
