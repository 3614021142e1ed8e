package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryGetPutDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Get(ctx, "chat:1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := m.Put(ctx, "chat:1", `{"state":"MAILBOX_ACTIVE"}`); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := m.Get(ctx, "chat:1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != `{"state":"MAILBOX_ACTIVE"}` {
		t.Fatalf("unexpected value: %s", got)
	}

	if err := m.Delete(ctx, "chat:1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, "chat:1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting an absent key must not error.
	if err := m.Delete(ctx, "chat:1"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestMemoryListPrefix(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	seed := map[string]string{
		"referrals:100": "3",
		"referrals:200": "1",
		"points:100":    "30",
		"referred:300":  "100",
	}
	for k, v := range seed {
		if err := m.Put(ctx, k, v); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	got, err := m.List(ctx, "referrals:")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(got), got)
	}
	if got["referrals:100"] != "3" || got["referrals:200"] != "1" {
		t.Fatalf("unexpected list result: %v", got)
	}
}

func TestMemoryIncrBy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	v, err := m.IncrBy(ctx, "points:42", 10)
	if err != nil {
		t.Fatalf("incrby: %v", err)
	}
	if v != 10 {
		t.Fatalf("expected 10 on first increment, got %d", v)
	}
	v, err = m.IncrBy(ctx, "points:42", 20)
	if err != nil {
		t.Fatalf("incrby: %v", err)
	}
	if v != 30 {
		t.Fatalf("expected 30, got %d", v)
	}
	v, err = m.IncrBy(ctx, "points:42", -5)
	if err != nil {
		t.Fatalf("incrby negative: %v", err)
	}
	if v != 25 {
		t.Fatalf("expected 25, got %d", v)
	}

	if err := m.Put(ctx, "points:bad", "not-a-number"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := m.IncrBy(ctx, "points:bad", 1); err == nil {
		t.Fatal("expected error incrementing non-numeric value")
	}
}

func TestMemoryPutNXAndTTL(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.SetNow(func() time.Time { return now })

	ok, err := m.PutNX(ctx, "daily:42", "1", 24*time.Hour)
	if err != nil {
		t.Fatalf("putnx: %v", err)
	}
	if !ok {
		t.Fatal("expected first PutNX to succeed")
	}

	ok, err = m.PutNX(ctx, "daily:42", "1", 24*time.Hour)
	if err != nil {
		t.Fatalf("putnx: %v", err)
	}
	if ok {
		t.Fatal("expected second PutNX to be rejected")
	}

	d, err := m.TTL(ctx, "daily:42")
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if d != 24*time.Hour {
		t.Fatalf("expected 24h remaining, got %v", d)
	}

	// Advance past expiry: the key becomes claimable again.
	now = now.Add(24*time.Hour + time.Second)
	if _, err := m.Get(ctx, "daily:42"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired key to be absent, got %v", err)
	}
	if _, err := m.TTL(ctx, "daily:42"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected TTL ErrNotFound on expired key, got %v", err)
	}
	ok, err = m.PutNX(ctx, "daily:42", "1", 24*time.Hour)
	if err != nil {
		t.Fatalf("putnx after expiry: %v", err)
	}
	if !ok {
		t.Fatal("expected PutNX to succeed after expiry")
	}
}

func TestMemoryTTLWithoutExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Put(ctx, "points:1", "5"); err != nil {
		t.Fatalf("put: %v", err)
	}
	d, err := m.TTL(ctx, "points:1")
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if d != 0 {
		t.Fatalf("expected zero TTL for persistent key, got %v", d)
	}
}
