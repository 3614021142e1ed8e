package session

import (
	"context"
	"errors"
	"testing"

	"dropbot/internal/store"
)

func TestTransitions(t *testing.T) {
	s := Session{State: StateNoMailbox}

	if _, err := s.Refresh(); !errors.Is(err, ErrNoMailbox) {
		t.Fatalf("expected ErrNoMailbox refreshing without address, got %v", err)
	}
	if _, err := s.Read(1); !errors.Is(err, ErrNoMailbox) {
		t.Fatalf("expected ErrNoMailbox reading without address, got %v", err)
	}

	s = s.Generate("abc123@1secmail.com")
	if s.State != StateMailboxActive || s.Address != "abc123@1secmail.com" {
		t.Fatalf("unexpected state after generate: %+v", s)
	}

	s, err := s.Refresh()
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if s.State != StateViewingInbox {
		t.Fatalf("expected VIEWING_INBOX, got %s", s.State)
	}

	// Refresh is idempotent: repeated taps stay on the inbox view.
	again, err := s.Refresh()
	if err != nil {
		t.Fatalf("refresh twice: %v", err)
	}
	if again != s {
		t.Fatalf("expected identical session, got %+v vs %+v", again, s)
	}

	s, err = s.Read(84201)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if s.State != StateViewingMessage || s.MessageID != 84201 {
		t.Fatalf("unexpected state after read: %+v", s)
	}

	s = s.Back()
	if s.State != StateMailboxActive || s.Address == "" || s.MessageID != 0 {
		t.Fatalf("unexpected state after back: %+v", s)
	}

	s = s.Drop()
	if s.State != StateNoMailbox || s.Address != "" {
		t.Fatalf("unexpected state after drop: %+v", s)
	}
	if s.Back().State != StateNoMailbox {
		t.Fatal("back without address must stay in NO_MAILBOX")
	}
}

func TestGenerateReplacesAddress(t *testing.T) {
	s := Session{}.Generate("old@1secmail.com")
	s = s.Generate("new@1secmail.org")
	if s.Address != "new@1secmail.org" || s.State != StateMailboxActive {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestRepoRoundTrip(t *testing.T) {
	repo := NewRepo(store.NewMemory())
	ctx := context.Background()

	s, err := repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get fresh: %v", err)
	}
	if s.State != StateNoMailbox {
		t.Fatalf("fresh chat must start in NO_MAILBOX, got %s", s.State)
	}

	want := Session{State: StateViewingMessage, Address: "abc123@1secmail.com", MessageID: 7}
	if err := repo.Put(ctx, 42, want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, want)
	}

	if err := repo.Delete(ctx, 42); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got.State != StateNoMailbox {
		t.Fatalf("expected NO_MAILBOX after delete, got %s", got.State)
	}
}

func TestRepoCorruptRecord(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	if err := mem.Put(ctx, "chat:42", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	repo := NewRepo(mem)
	s, err := repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get corrupt: %v", err)
	}
	if s.State != StateNoMailbox {
		t.Fatalf("corrupt record must reset to NO_MAILBOX, got %s", s.State)
	}
}
