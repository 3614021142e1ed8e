package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dropbot/internal/store"
)

// Repo persists chat sessions in the record store.
type Repo struct {
	store store.Store
}

// NewRepo wraps a record store.
func NewRepo(s store.Store) *Repo {
	return &Repo{store: s}
}

func chatKey(chatID int64) string {
	return fmt.Sprintf("chat:%d", chatID)
}

// Get loads the session for a chat. A chat with no record starts fresh in
// StateNoMailbox; a record that fails to decode is treated the same way
// rather than wedging the chat forever.
func (r *Repo) Get(ctx context.Context, chatID int64) (Session, error) {
	raw, err := r.store.Get(ctx, chatKey(chatID))
	if errors.Is(err, store.ErrNotFound) {
		return Session{State: StateNoMailbox}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("session get chat %d: %w", chatID, err)
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{State: StateNoMailbox}, nil
	}
	if s.State == "" {
		s.State = StateNoMailbox
	}
	return s, nil
}

// Put stores the session for a chat, overwriting any previous record.
func (r *Repo) Put(ctx context.Context, chatID int64, s Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session encode chat %d: %w", chatID, err)
	}
	if err := r.store.Put(ctx, chatKey(chatID), string(raw)); err != nil {
		return fmt.Errorf("session put chat %d: %w", chatID, err)
	}
	return nil
}

// Delete removes the chat record.
func (r *Repo) Delete(ctx context.Context, chatID int64) error {
	if err := r.store.Delete(ctx, chatKey(chatID)); err != nil {
		return fmt.Errorf("session delete chat %d: %w", chatID, err)
	}
	return nil
}
