// Package session tracks per-chat conversation state. Every chat owns at
// most one record, persisted as a JSON document under chat:<chatId>, so any
// process instance can resume the conversation from the store alone.
package session

import (
	"errors"
	"fmt"
)

// State names the screen the chat currently shows.
type State string

const (
	// StateNoMailbox means no address has been generated yet.
	StateNoMailbox State = "NO_MAILBOX"
	// StateMailboxActive means an address exists and the main menu is shown.
	StateMailboxActive State = "MAILBOX_ACTIVE"
	// StateViewingInbox means the inbox listing is on screen.
	StateViewingInbox State = "VIEWING_INBOX"
	// StateViewingMessage means a single opened message is on screen.
	StateViewingMessage State = "VIEWING_MESSAGE"
)

// ErrNoMailbox is returned by transitions that require an active address.
var ErrNoMailbox = errors.New("session: no active mailbox")

// Session is the per-chat record. Address is empty exactly in StateNoMailbox;
// MessageID is meaningful only in StateViewingMessage.
type Session struct {
	State     State  `json:"state"`
	Address   string `json:"address,omitempty"`
	MessageID int64  `json:"messageId,omitempty"`
}

// Generate installs a freshly allocated address, replacing any previous one.
// The old address is simply abandoned; the provider keeps its inbox readable
// by whoever generates the same address again.
func (s Session) Generate(address string) Session {
	return Session{State: StateMailboxActive, Address: address}
}

// Refresh moves to the inbox view. Refreshing while already viewing the
// inbox is a no-op transition, so repeated taps are harmless.
func (s Session) Refresh() (Session, error) {
	if s.Address == "" {
		return s, ErrNoMailbox
	}
	return Session{State: StateViewingInbox, Address: s.Address}, nil
}

// Read opens a single message.
func (s Session) Read(messageID int64) (Session, error) {
	if s.Address == "" {
		return s, ErrNoMailbox
	}
	return Session{State: StateViewingMessage, Address: s.Address, MessageID: messageID}, nil
}

// Back returns to the main menu, keeping the address when one exists.
func (s Session) Back() Session {
	if s.Address == "" {
		return Session{State: StateNoMailbox}
	}
	return Session{State: StateMailboxActive, Address: s.Address}
}

// Drop discards the mailbox entirely.
func (s Session) Drop() Session {
	return Session{State: StateNoMailbox}
}

func (s Session) String() string {
	if s.Address == "" {
		return string(s.State)
	}
	return fmt.Sprintf("%s %s", s.State, s.Address)
}
