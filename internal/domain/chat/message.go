// Package chat holds the consultant conversation types
package chat

import (
	"errors"
	"strings"
	"sync"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a reply is still being generated")
	ErrInvalidRole  = errors.New("invalid message role")
)

// Role tags the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem is only used for provider prompts, never in a transcript
	RoleSystem Role = "system"
)

// Valid reports whether the role may appear in a conversation history
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one conversation turn
type Message struct {
	Role    Role   `json:"role" validate:"required,chat_role"`
	Content string `json:"content" validate:"required"`
}

// NormalizeInput trims the user's input. Blank input is a no-op for callers.
func NormalizeInput(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyMessage
	}
	return s, nil
}

// ValidateHistory checks every turn carries a conversational role
func ValidateHistory(history []Message) error {
	for _, m := range history {
		if !m.Role.Valid() {
			return ErrInvalidRole
		}
	}
	return nil
}

// Transcript is the in-memory conversation of one browser tab.
// At most one request is in flight at a time.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	busy     bool
}

// NewTranscript returns an empty transcript
func NewTranscript(initial ...Message) *Transcript {
	return &Transcript{messages: append([]Message(nil), initial...)}
}

// Begin validates input, appends the user turn and marks the transcript busy.
// It returns the normalized message and the history that preceded it.
func (t *Transcript) Begin(input string) (string, []Message, error) {
	msg, err := NormalizeInput(input)
	if err != nil {
		return "", nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.busy {
		return "", nil, ErrBusy
	}

	history := append([]Message(nil), t.messages...)
	t.messages = append(t.messages, Message{Role: RoleUser, Content: msg})
	t.busy = true
	return msg, history, nil
}

// Complete appends the assistant reply and clears the busy flag
func (t *Transcript) Complete(reply string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if reply != "" {
		t.messages = append(t.messages, Message{Role: RoleAssistant, Content: reply})
	}
	t.busy = false
}

// Fail clears the busy flag. The user turn stays in the transcript.
func (t *Transcript) Fail() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.busy = false
}

// Busy reports whether a request is in flight
func (t *Transcript) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// Messages returns a copy of the conversation
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.messages...)
}

// Len returns the number of turns
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}
