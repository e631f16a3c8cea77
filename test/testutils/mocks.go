package testutils

import (
	"context"
	"sync"

	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
)

// ModelCall records one completion request
type ModelCall struct {
	SystemPrompt string
	Messages     []chat.Message
}

// StubLanguageModel is a scripted outbound.LanguageModel
type StubLanguageModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []ModelCall
}

// NewStubLanguageModel returns a model answering every request with reply
func NewStubLanguageModel(reply string) *StubLanguageModel {
	return &StubLanguageModel{reply: reply}
}

// Name implements outbound.LanguageModel
func (m *StubLanguageModel) Name() string { return "stub" }

// Complete records the call and returns the scripted reply or error
func (m *StubLanguageModel) Complete(_ context.Context, systemPrompt string, messages []chat.Message, _ outbound.CompletionOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ModelCall{
		SystemPrompt: systemPrompt,
		Messages:     append([]chat.Message(nil), messages...),
	})
	return m.reply, m.err
}

// HealthCheck implements outbound.LanguageModel
func (m *StubLanguageModel) HealthCheck(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// SetReply changes the scripted reply and clears any error
func (m *StubLanguageModel) SetReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply, m.err = reply, nil
}

// SetError makes every following call fail
func (m *StubLanguageModel) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the recorded requests
func (m *StubLanguageModel) Calls() []ModelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ModelCall(nil), m.calls...)
}
