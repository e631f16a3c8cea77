package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t "} {
		_, err := NormalizeInput(in)
		assert.ErrorIs(t, err, ErrEmptyMessage, "%q", in)
	}

	got, err := NormalizeInput("  Is lavender safe for cats?\n")
	require.NoError(t, err)
	assert.Equal(t, "Is lavender safe for cats?", got)
}

func TestValidateHistory(t *testing.T) {
	assert.NoError(t, ValidateHistory([]Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}))
	assert.ErrorIs(t, ValidateHistory([]Message{{Role: RoleSystem, Content: "x"}}), ErrInvalidRole)
}

func TestTranscript_RoundTrip(t *testing.T) {
	tr := NewTranscript()

	msg, history, err := tr.Begin("  How do I grow ginger?  ")
	require.NoError(t, err)
	assert.Equal(t, "How do I grow ginger?", msg)
	assert.Empty(t, history)
	assert.True(t, tr.Busy())

	tr.Complete("Plant rhizome pieces in warm, moist soil.")
	assert.False(t, tr.Busy())

	_, history, err = tr.Begin("And harvest?")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, RoleAssistant, history[1].Role)
	assert.Equal(t, 3, tr.Len())
}

func TestTranscript_RejectsWhileBusy(t *testing.T) {
	tr := NewTranscript()
	_, _, err := tr.Begin("first")
	require.NoError(t, err)

	_, _, err = tr.Begin("second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, tr.Len())
}

func TestTranscript_BlankInputIsNoOp(t *testing.T) {
	tr := NewTranscript()

	_, _, err := tr.Begin("   ")

	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, 0, tr.Len())
	assert.False(t, tr.Busy())
}

func TestTranscript_FailKeepsUserTurn(t *testing.T) {
	tr := NewTranscript()
	_, _, err := tr.Begin("question")
	require.NoError(t, err)

	tr.Fail()

	assert.False(t, tr.Busy())
	msgs := tr.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleUser, msgs[0].Role)
}
