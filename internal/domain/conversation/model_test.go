package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_RejectsCounterpartFirst(t *testing.T) {
	h := NewHistory()
	err := h.Append(Message{Sender: SenderCounterpart, Body: "hello"})
	require.ErrorIs(t, err, ErrNoPrecedingClientMessage)
	assert.Equal(t, 0, h.Len())
}

func TestHistory_AllowsConsecutiveClientMessages(t *testing.T) {
	h := NewHistory()
	now := time.Now()
	require.NoError(t, h.Append(Message{Sender: SenderClient, Body: "first", SentAt: now}))
	require.NoError(t, h.Append(Message{Sender: SenderClient, Body: "oops, forgot", SentAt: now}))
	require.NoError(t, h.Append(Message{Sender: SenderCounterpart, Body: "reply", SentAt: now}))

	msgs := h.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, "reply", msgs[2].Body)

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, SenderCounterpart, latest.Sender)

	client, ok := h.LastClientMessage()
	require.True(t, ok)
	assert.Equal(t, "oops, forgot", client.Body)
}

func TestHistory_MessagesReturnsCopy(t *testing.T) {
	h := NewHistory()
	require.NoError(t, h.Append(Message{Sender: SenderClient, Body: "original"}))

	msgs := h.Messages()
	msgs[0].Body = "mutated"

	assert.Equal(t, "original", h.Messages()[0].Body)
}

func TestThreadingState_ReferencesAccumulateInOrder(t *testing.T) {
	ts := NewThreadingState()

	inReplyTo, refs := ts.Headers()
	assert.Empty(t, inReplyTo)
	assert.Empty(t, refs)

	ids := []string{"<a@sim>", "<b@sim>", "<c@sim>"}
	for _, id := range ids {
		ts.Record(id)
	}
	ts.Record("   ")

	inReplyTo, refs = ts.Headers()
	assert.Equal(t, "<c@sim>", inReplyTo)
	assert.Equal(t, ids, refs)
	assert.Equal(t, 3, ts.Len())
}

func TestSender_String(t *testing.T) {
	assert.Equal(t, "Client", SenderClient.String())
	assert.Equal(t, "Counterpart", SenderCounterpart.String())
}
