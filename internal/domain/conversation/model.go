// Package conversation holds the message history and reply-threading state of one
// simulated email conversation.
package conversation

import (
	"errors"
	"sync"
	"time"
)

// Sender identifies which side of the conversation wrote a message.
type Sender string

const (
	SenderClient      Sender = "client"
	SenderCounterpart Sender = "counterpart"
)

// String returns the display label used in prompts and reports.
func (s Sender) String() string {
	switch s {
	case SenderClient:
		return "Client"
	case SenderCounterpart:
		return "Counterpart"
	default:
		return string(s)
	}
}

// ErrNoPrecedingClientMessage is returned when a counterpart message is appended to a
// history that holds no client message yet.
var ErrNoPrecedingClientMessage = errors.New("counterpart message requires a preceding client message")

// Message is one email in the conversation. It is never modified after being appended.
type Message struct {
	Sender   Sender    `json:"sender"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sent_at"`
	ThreadID string    `json:"thread_id,omitempty"`
}

// History is the append-only, chronologically ordered list of messages.
type History struct {
	mu        sync.RWMutex
	messages  []Message
	hasClient bool
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds a message at the end of the history.
func (h *History) Append(msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if msg.Sender == SenderCounterpart && !h.hasClient {
		return ErrNoPrecedingClientMessage
	}
	if msg.Sender == SenderClient {
		h.hasClient = true
	}
	h.messages = append(h.messages, msg)
	return nil
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Messages returns a copy of all messages in order.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Latest returns the most recent message.
func (h *History) Latest() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// LastClientMessage returns the most recent client message.
func (h *History) LastClientMessage() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].Sender == SenderClient {
			return h.messages[i], true
		}
	}
	return Message{}, false
}
