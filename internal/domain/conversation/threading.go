package conversation

import (
	"strings"
	"sync"
)

// ThreadingState tracks the Message-IDs of everything the client has sent so each
// outbound email can carry In-Reply-To and References headers.
type ThreadingState struct {
	mu            sync.RWMutex
	lastMessageID string
	allMessageIDs []string
}

// NewThreadingState creates an empty threading state.
func NewThreadingState() *ThreadingState {
	return &ThreadingState{}
}

// Headers returns the reply-chain values for the next outbound message. Both are empty
// before the first successful send.
func (t *ThreadingState) Headers() (inReplyTo string, references []string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	refs := make([]string, len(t.allMessageIDs))
	copy(refs, t.allMessageIDs)
	return t.lastMessageID, refs
}

// Record appends a Message-ID after a successful send. Blank ids are ignored.
func (t *ThreadingState) Record(messageID string) {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastMessageID = messageID
	t.allMessageIDs = append(t.allMessageIDs, messageID)
}

// Len returns how many ids have been recorded.
func (t *ThreadingState) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.allMessageIDs)
}
