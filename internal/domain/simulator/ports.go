package simulator

import (
	"context"
	"time"

	"github.com/janhq/client-sim/internal/domain/conversation"
)

// Outbound is one email to send.
type Outbound struct {
	Subject    string
	Body       string
	To         string
	MessageID  string
	InReplyTo  string
	References []string
}

// Marker is the transport's position in the inbox. Only messages after it are new.
type Marker struct {
	UID uint32 `json:"uid,omitempty"`
}

// IsZero reports whether nothing has been consumed yet.
func (m Marker) IsZero() bool {
	return m.UID == 0
}

// Inbound is the newest unseen counterpart email.
type Inbound struct {
	Body       string
	From       string
	Subject    string
	MessageID  string
	ReceivedAt time.Time
	Marker     Marker
}

// Transport sends and receives mail. Poll returns nil, nil when nothing new arrived.
type Transport interface {
	Send(ctx context.Context, msg Outbound) error
	Poll(ctx context.Context, since Marker, from string) (*Inbound, error)
}

// Generator writes the client's emails. It never fails; FollowUp reports false when
// there is nothing to send.
type Generator interface {
	Initial(ctx context.Context, brief conversation.Brief) string
	Reply(ctx context.Context, history []conversation.Message, latest conversation.Message) string
	FollowUp(ctx context.Context, history []conversation.Message) (string, bool)
}

// Recorder receives conversation events for metrics.
type Recorder interface {
	EmailSent(kind string)
	EmailReceived()
	TransportFailure(op string)
	ResponseTime(seconds float64)
	Score(score float64)
	RoundCompleted(round int)
}

// RoundTracer wraps each receive/reply cycle. end is called with the cycle's error.
type RoundTracer interface {
	StartRound(ctx context.Context, round int) (context.Context, func(err error))
}

type nopRecorder struct{}

func (nopRecorder) EmailSent(string) {}
func (nopRecorder) EmailReceived() {}
func (nopRecorder) TransportFailure(string) {}
func (nopRecorder) ResponseTime(float64) {}
func (nopRecorder) Score(float64) {}
func (nopRecorder) RoundCompleted(int) {}

type nopTracer struct{}

func (nopTracer) StartRound(ctx context.Context, _ int) (context.Context, func(error)) {
	return ctx, func(error) {}
}
