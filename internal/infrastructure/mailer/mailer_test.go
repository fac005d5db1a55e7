package mailer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/client-sim/internal/domain/simulator"
)

func newTestMailer(t *testing.T) *Mailer {
	t.Helper()
	m, err := New(Config{Address: "client@example.com", SeenCacheSize: 8}, zerolog.Nop())
	require.NoError(t, err)
	return m
}

func TestBuildMessage_ThreadingHeaders(t *testing.T) {
	msg, err := buildMessage("client@example.com", simulator.Outbound{
		Subject:    "Trip Planning Request",
		Body:       "Could we add a day in Cusco?",
		To:         "agent@wandero.test",
		MessageID:  "<b@sim>",
		InReplyTo:  "<a@sim>",
		References: []string{"<a@sim>", "<b@sim>"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "Message-ID: <b@sim>")
	assert.Contains(t, raw, "In-Reply-To: <a@sim>")
	assert.Contains(t, raw, "References: <a@sim> <b@sim>")
	assert.Contains(t, raw, "Subject: Trip Planning Request")
	assert.Contains(t, raw, "Could we add a day in Cusco?")
}

func TestBuildMessage_FirstEmailHasNoReplyHeaders(t *testing.T) {
	msg, err := buildMessage("client@example.com", simulator.Outbound{
		Subject:   "Trip Planning Request",
		Body:      "Hello",
		To:        "agent@wandero.test",
		MessageID: "<a@sim>",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "In-Reply-To")
	assert.NotContains(t, buf.String(), "References")
}

func TestBuildMessage_InvalidRecipient(t *testing.T) {
	_, err := buildMessage("client@example.com", simulator.Outbound{To: "not an address"})
	assert.Error(t, err)
}

func TestParseMessage_Multipart(t *testing.T) {
	raw := strings.Join([]string{
		"From: Wandero <agent@wandero.test>",
		"Subject: Re: Trip Planning Request",
		"Message-ID: <reply-1@wandero.test>",
		"Date: Mon, 02 Jan 2006 15:04:05 +0000",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>html version</p>",
		"--b1",
		"Content-Type: text/plain; charset=iso-8859-1",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"Our itinerary starts in Lima. Caf=E9 tours included.",
		"--b1--",
		"",
	}, "\r\n")

	in, err := parseMessage(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Our itinerary starts in Lima. Café tours included.", in.Body)
	assert.Equal(t, "Re: Trip Planning Request", in.Subject)
	assert.Equal(t, "<reply-1@wandero.test>", in.MessageID)
	assert.Equal(t, "agent@wandero.test", in.From)
	assert.Equal(t, 2006, in.ReceivedAt.Year())
}

func TestParseMessage_SinglePart(t *testing.T) {
	raw := "From: agent@wandero.test\r\nSubject: Hi\r\nContent-Type: text/plain\r\n\r\nThanks for reaching out!\r\n"
	in, err := parseMessage(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Thanks for reaching out!", in.Body)
}

func TestSelectNewest(t *testing.T) {
	none := func(uint32) bool { return false }

	tests := []struct {
		name  string
		uids  []uint32
		since simulator.Marker
		seen  func(uint32) bool
		want  uint32
		found bool
	}{
		{"empty", nil, simulator.Marker{}, none, 0, false},
		{"newest wins", []uint32{4, 9, 7}, simulator.Marker{}, none, 9, true},
		{"only after marker", []uint32{3, 5}, simulator.Marker{UID: 5}, none, 0, false},
		{"skips consumed", []uint32{6, 8}, simulator.Marker{UID: 2}, func(uid uint32) bool { return uid == 8 }, 6, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := selectNewest(tt.uids, tt.since, tt.seen)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMailer_SendWrapsDeliveryError(t *testing.T) {
	m := newTestMailer(t)
	var delivered int
	m.deliver = func(ctx context.Context, msg *outgoing) error {
		delivered++
		return errors.New("connection refused")
	}

	err := m.Send(context.Background(), simulator.Outbound{To: "agent@wandero.test", Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp send: connection refused")
	assert.Equal(t, 1, delivered)
}

func TestMailer_PollRemembersConsumedUID(t *testing.T) {
	m := newTestMailer(t)
	m.fetch = func(ctx context.Context, since simulator.Marker, from string) (*simulator.Inbound, error) {
		assert.Equal(t, "agent@wandero.test", from)
		return &simulator.Inbound{Body: "hello", Marker: simulator.Marker{UID: 12}}, nil
	}

	in, err := m.Poll(context.Background(), simulator.Marker{}, "agent@wandero.test")
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, uint32(12), in.Marker.UID)
	assert.True(t, m.isSeen(12))
	assert.False(t, m.isSeen(13))
}

func TestMailer_PollNothingNew(t *testing.T) {
	m := newTestMailer(t)
	m.fetch = func(context.Context, simulator.Marker, string) (*simulator.Inbound, error) {
		return nil, nil
	}
	in, err := m.Poll(context.Background(), simulator.Marker{UID: 3}, "agent@wandero.test")
	assert.NoError(t, err)
	assert.Nil(t, in)
}

func TestMailer_PollError(t *testing.T) {
	m := newTestMailer(t)
	m.fetch = func(context.Context, simulator.Marker, string) (*simulator.Inbound, error) {
		return nil, errors.New("login failed")
	}
	_, err := m.Poll(context.Background(), simulator.Marker{}, "agent@wandero.test")
	assert.EqualError(t, err, "imap poll: login failed")
}

func TestNew_AddressRedactorDefaultsToIdentity(t *testing.T) {
	m := newTestMailer(t)
	assert.Equal(t, "agent@wandero.test", m.cfg.RedactAddress("agent@wandero.test"))

	masked, err := New(Config{RedactAddress: func(string) string { return "[REDACTED]" }}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "[REDACTED]", masked.cfg.RedactAddress("agent@wandero.test"))
}
