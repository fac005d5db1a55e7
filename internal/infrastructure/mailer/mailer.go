// Package mailer implements the simulator's mail transport: SMTP for sending
// and IMAP for picking up the counterpart's replies.
package mailer

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/janhq/client-sim/internal/domain/simulator"
)

// Config holds the mailbox credentials and server endpoints.
type Config struct {
	Address       string
	Password      string
	IMAPHost      string
	IMAPPort      int
	Mailbox       string
	SMTPHost      string
	SMTPPort      int
	DialTimeout   time.Duration
	SeenCacheSize int
	// RedactAddress filters addresses before they are logged. nil logs them as is.
	RedactAddress func(string) string
}

// Mailer implements simulator.Transport.
type Mailer struct {
	cfg     Config
	log     zerolog.Logger
	seen    *lru.Cache
	deliver func(ctx context.Context, msg *outgoing) error
	fetch   func(ctx context.Context, since simulator.Marker, from string) (*simulator.Inbound, error)
}

// New creates a Mailer. Connections are opened per operation.
func New(cfg Config, log zerolog.Logger) (*Mailer, error) {
	if cfg.SeenCacheSize <= 0 {
		cfg.SeenCacheSize = 256
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 30 * time.Second
	}
	if cfg.RedactAddress == nil {
		cfg.RedactAddress = func(s string) string { return s }
	}
	seen, err := lru.New(cfg.SeenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create seen cache: %w", err)
	}

	m := &Mailer{
		cfg:  cfg,
		log:  log.With().Str("component", "mailer").Logger(),
		seen: seen,
	}
	m.deliver = m.deliverSMTP
	m.fetch = m.fetchIMAP
	return m, nil
}

// Send delivers one message over SMTP with the outbound threading headers.
func (m *Mailer) Send(ctx context.Context, out simulator.Outbound) error {
	msg, err := buildMessage(m.cfg.Address, out)
	if err != nil {
		return err
	}
	if err := m.deliver(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.log.Info().
		Str("message_id", out.MessageID).
		Str("subject", out.Subject).
		Msg("email sent")
	return nil
}

// Poll returns the newest unseen message from the sender after since, or nil.
func (m *Mailer) Poll(ctx context.Context, since simulator.Marker, from string) (*simulator.Inbound, error) {
	in, err := m.fetch(ctx, since, from)
	if err != nil {
		return nil, fmt.Errorf("imap poll: %w", err)
	}
	if in == nil {
		return nil, nil
	}
	m.seen.Add(in.Marker.UID, struct{}{})
	m.log.Info().
		Uint32("uid", in.Marker.UID).
		Str("subject", in.Subject).
		Msg("email received")
	return in, nil
}

func (m *Mailer) isSeen(uid uint32) bool {
	return m.seen.Contains(uid)
}

// selectNewest picks the highest UID above since that has not been consumed.
func selectNewest(uids []uint32, since simulator.Marker, seen func(uint32) bool) (uint32, bool) {
	var newest uint32
	for _, uid := range uids {
		if uid <= since.UID || seen(uid) {
			continue
		}
		if uid > newest {
			newest = uid
		}
	}
	return newest, newest != 0
}

var _ simulator.Transport = (*Mailer)(nil)
