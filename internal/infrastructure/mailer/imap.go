package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/janhq/client-sim/internal/domain/simulator"
)

func (m *Mailer) fetchIMAP(ctx context.Context, since simulator.Marker, from string) (*simulator.Inbound, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(m.cfg.IMAPHost, fmt.Sprint(m.cfg.IMAPPort))
	dialer := &net.Dialer{Timeout: m.cfg.DialTimeout}
	c, err := client.DialWithDialerTLS(dialer, addr, &tls.Config{ServerName: m.cfg.IMAPHost})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	defer func() { _ = c.Logout() }()
	c.Timeout = m.cfg.DialTimeout

	stop := context.AfterFunc(ctx, func() { _ = c.Terminate() })
	defer stop()

	if err := c.Login(m.cfg.Address, m.cfg.Password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if _, err := c.Select(m.cfg.Mailbox, false); err != nil {
		return nil, fmt.Errorf("select %s: %w", m.cfg.Mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Header.Add("From", from)
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	m.log.Debug().
		Int("unseen", len(uids)).
		Uint32("since_uid", since.UID).
		Str("from", m.cfg.RedactAddress(from)).
		Msg("mailbox searched")

	uid, ok := selectNewest(uids, since, m.isSeen)
	if !ok {
		return nil, nil
	}

	in, err := fetchMessage(c, uid)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return in, nil
}

// fetchMessage downloads one message by UID. Fetching the body marks it seen.
func fetchMessage(c *client.Client, uid uint32) (*simulator.Inbound, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, messages)
	}()

	var fetched *imap.Message
	for msg := range messages {
		fetched = msg
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch uid %d: %w", uid, err)
	}
	if fetched == nil {
		return nil, fmt.Errorf("fetch uid %d: message not returned", uid)
	}

	body := fetched.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("fetch uid %d: empty body", uid)
	}
	in, err := parseMessage(body)
	if err != nil {
		return nil, fmt.Errorf("parse uid %d: %w", uid, err)
	}
	in.Marker = simulator.Marker{UID: uid}
	if in.ReceivedAt.IsZero() {
		in.ReceivedAt = fetched.InternalDate
	}
	return in, nil
}

// parseMessage reads an RFC 5322 message and keeps the first text/plain part.
func parseMessage(r io.Reader) (*simulator.Inbound, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, err
	}
	defer mr.Close()

	in := &simulator.Inbound{}
	if subject, err := mr.Header.Subject(); err == nil {
		in.Subject = subject
	}
	if id, err := mr.Header.MessageID(); err == nil && id != "" {
		in.MessageID = "<" + id + ">"
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		in.From = from[0].Address
	}
	if date, err := mr.Header.Date(); err == nil {
		in.ReceivedAt = date
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, err
		}
		if part == nil {
			continue
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if contentType != "" && !strings.EqualFold(contentType, "text/plain") {
			continue
		}
		raw, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		in.Body = strings.TrimSpace(string(raw))
		return in, nil
	}
	return in, nil
}
