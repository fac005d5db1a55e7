package mailer

import (
	"context"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/janhq/client-sim/internal/domain/simulator"
)

const (
	headerInReplyTo  = gomail.Header("In-Reply-To")
	headerReferences = gomail.Header("References")
)

type outgoing = gomail.Msg

func buildMessage(from string, out simulator.Outbound) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(out.To); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(out.Subject)
	msg.SetDate()
	if out.MessageID != "" {
		msg.SetGenHeader(gomail.HeaderMessageID, out.MessageID)
	}
	if out.InReplyTo != "" {
		msg.SetGenHeader(headerInReplyTo, out.InReplyTo)
	}
	if len(out.References) > 0 {
		msg.SetGenHeader(headerReferences, strings.Join(out.References, " "))
	}
	msg.SetBodyString(gomail.TypeTextPlain, out.Body)
	return msg, nil
}

func (m *Mailer) deliverSMTP(ctx context.Context, msg *gomail.Msg) error {
	client, err := gomail.NewClient(m.cfg.SMTPHost,
		gomail.WithPort(m.cfg.SMTPPort),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Address),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(m.cfg.DialTimeout),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
