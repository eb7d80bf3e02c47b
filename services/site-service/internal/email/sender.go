package email

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Message struct {
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return errors.New("email: no recipients")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" || strings.ContainsAny(to, "\r\n") {
			return errors.New("email: invalid recipient")
		}
	}
	if strings.ContainsAny(m.Subject, "\r\n") {
		return errors.New("email: invalid subject")
	}
	return nil
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NoopSender logs instead of sending; used when no provider is configured.
type NoopSender struct {
	Logger *slog.Logger
}

func (s NoopSender) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("email skipped (no provider configured)", "to", strings.Join(msg.To, ","), "subject", msg.Subject)
	}
	return nil
}
