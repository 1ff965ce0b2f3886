package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Spok95/pressops/internal/domain/alerts"
)

type sendFunc func(ctx context.Context, m *mail.SGMailV3) (*rest.Response, error)

// EmailSink mails high-priority notifications to the shop manager.
type EmailSink struct {
	from string
	to   string
	send sendFunc
}

func NewEmailSink(apiKey, from, to string) *EmailSink {
	client := sendgrid.NewSendClient(apiKey)
	return &EmailSink{
		from: from,
		to:   to,
		send: func(ctx context.Context, m *mail.SGMailV3) (*rest.Response, error) {
			return client.SendWithContext(ctx, m)
		},
	}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Send(ctx context.Context, n Notification) error {
	if n.Priority != alerts.PriorityHigh {
		return nil
	}
	if s.from == "" || s.to == "" {
		return fmt.Errorf("email sink: from/to address is empty")
	}

	m := mail.NewSingleEmail(
		mail.NewEmail("PressOps", s.from),
		"[PressOps] "+n.Title,
		mail.NewEmail("", s.to),
		n.Message,
		fmt.Sprintf("<p><strong>%s</strong></p><pre>%s</pre>", n.Title, n.Message),
	)
	resp, err := s.send(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}
