package email

import (
	"context"
	"log/slog"
)

// DevSender implements EmailSender for local development. Instead of
// delivering anything, it logs the message so verification and reset
// links can be copied from the console.
type DevSender struct {
	log *slog.Logger
}

// NewDevSender creates a development email sender that logs messages.
func NewDevSender(log *slog.Logger) EmailSender {
	return &DevSender{log: log}
}

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	d.log.InfoContext(ctx, "email (dev sender, not delivered)",
		slog.String("to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("tag", params.Tag),
		slog.String("body", params.BodyHTML),
	)
	return nil
}
