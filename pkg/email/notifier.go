package email

import (
	"context"
	"fmt"
	"html"
	"net/url"
)

// Notifier renders and sends this service's transactional emails. It
// implements the mailer capability the auth core consumes.
type Notifier struct {
	sender      EmailSender
	frontendURL string
}

// NewNotifier creates a notifier that links back to the given frontend.
func NewNotifier(sender EmailSender, frontendURL string) *Notifier {
	return &Notifier{sender: sender, frontendURL: frontendURL}
}

// SendVerificationEmail sends the email-verification link.
func (n *Notifier) SendVerificationEmail(ctx context.Context, email, name, token string) error {
	link := n.link("/verify-email", token)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for signing up! Please click the link below to verify your email address:</p>
<a href="%s">%s</a>`, html.EscapeString(displayName(name)), link, link)

	return n.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   email,
		Subject:  "Verify your email address",
		BodyHTML: body,
		Tag:      "email-verification",
	})
}

// SendPasswordResetEmail sends the password-reset link.
func (n *Notifier) SendPasswordResetEmail(ctx context.Context, email, name, token string) error {
	link := n.link("/reset-password", token)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>You have requested to reset your password. Please click the link below to reset your password:</p>
<a href="%s">%s</a>`, html.EscapeString(displayName(name)), link, link)

	return n.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   email,
		Subject:  "Reset your password",
		BodyHTML: body,
		Tag:      "password-reset",
	})
}

func (n *Notifier) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", n.frontendURL, path, url.QueryEscape(token))
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
