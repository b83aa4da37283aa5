package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSender records the last email instead of sending it.
type captureSender struct {
	last SendEmailParams
}

func (c *captureSender) SendEmail(_ context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	c.last = params
	return nil
}

func TestNotifier_SendVerificationEmail(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	n := NewNotifier(sender, "https://app.example.com")

	err := n.SendVerificationEmail(context.Background(), "jane@example.com", "Jane", "tok123")
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", sender.last.SendTo)
	assert.Equal(t, "Verify your email address", sender.last.Subject)
	assert.Contains(t, sender.last.BodyHTML, "https://app.example.com/verify-email?token=tok123")
	assert.Contains(t, sender.last.BodyHTML, "Hi Jane")
}

func TestNotifier_SendPasswordResetEmail(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	n := NewNotifier(sender, "https://app.example.com")

	err := n.SendPasswordResetEmail(context.Background(), "jane@example.com", "", "tok456")
	require.NoError(t, err)

	assert.Equal(t, "Reset your password", sender.last.Subject)
	assert.Contains(t, sender.last.BodyHTML, "/reset-password?token=tok456")
	// Empty names fall back to a friendly greeting.
	assert.Contains(t, sender.last.BodyHTML, "Hi there")
}

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	valid := SendEmailParams{SendTo: "a@b.co", Subject: "s", BodyHTML: "<p>hi</p>"}
	require.NoError(t, valid.Validate())

	for name, params := range map[string]SendEmailParams{
		"bad recipient":   {SendTo: "not-an-email", Subject: "s", BodyHTML: "b"},
		"missing subject": {SendTo: "a@b.co", BodyHTML: "b"},
		"missing body":    {SendTo: "a@b.co", Subject: "s"},
	} {
		params := params
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, params.Validate(), ErrInvalidParams)
		})
	}
}
