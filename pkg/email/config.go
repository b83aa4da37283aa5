package email

// Config holds email delivery configuration. The Postmark token is
// optional so development environments can run with the logging sender.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@localhost"`
	FrontendURL          string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
}
