package config

import "time"

// MailConfig holds the SMTP settings used to deliver OTP emails.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
	// Dispatch selects how registration hands off OTP mails: "queue" publishes
	// to RabbitMQ and lets the consumer send, "direct" sends inline.
	Dispatch string
}

func LoadMailConfig(appName string) MailConfig {
	user := envStr("SMTP_USERNAME", "")
	return MailConfig{
		Host:     envStr("SMTP_HOST", "smtp.gmail.com"),
		Port:     envInt("SMTP_PORT", 587),
		Username: user,
		Password: envStr("SMTP_PASSWORD", ""),
		From:     envStr("MAIL_FROM", user),
		FromName: envStr("MAIL_FROM_NAME", appName),
		Timeout:  envDur("SMTP_TIMEOUT", 15*time.Second),
		Dispatch: envStr("MAIL_DISPATCH", "queue"),
	}
}
