// Package mail delivers transactional email over SMTP. When SMTP credentials
// are not configured the mailer logs the message instead of failing, so local
// development works without a relay.
package mail

import (
	"fmt"
	"log/slog"
	"os"

	gomail "github.com/wneessen/go-mail"
)

type Mailer interface {
	SendVerificationEmail(to, firstName, token string) error
	SendPasswordResetEmail(to, firstName, token string) error
}

type SMTPMailer struct {
	host    string
	port    int
	user    string
	pass    string
	from    string
	baseURL string
}

func NewSMTPMailer() *SMTPMailer {
	port := 587
	if p := os.Getenv("SMTP_PORT"); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}
	baseURL := os.Getenv("APP_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "no-reply@un.org"
	}
	return &SMTPMailer{
		host:    os.Getenv("SMTP_HOST"),
		port:    port,
		user:    os.Getenv("SMTP_USER"),
		pass:    os.Getenv("SMTP_PASSWORD"),
		from:    from,
		baseURL: baseURL,
	}
}

func (m *SMTPMailer) configured() bool {
	return m.host != "" && m.user != "" && m.pass != ""
}

func (m *SMTPMailer) send(to, subject, htmlBody string) error {
	if !m.configured() {
		slog.Warn("SMTP not configured, skipping email", "to", to, "subject", subject)
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	client, err := gomail.NewClient(m.host,
		gomail.WithPort(m.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.user),
		gomail.WithPassword(m.pass),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (m *SMTPMailer) SendVerificationEmail(to, firstName, token string) error {
	link := m.baseURL + "/v1/auth/verify-email?token=" + token
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Thank you for registering for the Morning Briefings platform.
		Please confirm your email address by clicking the link below:</p>
		<p><a href="%s">Verify your email</a></p>
		<p>This link expires in 24 hours. If you did not register,
		you can safely ignore this message.</p>`, firstName, link)
	return m.send(to, "Verify your email address", body)
}

func (m *SMTPMailer) SendPasswordResetEmail(to, firstName, token string) error {
	link := m.baseURL + "/reset-password?token=" + token
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>We received a request to reset your password.
		Use the link below to choose a new one:</p>
		<p><a href="%s">Reset your password</a></p>
		<p>This link expires in 30 minutes. If you did not request a reset,
		you can safely ignore this message.</p>`, firstName, link)
	return m.send(to, "Reset your password", body)
}
