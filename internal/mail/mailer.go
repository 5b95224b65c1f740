// Package mail delivers OTP emails over SMTP.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/iliyamo/connecthub/internal/config"
	"github.com/iliyamo/connecthub/internal/model"
)

//go:embed templates/otp.html
var otpHTML string

var otpTemplate = template.Must(template.New("otp").Parse(otpHTML))

// Mailer sends OTP messages through one SMTP relay.
type Mailer struct {
	cfg     config.MailConfig
	appName string
	now     func() time.Time
}

func NewMailer(cfg config.MailConfig, appName string) *Mailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Mailer{cfg: cfg, appName: appName, now: time.Now}
}

// DispatchOTP sends inline.  It lets the mailer stand in for the queue
// publisher when MAIL_DISPATCH=direct.
func (m *Mailer) DispatchOTP(ctx context.Context, msg model.OTPMail) error {
	return m.SendOTP(ctx, msg)
}

// SendOTP renders and delivers one verification email.
func (m *Mailer) SendOTP(ctx context.Context, msg model.OTPMail) error {
	if msg.To == "" || msg.Code == "" {
		return errors.New("mail: recipient and code are required")
	}
	body, err := m.BuildOTPMessage(msg)
	if err != nil {
		return err
	}
	log.Printf("mail: sending otp to=%s via=%s:%d", msg.To, m.cfg.Host, m.cfg.Port)
	if err := m.send(ctx, msg.To, body); err != nil {
		return fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	return nil
}

// BuildOTPMessage renders the full RFC 5322 message: headers plus a
// multipart/alternative body with plain text and HTML parts.
func (m *Mailer) BuildOTPMessage(msg model.OTPMail) ([]byte, error) {
	var html bytes.Buffer
	err := otpTemplate.Execute(&html, map[string]any{
		"AppName":        m.appName,
		"Name":           msg.Name,
		"Code":           msg.Code,
		"ExpiresMinutes": msg.ExpiresMinutes,
		"Year":           m.now().Year(),
	})
	if err != nil {
		return nil, fmt.Errorf("mail: render template: %w", err)
	}
	text := fmt.Sprintf("Hi %s, your OTP code is: %s. It expires in %d minutes.", msg.Name, msg.Code, msg.ExpiresMinutes)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	from := (&mailAddress{name: m.cfg.FromName, addr: m.cfg.From}).String()
	headers := []string{
		"From: " + from,
		"To: " + msg.To,
		"Subject: " + mime.QEncoding.Encode("utf-8", "Verify Your "+m.appName+" Account"),
		"Date: " + m.now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="` + mw.Boundary() + `"`,
		"",
		"",
	}
	for i, h := range headers {
		buf.WriteString(h)
		if i < len(headers)-1 {
			buf.WriteString("\r\n")
		}
	}
	for _, part := range []struct{ ctype, body string }{
		{"text/plain; charset=UTF-8", text},
		{"text/html; charset=UTF-8", html.String()},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type mailAddress struct{ name, addr string }

func (a *mailAddress) String() string {
	if a.name == "" {
		return a.addr
	}
	return mime.QEncoding.Encode("utf-8", a.name) + " <" + a.addr + ">"
}

// send talks SMTP with a deadline on the whole exchange.  STARTTLS is used
// when the server offers it.
func (m *Mailer) send(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	d := net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(m.cfg.Timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer func() { _ = c.Quit() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return err
		}
	}
	if m.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return err
		}
	}
	if err := c.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
