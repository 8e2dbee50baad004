package users

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/common"
	"zoggy.app/waitlist/internal/config"
)

// NewMailer возвращает SMTP-отправителя, если SMTP настроен, иначе отправителя,
// который только пишет ссылку в лог (удобно для разработки).
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		log.Warn("SMTP не настроен, письма будут только логироваться")
		return LogMailer{}
	}
	return &SMTPMailer{
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		host:     cfg.SMTPHost,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
	}
}

// LogMailer пишет письма в лог вместо отправки.
type LogMailer struct{}

// SendVerification логирует ссылку подтверждения.
func (LogMailer) SendVerification(_ context.Context, email, link string) error {
	log.WithFields(log.Fields{
		"email": common.MaskEmail(email),
		"link":  link,
	}).Info("Письмо подтверждения (SMTP отключён)")
	return nil
}

// SMTPMailer отправляет письма через SMTP с PLAIN-авторизацией.
type SMTPMailer struct {
	addr     string
	host     string
	username string
	password string
	from     string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// SendVerification отправляет письмо со ссылкой подтверждения.
func (m *SMTPMailer) SendVerification(_ context.Context, email, link string) error {
	msg := buildVerificationMessage(m.from, email, link)

	var a smtp.Auth
	if m.username != "" {
		a = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	send := m.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(m.addr, a, m.from, []string{email}, msg); err != nil {
		return fmt.Errorf("ошибка отправки письма: %w", err)
	}
	log.WithField("email", common.MaskEmail(email)).Info("Письмо подтверждения отправлено")
	return nil
}

func buildVerificationMessage(from, to, link string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Verify Your Email - Zoggy Casino\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	b.WriteString("<h2>Welcome to Zoggy Casino!</h2>")
	b.WriteString("<p>Please verify your email address by clicking the link below:</p>")
	b.WriteString(`<p><a href="` + link + `">Verify Email</a></p>`)
	b.WriteString("<p>Or copy and paste this link in your browser:</p>")
	b.WriteString("<p>" + link + "</p>")
	b.WriteString("<p>This link will expire in 24 hours.</p>")
	b.WriteString("</div>\r\n")
	return []byte(b.String())
}
