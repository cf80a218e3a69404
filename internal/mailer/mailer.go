package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// Mailer delivers a single message to one recipient
type Mailer interface {
	Send(to, subject, body string) error
}

// NewFromEnv returns an SMTP mailer when SMTP_HOST is configured and a
// log-only mailer otherwise, so local development needs no mail server.
func NewFromEnv() Mailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Println("SMTP_HOST not set, outgoing mail will be logged only")
		return &LogMailer{}
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &SMTPMailer{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

// SMTPMailer sends mail through a plain SMTP relay
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.From, to, subject, body))
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	if err := smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes the message to the process log instead of sending it
type LogMailer struct{}

func (m *LogMailer) Send(to, subject, body string) error {
	log.Printf("MAIL to=%s subject=%q body=%q", to, subject, body)
	return nil
}
