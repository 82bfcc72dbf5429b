package sms

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// SMTPGateway entrega mensajes vía un gateway email-to-SMS: el número de
// destino se convierte en la parte local de la dirección del carrier
// (p.ej. 15551234567@gateway.example.com).
type SMTPGateway struct {
	host          string
	port          int
	username      string
	password      string
	from          string
	fromName      string
	gatewayDomain string
	useTLS        bool
}

func NewSMTPGateway(host string, port int, username, password, from, fromName, gatewayDomain string, useTLS bool) (*SMTPGateway, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if strings.TrimSpace(gatewayDomain) == "" {
		gatewayDomain = "sms.gateway.local"
	}
	if port == 0 {
		port = 587
	}
	return &SMTPGateway{
		host:          host,
		port:          port,
		username:      username,
		password:      password,
		from:          from,
		fromName:      fromName,
		gatewayDomain: gatewayDomain,
		useTLS:        useTLS,
	}, nil
}

func (s *SMTPGateway) SendVerificationCode(_ context.Context, toPhone string, code string, expiresAt time.Time) error {
	body := fmt.Sprintf(
		"Your circlerate verification code is %s. It expires at %s UTC.",
		code,
		expiresAt.UTC().Format(time.RFC3339),
	)
	return s.send(toPhone, "Verification code", body)
}

func (s *SMTPGateway) SendRatingInvite(_ context.Context, toPhone, contactName, inviteURL string) error {
	body := fmt.Sprintf(
		"Hi %s, a contact asked for your anonymous feedback on circlerate: %s",
		contactName,
		inviteURL,
	)
	return s.send(toPhone, "Rating invitation", body)
}

func (s *SMTPGateway) send(toPhone, subject, body string) error {
	toPhone = strings.TrimPrefix(strings.TrimSpace(toPhone), "+")
	if toPhone == "" {
		return fmt.Errorf("to phone is required")
	}
	to := toPhone + "@" + s.gatewayDomain

	msg := buildMessage(s.from, s.fromName, to, subject, body)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if s.useTLS {
		conn, err := tls.Dial("tcp", addr, &tls.Config{
			ServerName: s.host,
		})
		if err != nil {
			return err
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.host)
		if err != nil {
			return err
		}
		defer client.Quit()

		if auth != nil {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
		if err := client.Mail(s.from); err != nil {
			return err
		}
		if err := client.Rcpt(to); err != nil {
			return err
		}
		writer, err := client.Data()
		if err != nil {
			return err
		}
		if _, err := writer.Write([]byte(msg)); err != nil {
			_ = writer.Close()
			return err
		}
		return writer.Close()
	}

	return smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg))
}

func buildMessage(from, fromName, to, subject, body string) string {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	headers := []string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}

	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}
