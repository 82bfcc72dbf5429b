package sms

import (
	"context"
	"errors"
	"time"
)

// Sender entrega códigos de verificación y enlaces de invitación al
// teléfono de un contacto.
type Sender interface {
	SendVerificationCode(ctx context.Context, toPhone string, code string, expiresAt time.Time) error
	SendRatingInvite(ctx context.Context, toPhone, contactName, inviteURL string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendVerificationCode(_ context.Context, _ string, _ string, _ time.Time) error {
	if s.reason == "" {
		return errors.New("sms sender disabled")
	}
	return errors.New(s.reason)
}

func (s *disabledSender) SendRatingInvite(_ context.Context, _, _, _ string) error {
	if s.reason == "" {
		return errors.New("sms sender disabled")
	}
	return errors.New(s.reason)
}
