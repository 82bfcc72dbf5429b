package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"circlerate/internal/domain"
	"circlerate/internal/repository"
	"circlerate/internal/sms"
)

// InvitationService emite tokens de un solo uso para los contactos
// seleccionados y reparte las notificaciones asociadas.
type InvitationService struct {
	logger        *zap.Logger
	contacts      repository.ContactRepository
	tokens        repository.TokenRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	sender        sms.Sender
	inviteBaseURL string
}

func NewInvitationService(
	logger *zap.Logger,
	contacts repository.ContactRepository,
	tokens repository.TokenRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	sender sms.Sender,
	inviteBaseURL string,
) *InvitationService {
	return &InvitationService{
		logger:        logger,
		contacts:      contacts,
		tokens:        tokens,
		users:         users,
		notifications: notifications,
		sender:        sender,
		inviteBaseURL: inviteBaseURL,
	}
}

// InvitationReport resume el resultado de un envío.
type InvitationReport struct {
	Sent    int      `json:"sent"`
	Skipped []string `json:"skipped,omitempty"`
}

// SendInvitations crea un token por contacto del dueño y dispara la
// entrega. Contactos ajenos o inexistentes se omiten sin abortar el
// lote.
func (s *InvitationService) SendInvitations(ctx context.Context, owner domain.User, contactIDs []string) (InvitationReport, error) {
	report := InvitationReport{}

	for _, contactID := range contactIDs {
		contact, err := s.contacts.GetByID(ctx, contactID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				report.Skipped = append(report.Skipped, contactID)
				continue
			}
			return report, err
		}
		if contact.OwnerID != owner.ID {
			report.Skipped = append(report.Skipped, contactID)
			continue
		}

		token := domain.RatingToken{
			ID:        uuid.NewString(),
			RateeID:   owner.ID,
			ContactID: contact.ID,
			CircleID:  contact.CircleID,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.tokens.Create(ctx, token); err != nil {
			return report, err
		}

		inviteURL := fmt.Sprintf("%s/%s?token=%s", s.inviteBaseURL, owner.ID, token.ID)
		if s.sender != nil {
			if err := s.sender.SendRatingInvite(ctx, contact.PhoneNumber, contact.Name, inviteURL); err != nil && s.logger != nil {
				s.logger.Warn("invite delivery failed",
					zap.Error(err),
					zap.String("contact_id", contact.ID),
				)
			}
		}

		s.notify(ctx, owner.ID, domain.NotificationInvitationSent,
			fmt.Sprintf("Rating invitation sent to %s", contact.Name))

		// Si el contacto también es usuario registrado, le avisamos que
		// pidieron su feedback.
		if contactUser, err := s.users.GetByPhone(ctx, contact.PhoneNumber); err == nil {
			s.notify(ctx, contactUser.ID, domain.NotificationRatingRequest,
				fmt.Sprintf("%s %s has requested your feedback", owner.FirstName, owner.LastName))
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return report, err
		}

		report.Sent++
	}
	return report, nil
}

func (s *InvitationService) notify(ctx context.Context, userID, kind, message string) {
	if s.notifications == nil {
		return
	}
	notification := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifications.Create(ctx, notification); err != nil && s.logger != nil {
		s.logger.Warn("notification write failed", zap.Error(err), zap.String("user_id", userID))
	}
}
