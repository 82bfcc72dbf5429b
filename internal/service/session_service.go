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
)

// SessionService coordina la sesión anónima de calificación: valida y
// consume el token, recorre el catálogo y anota cada rating aceptado en
// el ledger.
type SessionService struct {
	logger        *zap.Logger
	tokens        repository.TokenRepository
	traits        repository.TraitRepository
	ratings       repository.RatingRepository
	users         repository.UserRepository
	circles       repository.CircleRepository
	notifications repository.NotificationRepository
	sessions      SessionStore
	cache         *AggregateCache
}

func NewSessionService(
	logger *zap.Logger,
	tokens repository.TokenRepository,
	traits repository.TraitRepository,
	ratings repository.RatingRepository,
	users repository.UserRepository,
	circles repository.CircleRepository,
	notifications repository.NotificationRepository,
	sessions SessionStore,
	cache *AggregateCache,
) *SessionService {
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}
	return &SessionService{
		logger:        logger,
		tokens:        tokens,
		traits:        traits,
		ratings:       ratings,
		users:         users,
		circles:       circles,
		notifications: notifications,
		sessions:      sessions,
		cache:         cache,
	}
}

// ValidateResult es la respuesta de la validación de un token.
type ValidateResult struct {
	SessionID  string        `json:"session_id"`
	Ratee      domain.User   `json:"user"`
	CircleID   string        `json:"circle_id"`
	FirstTrait *domain.Trait `json:"trait,omitempty"`
	Completed  bool          `json:"completed"`
}

// StepResult es la respuesta de un submit o skip.
type StepResult struct {
	NextTrait *domain.Trait `json:"trait,omitempty"`
	Completed bool          `json:"completed"`
}

// ValidateToken consume el token (exactamente una vez, CAS en el
// repositorio) y abre la sesión posicionada en el primer rasgo. Con el
// catálogo vacío la sesión nace completa.
func (s *SessionService) ValidateToken(ctx context.Context, tokenID string) (ValidateResult, error) {
	token, err := s.tokens.Consume(ctx, tokenID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, pgx.ErrNoRows) {
			return ValidateResult{}, domain.ErrInvalidToken
		}
		return ValidateResult{}, err
	}

	ratee, err := s.users.GetByID(ctx, token.RateeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ValidateResult{}, domain.ErrInvalidToken
		}
		return ValidateResult{}, err
	}

	traits, err := s.traits.ListOrdered(ctx)
	if err != nil {
		return ValidateResult{}, err
	}

	session := &RatingSession{
		ID:        uuid.NewString(),
		TokenID:   token.ID,
		RateeID:   token.RateeID,
		CircleID:  token.CircleID,
		ContactID: token.ContactID,
		Traits:    traits,
		State:     SessionStateTokenValidated,
	}
	if len(traits) == 0 {
		session.State = SessionStateComplete
	} else {
		session.State = SessionStateRating
		session.Index = 0
	}
	s.sessions.Save(session)

	if s.logger != nil {
		s.logger.Info("rating session opened",
			zap.String("session_id", session.ID),
			zap.String("ratee_id", session.RateeID),
			zap.String("circle_id", session.CircleID),
			zap.Int("catalog_size", len(traits)),
		)
	}

	return ValidateResult{
		SessionID:  session.ID,
		Ratee:      ratee,
		CircleID:   session.CircleID,
		FirstTrait: session.CurrentTrait(),
		Completed:  session.State == SessionStateComplete,
	}, nil
}

// Submit registra el valor para el rasgo en curso y avanza. Un submit
// fallido deja la sesión en el mismo índice; reintentar es seguro.
func (s *SessionService) Submit(ctx context.Context, sessionID string, value int) (StepResult, error) {
	if !domain.ValidRatingValue(value) {
		return StepResult{}, domain.ErrInvalidRatingValue
	}

	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return StepResult{}, domain.ErrInvalidSessionState
	}

	// El paso completo (leer rasgo, anotar, avanzar) va bajo el lock de
	// la sesión: dos submits concurrentes no pueden calificar el mismo
	// rasgo dos veces.
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State != SessionStateRating {
		return StepResult{}, domain.ErrInvalidSessionState
	}
	trait := session.CurrentTrait()
	if trait == nil {
		return StepResult{}, domain.ErrInvalidSessionState
	}

	rating := domain.Rating{
		ID:        uuid.NewString(),
		RateeID:   session.RateeID,
		CircleID:  session.CircleID,
		TraitID:   trait.ID,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.appendRating(ctx, rating); err != nil {
		return StepResult{}, err
	}

	session.advance()
	s.sessions.Save(session)
	return StepResult{
		NextTrait: session.CurrentTrait(),
		Completed: session.State == SessionStateComplete,
	}, nil
}

// Skip avanza sin registrar nada en el ledger.
func (s *SessionService) Skip(_ context.Context, sessionID string) (StepResult, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return StepResult{}, domain.ErrInvalidSessionState
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State != SessionStateRating {
		return StepResult{}, domain.ErrInvalidSessionState
	}

	session.advance()
	s.sessions.Save(session)
	return StepResult{
		NextTrait: session.CurrentTrait(),
		Completed: session.State == SessionStateComplete,
	}, nil
}

// appendRating verifica integridad referencial, anota en el ledger,
// actualiza la caché incremental y notifica al calificado.
func (s *SessionService) appendRating(ctx context.Context, rating domain.Rating) error {
	if _, err := s.users.GetByID(ctx, rating.RateeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUnknownRatee
		}
		return err
	}
	if _, err := s.circles.GetByID(ctx, rating.CircleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUnknownCircle
		}
		return err
	}

	if err := s.ratings.Append(ctx, rating); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Apply(rating)
	}

	if s.notifications != nil {
		notification := domain.Notification{
			ID:        uuid.NewString(),
			UserID:    rating.RateeID,
			Type:      domain.NotificationNewRating,
			Message:   "You received a new rating!",
			CreatedAt: time.Now().UTC(),
		}
		if err := s.notifications.Create(ctx, notification); err != nil && s.logger != nil {
			s.logger.Warn("new rating notification failed", zap.Error(err), zap.String("ratee_id", rating.RateeID))
		}
	}
	return nil
}

// TraitDetails resuelve un rasgo y el usuario calificado para la
// pantalla de calificación.
func (s *SessionService) TraitDetails(ctx context.Context, rateeID, traitID string) (domain.Trait, domain.User, error) {
	trait, err := s.traits.GetByID(ctx, traitID)
	if err != nil {
		return domain.Trait{}, domain.User{}, fmt.Errorf("trait lookup: %w", err)
	}
	ratee, err := s.users.GetByID(ctx, rateeID)
	if err != nil {
		return domain.Trait{}, domain.User{}, fmt.Errorf("user lookup: %w", err)
	}
	return trait, ratee, nil
}
