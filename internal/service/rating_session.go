package service

import (
	"sync"

	"circlerate/internal/domain"
)

// Estados de una sesión de calificación. La sesión es estrictamente
// lineal: Uninitialized -> TokenValidated -> Rating(i) -> Complete, sin
// saltos ni reinicios. Un token nuevo es la única forma de empezar otra
// pasada.
const (
	SessionStateUninitialized  = "uninitialized"
	SessionStateTokenValidated = "token_validated"
	SessionStateRating         = "rating"
	SessionStateComplete       = "complete"
)

// RatingSession recorre el catálogo de rasgos para un token consumido.
// mu serializa cada paso de la sesión; el mutex del store solo protege
// el mapa, no el estado de la sesión.
type RatingSession struct {
	mu sync.Mutex

	ID        string
	TokenID   string
	RateeID   string
	CircleID  string
	ContactID string
	Traits    []domain.Trait
	Index     int
	State     string
}

// CurrentTrait devuelve el rasgo en presentación, o nil fuera del estado
// Rating.
func (s *RatingSession) CurrentTrait() *domain.Trait {
	if s.State != SessionStateRating || s.Index < 0 || s.Index >= len(s.Traits) {
		return nil
	}
	trait := s.Traits[s.Index]
	return &trait
}

// advance mueve la sesión al siguiente rasgo o la completa.
func (s *RatingSession) advance() {
	if s.Index >= len(s.Traits)-1 {
		s.State = SessionStateComplete
		return
	}
	s.Index++
}

// SessionStore guarda sesiones activas en memoria del proceso. Una
// sesión abandonada simplemente queda en su estado; no requiere
// compensación porque nada se registra hasta que un submit termina.
type SessionStore interface {
	Save(session *RatingSession)
	Get(id string) (*RatingSession, bool)
	Delete(id string)
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*RatingSession
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		sessions: make(map[string]*RatingSession),
	}
}

func (s *memorySessionStore) Save(session *RatingSession) {
	if session == nil || session.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

func (s *memorySessionStore) Get(id string) (*RatingSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *memorySessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
