package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"circlerate/internal/domain"
	"circlerate/internal/repository"
	"circlerate/internal/sms"
)

// UserService coordina el alta y la verificación telefónica de usuarios.
type UserService struct {
	logger  *zap.Logger
	users   repository.UserRepository
	sender  sms.Sender
	limiter CodeRateLimiter
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, sender sms.Sender, limiter CodeRateLimiter) *UserService {
	if limiter == nil {
		limiter = NewCodeRateLimiter(codeTTL, 3)
	}
	return &UserService{
		logger:  logger,
		users:   users,
		sender:  sender,
		limiter: limiter,
	}
}

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrCodeNotRequested = errors.New("verification code not requested")
	ErrCodeExpired      = errors.New("verification code expired")
	ErrCodeInvalid      = errors.New("verification code invalid")
	ErrSendFailure      = errors.New("code delivery failed")
	ErrRateLimited      = errors.New("rate limited")
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrInvalidProfile   = errors.New("invalid profile data")
)

const codeTTL = 10 * time.Minute

// RequestCode genera un código de 6 dígitos para el teléfono, lo guarda
// hasheado con bcrypt y lo entrega por el sender configurado. Crea el
// usuario en la primera solicitud.
func (s *UserService) RequestCode(ctx context.Context, phoneNumber string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	phoneNumber = normalizePhone(phoneNumber)
	if phoneNumber == "" {
		return domain.User{}, ErrInvalidPhone
	}

	if s.limiter != nil && !s.limiter.Allow(phoneNumber) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			user = domain.User{
				ID:          uuid.NewString(),
				PhoneNumber: phoneNumber,
				CreatedAt:   time.Now().UTC(),
			}
			if err := s.users.Create(ctx, user); err != nil {
				return domain.User{}, err
			}
		} else {
			return domain.User{}, err
		}
	}

	code, hash, expiresAt, err := generateCode()
	if err != nil {
		return domain.User{}, err
	}

	if err := s.users.UpdateCode(ctx, user.ID, hash, expiresAt); err != nil {
		return domain.User{}, err
	}

	if s.sender == nil {
		return domain.User{}, ErrSendFailure
	}
	if err := s.sender.SendVerificationCode(ctx, phoneNumber, code, expiresAt); err != nil {
		if s.logger != nil {
			s.logger.Warn("send verification code failed", zap.Error(err), zap.String("phone", phoneNumber))
		}
		return domain.User{}, ErrSendFailure
	}

	user.CodeExpiresAt = &expiresAt
	return user, nil
}

// VerifyCode valida el código y marca el teléfono verificado.
func (s *UserService) VerifyCode(ctx context.Context, phoneNumber, code string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	phoneNumber = normalizePhone(phoneNumber)
	code = strings.TrimSpace(code)
	if phoneNumber == "" {
		return domain.User{}, ErrInvalidPhone
	}
	if !isValidCode(code) {
		return domain.User{}, ErrCodeInvalid
	}

	user, err := s.users.GetByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	if user.CodeHash == "" || user.CodeExpiresAt == nil {
		return domain.User{}, ErrCodeNotRequested
	}
	if time.Now().UTC().After(*user.CodeExpiresAt) {
		return domain.User{}, ErrCodeExpired
	}
	if bcrypt.CompareHashAndPassword([]byte(user.CodeHash), []byte(code)) != nil {
		return domain.User{}, ErrCodeInvalid
	}

	verifiedAt := time.Now().UTC()
	if err := s.users.VerifyPhone(ctx, user.ID, verifiedAt); err != nil {
		return domain.User{}, err
	}

	user.PhoneVerifiedAt = &verifiedAt
	user.CodeHash = ""
	user.CodeExpiresAt = nil
	return user, nil
}

// UpdateProfile completa los datos del perfil del usuario autenticado.
func (s *UserService) UpdateProfile(ctx context.Context, userID, firstName, lastName, email string) (domain.User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.ToLower(strings.TrimSpace(email))
	if firstName == "" || lastName == "" {
		return domain.User{}, ErrInvalidProfile
	}

	if err := s.users.UpdateProfile(ctx, userID, firstName, lastName, email); err != nil {
		return domain.User{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByID devuelve el usuario autenticado.
func (s *UserService) GetByID(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func generateCode() (string, string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", time.Time{}, err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", "", time.Time{}, err
	}

	expiresAt := time.Now().UTC().Add(codeTTL)
	return code, string(hashBytes), expiresAt, nil
}

// normalizePhone deja el número en formato E.164 laxo: un + opcional y
// solo dígitos.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	normalized := b.String()
	digits := strings.TrimPrefix(normalized, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return ""
	}
	return normalized
}

func isValidCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// CodeRateLimiter limita la frecuencia de solicitudes de código por
// teléfono.
type CodeRateLimiter interface {
	Allow(key string) bool
}

type codeRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewCodeRateLimiter crea un rate limiter en memoria.
func NewCodeRateLimiter(window time.Duration, max int) CodeRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &codeRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *codeRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	kept = append(kept, now)
	l.hits[key] = kept
	return true
}
