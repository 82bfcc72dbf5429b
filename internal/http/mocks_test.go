package http

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"circlerate/internal/domain"
	"circlerate/internal/service"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByPhone map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByPhone: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.usersByID[user.ID] = user
	if user.PhoneNumber != "" {
		m.usersByPhone[user.PhoneNumber] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByPhone(_ context.Context, phoneNumber string) (domain.User, error) {
	id, ok := m.usersByPhone[phoneNumber]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockUserRepo) UpdateCode(_ context.Context, id, codeHash string, expiresAt time.Time) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.CodeHash = codeHash
	user.CodeExpiresAt = &expiresAt
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) VerifyPhone(_ context.Context, id string, verifiedAt time.Time) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PhoneVerifiedAt = &verifiedAt
	user.CodeHash = ""
	user.CodeExpiresAt = nil
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id, firstName, lastName, email string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.FirstName = firstName
	user.LastName = lastName
	user.Email = email
	user.IsProfileComplete = true
	m.usersByID[id] = user
	return nil
}

type mockCircleRepo struct {
	circles map[string]domain.Circle
}

func newMockCircleRepo() *mockCircleRepo {
	return &mockCircleRepo{circles: make(map[string]domain.Circle)}
}

func (m *mockCircleRepo) Create(_ context.Context, circle domain.Circle) error {
	m.circles[circle.ID] = circle
	return nil
}

func (m *mockCircleRepo) GetByID(_ context.Context, id string) (domain.Circle, error) {
	circle, ok := m.circles[id]
	if !ok {
		return domain.Circle{}, pgx.ErrNoRows
	}
	return circle, nil
}

func (m *mockCircleRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Circle, error) {
	var out []domain.Circle
	for _, circle := range m.circles {
		if circle.OwnerID == ownerID {
			out = append(out, circle)
		}
	}
	return out, nil
}

func (m *mockCircleRepo) Update(_ context.Context, id, name string) error {
	circle, ok := m.circles[id]
	if !ok {
		return domain.ErrCircleNotFound
	}
	circle.Name = name
	m.circles[id] = circle
	return nil
}

func (m *mockCircleRepo) Delete(_ context.Context, id string) error {
	delete(m.circles, id)
	return nil
}

type mockContactRepo struct {
	contacts map[string]domain.Contact
}

func newMockContactRepo() *mockContactRepo {
	return &mockContactRepo{contacts: make(map[string]domain.Contact)}
}

func (m *mockContactRepo) Create(_ context.Context, contact domain.Contact) error {
	m.contacts[contact.ID] = contact
	return nil
}

func (m *mockContactRepo) GetByID(_ context.Context, id string) (domain.Contact, error) {
	contact, ok := m.contacts[id]
	if !ok {
		return domain.Contact{}, pgx.ErrNoRows
	}
	return contact, nil
}

func (m *mockContactRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Contact, error) {
	var out []domain.Contact
	for _, contact := range m.contacts {
		if contact.OwnerID == ownerID {
			out = append(out, contact)
		}
	}
	return out, nil
}

func (m *mockContactRepo) Update(_ context.Context, contact domain.Contact) error {
	if _, ok := m.contacts[contact.ID]; !ok {
		return domain.ErrContactNotFound
	}
	m.contacts[contact.ID] = contact
	return nil
}

func (m *mockContactRepo) Delete(_ context.Context, id string) error {
	delete(m.contacts, id)
	return nil
}

type mockTraitRepo struct {
	traits []domain.Trait
}

func newMockTraitRepo(traits ...domain.Trait) *mockTraitRepo {
	return &mockTraitRepo{traits: traits}
}

func (m *mockTraitRepo) Upsert(_ context.Context, trait domain.Trait) error {
	m.traits = append(m.traits, trait)
	return nil
}

func (m *mockTraitRepo) GetByID(_ context.Context, id string) (domain.Trait, error) {
	for _, t := range m.traits {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Trait{}, pgx.ErrNoRows
}

func (m *mockTraitRepo) ListOrdered(_ context.Context) ([]domain.Trait, error) {
	out := make([]domain.Trait, len(m.traits))
	copy(out, m.traits)
	return out, nil
}

type mockTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]domain.RatingToken
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]domain.RatingToken)}
}

func (m *mockTokenRepo) Create(_ context.Context, token domain.RatingToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.ID] = token
	return nil
}

func (m *mockTokenRepo) GetByID(_ context.Context, id string) (domain.RatingToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[id]
	if !ok {
		return domain.RatingToken{}, pgx.ErrNoRows
	}
	return token, nil
}

func (m *mockTokenRepo) Consume(_ context.Context, id string, consumedAt time.Time) (domain.RatingToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[id]
	if !ok || token.Consumed {
		return domain.RatingToken{}, domain.ErrInvalidToken
	}
	token.Consumed = true
	token.ConsumedAt = &consumedAt
	m.tokens[id] = token
	return token, nil
}

type mockRatingRepo struct {
	ratings []domain.Rating
}

func newMockRatingRepo() *mockRatingRepo {
	return &mockRatingRepo{}
}

func (m *mockRatingRepo) Append(_ context.Context, rating domain.Rating) error {
	m.ratings = append(m.ratings, rating)
	return nil
}

func (m *mockRatingRepo) ListByRatee(_ context.Context, rateeID string) ([]domain.Rating, error) {
	var out []domain.Rating
	for _, r := range m.ratings {
		if r.RateeID == rateeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRatingRepo) ListByRateeAndCircle(_ context.Context, rateeID, circleID string) ([]domain.Rating, error) {
	var out []domain.Rating
	for _, r := range m.ratings {
		if r.RateeID == rateeID && r.CircleID == circleID {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockNotificationRepo struct {
	notifications []domain.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, notification domain.Notification) error {
	m.notifications = append(m.notifications, notification)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id string) error {
	for i, n := range m.notifications {
		if n.ID == id {
			m.notifications[i].Read = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	for i, n := range m.notifications {
		if n.UserID == userID {
			m.notifications[i].Read = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, id string) error {
	for i, n := range m.notifications {
		if n.ID == id {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeSMSSender struct {
	codes []string
	urls  []string
}

func (f *fakeSMSSender) SendVerificationCode(_ context.Context, _ string, code string, _ time.Time) error {
	f.codes = append(f.codes, code)
	return nil
}

func (f *fakeSMSSender) SendRatingInvite(_ context.Context, _ string, _ string, inviteURL string) error {
	f.urls = append(f.urls, inviteURL)
	return nil
}

// testApp arma el router completo sobre repositorios en memoria.
type testApp struct {
	router        *gin.Engine
	users         *mockUserRepo
	circles       *mockCircleRepo
	contacts      *mockContactRepo
	traits        *mockTraitRepo
	tokens        *mockTokenRepo
	ratings       *mockRatingRepo
	notifications *mockNotificationRepo
	sender        *fakeSMSSender
	jwtServ       *service.JWTService
}

func newTestApp(traits ...domain.Trait) *testApp {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	app := &testApp{
		users:         newMockUserRepo(),
		circles:       newMockCircleRepo(),
		contacts:      newMockContactRepo(),
		traits:        newMockTraitRepo(traits...),
		tokens:        newMockTokenRepo(),
		ratings:       newMockRatingRepo(),
		notifications: newMockNotificationRepo(),
		sender:        &fakeSMSSender{},
	}
	app.jwtServ = service.NewJWTServiceWithStore("test-secret", 15*time.Minute, time.Hour, service.NewMemoryRefreshTokenStore())

	userSvc := service.NewUserService(logger, app.users, app.sender, nil)
	reputationSvc := service.NewReputationService(logger, app.traits, app.ratings, app.circles)
	sessionSvc := service.NewSessionService(logger, app.tokens, app.traits, app.ratings, app.users, app.circles, app.notifications, service.NewMemorySessionStore(), service.NewAggregateCache())
	invitationSvc := service.NewInvitationService(logger, app.contacts, app.tokens, app.users, app.notifications, app.sender, "https://app.circlerate.com/rate")

	authH := NewAuthHandler(logger, userSvc, app.jwtServ)
	contactH := NewContactHandler(logger, app.circles, app.contacts, app.users, invitationSvc)
	ratingH := NewRatingHandler(logger, app.traits, sessionSvc, reputationSvc)
	notificationH := NewNotificationHandler(logger, app.notifications)
	app.router = NewRouter(logger, app.jwtServ, authH, contactH, ratingH, notificationH)
	return app
}

// loginAs crea el usuario y devuelve un access token válido.
func (a *testApp) loginAs(userID string) string {
	user := domain.User{ID: userID, PhoneNumber: "+549110000" + userID, IsProfileComplete: true}
	_ = a.users.Create(context.Background(), user)
	pair, err := a.jwtServ.GeneratePair(user)
	if err != nil {
		panic(err)
	}
	return pair.AccessToken
}
