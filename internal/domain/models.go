package domain

import "time"

type User struct {
	ID                string     `json:"id"`
	PhoneNumber       string     `json:"phone_number"`
	FirstName         string     `json:"first_name,omitempty"`
	LastName          string     `json:"last_name,omitempty"`
	Email             string     `json:"email,omitempty"`
	IsProfileComplete bool       `json:"is_profile_complete"`
	CodeHash          string     `json:"-"`
	CodeExpiresAt     *time.Time `json:"-"`
	PhoneVerifiedAt   *time.Time `json:"phone_verified_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Circle agrupa contactos de un usuario; la reputación siempre se
// consulta a través de un círculo.
type Circle struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Contact struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	CircleID    string    `json:"circle_id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Trait es una dimensión bipolar del catálogo. Position fija el orden
// de presentación y el desempate del ranking.
type Trait struct {
	ID           string `json:"id"`
	PositiveName string `json:"positive_name"`
	NegativeName string `json:"negative_name"`
	Description  string `json:"description"`
	Position     int    `json:"position"`
}

// RatingToken autoriza exactamente una sesión de calificación para un
// trío (contacto, calificado, círculo). Se consume en la primera
// validación exitosa.
type RatingToken struct {
	ID         string     `json:"id"`
	RateeID    string     `json:"ratee_id"`
	ContactID  string     `json:"contact_id"`
	CircleID   string     `json:"circle_id"`
	Consumed   bool       `json:"consumed"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Rating es un hecho inmutable: un juicio firmado de un rasgo sobre un
// usuario, atribuido a un círculo. Nunca se actualiza ni se borra.
type Rating struct {
	ID        string    `json:"id"`
	RateeID   string    `json:"ratee_id"`
	CircleID  string    `json:"circle_id"`
	TraitID   string    `json:"trait_id"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	NotificationInvitationSent = "invitation_sent"
	NotificationRatingRequest  = "rating_request"
	NotificationNewRating      = "new_rating"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidRatingValue reporta si value es uno de los tres niveles admitidos.
func ValidRatingValue(value int) bool {
	return value == -1 || value == 0 || value == 1
}
