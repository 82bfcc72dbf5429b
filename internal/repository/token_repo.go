package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"circlerate/internal/domain"
)

// TokenRepository persiste tokens de invitación de un solo uso.
//
// Consume debe ser atómico: de dos llamadas concurrentes sobre el mismo
// token, exactamente una gana. La implementación Pg lo resuelve con un
// UPDATE condicionado sobre la bandera consumed.
type TokenRepository interface {
	Create(ctx context.Context, token domain.RatingToken) error
	GetByID(ctx context.Context, id string) (domain.RatingToken, error)
	Consume(ctx context.Context, id string, consumedAt time.Time) (domain.RatingToken, error)
}

type PgTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPgTokenRepository(pool *pgxpool.Pool) *PgTokenRepository {
	return &PgTokenRepository{pool: pool}
}

func (r *PgTokenRepository) Create(ctx context.Context, token domain.RatingToken) error {
	const query = `
		INSERT INTO rating_tokens (id, ratee_id, contact_id, circle_id, consumed, consumed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.RateeID,
		token.ContactID,
		token.CircleID,
		token.Consumed,
		token.ConsumedAt,
		token.CreatedAt,
	)
	return err
}

func (r *PgTokenRepository) GetByID(ctx context.Context, id string) (domain.RatingToken, error) {
	const query = `
		SELECT id, ratee_id, contact_id, circle_id, consumed, consumed_at, created_at
		FROM rating_tokens
		WHERE id = $1
	`
	var t domain.RatingToken
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.RateeID,
		&t.ContactID,
		&t.CircleID,
		&t.Consumed,
		&t.ConsumedAt,
		&t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RatingToken{}, err
	}
	return t, err
}

// Consume marca el token como consumido solo si sigue sin consumir.
// Devuelve ErrInvalidToken si el token no existe o ya fue usado.
func (r *PgTokenRepository) Consume(ctx context.Context, id string, consumedAt time.Time) (domain.RatingToken, error) {
	const query = `
		UPDATE rating_tokens
		SET consumed = TRUE, consumed_at = $2
		WHERE id = $1 AND NOT consumed
		RETURNING id, ratee_id, contact_id, circle_id, consumed, consumed_at, created_at
	`
	var t domain.RatingToken
	err := r.pool.QueryRow(ctx, query, id, consumedAt).Scan(
		&t.ID,
		&t.RateeID,
		&t.ContactID,
		&t.CircleID,
		&t.Consumed,
		&t.ConsumedAt,
		&t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RatingToken{}, domain.ErrInvalidToken
	}
	return t, err
}
