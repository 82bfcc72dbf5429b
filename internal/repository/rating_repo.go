package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"circlerate/internal/domain"
)

// RatingRepository es el ledger de calificaciones: append-only, sin
// update ni delete. Las correcciones, si algún día existen, serían
// entradas compensatorias nuevas.
type RatingRepository interface {
	Append(ctx context.Context, rating domain.Rating) error
	ListByRatee(ctx context.Context, rateeID string) ([]domain.Rating, error)
	ListByRateeAndCircle(ctx context.Context, rateeID, circleID string) ([]domain.Rating, error)
}

type PgRatingRepository struct {
	pool *pgxpool.Pool
}

func NewPgRatingRepository(pool *pgxpool.Pool) *PgRatingRepository {
	return &PgRatingRepository{pool: pool}
}

func (r *PgRatingRepository) Append(ctx context.Context, rating domain.Rating) error {
	if !domain.ValidRatingValue(rating.Value) {
		return domain.ErrInvalidRatingValue
	}
	const query = `
		INSERT INTO ratings (id, ratee_id, circle_id, trait_id, value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		rating.ID,
		rating.RateeID,
		rating.CircleID,
		rating.TraitID,
		rating.Value,
		rating.CreatedAt,
	)
	return err
}

func (r *PgRatingRepository) ListByRatee(ctx context.Context, rateeID string) ([]domain.Rating, error) {
	const query = `
		SELECT id, ratee_id, circle_id, trait_id, value, created_at
		FROM ratings
		WHERE ratee_id = $1
		ORDER BY created_at
	`
	return r.list(ctx, query, rateeID)
}

func (r *PgRatingRepository) ListByRateeAndCircle(ctx context.Context, rateeID, circleID string) ([]domain.Rating, error) {
	const query = `
		SELECT id, ratee_id, circle_id, trait_id, value, created_at
		FROM ratings
		WHERE ratee_id = $1 AND circle_id = $2
		ORDER BY created_at
	`
	return r.list(ctx, query, rateeID, circleID)
}

func (r *PgRatingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Rating, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		var rt domain.Rating
		if err := rows.Scan(&rt.ID, &rt.RateeID, &rt.CircleID, &rt.TraitID, &rt.Value, &rt.CreatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, rt)
	}
	return ratings, rows.Err()
}
