package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"circlerate/internal/domain"
)

// CircleRepository define el contrato de persistencia para círculos.
type CircleRepository interface {
	Create(ctx context.Context, circle domain.Circle) error
	GetByID(ctx context.Context, id string) (domain.Circle, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Circle, error)
	Update(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

type PgCircleRepository struct {
	pool *pgxpool.Pool
}

func NewPgCircleRepository(pool *pgxpool.Pool) *PgCircleRepository {
	return &PgCircleRepository{pool: pool}
}

func (r *PgCircleRepository) Create(ctx context.Context, circle domain.Circle) error {
	const query = `
		INSERT INTO circles (id, owner_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, circle.ID, circle.OwnerID, circle.Name, circle.CreatedAt)
	return err
}

func (r *PgCircleRepository) GetByID(ctx context.Context, id string) (domain.Circle, error) {
	const query = `
		SELECT id, owner_id, name, created_at
		FROM circles
		WHERE id = $1
	`
	var c domain.Circle
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Circle{}, err
	}
	return c, err
}

func (r *PgCircleRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Circle, error) {
	const query = `
		SELECT id, owner_id, name, created_at
		FROM circles
		WHERE owner_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var circles []domain.Circle
	for rows.Next() {
		var c domain.Circle
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		circles = append(circles, c)
	}
	return circles, rows.Err()
}

func (r *PgCircleRepository) Update(ctx context.Context, id, name string) error {
	const query = `
		UPDATE circles
		SET name = $2
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCircleNotFound
	}
	return nil
}

// Delete borra el círculo y sus contactos. Los ratings históricos del
// círculo se conservan: son hechos inmutables.
func (r *PgCircleRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM contacts WHERE circle_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM circles WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
