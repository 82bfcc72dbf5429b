package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"circlerate/internal/domain"
)

// TraitRepository expone el catálogo de rasgos. El catálogo es de solo
// lectura durante las sesiones; Upsert existe para el seeding.
type TraitRepository interface {
	Upsert(ctx context.Context, trait domain.Trait) error
	GetByID(ctx context.Context, id string) (domain.Trait, error)
	ListOrdered(ctx context.Context) ([]domain.Trait, error)
}

type PgTraitRepository struct {
	pool *pgxpool.Pool
}

func NewPgTraitRepository(pool *pgxpool.Pool) *PgTraitRepository {
	return &PgTraitRepository{pool: pool}
}

func (r *PgTraitRepository) Upsert(ctx context.Context, trait domain.Trait) error {
	const query = `
		INSERT INTO traits (id, positive_name, negative_name, description, position)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			positive_name = EXCLUDED.positive_name,
			negative_name = EXCLUDED.negative_name,
			description = EXCLUDED.description,
			position = EXCLUDED.position
	`
	_, err := r.pool.Exec(ctx, query,
		trait.ID,
		trait.PositiveName,
		trait.NegativeName,
		trait.Description,
		trait.Position,
	)
	return err
}

func (r *PgTraitRepository) GetByID(ctx context.Context, id string) (domain.Trait, error) {
	const query = `
		SELECT id, positive_name, negative_name, description, position
		FROM traits
		WHERE id = $1
	`
	var t domain.Trait
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.PositiveName,
		&t.NegativeName,
		&t.Description,
		&t.Position,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Trait{}, err
	}
	return t, err
}

// ListOrdered devuelve el catálogo en orden de presentación. Ese orden
// es también el desempate del ranking.
func (r *PgTraitRepository) ListOrdered(ctx context.Context) ([]domain.Trait, error) {
	const query = `
		SELECT id, positive_name, negative_name, description, position
		FROM traits
		ORDER BY position
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var traits []domain.Trait
	for rows.Next() {
		var t domain.Trait
		if err := rows.Scan(&t.ID, &t.PositiveName, &t.NegativeName, &t.Description, &t.Position); err != nil {
			return nil, err
		}
		traits = append(traits, t)
	}
	return traits, rows.Err()
}
