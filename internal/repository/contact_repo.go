package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"circlerate/internal/domain"
)

// ContactRepository define el contrato de persistencia para contactos.
type ContactRepository interface {
	Create(ctx context.Context, contact domain.Contact) error
	GetByID(ctx context.Context, id string) (domain.Contact, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Contact, error)
	Update(ctx context.Context, contact domain.Contact) error
	Delete(ctx context.Context, id string) error
}

type PgContactRepository struct {
	pool *pgxpool.Pool
}

func NewPgContactRepository(pool *pgxpool.Pool) *PgContactRepository {
	return &PgContactRepository{pool: pool}
}

func (r *PgContactRepository) Create(ctx context.Context, contact domain.Contact) error {
	const query = `
		INSERT INTO contacts (id, owner_id, circle_id, name, phone_number, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		contact.ID,
		contact.OwnerID,
		contact.CircleID,
		contact.Name,
		contact.PhoneNumber,
		contact.Email,
		contact.CreatedAt,
	)
	return err
}

func (r *PgContactRepository) GetByID(ctx context.Context, id string) (domain.Contact, error) {
	const query = `
		SELECT id, owner_id, circle_id, name, phone_number, email, created_at
		FROM contacts
		WHERE id = $1
	`
	var c domain.Contact
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.OwnerID,
		&c.CircleID,
		&c.Name,
		&c.PhoneNumber,
		&c.Email,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contact{}, err
	}
	return c, err
}

func (r *PgContactRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Contact, error) {
	const query = `
		SELECT id, owner_id, circle_id, name, phone_number, email, created_at
		FROM contacts
		WHERE owner_id = $1
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.CircleID, &c.Name, &c.PhoneNumber, &c.Email, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *PgContactRepository) Update(ctx context.Context, contact domain.Contact) error {
	const query = `
		UPDATE contacts
		SET circle_id = $2, name = $3, phone_number = $4, email = $5
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		contact.ID,
		contact.CircleID,
		contact.Name,
		contact.PhoneNumber,
		contact.Email,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContactNotFound
	}
	return nil
}

func (r *PgContactRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	return err
}
