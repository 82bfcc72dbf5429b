package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"circlerate/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (domain.User, error)
	UpdateCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	VerifyPhone(ctx context.Context, id string, verifiedAt time.Time) error
	UpdateProfile(ctx context.Context, id, firstName, lastName, email string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, phone_number, first_name, last_name, email, is_profile_complete, code_hash, code_expires_at, phone_verified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.PhoneNumber,
		user.FirstName,
		user.LastName,
		user.Email,
		user.IsProfileComplete,
		user.CodeHash,
		user.CodeExpiresAt,
		user.PhoneVerifiedAt,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT id, phone_number, first_name, last_name, email, is_profile_complete, code_hash, code_expires_at, phone_verified_at, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByPhone(ctx context.Context, phoneNumber string) (domain.User, error) {
	const query = `
		SELECT id, phone_number, first_name, last_name, email, is_profile_complete, code_hash, code_expires_at, phone_verified_at, created_at
		FROM users
		WHERE phone_number = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, phoneNumber))
}

func (r *PgUserRepository) UpdateCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	const query = `
		UPDATE users
		SET code_hash = $2, code_expires_at = $3
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, codeHash, expiresAt)
	return err
}

func (r *PgUserRepository) VerifyPhone(ctx context.Context, id string, verifiedAt time.Time) error {
	const query = `
		UPDATE users
		SET phone_verified_at = $2, code_hash = '', code_expires_at = NULL
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, verifiedAt)
	return err
}

func (r *PgUserRepository) UpdateProfile(ctx context.Context, id, firstName, lastName, email string) error {
	const query = `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, is_profile_complete = TRUE
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, firstName, lastName, email)
	return err
}

func (r *PgUserRepository) scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.PhoneNumber,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.IsProfileComplete,
		&u.CodeHash,
		&u.CodeExpiresAt,
		&u.PhoneVerifiedAt,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	return u, err
}
