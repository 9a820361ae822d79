package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository interface {
	GetByPhone(ctx context.Context, phone string) (*Record, error)
	Create(ctx context.Context, r *Record) error
	Update(ctx context.Context, r *Record) error
	DeleteByPhone(ctx context.Context, phone string) (*Record, error)
}

const uniqueViolation = "23505"

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const selectColumns = `id, phone_number, name, country, screening_token, created_at, updated_at`

func (p *postgresRepo) GetByPhone(ctx context.Context, phone string) (*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM users WHERE phone_number = $1`

	r, err := scanRecord(p.db.QueryRowContext(ctx, query, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return r, nil
}

func (p *postgresRepo) Create(ctx context.Context, r *Record) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	query := `
		INSERT INTO users (id, phone_number, name, country, screening_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := p.db.ExecContext(ctx, query,
		r.ID, r.PhoneNumber, r.Name, r.Country, r.ScreeningToken, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (p *postgresRepo) Update(ctx context.Context, r *Record) error {
	r.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users SET
			name = $2,
			country = $3,
			screening_token = $4,
			updated_at = $5
		WHERE phone_number = $1
	`
	res, err := p.db.ExecContext(ctx, query,
		r.PhoneNumber, r.Name, r.Country, r.ScreeningToken, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *postgresRepo) DeleteByPhone(ctx context.Context, phone string) (*Record, error) {
	query := `DELETE FROM users WHERE phone_number = $1 RETURNING ` + selectColumns

	r, err := scanRecord(p.db.QueryRowContext(ctx, query, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return r, nil
}

func scanRecord(row *sql.Row) (*Record, error) {
	var r Record
	var token sql.NullString

	err := row.Scan(
		&r.ID,
		&r.PhoneNumber,
		&r.Name,
		&r.Country,
		&token,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if token.Valid {
		r.ScreeningToken = &token.String
	}
	return &r, nil
}
