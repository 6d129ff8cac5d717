package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ticket-loop/tl-api/internal/domain"
)

// Querier is the subset of pgx operations shared by pools and transactions,
// so the same repository code runs inside or outside a transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ContactRepository defines persistence access for contacts.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	GetByEmail(ctx context.Context, email string) (*domain.Contact, error)
}

type contactRepository struct {
	db Querier
}

// NewContactRepository returns a Postgres-backed implementation.
func NewContactRepository(db Querier) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	const query = `
        INSERT INTO contacts (full_name, email)
        VALUES ($1, $2)
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		contact.FullName,
		contact.Email,
	).Scan(&contact.ID, &contact.CreatedAt)
}

func (r *contactRepository) GetByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	const query = `
        SELECT id, full_name, email, created_at
        FROM contacts WHERE email=$1`

	var contact domain.Contact
	if err := r.db.QueryRow(ctx, query, email).Scan(
		&contact.ID,
		&contact.FullName,
		&contact.Email,
		&contact.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &contact, nil
}
