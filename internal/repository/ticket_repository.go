package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ticket-loop/tl-api/internal/domain"
)

const uniqueViolationCode = "23505"

// DB is the pool-level surface the ticket repository needs: plain queries
// plus the ability to open transactions. *pgxpool.Pool satisfies it.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TicketRepository encapsulates ticket persistence. Reads always join the
// owning contact; there is no lazy loading.
type TicketRepository interface {
	CreateWithContact(ctx context.Context, fullName, email, issueDescription string) (*domain.Ticket, error)
	GetWithContact(ctx context.Context, id int64) (*domain.Ticket, error)
	Resolve(ctx context.Context, id int64) (*domain.Ticket, error)
	ListWithContacts(ctx context.Context) ([]domain.Ticket, error)
}

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

// CreateWithContact looks up the contact by email, inserts it when absent,
// and inserts the ticket, all inside one transaction. When two requests race
// to insert the same new email the unique constraint rejects one of them; the
// loser retries once and finds the winner's row.
func (r *ticketRepository) CreateWithContact(ctx context.Context, fullName, email, issueDescription string) (*domain.Ticket, error) {
	const maxAttempts = 2

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		ticket, err := r.createWithContactOnce(ctx, fullName, email, issueDescription)
		if err == nil {
			return ticket, nil
		}
		lastErr = err
		if !isUniqueViolation(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (r *ticketRepository) createWithContactOnce(ctx context.Context, fullName, email, issueDescription string) (*domain.Ticket, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	contacts := NewContactRepository(tx)

	contact, err := contacts.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		contact = &domain.Contact{FullName: fullName, Email: email}
		if err := contacts.Create(ctx, contact); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		ContactID:        contact.ID,
		IssueDescription: issueDescription,
		Status:           domain.TicketStatusOpen,
		Contact:          contact,
	}

	const query = `
        INSERT INTO tickets (contact_id, issue_description, status)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, query,
		ticket.ContactID,
		ticket.IssueDescription,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) GetWithContact(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = ticketJoinQuery + ` WHERE t.id=$1`

	var ticket domain.Ticket
	var contact domain.Contact
	if err := scanTicket(r.db.QueryRow(ctx, query, id), &ticket, &contact); err != nil {
		return nil, err
	}
	ticket.Contact = &contact
	return &ticket, nil
}

// Resolve moves a ticket to the resolved state. A ticket already in its
// terminal state is returned unchanged without touching the store.
func (r *ticketRepository) Resolve(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := r.GetWithContact(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return ticket, nil
	}

	const query = `UPDATE tickets SET status=$1 WHERE id=$2`
	if _, err := r.db.Exec(ctx, query, domain.TicketStatusResolved, id); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketStatusResolved
	return ticket, nil
}

func (r *ticketRepository) ListWithContacts(ctx context.Context) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, ticketJoinQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		var contact domain.Contact
		if err := scanTicket(rows, &ticket, &contact); err != nil {
			return nil, err
		}
		ticket.Contact = &contact
		result = append(result, ticket)
	}
	return result, rows.Err()
}

const ticketJoinQuery = `
        SELECT t.id, t.contact_id, t.issue_description, t.status, t.created_at,
               c.id, c.full_name, c.email, c.created_at
        FROM tickets t
        JOIN contacts c ON c.id = t.contact_id`

func scanTicket(row pgx.Row, ticket *domain.Ticket, contact *domain.Contact) error {
	return row.Scan(
		&ticket.ID,
		&ticket.ContactID,
		&ticket.IssueDescription,
		&ticket.Status,
		&ticket.CreatedAt,
		&contact.ID,
		&contact.FullName,
		&contact.Email,
		&contact.CreatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
