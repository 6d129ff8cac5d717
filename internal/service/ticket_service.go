package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ticket-loop/tl-api/internal/cache"
	"github.com/ticket-loop/tl-api/internal/domain"
	"github.com/ticket-loop/tl-api/internal/events"
	"github.com/ticket-loop/tl-api/internal/repository"
	apperrors "github.com/ticket-loop/tl-api/pkg/util"
)

// TicketService coordinates the ticket lifecycle: submission, listing and
// resolution.
type TicketService struct {
	tickets    repository.TicketRepository
	cache      *cache.TicketCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Cache      *cache.TicketCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ListTickets returns every stored ticket with its owning contact. Ordering
// is store-defined. The listing is served from the cache when warm.
func (s *TicketService) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	if tickets, ok := s.cache.GetList(ctx); ok {
		return tickets, nil
	}
	tickets, err := s.tickets.ListWithContacts(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetList(ctx, tickets)
	return tickets, nil
}

// CreateTicket normalizes the submission, persists contact and ticket
// atomically (reusing an existing contact with the same email), and emits a
// ticket-created event once the transaction has committed. The submitted
// name is discarded when the contact already exists; the first write wins.
func (s *TicketService) CreateTicket(ctx context.Context, submission TicketSubmission) (*domain.Ticket, error) {
	normalized, err := submission.Normalize()
	if err != nil {
		return nil, err
	}

	ticket, err := s.tickets.CreateWithContact(ctx, normalized.FullName, normalized.Email, normalized.IssueDescription)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload:  events.SnapshotTicket(ticket),
	})
	return ticket, nil
}

// ResolveTicket moves the ticket to its terminal state. Resolving an already
// resolved ticket succeeds and returns the unchanged ticket.
func (s *TicketService) ResolveTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.Resolve(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: ticket.ID,
		Payload:  events.SnapshotTicket(ticket),
	})
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
