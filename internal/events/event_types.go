package events

import (
	"time"

	"github.com/ticket-loop/tl-api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketResolved EventType = "ticket_resolved"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ContactPayload is the contact portion of a ticket snapshot.
type ContactPayload struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketPayload is the full ticket representation carried by ticket events.
// It matches the API response shape so webhook consumers see the same
// document the creating client received.
type TicketPayload struct {
	ID               int64               `json:"id"`
	ContactID        int64               `json:"contact_id"`
	IssueDescription string              `json:"issue_description"`
	Status           domain.TicketStatus `json:"status"`
	CreatedAt        time.Time           `json:"created_at"`
	Contact          ContactPayload      `json:"contact"`
}

// SnapshotTicket builds the event payload for a persisted ticket.
func SnapshotTicket(ticket *domain.Ticket) TicketPayload {
	payload := TicketPayload{
		ID:               ticket.ID,
		ContactID:        ticket.ContactID,
		IssueDescription: ticket.IssueDescription,
		Status:           ticket.Status,
		CreatedAt:        ticket.CreatedAt,
	}
	if ticket.Contact != nil {
		payload.Contact = ContactPayload{
			ID:        ticket.Contact.ID,
			FullName:  ticket.Contact.FullName,
			Email:     ticket.Contact.Email,
			CreatedAt: ticket.Contact.CreatedAt,
		}
	}
	return payload
}
