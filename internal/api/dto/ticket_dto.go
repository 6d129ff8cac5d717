package dto

import (
	"time"

	"github.com/ticket-loop/tl-api/internal/domain"
)

// CreateTicketRequest payload. Unknown fields are ignored by the body
// parser.
type CreateTicketRequest struct {
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	IssueDescription string `json:"issue_description"`
}

// ContactResponse is the embedded contact representation.
type ContactResponse struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketResponse is the full ticket representation returned by every
// endpoint, contact included.
type TicketResponse struct {
	ID               int64               `json:"id"`
	ContactID        int64               `json:"contact_id"`
	IssueDescription string              `json:"issue_description"`
	Status           domain.TicketStatus `json:"status"`
	CreatedAt        time.Time           `json:"created_at"`
	Contact          *ContactResponse    `json:"contact,omitempty"`
}

// NewTicketResponse maps a domain ticket onto the wire shape.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:               ticket.ID,
		ContactID:        ticket.ContactID,
		IssueDescription: ticket.IssueDescription,
		Status:           ticket.Status,
		CreatedAt:        ticket.CreatedAt,
	}
	if ticket.Contact != nil {
		resp.Contact = &ContactResponse{
			ID:        ticket.Contact.ID,
			FullName:  ticket.Contact.FullName,
			Email:     ticket.Contact.Email,
			CreatedAt: ticket.Contact.CreatedAt,
		}
	}
	return resp
}
