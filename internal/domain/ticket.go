package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusResolved TicketStatus = "resolved"
)

// Terminal reports whether the status admits no further transitions. The
// lifecycle is a single monotonic step: open tickets resolve, and resolved
// tickets stay resolved. Re-applying the terminal state is a no-op, which
// keeps resolution idempotent.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved
}

// Ticket is the aggregate for support requests. Contact is populated by the
// repository through an explicit join, never lazily.
type Ticket struct {
	ID               int64
	ContactID        int64
	IssueDescription string
	Status           TicketStatus
	CreatedAt        time.Time
	Contact          *Contact
}
