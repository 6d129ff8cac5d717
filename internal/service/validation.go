package service

import (
	"html"
	"net/mail"
	"strings"

	apperrors "github.com/ticket-loop/tl-api/pkg/util"
)

// TicketSubmission carries the raw fields of a create request.
type TicketSubmission struct {
	FullName         string
	Email            string
	IssueDescription string
}

// Normalize trims and HTML-escapes the free-text fields and lowercases the
// email, rejecting addresses that do not parse as local@domain with a dotted
// domain. Empty name or description survive normalization; only the email
// grammar is enforced.
func (s TicketSubmission) Normalize() (TicketSubmission, error) {
	email := strings.ToLower(strings.TrimSpace(s.Email))
	if !isValidEmail(email) {
		return TicketSubmission{}, apperrors.NewValidationError(
			"email must be a valid email address",
			map[string]any{"field": "email"},
		)
	}

	return TicketSubmission{
		FullName:         html.EscapeString(strings.TrimSpace(s.FullName)),
		Email:            html.EscapeString(email),
		IssueDescription: html.EscapeString(strings.TrimSpace(s.IssueDescription)),
	}, nil
}

func isValidEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at < 1 {
		return false
	}
	// require a dotted domain; "user@localhost" is not deliverable mail here
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
