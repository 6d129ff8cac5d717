package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	httptransport "github.com/ticket-loop/tl-api/internal/api/http"
	"github.com/ticket-loop/tl-api/internal/api/http/handlers"
	"github.com/ticket-loop/tl-api/internal/cache"
	"github.com/ticket-loop/tl-api/internal/domain"
	"github.com/ticket-loop/tl-api/internal/observability"
	"github.com/ticket-loop/tl-api/internal/service"
)

type memoryTicketRepo struct {
	contactsByEmail map[string]*domain.Contact
	tickets         map[int64]*domain.Ticket
	nextContactID   int64
	nextTicketID    int64
}

func newMemoryTicketRepo() *memoryTicketRepo {
	return &memoryTicketRepo{
		contactsByEmail: map[string]*domain.Contact{},
		tickets:         map[int64]*domain.Ticket{},
	}
}

func (m *memoryTicketRepo) CreateWithContact(ctx context.Context, fullName, email, issueDescription string) (*domain.Ticket, error) {
	contact, ok := m.contactsByEmail[email]
	if !ok {
		m.nextContactID++
		contact = &domain.Contact{ID: m.nextContactID, FullName: fullName, Email: email, CreatedAt: time.Now()}
		m.contactsByEmail[email] = contact
	}
	m.nextTicketID++
	ticket := &domain.Ticket{
		ID:               m.nextTicketID,
		ContactID:        contact.ID,
		IssueDescription: issueDescription,
		Status:           domain.TicketStatusOpen,
		CreatedAt:        time.Now(),
		Contact:          contact,
	}
	m.tickets[ticket.ID] = ticket
	return ticket, nil
}

func (m *memoryTicketRepo) GetWithContact(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ticket, nil
}

func (m *memoryTicketRepo) Resolve(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.Status = domain.TicketStatusResolved
	return ticket, nil
}

func (m *memoryTicketRepo) ListWithContacts(ctx context.Context) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for _, ticket := range m.tickets {
		result = append(result, *ticket)
	}
	return result, nil
}

func newTestApp() *fiber.App {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	svc := service.NewTicketService(service.TicketDependencies{
		TicketRepo: newMemoryTicketRepo(),
		Cache:      cache.NewTicketCache(nil, 0, logger),
		Logger:     logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler("tl-api-test", "test", nil, nil, metrics),
		Tickets: handlers.NewTicketsHandler(svc),
	})
	return app
}

type ticketBody struct {
	Data struct {
		ID               int64  `json:"id"`
		ContactID        int64  `json:"contact_id"`
		IssueDescription string `json:"issue_description"`
		Status           string `json:"status"`
		Contact          *struct {
			ID       int64  `json:"id"`
			FullName string `json:"full_name"`
			Email    string `json:"email"`
		} `json:"contact"`
	} `json:"data"`
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func createTicket(t *testing.T, app *fiber.App, payload string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tickets", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return resp
}

func TestHealthReturnsFixedAcknowledgement(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), 5000)
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if got["status"] != "ok" {
		t.Fatalf("expected ok acknowledgement, got %v", got)
	}
}

func TestCreateTicketNormalizesAndReturns201(t *testing.T) {
	app := newTestApp()

	resp := createTicket(t, app, `{"full_name":"Jane Doe","email":"JANE@Example.com ","issue_description":"<b>broken</b>"}`)
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d, body=%s", resp.StatusCode, string(body))
	}

	var got ticketBody
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Data.Status != "open" {
		t.Fatalf("expected status open, got %q", got.Data.Status)
	}
	if got.Data.IssueDescription != "&lt;b&gt;broken&lt;/b&gt;" {
		t.Fatalf("expected escaped description, got %q", got.Data.IssueDescription)
	}
	if got.Data.Contact == nil || got.Data.Contact.Email != "jane@example.com" {
		t.Fatalf("expected lowercased contact email, got %+v", got.Data.Contact)
	}
}

func TestCreateTicketReusesContactAcrossCasing(t *testing.T) {
	app := newTestApp()

	resp := createTicket(t, app, `{"full_name":"Jane Doe","email":"jane@example.com","issue_description":"one"}`)
	var first ticketBody
	if err := json.NewDecoder(resp.Body).Decode(&first); err != nil {
		t.Fatalf("decode first: %v", err)
	}

	resp = createTicket(t, app, `{"full_name":"Someone Else","email":"Jane@Example.COM","issue_description":"two"}`)
	var second ticketBody
	if err := json.NewDecoder(resp.Body).Decode(&second); err != nil {
		t.Fatalf("decode second: %v", err)
	}

	if first.Data.ContactID != second.Data.ContactID {
		t.Fatalf("expected shared contact, got %d and %d", first.Data.ContactID, second.Data.ContactID)
	}
	if second.Data.Contact.FullName != "Jane Doe" {
		t.Fatalf("expected stored contact name to win, got %q", second.Data.Contact.FullName)
	}
	if first.Data.ID == second.Data.ID {
		t.Fatalf("expected two distinct tickets")
	}
}

func TestCreateTicketInvalidEmailReturns422(t *testing.T) {
	app := newTestApp()

	resp := createTicket(t, app, `{"full_name":"Jane Doe","email":"not-an-email","issue_description":"broken"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var got errorBody
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if got.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %q", got.Error.Code)
	}
	if got.Error.Details["field"] != "email" {
		t.Fatalf("expected email field detail, got %v", got.Error.Details)
	}
}

func TestResolveUnknownTicketReturns404(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/tickets/999/resolve", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("resolve request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var got errorBody
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if got.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %q", got.Error.Code)
	}
}

func TestResolveTicketIsIdempotentOverHTTP(t *testing.T) {
	app := newTestApp()

	resp := createTicket(t, app, `{"full_name":"Jane Doe","email":"jane@example.com","issue_description":"broken"}`)
	var created ticketBody
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	path := fmt.Sprintf("/api/v1/tickets/%d/resolve", created.Data.ID)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPatch, path, nil)
		resp, err := app.Test(req, 5000)
		if err != nil {
			t.Fatalf("resolve request %d: %v", i+1, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("resolve %d: expected 200, got %d", i+1, resp.StatusCode)
		}
		var got ticketBody
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decode resolve %d: %v", i+1, err)
		}
		if got.Data.Status != "resolved" {
			t.Fatalf("resolve %d: expected resolved, got %q", i+1, got.Data.Status)
		}
	}
}

func TestListTicketsReturnsAllWithContacts(t *testing.T) {
	app := newTestApp()

	createTicket(t, app, `{"full_name":"Jane Doe","email":"jane@example.com","issue_description":"one"}`)
	createTicket(t, app, `{"full_name":"John Roe","email":"john@example.com","issue_description":"two"}`)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/tickets", nil), 5000)
	if err != nil {
		t.Fatalf("list request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got struct {
		Data []struct {
			ID      int64 `json:"id"`
			Contact *struct {
				Email string `json:"email"`
			} `json:"contact"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(got.Data) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(got.Data))
	}
	for _, item := range got.Data {
		if item.Contact == nil || item.Contact.Email == "" {
			t.Fatalf("expected embedded contact on ticket %d", item.ID)
		}
	}
}
