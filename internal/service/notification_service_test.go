package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ticket-loop/tl-api/internal/config"
	"github.com/ticket-loop/tl-api/internal/domain"
	"github.com/ticket-loop/tl-api/internal/events"
)

func sampleEvent() events.Event {
	ticket := &domain.Ticket{
		ID:               7,
		ContactID:        3,
		IssueDescription: "printer on fire",
		Status:           domain.TicketStatusOpen,
		CreatedAt:        time.Now(),
		Contact: &domain.Contact{
			ID:        3,
			FullName:  "Jane Doe",
			Email:     "jane@example.com",
			CreatedAt: time.Now(),
		},
	}
	return events.Event{
		ID:        "evt-1",
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		Timestamp: time.Now(),
		Payload:   events.SnapshotTicket(ticket),
	}
}

func TestSendPostsFullTicketRepresentation(t *testing.T) {
	bodyCh := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		bodyCh <- body
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	notifier := NewNotificationService(nil, zap.NewNop(), config.NotificationConfig{
		WebhookURL:     srv.URL,
		TimeoutSeconds: 2,
	})

	if err := notifier.Send(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("send: %v", err)
	}

	var got events.TicketPayload
	if err := json.Unmarshal(<-bodyCh, &got); err != nil {
		t.Fatalf("decode webhook body: %v", err)
	}
	if got.ID != 7 {
		t.Fatalf("expected ticket id 7, got %d", got.ID)
	}
	if got.Status != domain.TicketStatusOpen {
		t.Fatalf("expected status open, got %q", got.Status)
	}
	if got.Contact.Email != "jane@example.com" {
		t.Fatalf("expected nested contact, got %+v", got.Contact)
	}
}

func TestSendReportsNon2xxResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	notifier := NewNotificationService(nil, zap.NewNop(), config.NotificationConfig{
		WebhookURL:     srv.URL,
		TimeoutSeconds: 2,
	})

	if err := notifier.Send(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestSendReportsConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(nil)
	deadURL := srv.URL
	srv.Close()

	notifier := NewNotificationService(nil, zap.NewNop(), config.NotificationConfig{
		WebhookURL:     deadURL,
		TimeoutSeconds: 1,
	})

	if err := notifier.Send(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error for unreachable endpoint")
	}
}

func TestTicketCreatedEventDeliversAsynchronously(t *testing.T) {
	bodyCh := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodyCh <- body
	}))
	t.Cleanup(srv.Close)

	dispatcher := events.NewInMemoryDispatcher()
	notifier := NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{
		WebhookURL:     srv.URL,
		TimeoutSeconds: 2,
	})
	notifier.RegisterHandlers()

	if err := dispatcher.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case body := <-bodyCh:
		var got events.TicketPayload
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("decode webhook body: %v", err)
		}
		if got.ID != 7 {
			t.Fatalf("expected ticket id 7, got %d", got.ID)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("webhook was never called")
	}
}
