package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ticket-loop/tl-api/internal/config"
	"github.com/ticket-loop/tl-api/internal/events"
)

// NotificationService forwards ticket events to the configured webhook.
// Delivery is fire-and-forget: at most one attempt, failures are logged and
// never reach the code that committed the ticket.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	client     *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		client:     &http.Client{Timeout: cfg.Timeout()},
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketResolved, n.handleTicketResolved)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		n.logger.Debug("no webhook configured; skipping notification",
			zap.Int64("ticket_id", event.TicketID))
		return nil
	}
	// detach from the request: the transaction has committed, the caller
	// must not wait on delivery
	go func() {
		if err := n.Send(context.Background(), event); err != nil {
			n.logger.Error("webhook notification failed",
				zap.String("url", n.cfg.WebhookURL),
				zap.Int64("ticket_id", event.TicketID),
				zap.Error(err))
		}
	}()
	return nil
}

func (n *NotificationService) handleTicketResolved(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketResolved", zap.Int64("ticket_id", event.TicketID))
	return nil
}

// Send posts the event payload to the webhook endpoint. The client timeout
// bounds the whole attempt.
func (n *NotificationService) Send(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &webhookStatusError{status: resp.StatusCode}
	}

	n.logger.Debug("webhook notification delivered",
		zap.String("url", n.cfg.WebhookURL),
		zap.Int64("ticket_id", event.TicketID))
	return nil
}

type webhookStatusError struct {
	status int
}

func (e *webhookStatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.status)
}
