package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ticket-loop/tl-api/internal/domain"
)

func TestDisabledCacheIsSafe(t *testing.T) {
	ctx := context.Background()
	tickets := []domain.Ticket{{ID: 1, Status: domain.TicketStatusOpen}}

	for _, c := range []*TicketCache{
		nil,
		NewTicketCache(nil, 30*time.Second, zap.NewNop()),
		NewTicketCache(nil, 0, zap.NewNop()),
	} {
		if got, ok := c.GetList(ctx); ok || got != nil {
			t.Fatalf("expected miss from disabled cache, got %v", got)
		}
		c.SetList(ctx, tickets)
		c.Invalidate(ctx)
	}
}
