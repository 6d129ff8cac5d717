package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ticket-loop/tl-api/internal/domain"
)

const listKey = "tickets:all"

// TicketCache keeps a short-lived copy of the full ticket listing in Redis.
// Every method is best-effort: cache failures are logged and treated as
// misses, never surfaced to the caller.
type TicketCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewTicketCache wraps the given client. A nil client disables caching.
func NewTicketCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *TicketCache {
	return &TicketCache{client: client, ttl: ttl, logger: logger}
}

// GetList returns the cached listing, or (nil, false) on miss.
func (c *TicketCache) GetList(ctx context.Context) ([]domain.Ticket, bool) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil, false
	}
	raw, err := c.client.Get(ctx, listKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("ticket cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal(raw, &tickets); err != nil {
		c.logger.Warn("ticket cache decode failed", zap.Error(err))
		return nil, false
	}
	return tickets, true
}

// SetList stores the listing with the configured TTL.
func (c *TicketCache) SetList(ctx context.Context, tickets []domain.Ticket) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(tickets)
	if err != nil {
		c.logger.Warn("ticket cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, listKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("ticket cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached listing after a write.
func (c *TicketCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, listKey).Err(); err != nil {
		c.logger.Warn("ticket cache invalidation failed", zap.Error(err))
	}
}
