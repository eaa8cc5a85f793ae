// Package stocksignal fans stock-change events out over Redis so every API
// instance can invalidate its availability cache, instead of each write path
// having to remember to bump version counters by hand.
package stocksignal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cantina-pos/cantina-backend/pkg/logger"
	"github.com/cantina-pos/cantina-backend/pkg/redis"
)

const channelScope = "stock.changed"

// Event is the wire payload published on a stock change.
type Event struct {
	ProductID  uuid.UUID `json:"product_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Invalidator is the cache surface bumped when an event arrives.
type Invalidator interface {
	Invalidate()
}

// Publisher emits stock-change events.
type Publisher struct {
	client *redis.Client
}

// NewPublisher builds a publisher over the shared Redis client.
func NewPublisher(client *redis.Client) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &Publisher{client: client}, nil
}

// StockChanged publishes the change on the shared channel.
func (p *Publisher) StockChanged(ctx context.Context, productID uuid.UUID) error {
	payload, err := json.Marshal(Event{ProductID: productID, OccurredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding stock event: %w", err)
	}
	return p.client.Publish(ctx, p.client.ChannelKey(channelScope), payload)
}

// Subscriber listens for stock-change events and bumps the cache version.
type Subscriber struct {
	client *redis.Client
	cache  Invalidator
	logg   *logger.Logger
}

// NewSubscriber builds a subscriber bound to the given cache.
func NewSubscriber(client *redis.Client, cache Invalidator, logg *logger.Logger) (*Subscriber, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Subscriber{client: client, cache: cache, logg: logg}, nil
}

// Run blocks consuming events until the context is cancelled. Malformed
// payloads still invalidate: a garbled signal means stock changed somewhere.
func (s *Subscriber) Run(ctx context.Context) error {
	sub := s.client.Subscribe(ctx, s.client.ChannelKey(channelScope))
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logg.Warn(ctx, "undecodable stock event, invalidating anyway")
			} else {
				ectx := s.logg.WithProductID(ctx, event.ProductID.String())
				s.logg.Debug(ectx, "stock change received")
			}
			s.cache.Invalidate()
		}
	}
}
