package messaging

import (
	"context"

	"github.com/rs/zerolog/log"
)

// PublisherInterface defines the contract for event publishing
// This allows for easy mocking in tests
type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, eventData interface{}) error
	Close() error
}

// Ensure Publisher implements PublisherInterface
var _ PublisherInterface = (*Publisher)(nil)

// PublishBestEffort publishes and logs failures. Events never fail the
// operation that produced them. A nil publisher is a no-op.
func PublishBestEffort(ctx context.Context, p PublisherInterface, routingKey string, eventData interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, routingKey, eventData); err != nil {
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("failed to publish event")
	}
}
