package notifier

import (
	"context"

	"github.com/mauv0809/skillswap/internal/matchmaking"
	"github.com/mauv0809/skillswap/internal/pubsub"
)

// Publisher publishes negotiation events to Pub/Sub for downstream consumers
// such as the email and push services.
type Publisher struct {
	client pubsub.PubSubClient
}

var _ matchmaking.Notifier = (*Publisher)(nil)

// NewPublisher creates a new Pub/Sub event publisher.
func NewPublisher(client pubsub.PubSubClient) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) RequestCreated(ctx context.Context, event matchmaking.RequestEvent) error {
	return p.client.SendMessage(ctx, pubsub.EventRequestCreated, event)
}

func (p *Publisher) RequestAccepted(ctx context.Context, event matchmaking.RequestEvent) error {
	return p.client.SendMessage(ctx, pubsub.EventRequestAccepted, event)
}

func (p *Publisher) RequestRejected(ctx context.Context, event matchmaking.RequestEvent) error {
	return p.client.SendMessage(ctx, pubsub.EventRequestRejected, event)
}
