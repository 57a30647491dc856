package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/skillswap/internal/matchmaking"
	"github.com/mauv0809/skillswap/internal/metrics"
)

// Channel is one named delivery route for negotiation events.
type Channel struct {
	Name     string
	Notifier matchmaking.Notifier
}

// Fanout delivers every event to all channels. A failing channel does not
// stop delivery to the others.
type Fanout struct {
	channels []Channel
	metrics  metrics.Metrics
}

var _ matchmaking.Notifier = (*Fanout)(nil)

// NewFanout creates a notifier that delivers to every given channel.
func NewFanout(metrics metrics.Metrics, channels ...Channel) *Fanout {
	return &Fanout{
		channels: channels,
		metrics:  metrics,
	}
}

func (f *Fanout) RequestCreated(ctx context.Context, event matchmaking.RequestEvent) error {
	return f.deliver(ctx, "request_created", event, func(n matchmaking.Notifier) func(context.Context, matchmaking.RequestEvent) error {
		return n.RequestCreated
	})
}

func (f *Fanout) RequestAccepted(ctx context.Context, event matchmaking.RequestEvent) error {
	return f.deliver(ctx, "request_accepted", event, func(n matchmaking.Notifier) func(context.Context, matchmaking.RequestEvent) error {
		return n.RequestAccepted
	})
}

func (f *Fanout) RequestRejected(ctx context.Context, event matchmaking.RequestEvent) error {
	return f.deliver(ctx, "request_rejected", event, func(n matchmaking.Notifier) func(context.Context, matchmaking.RequestEvent) error {
		return n.RequestRejected
	})
}

func (f *Fanout) deliver(ctx context.Context, kind string, event matchmaking.RequestEvent, pick func(matchmaking.Notifier) func(context.Context, matchmaking.RequestEvent) error) error {
	var errs []error
	for _, ch := range f.channels {
		if err := pick(ch.Notifier)(ctx, event); err != nil {
			f.metrics.IncNotifFailed(ch.Name)
			log.Error("Notification failed", "channel", ch.Name, "kind", kind, "request_id", event.RequestID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name, err))
			continue
		}
		f.metrics.IncNotifSent(ch.Name)
		log.Debug("Notification sent", "channel", ch.Name, "kind", kind, "request_id", event.RequestID)
	}
	return errors.Join(errs...)
}
