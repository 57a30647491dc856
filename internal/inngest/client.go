package inngest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/mauv0809/skillswap/internal/cascade"
	"github.com/mauv0809/skillswap/internal/config"
)

// NewClient creates the Inngest SDK client from configuration.
func NewClient(cfg config.InngestConfig) (inngestgo.Client, error) {
	dev := cfg.Dev
	options := inngestgo.ClientOpts{
		AppID: cfg.AppID,
		Dev:   &dev,
	}
	if cfg.SigningKey != "" {
		options.SigningKey = &cfg.SigningKey
	}
	if cfg.EventKey != "" {
		options.EventKey = &cfg.EventKey
	}
	return inngestgo.NewClient(options)
}

// New registers the sweep and cascade functions on the Inngest client.
func New(inngestClient inngestgo.Client, sweeper Sweeper, handler CascadeHandler, sweepCron string) (InngestClient, error) {
	c := &client{
		inngestClient: inngestClient,
		jobs:          &jobs{sweeper: sweeper, handler: handler},
	}
	if err := c.createSweepFunction(sweepCron); err != nil {
		return nil, err
	}
	if err := c.createCascadeFunctions(); err != nil {
		return nil, err
	}
	log.Info("Inngest functions registered", "sweep_cron", sweepCron)
	return c, nil
}

func (i *client) createSweepFunction(cron string) error {
	_, err := inngestgo.CreateFunction(
		i.inngestClient,
		inngestgo.FunctionOpts{
			ID:   "expire-stale-threads",
			Name: "Expire stale negotiation threads",
		},
		inngestgo.CronTrigger(cron),
		func(ctx context.Context, input inngestgo.Input[map[string]any]) (any, error) {
			expired, err := step.Run(ctx, "expire-stale-threads", func(ctx context.Context) (int, error) {
				return i.jobs.sweep(ctx)
			})
			if err != nil {
				return nil, err
			}
			return SweepResult{Expired: expired}, nil
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create sweep function: %w", err)
	}
	return nil
}

func (i *client) createCascadeFunctions() error {
	_, err := inngestgo.CreateFunction(
		i.inngestClient,
		inngestgo.FunctionOpts{ID: "cascade-user-deleted", Name: "Remove negotiations of a deleted user"},
		inngestgo.EventTrigger(EventUserDeleted, nil),
		func(ctx context.Context, input inngestgo.Input[cascade.UserDeleted]) (any, error) {
			return step.Run(ctx, "delete-user-state", func(ctx context.Context) (cascade.Result, error) {
				return i.jobs.userDeleted(ctx, input.Event.Data)
			})
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create user deletion function: %w", err)
	}

	_, err = inngestgo.CreateFunction(
		i.inngestClient,
		inngestgo.FunctionOpts{ID: "cascade-skill-deleted", Name: "Remove negotiations over a deleted skill"},
		inngestgo.EventTrigger(EventSkillDeleted, nil),
		func(ctx context.Context, input inngestgo.Input[cascade.SkillDeleted]) (any, error) {
			return step.Run(ctx, "delete-skill-state", func(ctx context.Context) (cascade.Result, error) {
				return i.jobs.skillDeleted(ctx, input.Event.Data)
			})
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create skill deletion function: %w", err)
	}

	_, err = inngestgo.CreateFunction(
		i.inngestClient,
		inngestgo.FunctionOpts{ID: "cascade-match-deleted", Name: "Remove a deleted match"},
		inngestgo.EventTrigger(EventMatchDeleted, nil),
		func(ctx context.Context, input inngestgo.Input[cascade.MatchDeleted]) (any, error) {
			return step.Run(ctx, "delete-match", func(ctx context.Context) (cascade.Result, error) {
				return i.jobs.matchDeleted(ctx, input.Event.Data)
			})
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create match deletion function: %w", err)
	}
	return nil
}

func (i *client) Serve() http.Handler {
	return i.inngestClient.Serve()
}
