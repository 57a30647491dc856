package inngest

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/skillswap/internal/cascade"
	"github.com/mauv0809/skillswap/internal/matchmaking"
)

// jobs holds the bodies of the durable functions, kept apart from the SDK
// wiring so they can run without an Inngest server.
type jobs struct {
	sweeper Sweeper
	handler CascadeHandler
}

func (j *jobs) sweep(ctx context.Context) (int, error) {
	expired, err := j.sweeper.ExpireStaleThreads(ctx)
	if err != nil {
		// Threads that were expired stay expired; the next run picks up the rest.
		log.Error("Sweep finished with errors", "expired", expired, "error", err)
		return expired, err
	}
	log.Info("Sweep finished", "expired", expired)
	return expired, nil
}

func (j *jobs) userDeleted(ctx context.Context, event cascade.UserDeleted) (cascade.Result, error) {
	return cascadeOnce("user_deleted", func() (cascade.Result, error) {
		return j.handler.HandleUserDeleted(ctx, event)
	})
}

func (j *jobs) skillDeleted(ctx context.Context, event cascade.SkillDeleted) (cascade.Result, error) {
	return cascadeOnce("skill_deleted", func() (cascade.Result, error) {
		return j.handler.HandleSkillDeleted(ctx, event)
	})
}

func (j *jobs) matchDeleted(ctx context.Context, event cascade.MatchDeleted) (cascade.Result, error) {
	return cascadeOnce("match_deleted", func() (cascade.Result, error) {
		return j.handler.HandleMatchDeleted(ctx, event)
	})
}

// cascadeOnce retries a lost race once. A malformed event is dropped, since
// retrying it can never succeed.
func cascadeOnce(operation string, fn func() (cascade.Result, error)) (cascade.Result, error) {
	result, err := matchmaking.RetryOnce(operation, fn)
	if matchmaking.KindOf(err) == matchmaking.KindValidation {
		log.Warn("Dropping malformed deletion event", "operation", operation, "error", err)
		return cascade.Result{}, nil
	}
	return result, err
}
