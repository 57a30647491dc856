package cascade

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/skillswap/internal/matchmaking"
	"github.com/mauv0809/skillswap/internal/metrics"
)

// Cache holds display data about users and skills that must go with them.
type Cache interface {
	ForgetUser(ctx context.Context, userID string) error
	ForgetSkill(ctx context.Context, skillID string) error
}

// Handler removes negotiation state that references entities deleted by
// other services. Every handler is safe to run again for the same event.
type Handler struct {
	store   matchmaking.Store
	metrics metrics.Metrics
	cache   Cache
	now     func() time.Time
}

// New creates a new cascade handler. cache may be nil.
func New(store matchmaking.Store, metrics metrics.Metrics, cache Cache) *Handler {
	return &Handler{
		store:   store,
		metrics: metrics,
		cache:   cache,
		now:     time.Now,
	}
}

// HandleUserDeleted removes the matches, requests and threads a user took part in.
func (h *Handler) HandleUserDeleted(ctx context.Context, event UserDeleted) (Result, error) {
	userID := strings.TrimSpace(event.UserID)
	if userID == "" {
		return Result{}, matchmaking.NewError(matchmaking.ErrValidation, "user_id is required")
	}
	log.Info("Handling user deletion", "user_id", userID)

	var result Result
	err := h.run(ctx, "user_deleted", func(tx matchmaking.Tx, now time.Time) error {
		var err error
		// Matches are resolved through their requests, so they go first.
		if result.Matches, err = tx.DeleteMatchesForUser(ctx, userID, now); err != nil {
			return err
		}
		if result.Requests, err = tx.DeleteRequestsForUser(ctx, userID, now); err != nil {
			return err
		}
		result.Threads, err = tx.DeleteThreadsForUser(ctx, userID, now)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	h.record(result)

	if h.cache != nil {
		if err := h.cache.ForgetUser(ctx, userID); err != nil {
			log.Warn("Failed to evict user from cache", "user_id", userID, "error", err)
		}
	}
	log.Info("User deletion handled", "user_id", userID, "matches", result.Matches, "requests", result.Requests, "threads", result.Threads)
	return result, nil
}

// HandleSkillDeleted removes everything negotiated over a skill, whether it
// was the requested or the exchanged one.
func (h *Handler) HandleSkillDeleted(ctx context.Context, event SkillDeleted) (Result, error) {
	skillID := strings.TrimSpace(event.SkillID)
	if skillID == "" {
		return Result{}, matchmaking.NewError(matchmaking.ErrValidation, "skill_id is required")
	}
	log.Info("Handling skill deletion", "skill_id", skillID)

	var result Result
	err := h.run(ctx, "skill_deleted", func(tx matchmaking.Tx, now time.Time) error {
		var err error
		if result.Matches, err = tx.DeleteMatchesForSkill(ctx, skillID, now); err != nil {
			return err
		}
		if result.Requests, err = tx.DeleteRequestsForSkill(ctx, skillID, now); err != nil {
			return err
		}
		if result.Threads, err = tx.DeleteThreadsForSkill(ctx, skillID, now); err != nil {
			return err
		}
		// Threads over another skill whose only requests exchanged this one.
		orphans, err := tx.DeleteOrphanThreadsForSkill(ctx, skillID, now)
		result.Threads += orphans
		return err
	})
	if err != nil {
		return Result{}, err
	}
	h.record(result)

	if h.cache != nil {
		if err := h.cache.ForgetSkill(ctx, skillID); err != nil {
			log.Warn("Failed to evict skill from cache", "skill_id", skillID, "error", err)
		}
	}
	log.Info("Skill deletion handled", "skill_id", skillID, "matches", result.Matches, "requests", result.Requests, "threads", result.Threads)
	return result, nil
}

// HandleMatchDeleted removes a single match. Its accepted request stays as history.
func (h *Handler) HandleMatchDeleted(ctx context.Context, event MatchDeleted) (Result, error) {
	matchID := strings.TrimSpace(event.MatchID)
	if matchID == "" {
		return Result{}, matchmaking.NewError(matchmaking.ErrValidation, "match_id is required")
	}
	log.Info("Handling match deletion", "match_id", matchID)

	var result Result
	err := h.run(ctx, "match_deleted", func(tx matchmaking.Tx, now time.Time) error {
		var err error
		result.Matches, err = tx.DeleteMatch(ctx, matchID, now)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	h.record(result)

	log.Info("Match deletion handled", "match_id", matchID, "matches", result.Matches)
	return result, nil
}

func (h *Handler) run(ctx context.Context, operation string, fn func(tx matchmaking.Tx, now time.Time) error) error {
	start := time.Now()
	now := h.now().Truncate(time.Second)
	err := h.store.WithinTx(ctx, func(tx matchmaking.Tx) error {
		return fn(tx, now)
	})
	h.metrics.ObserveOperationDuration(operation, time.Since(start).Seconds())
	if err != nil {
		log.Error("Cascade deletion failed", "operation", operation, "error", err)
	}
	return err
}

// record counts only rows that were actually removed, so redelivery adds nothing.
func (h *Handler) record(result Result) {
	h.metrics.AddCascadeDeletions("match", result.Matches)
	h.metrics.AddCascadeDeletions("match_request", result.Requests)
	h.metrics.AddCascadeDeletions("thread", result.Threads)
}
