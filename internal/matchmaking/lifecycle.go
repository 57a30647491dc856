package matchmaking

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/skillswap/internal/metrics"
)

// Lifecycle tracks an agreed match through its sessions, ratings and dissolution.
type Lifecycle struct {
	store   Store
	metrics metrics.Metrics
	clock   clock
}

// NewLifecycle creates a new match lifecycle service.
func NewLifecycle(store Store, metrics metrics.Metrics) *Lifecycle {
	return &Lifecycle{
		store:   store,
		metrics: metrics,
		clock:   time.Now,
	}
}

// SetClock replaces the time source.
func (l *Lifecycle) SetClock(now func() time.Time) {
	l.clock = now
}

// update loads a match, applies fn and writes it back within one transaction.
func (l *Lifecycle) update(ctx context.Context, operation, matchID string, fn func(m *Match, now time.Time) error) (match *Match, err error) {
	start := time.Now()
	defer func() {
		l.metrics.ObserveOperationDuration(operation, time.Since(start).Seconds())
		if IsRetryable(err) {
			log.Warn("Concurrent modification detected", "operation", operation, "match_id", matchID, "error", err)
			l.metrics.IncConcurrentConflicts()
		}
	}()

	now := l.clock.now()
	err = l.store.WithinTx(ctx, func(tx Tx) error {
		m, err := tx.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if err := fn(m, now); err != nil {
			return err
		}
		m.UpdatedAt = now
		if err := tx.UpdateMatch(ctx, m); err != nil {
			return err
		}
		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// requireActive rejects every change to a match that has already ended.
func requireActive(m *Match) error {
	switch m.Status {
	case MatchAccepted:
		return nil
	case MatchCompleted:
		return NewError(ErrMatchAlreadyCompleted, "match %s is already completed", m.ID)
	default:
		return NewError(ErrMatchNotActive, "match %s is %s", m.ID, m.Status)
	}
}

func complete(m *Match, now time.Time) {
	m.Status = MatchCompleted
	m.CompletedAt = &now
	m.NextSessionDate = nil
}

// CompleteSession records one held session. The match completes when the
// planned number of sessions has been reached.
func (l *Lifecycle) CompleteSession(ctx context.Context, matchID string) (*Match, error) {
	match, err := l.update(ctx, "complete_session", matchID, func(m *Match, now time.Time) error {
		if err := requireActive(m); err != nil {
			return err
		}
		m.CompletedSessions++
		if m.CompletedSessions >= m.TotalSessionsPlanned() {
			m.CompletedSessions = m.TotalSessionsPlanned()
			complete(m, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.IncSessionsCompleted()
	log.Info("Session completed", "match_id", match.ID, "completed", match.CompletedSessions, "planned", match.TotalSessionsPlanned())
	if match.Status == MatchCompleted {
		l.metrics.IncMatchesCompleted()
		log.Info("Match completed", "match_id", match.ID)
	}
	return match, nil
}

// Complete ends a match early, regardless of the sessions held so far.
func (l *Lifecycle) Complete(ctx context.Context, matchID string, notes *string) (*Match, error) {
	notes, err := optionalText("notes", notes)
	if err != nil {
		return nil, err
	}
	match, err := l.update(ctx, "complete", matchID, func(m *Match, now time.Time) error {
		if err := requireActive(m); err != nil {
			return err
		}
		complete(m, now)
		m.CompletionNotes = notes
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.IncMatchesCompleted()
	log.Info("Match completed early", "match_id", match.ID, "completed_sessions", match.CompletedSessions)
	return match, nil
}

// Dissolve cancels a match that has not been completed.
func (l *Lifecycle) Dissolve(ctx context.Context, matchID string, reason *string) (*Match, error) {
	reason, err := optionalText("reason", reason)
	if err != nil {
		return nil, err
	}
	match, err := l.update(ctx, "dissolve", matchID, func(m *Match, now time.Time) error {
		if m.Status != MatchAccepted {
			return NewError(ErrMatchNotActive, "match %s is %s and can no longer be dissolved", m.ID, m.Status)
		}
		m.Status = MatchDissolved
		m.DissolvedAt = &now
		m.DissolutionReason = reason
		m.NextSessionDate = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.IncMatchesDissolved()
	log.Info("Match dissolved", "match_id", match.ID)
	return match, nil
}

// RateByOffering stores the rating given by the user offering the skill.
func (l *Lifecycle) RateByOffering(ctx context.Context, matchID string, rating int) (*Match, error) {
	return l.rate(ctx, "rate_by_offering", matchID, rating, func(m *Match) { m.RatingByOffering = &rating })
}

// RateByRequesting stores the rating given by the user receiving the skill.
func (l *Lifecycle) RateByRequesting(ctx context.Context, matchID string, rating int) (*Match, error) {
	return l.rate(ctx, "rate_by_requesting", matchID, rating, func(m *Match) { m.RatingByRequesting = &rating })
}

func (l *Lifecycle) rate(ctx context.Context, operation, matchID string, rating int, set func(m *Match)) (*Match, error) {
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	match, err := l.update(ctx, operation, matchID, func(m *Match, _ time.Time) error {
		if err := requireActive(m); err != nil {
			return err
		}
		set(m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("Match rated", "match_id", match.ID, "operation", operation, "rating", rating)
	return match, nil
}

// ScheduleNextSession records when the next session will take place.
func (l *Lifecycle) ScheduleNextSession(ctx context.Context, matchID string, at time.Time) (*Match, error) {
	at = at.Truncate(time.Second)
	match, err := l.update(ctx, "schedule_next_session", matchID, func(m *Match, now time.Time) error {
		if err := requireActive(m); err != nil {
			return err
		}
		if !at.After(now) {
			return NewError(ErrValidation, "next session must be in the future")
		}
		m.NextSessionDate = &at
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("Next session scheduled", "match_id", match.ID, "at", at)
	return match, nil
}

// GetMatch returns a match with its accepted request.
func (l *Lifecycle) GetMatch(ctx context.Context, matchID string) (match *Match, err error) {
	err = l.store.WithinTx(ctx, func(tx Tx) error {
		match, err = tx.GetMatch(ctx, matchID)
		return err
	})
	return match, err
}

// ListUserMatches returns every match a user is a party to.
func (l *Lifecycle) ListUserMatches(ctx context.Context, userID string) (matches []*Match, err error) {
	err = l.store.WithinTx(ctx, func(tx Tx) error {
		matches, err = tx.ListMatchesForUser(ctx, userID)
		return err
	})
	return matches, err
}

func optionalText(field string, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil, nil
	}
	if len([]rune(trimmed)) > maxMessageLength {
		return nil, NewError(ErrValidation, "%s must be at most %d characters", field, maxMessageLength)
	}
	return &trimmed, nil
}
