package matchmaking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/skillswap/internal/metrics"
)

const (
	DefaultMaxRounds        = 6
	DefaultInactivityWindow = 14 * 24 * time.Hour
)

// Settings tunes the negotiation rules.
type Settings struct {
	MaxRounds        int
	InactivityWindow time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.MaxRounds <= 0 {
		s.MaxRounds = DefaultMaxRounds
	}
	if s.InactivityWindow <= 0 {
		s.InactivityWindow = DefaultInactivityWindow
	}
	return s
}

// clock returns the current time at the precision the store persists.
type clock func() time.Time

func (c clock) now() time.Time {
	return c().Truncate(time.Second)
}

// Engine drives negotiation threads from the first proposal to an agreement.
type Engine struct {
	store     Store
	notifier  Notifier
	directory Directory
	metrics   metrics.Metrics
	settings  Settings
	clock     clock
}

// NewEngine creates a new negotiation engine.
func NewEngine(store Store, notifier Notifier, directory Directory, metrics metrics.Metrics, settings Settings) *Engine {
	return &Engine{
		store:     store,
		notifier:  notifier,
		directory: directory,
		metrics:   metrics,
		settings:  settings.withDefaults(),
		clock:     time.Now,
	}
}

// SetClock replaces the time source, used by tests and the seeder.
func (e *Engine) SetClock(now func() time.Time) {
	e.clock = now
}

func (e *Engine) observe(operation string, start time.Time, err error) {
	e.metrics.ObserveOperationDuration(operation, time.Since(start).Seconds())
	if IsRetryable(err) {
		log.Warn("Concurrent modification detected", "operation", operation, "error", err)
		e.metrics.IncConcurrentConflicts()
	}
}

// CreateProposal opens a negotiation, or continues the active one between the
// two users over the same skill.
func (e *Engine) CreateProposal(ctx context.Context, in ProposalInput) (request *MatchRequest, err error) {
	start := time.Now()
	defer func() { e.observe("create_proposal", start, err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := e.clock.now()
	var limitErr error
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		thread, err := tx.FindLatestThread(ctx, in.RequesterID, in.TargetUserID, in.SkillID)
		if err != nil {
			return err
		}
		if thread == nil {
			thread = &Thread{
				ID:             uuid.NewString(),
				ParticipantA:   in.RequesterID,
				ParticipantB:   in.TargetUserID,
				SkillID:        in.SkillID,
				Status:         ThreadActive,
				Version:        1,
				LastActivityAt: now,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.InsertThread(ctx, thread); err != nil {
				return err
			}
			log.Info("Opened negotiation thread", "thread_id", thread.ID, "requester", in.RequesterID, "target", in.TargetUserID, "skill", in.SkillID)
		} else if thread.Status.IsTerminal() {
			return NewError(ErrThreadClosed, "negotiation over skill %s is %s", thread.SkillID, thread.Status)
		}

		open, err := openRequest(ctx, tx, thread.ID)
		if err != nil {
			return err
		}
		if thread.Rounds+1 > e.settings.MaxRounds {
			if err := e.closeOnRoundLimit(ctx, tx, thread, open, now); err != nil {
				return err
			}
			limitErr = e.roundLimitError()
			return nil
		}
		if open != nil {
			if err := tx.TransitionRequest(ctx, open.ID, RequestPending, RequestSuperseded, nil, now); err != nil {
				return err
			}
		}

		request, err = e.addRequest(ctx, tx, thread, in.RequesterID, in.TargetUserID, in.Terms, in.Message, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if limitErr != nil {
		e.metrics.IncRoundLimitReached()
		return nil, limitErr
	}

	e.metrics.IncProposalsCreated()
	log.Info("Proposal created", "request_id", request.ID, "thread_id", request.ThreadID, "round", request.Round)
	e.notify(ctx, "request_created", e.notifier.RequestCreated, e.requestEvent(ctx, request))
	return request, nil
}

// CounterOffer replaces the open proposal of a thread with revised terms from its target.
func (e *Engine) CounterOffer(ctx context.Context, requestID, actorID string, terms Terms, message string) (request *MatchRequest, err error) {
	start := time.Now()
	defer func() { e.observe("counter_offer", start, err) }()

	if err := validateMessage(message); err != nil {
		return nil, err
	}
	if err := terms.normalize(); err != nil {
		return nil, err
	}

	now := e.clock.now()
	var limitErr error
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		prior, thread, err := loadForActor(ctx, tx, requestID, actorID)
		if err != nil {
			return err
		}
		if terms.ExchangeSkillID != nil && *terms.ExchangeSkillID == prior.SkillID {
			return NewError(ErrValidation, "exchange skill must differ from the requested skill")
		}
		if prior.Status != RequestPending || thread.Status != ThreadActive {
			return NewError(ErrRequestNotPending, "request %s is %s in a %s thread", prior.ID, prior.Status, thread.Status)
		}
		open, err := openRequest(ctx, tx, thread.ID)
		if err != nil {
			return err
		}
		if open == nil || open.ID != prior.ID {
			return NewError(ErrRequestNotPending, "request %s is not the open proposal of its thread", prior.ID)
		}
		if thread.Rounds+1 > e.settings.MaxRounds {
			if err := e.closeOnRoundLimit(ctx, tx, thread, prior, now); err != nil {
				return err
			}
			limitErr = e.roundLimitError()
			return nil
		}
		if err := tx.TransitionRequest(ctx, prior.ID, RequestPending, RequestSuperseded, nil, now); err != nil {
			return err
		}

		request, err = e.addRequest(ctx, tx, thread, actorID, prior.RequesterID, terms, message, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if limitErr != nil {
		e.metrics.IncRoundLimitReached()
		return nil, limitErr
	}

	e.metrics.IncCounterOffers()
	log.Info("Counter-offer created", "request_id", request.ID, "supersedes", requestID, "round", request.Round)
	e.notify(ctx, "request_created", e.notifier.RequestCreated, e.requestEvent(ctx, request))
	return request, nil
}

// Accept agrees to a pending request and creates the match.
func (e *Engine) Accept(ctx context.Context, requestID, actorID string) (match *Match, err error) {
	start := time.Now()
	defer func() { e.observe("accept", start, err) }()

	now := e.clock.now()
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		request, thread, err := loadForActor(ctx, tx, requestID, actorID)
		if err != nil {
			return err
		}
		if err := checkDecidable(request, thread); err != nil {
			return err
		}

		if err := tx.TransitionRequest(ctx, request.ID, RequestPending, RequestAccepted, nil, now); err != nil {
			return err
		}
		request.Status = RequestAccepted
		request.UpdatedAt = now

		thread.Status = ThreadAgreementReached
		thread.LastActivityAt = now
		thread.UpdatedAt = now
		if err := tx.UpdateThread(ctx, thread); err != nil {
			return err
		}

		match = &Match{
			ID:                uuid.NewString(),
			AcceptedRequestID: request.ID,
			Status:            MatchAccepted,
			AcceptedAt:        now,
			Version:           1,
			CreatedAt:         now,
			UpdatedAt:         now,
			request:           request,
		}
		return tx.InsertMatch(ctx, match)
	})
	if err != nil {
		return nil, err
	}

	e.metrics.IncRequestsAccepted()
	log.Info("Request accepted", "request_id", requestID, "match_id", match.ID, "thread_id", match.request.ThreadID)
	event := e.requestEvent(ctx, match.request)
	event.MatchID = match.ID
	e.notify(ctx, "request_accepted", e.notifier.RequestAccepted, event)
	return match, nil
}

// Reject declines a pending request. The thread ends without agreement once no
// proposal is left open.
func (e *Engine) Reject(ctx context.Context, requestID, actorID string, reason *string) (request *MatchRequest, err error) {
	start := time.Now()
	defer func() { e.observe("reject", start, err) }()

	reason, err = optionalText("reason", reason)
	if err != nil {
		return nil, err
	}

	now := e.clock.now()
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		loaded, thread, err := loadForActor(ctx, tx, requestID, actorID)
		if err != nil {
			return err
		}
		request = loaded
		if err := checkDecidable(request, thread); err != nil {
			return err
		}

		if err := tx.TransitionRequest(ctx, request.ID, RequestPending, RequestRejected, reason, now); err != nil {
			return err
		}
		request.Status = RequestRejected
		request.ResponseMessage = reason
		request.UpdatedAt = now

		open, err := openRequest(ctx, tx, thread.ID)
		if err != nil {
			return err
		}
		if open == nil {
			thread.Status = ThreadNoAgreement
		}
		thread.LastActivityAt = now
		thread.UpdatedAt = now
		return tx.UpdateThread(ctx, thread)
	})
	if err != nil {
		return nil, err
	}

	e.metrics.IncRequestsRejected()
	log.Info("Request rejected", "request_id", request.ID, "thread_id", request.ThreadID)
	event := e.requestEvent(ctx, request)
	if reason != nil {
		event.Reason = *reason
	}
	e.notify(ctx, "request_rejected", e.notifier.RequestRejected, event)
	return request, nil
}

// ExpireStaleThreads moves active threads idle for longer than the inactivity
// window to Expired, together with their open requests. It returns how many
// threads were expired.
func (e *Engine) ExpireStaleThreads(ctx context.Context) (expired int, err error) {
	start := time.Now()
	defer func() { e.observe("expire_stale_threads", start, err) }()

	now := e.clock.now()
	cutoff := now.Add(-e.settings.InactivityWindow)
	log.Info("Starting stale thread sweep...", "cutoff", cutoff)

	var stale []*Thread
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		stale, err = tx.ListStaleThreads(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		log.Info("No stale threads to expire.")
		return 0, nil
	}

	var failures []error
	for _, candidate := range stale {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		var changed bool
		err := e.store.WithinTx(ctx, func(tx Tx) error {
			changed = false
			thread, err := tx.GetThread(ctx, candidate.ID)
			if err != nil {
				return err
			}
			// Activity may have happened since the listing.
			if thread.Status != ThreadActive || !thread.LastActivityAt.Before(cutoff) {
				return nil
			}
			requests, err := tx.ListRequestsByThread(ctx, thread.ID)
			if err != nil {
				return err
			}
			for _, r := range requests {
				if r.Status != RequestPending {
					continue
				}
				if err := tx.TransitionRequest(ctx, r.ID, RequestPending, RequestExpired, nil, now); err != nil {
					return err
				}
			}
			thread.Status = ThreadExpired
			thread.UpdatedAt = now
			if err := tx.UpdateThread(ctx, thread); err != nil {
				return err
			}
			changed = true
			return nil
		})
		switch {
		case err == nil:
			if changed {
				expired++
				log.Debug("Expired thread", "thread_id", candidate.ID)
			}
		case IsRetryable(err), errors.Is(err, ErrNotFound):
			log.Warn("Skipping thread changed during sweep", "thread_id", candidate.ID, "error", err)
		default:
			log.Error("Failed to expire thread", "thread_id", candidate.ID, "error", err)
			failures = append(failures, err)
		}
	}

	e.metrics.IncThreadsExpired(expired)
	log.Info("Stale thread sweep finished.", "expired", expired, "failed", len(failures))
	return expired, errors.Join(failures...)
}

// GetThread returns a thread by ID.
func (e *Engine) GetThread(ctx context.Context, threadID string) (thread *Thread, err error) {
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		thread, err = tx.GetThread(ctx, threadID)
		return err
	})
	return thread, err
}

// GetRequest returns a request by ID.
func (e *Engine) GetRequest(ctx context.Context, requestID string) (request *MatchRequest, err error) {
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		request, err = tx.GetRequest(ctx, requestID)
		return err
	})
	return request, err
}

// ListThreadRequests returns the full negotiation history of a thread.
func (e *Engine) ListThreadRequests(ctx context.Context, threadID string) (requests []*MatchRequest, err error) {
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.GetThread(ctx, threadID); err != nil {
			return err
		}
		requests, err = tx.ListRequestsByThread(ctx, threadID)
		return err
	})
	return requests, err
}

// ListUserThreads returns the threads a user negotiates in, optionally filtered by status.
func (e *Engine) ListUserThreads(ctx context.Context, userID string, status *ThreadStatus) (threads []*Thread, err error) {
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		threads, err = tx.ListThreadsForUser(ctx, userID, status)
		return err
	})
	return threads, err
}

func (e *Engine) addRequest(ctx context.Context, tx Tx, thread *Thread, requesterID, targetID string, terms Terms, message string, now time.Time) (*MatchRequest, error) {
	request := &MatchRequest{
		ID:             uuid.NewString(),
		ThreadID:       thread.ID,
		RequesterID:    requesterID,
		TargetUserID:   targetID,
		OfferingUserID: thread.ParticipantB,
		SkillID:        thread.SkillID,
		Round:          thread.Rounds + 1,
		Status:         RequestPending,
		Terms:          terms,
		Message:        strings.TrimSpace(message),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.InsertRequest(ctx, request); err != nil {
		return nil, err
	}

	thread.Rounds = request.Round
	thread.LastActivityAt = now
	thread.UpdatedAt = now
	if err := tx.UpdateThread(ctx, thread); err != nil {
		return nil, err
	}
	return request, nil
}

// closeOnRoundLimit ends the thread without agreement and expires its open request.
func (e *Engine) closeOnRoundLimit(ctx context.Context, tx Tx, thread *Thread, open *MatchRequest, now time.Time) error {
	if open != nil {
		if err := tx.TransitionRequest(ctx, open.ID, RequestPending, RequestExpired, nil, now); err != nil {
			return err
		}
	}
	thread.Status = ThreadNoAgreement
	thread.LastActivityAt = now
	thread.UpdatedAt = now
	if err := tx.UpdateThread(ctx, thread); err != nil {
		return err
	}
	log.Info("Round limit reached, closing thread without agreement", "thread_id", thread.ID, "rounds", thread.Rounds)
	return nil
}

func (e *Engine) roundLimitError() error {
	return NewError(ErrRoundLimitExceeded, "round limit of %d exceeded, negotiation closed without agreement", e.settings.MaxRounds)
}

// loadForActor reads a request and its thread, checking that actorID is the
// party the request is addressed to.
func loadForActor(ctx context.Context, tx Tx, requestID, actorID string) (*MatchRequest, *Thread, error) {
	request, err := tx.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if request.TargetUserID != actorID {
		return nil, nil, NewError(ErrNotAuthorized, "only the target of request %s may respond to it", request.ID)
	}
	thread, err := tx.GetThread(ctx, request.ThreadID)
	if err != nil {
		return nil, nil, err
	}
	return request, thread, nil
}

func checkDecidable(request *MatchRequest, thread *Thread) error {
	if thread.Status == ThreadAgreementReached {
		return NewError(ErrThreadClosed, "thread %s already reached an agreement", thread.ID)
	}
	if request.Status != RequestPending || thread.Status != ThreadActive {
		return NewError(ErrRequestNotPending, "request %s is %s in a %s thread", request.ID, request.Status, thread.Status)
	}
	return nil
}

// openRequest returns the newest pending request of a thread, or nil.
func openRequest(ctx context.Context, tx Tx, threadID string) (*MatchRequest, error) {
	requests, err := tx.ListRequestsByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	for i := len(requests) - 1; i >= 0; i-- {
		if requests[i].Status == RequestPending {
			return requests[i], nil
		}
	}
	return nil, nil
}

func (e *Engine) requestEvent(ctx context.Context, r *MatchRequest) RequestEvent {
	return RequestEvent{
		RequestID:     r.ID,
		ThreadID:      r.ThreadID,
		RequesterID:   r.RequesterID,
		RequesterName: e.directory.UserName(ctx, r.RequesterID),
		TargetUserID:  r.TargetUserID,
		TargetName:    e.directory.UserName(ctx, r.TargetUserID),
		SkillID:       r.SkillID,
		SkillName:     e.directory.SkillName(ctx, r.SkillID),
		Round:         r.Round,
		OccurredAt:    r.UpdatedAt,
	}
}

// notify delivers an event after the state change has been committed.
// Failures are logged and never undo the change.
func (e *Engine) notify(ctx context.Context, kind string, send func(context.Context, RequestEvent) error, event RequestEvent) {
	if err := send(ctx, event); err != nil {
		log.Warn("Failed to send notification", "kind", kind, "request_id", event.RequestID, "error", err)
	}
}
