package matchmaking

import (
	"context"
	"time"
)

// Store is the transactional boundary of the negotiation tables.
// Every write of one operation goes through a single Tx and commits once.
type Store interface {
	// WithinTx runs fn in a transaction. The transaction commits only when fn
	// returns nil and ctx has not been cancelled.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is a unit of work exposing every repository.
type Tx interface {
	ThreadRepository
	RequestRepository
	MatchRepository
	CascadeRepository
}

// ThreadRepository persists negotiation threads.
type ThreadRepository interface {
	GetThread(ctx context.Context, threadID string) (*Thread, error)

	// FindLatestThread returns the newest thread between two users over a skill,
	// in either direction, or nil when there is none.
	FindLatestThread(ctx context.Context, userA, userB, skillID string) (*Thread, error)

	InsertThread(ctx context.Context, thread *Thread) error

	// UpdateThread writes the thread if its version is unchanged since it was
	// read, and bumps the version. A stale version fails with ErrConcurrentModification.
	UpdateThread(ctx context.Context, thread *Thread) error

	// ListStaleThreads returns active threads without activity since before.
	ListStaleThreads(ctx context.Context, before time.Time) ([]*Thread, error)

	// ListThreadsForUser returns the threads a user participates in, newest first.
	// A nil status returns every state.
	ListThreadsForUser(ctx context.Context, userID string, status *ThreadStatus) ([]*Thread, error)
}

// RequestRepository persists match requests.
type RequestRepository interface {
	GetRequest(ctx context.Context, requestID string) (*MatchRequest, error)

	// ListRequestsByThread returns the negotiation history in round order.
	ListRequestsByThread(ctx context.Context, threadID string) ([]*MatchRequest, error)

	InsertRequest(ctx context.Context, request *MatchRequest) error

	// TransitionRequest moves a request from one status to another, failing with
	// ErrConcurrentModification if it is no longer in the from status.
	TransitionRequest(ctx context.Context, requestID string, from, to RequestStatus, responseMessage *string, at time.Time) error
}

// MatchRepository persists matches together with their accepted request.
type MatchRepository interface {
	GetMatch(ctx context.Context, matchID string) (*Match, error)
	GetMatchByRequest(ctx context.Context, requestID string) (*Match, error)
	InsertMatch(ctx context.Context, match *Match) error

	// UpdateMatch writes the lifecycle fields if the version is unchanged.
	UpdateMatch(ctx context.Context, match *Match) error

	ListMatchesForUser(ctx context.Context, userID string) ([]*Match, error)
}

// CascadeRepository removes rows referencing entities deleted elsewhere.
// Each method soft-deletes live rows only and returns how many it touched.
type CascadeRepository interface {
	DeleteMatchesForUser(ctx context.Context, userID string, at time.Time) (int, error)
	DeleteRequestsForUser(ctx context.Context, userID string, at time.Time) (int, error)
	DeleteThreadsForUser(ctx context.Context, userID string, at time.Time) (int, error)

	DeleteMatchesForSkill(ctx context.Context, skillID string, at time.Time) (int, error)
	DeleteRequestsForSkill(ctx context.Context, skillID string, at time.Time) (int, error)
	DeleteThreadsForSkill(ctx context.Context, skillID string, at time.Time) (int, error)

	// DeleteOrphanThreadsForSkill removes threads that negotiated over skillID
	// and are left without any live request.
	DeleteOrphanThreadsForSkill(ctx context.Context, skillID string, at time.Time) (int, error)

	DeleteMatch(ctx context.Context, matchID string, at time.Time) (int, error)
}

// Notifier defines the notification operations required by matchmaking.
// This keeps the matchmaking package decoupled from the delivery channels.
type Notifier interface {
	RequestCreated(ctx context.Context, event RequestEvent) error
	RequestAccepted(ctx context.Context, event RequestEvent) error
	RequestRejected(ctx context.Context, event RequestEvent) error
}

// Directory resolves display names of users and skills owned by other services.
// Implementations never fail; unknown ids resolve to a placeholder.
type Directory interface {
	UserName(ctx context.Context, userID string) string
	SkillName(ctx context.Context, skillID string) string
}
