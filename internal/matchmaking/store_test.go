package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/mauv0809/skillswap/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a store backed by an in-memory SQLite database.
func setupTestStore(t *testing.T) Store {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	return NewStore(db)
}

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestThread(id, a, b, skill string) *Thread {
	return &Thread{
		ID:             id,
		ParticipantA:   a,
		ParticipantB:   b,
		SkillID:        skill,
		Status:         ThreadActive,
		Version:        1,
		LastActivityAt: testNow,
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}
}

func newTestRequest(id string, thread *Thread, round int) *MatchRequest {
	return &MatchRequest{
		ID:             id,
		ThreadID:       thread.ID,
		RequesterID:    thread.ParticipantA,
		TargetUserID:   thread.ParticipantB,
		OfferingUserID: thread.ParticipantB,
		SkillID:        thread.SkillID,
		Round:          round,
		Status:         RequestPending,
		Terms:          Terms{TotalSessions: 3},
		Message:        "Shall we trade lessons?",
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}
}

func mustTx(t *testing.T, s Store, fn func(tx Tx) error) {
	t.Helper()
	require.NoError(t, s.WithinTx(context.Background(), fn))
}

func TestStore_Threads(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	mustTx(t, s, func(tx Tx) error {
		return tx.InsertThread(ctx, newTestThread("t1", "alice", "bob", "guitar"))
	})

	t.Run("finds the thread in both directions", func(t *testing.T) {
		mustTx(t, s, func(tx Tx) error {
			forward, err := tx.FindLatestThread(ctx, "alice", "bob", "guitar")
			require.NoError(t, err)
			require.NotNil(t, forward)
			assert.Equal(t, "t1", forward.ID)

			backward, err := tx.FindLatestThread(ctx, "bob", "alice", "guitar")
			require.NoError(t, err)
			require.NotNil(t, backward)
			assert.Equal(t, "t1", backward.ID)

			other, err := tx.FindLatestThread(ctx, "alice", "bob", "piano")
			require.NoError(t, err)
			assert.Nil(t, other)
			return nil
		})
	})

	t.Run("update bumps the version and rejects stale writes", func(t *testing.T) {
		var stale *Thread
		mustTx(t, s, func(tx Tx) error {
			thread, err := tx.GetThread(ctx, "t1")
			require.NoError(t, err)
			copied := *thread
			stale = &copied

			thread.Rounds = 1
			require.NoError(t, tx.UpdateThread(ctx, thread))
			assert.Equal(t, int64(2), thread.Version)
			return nil
		})

		err := s.WithinTx(ctx, func(tx Tx) error {
			stale.Rounds = 5
			return tx.UpdateThread(ctx, stale)
		})
		assert.ErrorIs(t, err, ErrConcurrentModification)

		mustTx(t, s, func(tx Tx) error {
			thread, err := tx.GetThread(ctx, "t1")
			require.NoError(t, err)
			assert.Equal(t, 1, thread.Rounds)
			assert.Equal(t, int64(2), thread.Version)
			return nil
		})
	})

	t.Run("a second live thread for the pair is a conflict", func(t *testing.T) {
		err := s.WithinTx(ctx, func(tx Tx) error {
			return tx.InsertThread(ctx, newTestThread("t-dup", "bob", "alice", "guitar"))
		})
		assert.ErrorIs(t, err, ErrConcurrentModification)
	})

	t.Run("missing thread is not found", func(t *testing.T) {
		err := s.WithinTx(ctx, func(tx Tx) error {
			_, err := tx.GetThread(ctx, "nope")
			return err
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("lists stale and per-user threads", func(t *testing.T) {
		mustTx(t, s, func(tx Tx) error {
			fresh := newTestThread("t2", "carol", "alice", "piano")
			fresh.LastActivityAt = testNow.Add(48 * time.Hour)
			fresh.CreatedAt = testNow.Add(time.Hour)
			return tx.InsertThread(ctx, fresh)
		})

		mustTx(t, s, func(tx Tx) error {
			stale, err := tx.ListStaleThreads(ctx, testNow.Add(24*time.Hour))
			require.NoError(t, err)
			require.Len(t, stale, 1)
			assert.Equal(t, "t1", stale[0].ID)

			all, err := tx.ListThreadsForUser(ctx, "alice", nil)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "t2", all[0].ID, "newest thread comes first")

			active := ThreadActive
			filtered, err := tx.ListThreadsForUser(ctx, "bob", &active)
			require.NoError(t, err)
			assert.Len(t, filtered, 1)
			return nil
		})
	})
}

func TestStore_Requests(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	thread := newTestThread("t1", "alice", "bob", "guitar")

	exchange := "piano"
	mustTx(t, s, func(tx Tx) error {
		require.NoError(t, tx.InsertThread(ctx, thread))

		first := newTestRequest("r1", thread, 1)
		first.Terms = Terms{
			IsSkillExchange:        true,
			ExchangeSkillID:        &exchange,
			PreferredDays:          []string{"monday", "thursday"},
			PreferredTimes:         []string{"evening"},
			SessionDurationMinutes: 60,
			TotalSessions:          3,
		}
		require.NoError(t, tx.InsertRequest(ctx, first))

		second := newTestRequest("r2", thread, 2)
		second.RequesterID, second.TargetUserID = "bob", "alice"
		second.Terms = Terms{IsMonetary: true, OfferedAmount: 2000, Currency: "EUR", TotalSessions: 3}
		return tx.InsertRequest(ctx, second)
	})

	t.Run("round trips terms and schedule", func(t *testing.T) {
		mustTx(t, s, func(tx Tx) error {
			r, err := tx.GetRequest(ctx, "r1")
			require.NoError(t, err)
			assert.Equal(t, "piano", r.ExchangeSkillID())
			assert.Equal(t, []string{"monday", "thursday"}, r.Terms.PreferredDays)
			assert.Equal(t, []string{"evening"}, r.Terms.PreferredTimes)
			assert.Equal(t, 60, r.Terms.SessionDurationMinutes)
			assert.True(t, r.Terms.IsSkillExchange)
			assert.False(t, r.Terms.IsMonetary)
			assert.Equal(t, "alice", r.RequestingUserID())
			assert.Equal(t, testNow.Unix(), r.CreatedAt.Unix())

			r2, err := tx.GetRequest(ctx, "r2")
			require.NoError(t, err)
			assert.Equal(t, int64(2000), r2.Terms.OfferedAmount)
			assert.Equal(t, "EUR", r2.Terms.Currency)
			assert.Equal(t, "", r2.ExchangeSkillID())
			assert.Equal(t, "bob", r2.OfferingUserID)
			assert.Equal(t, "alice", r2.RequestingUserID(), "roles swap but the requesting user stays the same")
			return nil
		})
	})

	t.Run("lists history in round order", func(t *testing.T) {
		mustTx(t, s, func(tx Tx) error {
			requests, err := tx.ListRequestsByThread(ctx, "t1")
			require.NoError(t, err)
			require.Len(t, requests, 2)
			assert.Equal(t, 1, requests[0].Round)
			assert.Equal(t, 2, requests[1].Round)
			return nil
		})
	})

	t.Run("transition is guarded by the current status", func(t *testing.T) {
		reason := "not this time"
		mustTx(t, s, func(tx Tx) error {
			return tx.TransitionRequest(ctx, "r1", RequestPending, RequestRejected, &reason, testNow)
		})

		err := s.WithinTx(ctx, func(tx Tx) error {
			return tx.TransitionRequest(ctx, "r1", RequestPending, RequestAccepted, nil, testNow)
		})
		assert.ErrorIs(t, err, ErrConcurrentModification)

		mustTx(t, s, func(tx Tx) error {
			r, err := tx.GetRequest(ctx, "r1")
			require.NoError(t, err)
			assert.Equal(t, RequestRejected, r.Status)
			require.NotNil(t, r.ResponseMessage)
			assert.Equal(t, reason, *r.ResponseMessage)
			return nil
		})
	})

	t.Run("second accepted request in a thread is a conflict", func(t *testing.T) {
		mustTx(t, s, func(tx Tx) error {
			return tx.TransitionRequest(ctx, "r2", RequestPending, RequestAccepted, nil, testNow)
		})
		err := s.WithinTx(ctx, func(tx Tx) error {
			third := newTestRequest("r3", thread, 3)
			third.Status = RequestAccepted
			return tx.InsertRequest(ctx, third)
		})
		assert.ErrorIs(t, err, ErrConcurrentModification)
	})
}

func TestStore_Matches(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	thread := newTestThread("t1", "alice", "bob", "guitar")

	mustTx(t, s, func(tx Tx) error {
		require.NoError(t, tx.InsertThread(ctx, thread))
		request := newTestRequest("r1", thread, 1)
		request.Status = RequestAccepted
		require.NoError(t, tx.InsertRequest(ctx, request))
		return tx.InsertMatch(ctx, &Match{
			ID:                "m1",
			AcceptedRequestID: "r1",
			Status:            MatchAccepted,
			AcceptedAt:        testNow,
			Version:           1,
			CreatedAt:         testNow,
			UpdatedAt:         testNow,
		})
	})

	t.Run("reads negotiated data through the accepted request", func(t *testing.T) {
		mustTx(t, s, func(tx Tx) error {
			m, err := tx.GetMatch(ctx, "m1")
			require.NoError(t, err)
			assert.Equal(t, "bob", m.OfferingUserID())
			assert.Equal(t, "alice", m.RequestingUserID())
			assert.Equal(t, "guitar", m.SkillID())
			assert.Equal(t, 3, m.TotalSessionsPlanned())
			assert.Nil(t, m.CompletedAt)
			assert.Nil(t, m.RatingByOffering)

			byRequest, err := tx.GetMatchByRequest(ctx, "r1")
			require.NoError(t, err)
			assert.Equal(t, "m1", byRequest.ID)
			return nil
		})
	})

	t.Run("update persists lifecycle fields", func(t *testing.T) {
		mustTx(t, s, func(tx Tx) error {
			m, err := tx.GetMatch(ctx, "m1")
			require.NoError(t, err)
			rating := 4
			completedAt := testNow.Add(time.Hour)
			m.Status = MatchCompleted
			m.CompletedSessions = 3
			m.CompletedAt = &completedAt
			m.RatingByOffering = &rating
			return tx.UpdateMatch(ctx, m)
		})

		mustTx(t, s, func(tx Tx) error {
			m, err := tx.GetMatch(ctx, "m1")
			require.NoError(t, err)
			assert.Equal(t, MatchCompleted, m.Status)
			assert.Equal(t, 3, m.CompletedSessions)
			require.NotNil(t, m.CompletedAt)
			assert.Equal(t, testNow.Add(time.Hour).Unix(), m.CompletedAt.Unix())
			require.NotNil(t, m.RatingByOffering)
			assert.Equal(t, 4, *m.RatingByOffering)
			assert.Equal(t, int64(2), m.Version)
			return nil
		})
	})

	t.Run("a request yields at most one match", func(t *testing.T) {
		err := s.WithinTx(ctx, func(tx Tx) error {
			return tx.InsertMatch(ctx, &Match{ID: "m2", AcceptedRequestID: "r1", Status: MatchAccepted, Version: 1})
		})
		assert.ErrorIs(t, err, ErrConcurrentModification)
	})

	t.Run("lists matches for either party", func(t *testing.T) {
		mustTx(t, s, func(tx Tx) error {
			for _, user := range []string{"alice", "bob"} {
				matches, err := tx.ListMatchesForUser(ctx, user)
				require.NoError(t, err)
				assert.Len(t, matches, 1, user)
			}
			none, err := tx.ListMatchesForUser(ctx, "carol")
			require.NoError(t, err)
			assert.Empty(t, none)
			return nil
		})
	})
}

func TestStore_WithinTx(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	t.Run("rolls back when fn fails", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.WithinTx(ctx, func(tx Tx) error {
			require.NoError(t, tx.InsertThread(ctx, newTestThread("t1", "alice", "bob", "guitar")))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		mustTx(t, s, func(tx Tx) error {
			_, err := tx.GetThread(ctx, "t1")
			assert.ErrorIs(t, err, ErrNotFound)
			return nil
		})
	})

	t.Run("does not commit after cancellation", func(t *testing.T) {
		// A cancelled transaction may discard its connection, which would drop
		// an in-memory database, so this case runs against a file.
		db, teardown, err := database.InitDB(filepath.Join(t.TempDir(), "cancel.db"), "", "")
		require.NoError(t, err)
		defer teardown()
		s := NewStore(db)

		cancelCtx, cancel := context.WithCancel(ctx)
		err = s.WithinTx(cancelCtx, func(tx Tx) error {
			require.NoError(t, tx.InsertThread(cancelCtx, newTestThread("t2", "alice", "bob", "guitar")))
			cancel()
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)

		mustTx(t, s, func(tx Tx) error {
			_, err := tx.GetThread(ctx, "t2")
			assert.ErrorIs(t, err, ErrNotFound)
			return nil
		})
	})
}

func TestStore_CascadeSoftDelete(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	mustTx(t, s, func(tx Tx) error {
		t1 := newTestThread("t1", "alice", "bob", "guitar")
		t2 := newTestThread("t2", "carol", "dave", "piano")
		require.NoError(t, tx.InsertThread(ctx, t1))
		require.NoError(t, tx.InsertThread(ctx, t2))
		// Never had a request; only a deletion over its own skill may touch it.
		require.NoError(t, tx.InsertThread(ctx, newTestThread("t3", "erin", "frank", "chess")))
		r1 := newTestRequest("r1", t1, 1)
		r1.Status = RequestAccepted
		require.NoError(t, tx.InsertRequest(ctx, r1))
		require.NoError(t, tx.InsertRequest(ctx, newTestRequest("r2", t2, 1)))
		return tx.InsertMatch(ctx, &Match{ID: "m1", AcceptedRequestID: "r1", Status: MatchAccepted, Version: 1})
	})

	mustTx(t, s, func(tx Tx) error {
		matches, err := tx.DeleteMatchesForUser(ctx, "bob", testNow)
		require.NoError(t, err)
		assert.Equal(t, 1, matches)
		requests, err := tx.DeleteRequestsForUser(ctx, "bob", testNow)
		require.NoError(t, err)
		assert.Equal(t, 1, requests)
		threads, err := tx.DeleteThreadsForUser(ctx, "bob", testNow)
		require.NoError(t, err)
		assert.Equal(t, 1, threads)
		return nil
	})

	mustTx(t, s, func(tx Tx) error {
		again, err := tx.DeleteRequestsForUser(ctx, "bob", testNow)
		require.NoError(t, err)
		assert.Zero(t, again, "deleted rows are not touched twice")

		_, err = tx.GetMatch(ctx, "m1")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = tx.GetRequest(ctx, "r1")
		assert.ErrorIs(t, err, ErrNotFound)

		// Unrelated negotiations are untouched.
		r2, err := tx.GetRequest(ctx, "r2")
		require.NoError(t, err)
		assert.Equal(t, RequestPending, r2.Status)

		deleted, err := tx.DeleteRequestsForSkill(ctx, "piano", testNow)
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)
		orphans, err := tx.DeleteOrphanThreadsForSkill(ctx, "piano", testNow)
		require.NoError(t, err)
		assert.Equal(t, 1, orphans)

		_, err = tx.GetThread(ctx, "t2")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = tx.GetThread(ctx, "t3")
		assert.NoError(t, err, "threads of other skills are left alone")
		return nil
	})
}

func TestMapConstraintError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict bool
	}{
		{"unique violation", fmt.Errorf("failed to create match: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}), true},
		{"busy database", fmt.Errorf("failed to update thread: %w", sqlite3.Error{Code: sqlite3.ErrBusy}), true},
		{"locked table", sqlite3.Error{Code: sqlite3.ErrLocked}, true},
		{"libsql unique violation", errors.New("UNIQUE constraint failed: matches.accepted_request_id"), true},
		{"foreign key violation", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, false},
		{"other error", errors.New("disk I/O error"), false},
		{"domain error", NewError(ErrNotFound, "thread t1 not found"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mapped := mapConstraintError(tc.err)
			if tc.conflict {
				assert.ErrorIs(t, mapped, ErrConcurrentModification)
				return
			}
			assert.Equal(t, tc.err, mapped)
		})
	}
	assert.NoError(t, mapConstraintError(nil))
}
