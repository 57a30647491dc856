package http

import (
	"context"
	"net/http"

	"github.com/mauv0809/skillswap/internal/matchmaking"
)

func (s *Server) CreateProposalHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in matchmaking.ProposalInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		// The proposer is always the caller, whatever the body says.
		in.RequesterID = actorFromContext(r)

		request, err := matchmaking.RetryOnce("create_proposal", func() (*matchmaking.MatchRequest, error) {
			return s.Engine.CreateProposal(r.Context(), in)
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, request)
	}
}

func (s *Server) GetRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request, err := s.Engine.GetRequest(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		actor := actorFromContext(r)
		if actor != request.RequesterID && actor != request.TargetUserID {
			writeError(w, r, matchmaking.NewError(matchmaking.ErrNotAuthorized, "only the parties can view a request"))
			return
		}
		writeJSON(w, http.StatusOK, request)
	}
}

func (s *Server) CounterOfferHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body counterOfferBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		request, err := matchmaking.RetryOnce("counter_offer", func() (*matchmaking.MatchRequest, error) {
			return s.Engine.CounterOffer(r.Context(), r.PathValue("id"), actorFromContext(r), body.Terms, body.Message)
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, request)
	}
}

func (s *Server) AcceptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match, err := matchmaking.RetryOnce("accept", func() (*matchmaking.Match, error) {
			return s.Engine.Accept(r.Context(), r.PathValue("id"), actorFromContext(r))
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, match)
	}
}

func (s *Server) RejectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body reasonBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		request, err := matchmaking.RetryOnce("reject", func() (*matchmaking.MatchRequest, error) {
			return s.Engine.Reject(r.Context(), r.PathValue("id"), actorFromContext(r), body.Reason)
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
	}
}

func (s *Server) GetThreadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		thread, err := s.Engine.GetThread(ctx, r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !thread.HasParticipant(actorFromContext(r)) {
			writeError(w, r, matchmaking.NewError(matchmaking.ErrNotAuthorized, "only participants can view a thread"))
			return
		}
		requests, err := s.Engine.ListThreadRequests(ctx, thread.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, threadResponse{Thread: thread, Requests: requests})
	}
}

func (s *Server) ListUserThreadsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := selfOnly(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var status *matchmaking.ThreadStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := matchmaking.ParseThreadStatus(raw)
			if err != nil {
				writeError(w, r, err)
				return
			}
			status = &parsed
		}
		threads, err := s.Engine.ListUserThreads(r.Context(), userID, status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, threads)
	}
}

func (s *Server) ListUserMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := selfOnly(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		matches, err := s.Lifecycle.ListUserMatches(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

// selfOnly returns the user in the path if it is the caller.
func selfOnly(r *http.Request) (string, error) {
	userID := r.PathValue("id")
	if userID != actorFromContext(r) {
		return "", matchmaking.NewError(matchmaking.ErrNotAuthorized, "users can only list their own negotiations")
	}
	return userID, nil
}

func (s *Server) GetMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match, err := s.participantMatch(r.Context(), r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
	}
}

func (s *Server) CompleteSessionHandler() http.HandlerFunc {
	return matchAction(s, "complete_session", func(ctx context.Context, match *matchmaking.Match, actor string, _ struct{}) (*matchmaking.Match, error) {
		return s.Lifecycle.CompleteSession(ctx, match.ID)
	})
}

func (s *Server) CompleteMatchHandler() http.HandlerFunc {
	return matchAction(s, "complete", func(ctx context.Context, match *matchmaking.Match, actor string, body notesBody) (*matchmaking.Match, error) {
		return s.Lifecycle.Complete(ctx, match.ID, body.Notes)
	})
}

func (s *Server) DissolveMatchHandler() http.HandlerFunc {
	return matchAction(s, "dissolve", func(ctx context.Context, match *matchmaking.Match, actor string, body reasonBody) (*matchmaking.Match, error) {
		return s.Lifecycle.Dissolve(ctx, match.ID, body.Reason)
	})
}

// RateMatchHandler records the caller's rating on the side they took in the match.
func (s *Server) RateMatchHandler() http.HandlerFunc {
	return matchAction(s, "rate", func(ctx context.Context, match *matchmaking.Match, actor string, body rateBody) (*matchmaking.Match, error) {
		if actor == match.OfferingUserID() {
			return s.Lifecycle.RateByOffering(ctx, match.ID, body.Rating)
		}
		return s.Lifecycle.RateByRequesting(ctx, match.ID, body.Rating)
	})
}

func (s *Server) ScheduleSessionHandler() http.HandlerFunc {
	return matchAction(s, "schedule_session", func(ctx context.Context, match *matchmaking.Match, actor string, body scheduleBody) (*matchmaking.Match, error) {
		return s.Lifecycle.ScheduleNextSession(ctx, match.ID, body.NextSessionDate)
	})
}

// matchAction decodes the body, checks the caller takes part in the match and
// runs fn, retrying once on a lost race.
func matchAction[B any](s *Server, operation string, fn func(ctx context.Context, match *matchmaking.Match, actor string, body B) (*matchmaking.Match, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body B
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		ctx := r.Context()
		actor := actorFromContext(r)
		match, err := matchmaking.RetryOnce(operation, func() (*matchmaking.Match, error) {
			match, err := s.participantMatch(ctx, r)
			if err != nil {
				return nil, err
			}
			return fn(ctx, match, actor, body)
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
	}
}

func (s *Server) participantMatch(ctx context.Context, r *http.Request) (*matchmaking.Match, error) {
	match, err := s.Lifecycle.GetMatch(ctx, r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if !match.HasParticipant(actorFromContext(r)) {
		return nil, matchmaking.NewError(matchmaking.ErrNotAuthorized, "only participants can act on a match")
	}
	return match, nil
}
