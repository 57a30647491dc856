package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/skillswap/internal/cascade"
	"github.com/mauv0809/skillswap/internal/matchmaking"
	"github.com/mauv0809/skillswap/internal/pubsub"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// SweepHandler expires stale threads. It is called by Cloud Scheduler when
// Inngest is not in use.
func (s *Server) SweepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Starting stale thread sweep...")
		expired, err := s.Engine.ExpireStaleThreads(r.Context())
		if err != nil {
			log.Error("Sweep finished with errors", "expired", expired, "error", err)
			writeJSON(w, http.StatusInternalServerError, sweepResponse{Expired: expired, Error: "sweep failed for some threads"})
			return
		}
		log.Info("Sweep finished.", "expired", expired)
		writeJSON(w, http.StatusOK, sweepResponse{Expired: expired})
	}
}

// DeletionEventHandler consumes Pub/Sub push deliveries of user, skill and
// match deletions. A payload that can never be handled is acknowledged so
// Pub/Sub stops redelivering it; infrastructure failures return 500 to get a retry.
func (s *Server) DeletionEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := pubsub.EventType(r.PathValue("kind"))
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received deletion event", "kind", kind, "body", string(bodyBytes))

		var envelope pubsub.PushEnvelope
		if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		data := envelope.Message.Data
		var result cascade.Result
		switch kind {
		case pubsub.EventUserDeleted:
			result, err = handleEvent(ctx, s.pubsub, data, "user_deleted", s.Cascade.HandleUserDeleted)
		case pubsub.EventSkillDeleted:
			result, err = handleEvent(ctx, s.pubsub, data, "skill_deleted", s.Cascade.HandleSkillDeleted)
		case pubsub.EventMatchDeleted:
			result, err = handleEvent(ctx, s.pubsub, data, "match_deleted", s.Cascade.HandleMatchDeleted)
		default:
			http.Error(w, "Unknown event kind", http.StatusNotFound)
			return
		}

		if err != nil {
			if matchmaking.KindOf(err) == matchmaking.KindValidation {
				log.Warn("Dropping unprocessable deletion event", "kind", kind, "message_id", envelope.Message.MessageID, "error", err)
				writeJSON(w, http.StatusOK, cascade.Result{})
				return
			}
			log.Error("Failed to handle deletion event", "kind", kind, "message_id", envelope.Message.MessageID, "error", err)
			http.Error(w, "Failed to handle event", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleEvent[T any](ctx context.Context, client pubsub.PubSubClient, data []byte, operation string, handle func(context.Context, T) (cascade.Result, error)) (cascade.Result, error) {
	var event T
	if err := client.ProcessMessage(data, &event); err != nil {
		return cascade.Result{}, matchmaking.NewError(matchmaking.ErrValidation, "undecodable %s payload: %v", operation, err)
	}
	return matchmaking.RetryOnce(operation, func() (cascade.Result, error) {
		return handle(ctx, event)
	})
}
