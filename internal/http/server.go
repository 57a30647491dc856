package http

import (
	"net/http"

	"github.com/mauv0809/skillswap/internal/cascade"
	"github.com/mauv0809/skillswap/internal/inngest"
	"github.com/mauv0809/skillswap/internal/matchmaking"
	"github.com/mauv0809/skillswap/internal/pubsub"
)

// NewServer wires the HTTP surface. inngestClient may be nil when Inngest is not
// configured. An empty jwtSecret trusts the X-User-ID header set by the gateway.
func NewServer(engine *matchmaking.Engine, lifecycle *matchmaking.Lifecycle, cascadeHandler *cascade.Handler, metricsHandler http.Handler, pubsub pubsub.PubSubClient, inngestClient inngest.InngestClient, jwtSecret string) *Server {
	server := &Server{
		Engine:         engine,
		Lifecycle:      lifecycle,
		Cascade:        cascadeHandler,
		MetricsHandler: metricsHandler,
		Router:         http.NewServeMux(),
		InngestClient:  inngestClient,
		pubsub:         pubsub,
		actor:          newActorMiddleware(jwtSecret),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// API routes additionally require the acting user, see newActorMiddleware.
	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("POST /sweep", Chain(s.SweepHandler(), paramsMiddleware))
	s.Router.Handle("POST /events/{kind}", Chain(s.DeletionEventHandler(), paramsMiddleware))
	if s.InngestClient != nil {
		s.Router.Handle("/api/inngest", s.InngestClient.Serve())
	}

	api := func(h http.Handler) http.Handler {
		return Chain(h, paramsMiddleware, s.actor)
	}
	s.Router.Handle("POST /api/proposals", api(s.CreateProposalHandler()))
	s.Router.Handle("GET /api/requests/{id}", api(s.GetRequestHandler()))
	s.Router.Handle("POST /api/requests/{id}/counter", api(s.CounterOfferHandler()))
	s.Router.Handle("POST /api/requests/{id}/accept", api(s.AcceptHandler()))
	s.Router.Handle("POST /api/requests/{id}/reject", api(s.RejectHandler()))
	s.Router.Handle("GET /api/threads/{id}", api(s.GetThreadHandler()))
	s.Router.Handle("GET /api/users/{id}/threads", api(s.ListUserThreadsHandler()))
	s.Router.Handle("GET /api/users/{id}/matches", api(s.ListUserMatchesHandler()))
	s.Router.Handle("GET /api/matches/{id}", api(s.GetMatchHandler()))
	s.Router.Handle("POST /api/matches/{id}/sessions", api(s.CompleteSessionHandler()))
	s.Router.Handle("POST /api/matches/{id}/complete", api(s.CompleteMatchHandler()))
	s.Router.Handle("POST /api/matches/{id}/dissolve", api(s.DissolveMatchHandler()))
	s.Router.Handle("POST /api/matches/{id}/rate", api(s.RateMatchHandler()))
	s.Router.Handle("POST /api/matches/{id}/schedule", api(s.ScheduleSessionHandler()))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
