package http

import (
	"net/http"
	"time"

	"github.com/mauv0809/skillswap/internal/cascade"
	"github.com/mauv0809/skillswap/internal/inngest"
	"github.com/mauv0809/skillswap/internal/matchmaking"
	"github.com/mauv0809/skillswap/internal/pubsub"
)

type Server struct {
	Engine         *matchmaking.Engine
	Lifecycle      *matchmaking.Lifecycle
	Cascade        *cascade.Handler
	MetricsHandler http.Handler
	Router         *http.ServeMux
	InngestClient  inngest.InngestClient
	pubsub         pubsub.PubSubClient
	actor          Middleware
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type counterOfferBody struct {
	Terms   matchmaking.Terms `json:"terms"`
	Message string            `json:"message"`
}

type reasonBody struct {
	Reason *string `json:"reason"`
}

type notesBody struct {
	Notes *string `json:"notes"`
}

type rateBody struct {
	Rating int `json:"rating"`
}

type scheduleBody struct {
	NextSessionDate time.Time `json:"next_session_date"`
}

type threadResponse struct {
	Thread   *matchmaking.Thread         `json:"thread"`
	Requests []*matchmaking.MatchRequest `json:"requests"`
}

type sweepResponse struct {
	Expired int    `json:"expired"`
	Error   string `json:"error,omitempty"`
}
