package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
)

// Middleware defines the standard signature for an HTTP middleware.
type Middleware func(http.Handler) http.Handler

// Chain combines multiple middlewares into a single handler.
// The middlewares are applied in the order they are passed.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// contextKey is a custom type to avoid key collisions in context.
type contextKey string

const (
	actorKey contextKey = "actor"

	// ActorHeader carries the id of the authenticated user, set by the gateway.
	ActorHeader = "X-User-ID"
)

// paramsMiddleware handles common query parameters like 'verbose'.
func paramsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Info("incoming request", "method", r.Method, "url", r.URL.String())
		// Handle 'verbose' for request-scoped verbose logging.
		if r.URL.Query().Get("verbose") == "true" {
			originalLevel := log.GetLevel()
			log.SetLevel(log.DebugLevel)
			defer log.SetLevel(originalLevel)
		}
		next.ServeHTTP(w, r)
	})
}

// headerActorMiddleware trusts the acting user set by the gateway.
func headerActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "UNAUTHENTICATED", Error: "missing " + ActorHeader + " header"})
			return
		}
		next.ServeHTTP(w, withActor(r, actor))
	})
}

func withActor(r *http.Request, actor string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), actorKey, actor))
}

// actorFromContext is a helper to safely retrieve the acting user from the request context.
func actorFromContext(r *http.Request) string {
	actor, _ := r.Context().Value(actorKey).(string)
	return actor
}
