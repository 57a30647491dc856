package inngest

import (
	"context"
	"net/http"

	"github.com/mauv0809/skillswap/internal/cascade"
)

type InngestClient interface {
	Serve() http.Handler
}

// Sweeper expires negotiation threads that went quiet.
type Sweeper interface {
	ExpireStaleThreads(ctx context.Context) (int, error)
}

// CascadeHandler removes state that references deleted entities.
type CascadeHandler interface {
	HandleUserDeleted(ctx context.Context, event cascade.UserDeleted) (cascade.Result, error)
	HandleSkillDeleted(ctx context.Context, event cascade.SkillDeleted) (cascade.Result, error)
	HandleMatchDeleted(ctx context.Context, event cascade.MatchDeleted) (cascade.Result, error)
}
