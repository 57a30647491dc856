package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mauv0809/skillswap/internal/cascade"
	"github.com/mauv0809/skillswap/internal/database"
	"github.com/mauv0809/skillswap/internal/matchmaking"
	"github.com/mauv0809/skillswap/internal/metrics"
	"github.com/mauv0809/skillswap/internal/pubsub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type testEnv struct {
	server   *Server
	notifier *matchmaking.MockNotifier
}

// setupTestServer initializes a new server with an in-memory database and mock clients.
func setupTestServer(t *testing.T) *testEnv {
	return setupTestServerWithSecret(t, "")
}

func setupTestServerWithSecret(t *testing.T, jwtSecret string) *testEnv {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(dbTeardown)

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	store := matchmaking.NewStore(db)
	notifier := matchmaking.NewMockNotifier()
	engine := matchmaking.NewEngine(store, notifier, matchmaking.NewMockDirectory(), metricsSvc, matchmaking.Settings{})
	lifecycle := matchmaking.NewLifecycle(store, metricsSvc)
	handler := cascade.New(store, metricsSvc, nil)

	server := NewServer(engine, lifecycle, handler, metrics.NewMetricsHandler(reg), pubsub.NewMock(), nil, jwtSecret)
	return &testEnv{server: server, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if actor != "" {
		req.Header.Set(ActorHeader, actor)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) propose(t *testing.T, requester, target, skill string, sessions int) *matchmaking.MatchRequest {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/proposals", requester, map[string]any{
		"target_user_id": target,
		"skill_id":       skill,
		"terms":          map[string]any{"total_sessions": sessions},
		"message":        "Want to swap lessons?",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[*matchmaking.MatchRequest](t, rec)
}

func (e *testEnv) agree(t *testing.T, requester, target, skill string, sessions int) *matchmaking.Match {
	t.Helper()
	request := e.propose(t, requester, target, skill, sessions)
	rec := e.do(t, http.MethodPost, "/api/requests/"+request.ID+"/accept", target, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[*matchmaking.Match](t, rec)
}

func TestHealthCheckHandler(t *testing.T) {
	env := setupTestServer(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK!", rec.Body.String())
}

func TestMetricsHandler(t *testing.T) {
	env := setupTestServer(t)
	env.propose(t, "alice", "bob", "guitar", 1)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNegotiationAPI(t *testing.T) {
	env := setupTestServer(t)

	// The body cannot impersonate another proposer.
	rec := env.do(t, http.MethodPost, "/api/proposals", "alice", map[string]any{
		"requester_id":   "mallory",
		"target_user_id": "bob",
		"skill_id":       "guitar",
		"terms":          map[string]any{"total_sessions": 2},
		"message":        "Guitar for pottery?",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	opening := decodeBody[*matchmaking.MatchRequest](t, rec)
	assert.Equal(t, "alice", opening.RequesterID)
	assert.Equal(t, 1, opening.Round)
	assert.Len(t, env.notifier.Created(), 1)

	rec = env.do(t, http.MethodPost, "/api/requests/"+opening.ID+"/counter", "bob", map[string]any{
		"terms":   map[string]any{"total_sessions": 2, "session_duration_minutes": 60},
		"message": "Sure, but hour-long sessions",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	counter := decodeBody[*matchmaking.MatchRequest](t, rec)
	assert.Equal(t, 2, counter.Round)
	assert.Equal(t, "bob", counter.RequesterID)

	rec = env.do(t, http.MethodPost, "/api/requests/"+counter.ID+"/accept", "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "only the target accepts")

	rec = env.do(t, http.MethodPost, "/api/requests/"+counter.ID+"/accept", "alice", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	match := decodeBody[*matchmaking.Match](t, rec)
	assert.Equal(t, matchmaking.MatchAccepted, match.Status)
	assert.Equal(t, counter.ID, match.AcceptedRequestID)

	rec = env.do(t, http.MethodGet, "/api/threads/"+opening.ThreadID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	thread := decodeBody[threadResponse](t, rec)
	assert.Equal(t, matchmaking.ThreadAgreementReached, thread.Thread.Status)
	require.Len(t, thread.Requests, 2)
	assert.Equal(t, matchmaking.RequestSuperseded, thread.Requests[0].Status)
	assert.Equal(t, matchmaking.RequestAccepted, thread.Requests[1].Status)

	matchPath := "/api/matches/" + match.ID

	rec = env.do(t, http.MethodGet, matchPath, "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	agreed := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "guitar", agreed["skill_id"])
	assert.Equal(t, "bob", agreed["offering_user_id"])
	assert.Equal(t, "alice", agreed["requesting_user_id"])
	assert.Equal(t, float64(2), agreed["total_sessions_planned"])
	require.IsType(t, map[string]any{}, agreed["terms"])
	assert.Equal(t, float64(60), agreed["terms"].(map[string]any)["session_duration_minutes"])

	rec = env.do(t, http.MethodPost, matchPath+"/sessions", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decodeBody[*matchmaking.Match](t, rec).CompletedSessions)

	// bob was asked for guitar lessons, so he is the offering side.
	rec = env.do(t, http.MethodPost, matchPath+"/rate", "bob", map[string]any{"rating": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, matchPath+"/rate", "alice", map[string]any{"rating": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rated := decodeBody[*matchmaking.Match](t, rec)
	require.NotNil(t, rated.RatingByOffering)
	require.NotNil(t, rated.RatingByRequesting)
	assert.Equal(t, 4, *rated.RatingByOffering)
	assert.Equal(t, 5, *rated.RatingByRequesting)

	next := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	rec = env.do(t, http.MethodPost, matchPath+"/schedule", "alice", map[string]any{"next_session_date": next.Format(time.RFC3339)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	scheduled := decodeBody[*matchmaking.Match](t, rec)
	require.NotNil(t, scheduled.NextSessionDate)
	assert.True(t, next.Equal(*scheduled.NextSessionDate))

	rec = env.do(t, http.MethodPost, matchPath+"/sessions", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decodeBody[*matchmaking.Match](t, rec)
	assert.Equal(t, matchmaking.MatchCompleted, done.Status)
	assert.Equal(t, 2, done.CompletedSessions)

	rec = env.do(t, http.MethodPost, matchPath+"/complete", "alice", map[string]any{"notes": "Great mentor"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "MATCH_ALREADY_COMPLETED", decodeBody[errorResponse](t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/users/alice/matches", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]*matchmaking.Match](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/users/alice/threads?status=agreement_reached", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]*matchmaking.Thread](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/users/alice/threads?status=active", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]*matchmaking.Thread](t, rec))
}

func TestDissolveAPI(t *testing.T) {
	env := setupTestServer(t)
	match := env.agree(t, "alice", "bob", "guitar", 3)
	path := "/api/matches/" + match.ID + "/dissolve"

	rec := env.do(t, http.MethodPost, path, "carol", map[string]any{"reason": "not mine"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, path, "alice", map[string]any{"reason": "Moving abroad"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dissolved := decodeBody[*matchmaking.Match](t, rec)
	assert.Equal(t, matchmaking.MatchDissolved, dissolved.Status)
	require.NotNil(t, dissolved.DissolutionReason)
	assert.Equal(t, "Moving abroad", *dissolved.DissolutionReason)

	rec = env.do(t, http.MethodPost, path, "alice", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "MATCH_NOT_ACTIVE", decodeBody[errorResponse](t, rec).Code)
}

func TestErrorMapping(t *testing.T) {
	env := setupTestServer(t)
	open := env.propose(t, "alice", "bob", "guitar", 1)
	rejected := env.propose(t, "carol", "dave", "chess", 1)
	rec := env.do(t, http.MethodPost, "/api/requests/"+rejected.ID+"/reject", "dave", map[string]any{"reason": "No time"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tests := []struct {
		name       string
		method     string
		path       string
		actor      string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"missing actor", http.MethodPost, "/api/requests/" + open.ID + "/accept", "", nil, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"unknown request", http.MethodPost, "/api/requests/missing/accept", "bob", nil, http.StatusNotFound, "NOT_FOUND"},
		{"wrong actor", http.MethodPost, "/api/requests/" + open.ID + "/reject", "alice", nil, http.StatusForbidden, "NOT_AUTHORIZED"},
		{"already decided", http.MethodPost, "/api/requests/" + rejected.ID + "/accept", "dave", nil, http.StatusConflict, "REQUEST_NOT_PENDING"},
		{"self proposal", http.MethodPost, "/api/proposals", "alice", map[string]any{"target_user_id": "alice", "skill_id": "guitar", "message": "Teach myself"}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"malformed body", http.MethodPost, "/api/proposals", "alice", "{not json", http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"outsider reads thread", http.MethodGet, "/api/threads/" + open.ThreadID, "carol", nil, http.StatusForbidden, "NOT_AUTHORIZED"},
		{"outsider reads request", http.MethodGet, "/api/requests/" + open.ID, "carol", nil, http.StatusForbidden, "NOT_AUTHORIZED"},
		{"other user's list", http.MethodGet, "/api/users/bob/threads", "alice", nil, http.StatusForbidden, "NOT_AUTHORIZED"},
		{"bad status filter", http.MethodGet, "/api/users/alice/threads?status=paused", "alice", nil, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"unknown match", http.MethodPost, "/api/matches/missing/sessions", "alice", nil, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, tc.method, tc.path, tc.actor, tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tc.wantCode, decodeBody[errorResponse](t, rec).Code)
		})
	}

	rec = env.do(t, http.MethodGet, "/api/requests/"+open.ID, "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, matchmaking.RequestPending, decodeBody[*matchmaking.MatchRequest](t, rec).Status)
}

func pushBody(t *testing.T, event any) string {
	t.Helper()
	var envelope pubsub.PushEnvelope
	data, err := msgpack.Marshal(event)
	require.NoError(t, err)
	envelope.Message.Data = data
	envelope.Message.MessageID = "msg-1"
	envelope.Subscription = "projects/test/subscriptions/skillswap"
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)
	return string(raw)
}

func TestDeletionEventHandler(t *testing.T) {
	env := setupTestServer(t)
	match := env.agree(t, "alice", "bob", "guitar", 2)

	body := pushBody(t, cascade.UserDeleted{UserID: "bob"})
	rec := env.do(t, http.MethodPost, "/events/user-deleted", "", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, cascade.Result{Matches: 1, Requests: 1, Threads: 1}, decodeBody[cascade.Result](t, rec))

	rec = env.do(t, http.MethodGet, "/api/matches/"+match.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	t.Run("redelivery removes nothing", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/events/user-deleted", "", body)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, decodeBody[cascade.Result](t, rec).Total())
	})

	t.Run("skill and match kinds", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/events/skill-deleted", "", pushBody(t, cascade.SkillDeleted{SkillID: "piano"}))
		assert.Equal(t, http.StatusOK, rec.Code)
		rec = env.do(t, http.MethodPost, "/events/match-deleted", "", pushBody(t, cascade.MatchDeleted{MatchID: "gone"}))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unprocessable payloads are acknowledged", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/events/user-deleted", "", pushBody(t, cascade.UserDeleted{}))
		assert.Equal(t, http.StatusOK, rec.Code)

		var envelope pubsub.PushEnvelope
		envelope.Message.Data = []byte{0xc1}
		raw, err := json.Marshal(envelope)
		require.NoError(t, err)
		rec = env.do(t, http.MethodPost, "/events/user-deleted", "", string(raw))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bad envelope", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/events/user-deleted", "", "{oops")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown kind", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/events/club-deleted", "", body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSweepHandler(t *testing.T) {
	env := setupTestServer(t)
	request := env.propose(t, "alice", "bob", "guitar", 1)

	rec := env.do(t, http.MethodPost, "/sweep", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[sweepResponse](t, rec).Expired)

	later := time.Now().Add(matchmaking.DefaultInactivityWindow + time.Hour)
	env.server.Engine.SetClock(func() time.Time { return later })

	rec = env.do(t, http.MethodPost, "/sweep", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[sweepResponse](t, rec).Expired)

	rec = env.do(t, http.MethodGet, "/api/requests/"+request.ID, "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, matchmaking.RequestExpired, decodeBody[*matchmaking.MatchRequest](t, rec).Status)
}
