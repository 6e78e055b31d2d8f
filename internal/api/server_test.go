package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/DefusalEngine/internal/config"
	"github.com/AaronLay10/DefusalEngine/internal/events"
	"github.com/AaronLay10/DefusalEngine/internal/puzzle"
	"github.com/AaronLay10/DefusalEngine/internal/session"
	"github.com/AaronLay10/DefusalEngine/internal/storage/postgres"
)

type settlementLog struct {
	mu   sync.Mutex
	seen []session.Settlement
}

func (l *settlementLog) Report(_ context.Context, s session.Settlement) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, s)
	return nil
}

func (l *settlementLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

type fakeSettlements struct {
	rows  []postgres.SettlementRow
	err   error
	limit int
}

func (f *fakeSettlements) RecentSettlements(_ context.Context, limit int) ([]postgres.SettlementRow, error) {
	f.limit = limit
	return f.rows, f.err
}

type testEnv struct {
	srv      *httptest.Server
	registry *Registry
	metrics  *Metrics
	reports  *settlementLog
	ticks    chan time.Time
}

func ventingModule() puzzle.Module {
	return puzzle.Module{Payload: puzzle.Venting{Question: "HAVALANDIR?", Answer: puzzle.AnswerYes}}
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	events.Clear()

	env := &testEnv{
		metrics: NewMetrics(),
		reports: &settlementLog{},
		ticks:   make(chan time.Time),
	}
	env.registry = NewRegistry(RegistryOptions{
		Reporters:      []session.Reporter{env.reports},
		Observer:       env.metrics.Observe,
		Rand:           func() *rand.Rand { return puzzle.NewRand(7) },
		SessionOptions: []session.Option{session.WithModules(ventingModule())},
		RunnerOptions:  []session.RunnerOption{session.WithTicks(env.ticks)},
	})
	t.Cleanup(env.registry.Close)

	opts.EngineID = "test-engine"
	opts.Registry = env.registry
	opts.Metrics = env.metrics
	env.srv = httptest.NewServer(NewServer(opts).Handler())
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) start(t *testing.T) SessionResponse {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/sessions", `{"level":1,"pack":"main_campaign"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[SessionResponse](t, resp)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test-engine", health.Engine)
}

func TestStartSession(t *testing.T) {
	env := newTestEnv(t, Options{})

	started := env.start(t)
	assert.True(t, started.OK)
	assert.NotEmpty(t, started.ID)
	assert.Equal(t, started.ID, started.View.ID)
	assert.Equal(t, session.Active, started.View.State)
	assert.Equal(t, "02:30", started.View.Clock)
	require.Len(t, started.View.Modules, 1)
	assert.Equal(t, 1, env.registry.Active())

	resp := env.do(t, http.MethodGet, "/sessions/"+started.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[SessionResponse](t, resp)
	assert.Equal(t, started.View, got.View)
}

func TestStartSessionRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, Options{})

	for name, body := range map[string]string{
		"invalid json": `{`,
		"unknown pack": `{"level":1,"pack":"bogus"}`,
		"level zero":   `{"level":0}`,
		"level high":   `{"level":21,"pack":"covert_ops"}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/sessions", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.False(t, decode[Response](t, resp).OK)
		})
	}
	assert.Zero(t, env.registry.Len())
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp := env.do(t, http.MethodGet, "/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, ErrSessionNotFound.Error(), decode[Response](t, resp).Error)

	resp = env.do(t, http.MethodPost, "/sessions/nope/actions", `{"module":0,"type":"answer","answer":"EVET"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/sessions/nope/abort", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestActionsPlayToVictory(t *testing.T) {
	env := newTestEnv(t, Options{})
	id := env.start(t).ID
	path := "/sessions/" + id + "/actions"

	resp := env.do(t, http.MethodPost, path, `{"module":0,"type":"answer","answer":"hayir"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	act := decode[ActionResponse](t, resp)
	assert.Equal(t, puzzle.Strike, act.Signal.Outcome)
	assert.True(t, act.Signal.StrikeOccurred)
	assert.Equal(t, 1, act.View.Strikes)
	assert.Equal(t, 120, act.View.TimeLeft)

	resp = env.do(t, http.MethodPost, path, `{"module":0,"type":"answer","answer":"evet"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	act = decode[ActionResponse](t, resp)
	assert.Equal(t, puzzle.Solved, act.Signal.Outcome)
	assert.True(t, act.Signal.Terminal)
	assert.Equal(t, session.Won, act.View.State)

	resp = env.do(t, http.MethodPost, path, `{"module":0,"type":"answer","answer":"evet"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	conflict := decode[ActionResponse](t, resp)
	assert.False(t, conflict.OK)
	assert.Equal(t, session.Won, conflict.View.State)

	run, err := env.registry.Get(id)
	require.NoError(t, err)
	<-run.Done()
	assert.Equal(t, 1, env.reports.count())
	assert.EqualValues(t, 1, env.metrics.Won())
	assert.EqualValues(t, 1, env.metrics.Strikes())
	assert.Zero(t, env.registry.Active())

	resp = env.do(t, http.MethodGet, "/sessions/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "finished sessions stay viewable")
	assert.Equal(t, session.Won, decode[SessionResponse](t, resp).View.State)
}

func TestActionRejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t, Options{})
	path := "/sessions/" + env.start(t).ID + "/actions"

	resp := env.do(t, http.MethodPost, path, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, path, `{"module":0,"type":"defuse_everything"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[Response](t, resp).Error, puzzle.ErrUnknownAction.Error())
}

func TestWrongActionTypeIsIgnored(t *testing.T) {
	env := newTestEnv(t, Options{})
	path := "/sessions/" + env.start(t).ID + "/actions"

	resp := env.do(t, http.MethodPost, path, `{"module":0,"type":"cut_wire","index":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	act := decode[ActionResponse](t, resp)
	assert.Equal(t, puzzle.Ignored, act.Signal.Outcome)
	assert.Zero(t, act.View.Strikes)

	resp = env.do(t, http.MethodPost, path, `{"module":9,"type":"answer","answer":"EVET"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, puzzle.Ignored, decode[ActionResponse](t, resp).Signal.Outcome)
}

func TestAbortSession(t *testing.T) {
	env := newTestEnv(t, Options{})
	id := env.start(t).ID

	resp := env.do(t, http.MethodPost, "/sessions/"+id+"/abort", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[Response](t, resp).OK)

	resp = env.do(t, http.MethodGet, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, env.reports.count(), "aborted sessions are not settled")

	var names []string
	for _, e := range events.Snapshot() {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "session.aborted")
	assert.NotContains(t, names, "session.expired")
}

func TestTimerExpiryLosesSession(t *testing.T) {
	env := newTestEnv(t, Options{})
	id := env.start(t).ID
	run, err := env.registry.Get(id)
	require.NoError(t, err)

	for i := 0; i < 150; i++ {
		env.ticks <- time.Now()
	}
	<-run.Done()

	state, sett, ok := run.Result()
	assert.Equal(t, session.Lost, state)
	require.True(t, ok)
	assert.False(t, sett.Won)
	assert.Zero(t, sett.TimeLeft)
	assert.EqualValues(t, 1, env.metrics.Lost())
	assert.Equal(t, 1, env.reports.count())
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp := env.do(t, http.MethodDelete, "/sessions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestEventsEndpoint(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.start(t)

	resp := env.do(t, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	evs := decode[[]events.Event](t, resp)
	require.NotEmpty(t, evs)

	var names []string
	for _, e := range evs {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "session.started")
	assert.Contains(t, names, "module.generated")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, Options{})
	id := env.start(t).ID
	env.do(t, http.MethodPost, "/sessions/"+id+"/actions", `{"module":0,"type":"answer","answer":"HAYIR"}`)

	resp := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	body := buf.String()

	for _, name := range []string{
		"defusal_uptime_seconds",
		"defusal_sessions_active",
		"defusal_sessions_won_total",
		"defusal_sessions_lost_total",
		"defusal_events_total",
		"defusal_ws_clients",
	} {
		assert.Contains(t, body, "# TYPE "+name)
	}
	assert.Contains(t, body, `defusal_sessions_active{engine="test-engine"`)
	assert.Regexp(t, `defusal_strikes_total\{[^}]*\} 1\n`, body)
}

func TestSettlementsEndpoint(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t, Options{})
		resp := env.do(t, http.MethodGet, "/settlements", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("rows", func(t *testing.T) {
		src := &fakeSettlements{rows: []postgres.SettlementRow{{SessionID: "s1", Won: true, Level: 3}}}
		env := newTestEnv(t, Options{Settlements: src})

		resp := env.do(t, http.MethodGet, "/settlements?limit=5", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[SettlementsResponse](t, resp)
		require.Len(t, got.Settlements, 1)
		assert.Equal(t, "s1", got.Settlements[0].SessionID)
		assert.Equal(t, 5, src.limit)
	})

	t.Run("bad limit", func(t *testing.T) {
		env := newTestEnv(t, Options{Settlements: &fakeSettlements{}})
		resp := env.do(t, http.MethodGet, "/settlements?limit=x", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("store error", func(t *testing.T) {
		env := newTestEnv(t, Options{Settlements: &fakeSettlements{err: errors.New("down")}})
		resp := env.do(t, http.MethodGet, "/settlements", "")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestAuthProtectsSessionRoutes(t *testing.T) {
	auth := NewAuth(
		config.Credentials{User: "admin", Password: "secret"},
		config.Credentials{User: "player", Password: "pw"},
	)
	env := newTestEnv(t, Options{Auth: auth, Settlements: &fakeSettlements{}})

	resp := env.do(t, http.MethodPost, "/sessions", `{"level":1}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/sessions", strings.NewReader(`{"level":1}`))
	require.NoError(t, err)
	req.SetBasicAuth("player", "pw")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err = http.NewRequest(http.MethodGet, env.srv.URL+"/settlements", nil)
	require.NoError(t, err)
	req.SetBasicAuth("player", "pw")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp2.StatusCode)

	health := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, health.StatusCode, "health stays open")
}
