// Package api serves the HTTP and WebSocket surface of the engine: start,
// play, inspect and abort sessions, plus health, metrics and the event
// stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/AaronLay10/DefusalEngine/internal/events"
	"github.com/AaronLay10/DefusalEngine/internal/level"
	"github.com/AaronLay10/DefusalEngine/internal/puzzle"
	"github.com/AaronLay10/DefusalEngine/internal/session"
	"github.com/AaronLay10/DefusalEngine/internal/storage/postgres"
)

const (
	maxBodyBytes           = 64 << 10
	defaultSettlementLimit = 50
	shutdownTimeout        = 5 * time.Second
)

// Settlements lists finished sessions.
type Settlements interface {
	RecentSettlements(ctx context.Context, limit int) ([]postgres.SettlementRow, error)
}

// Options wires a Server. Registry is required; Metrics defaults to a
// fresh set and the rest may be nil.
type Options struct {
	EngineID    string
	Registry    *Registry
	Metrics     *Metrics
	Auth        *Auth
	Settlements Settlements
	Logger      *zap.Logger
}

// Server routes API requests.
type Server struct {
	engineID    string
	registry    *Registry
	metrics     *Metrics
	auth        *Auth
	settlements Settlements
	log         *zap.Logger
}

// NewServer builds a Server from opts.
func NewServer(opts Options) *Server {
	s := &Server{
		engineID:    opts.EngineID,
		registry:    opts.Registry,
		metrics:     opts.Metrics,
		auth:        opts.Auth,
		settlements: opts.Settlements,
		log:         opts.Logger,
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /metrics", s.metricsHandler)
	mux.HandleFunc("GET /events", s.eventsHandler)
	mux.HandleFunc("GET /ws/events", s.wsEventsHandler)

	mux.HandleFunc("POST /sessions", s.auth.RequirePlayer(s.createSessionHandler))
	mux.HandleFunc("GET /sessions/{id}", s.auth.RequirePlayer(s.getSessionHandler))
	mux.HandleFunc("POST /sessions/{id}/actions", s.auth.RequirePlayer(s.actionHandler))
	mux.HandleFunc("POST /sessions/{id}/abort", s.auth.RequirePlayer(s.abortHandler))

	mux.HandleFunc("GET /settlements", s.auth.RequireAdmin(s.settlementsHandler))
	return mux
}

type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Engine    string `json:"engine"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

type StartRequest struct {
	Level int          `json:"level"`
	Pack  level.PackID `json:"pack"`
}

type SessionResponse struct {
	OK   bool         `json:"ok"`
	ID   string       `json:"id"`
	View session.View `json:"view"`
}

type ActionResponse struct {
	OK     bool           `json:"ok"`
	Error  string         `json:"error,omitempty"`
	Signal session.Signal `json:"signal"`
	View   session.View   `json:"view"`
}

type SettlementsResponse struct {
	OK          bool                     `json:"ok"`
	Settlements []postgres.SettlementRow `json:"settlements"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{OK: false, Error: msg})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   "api",
		Engine:    s.engineID,
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, events.Snapshot())
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	run, err := s.registry.Start(req.Level, req.Pack)
	if err != nil {
		if errors.Is(err, level.ErrUnknownPack) || errors.Is(err, level.ErrLevelOutOfRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("start session failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "start session failed")
		return
	}

	view, err := run.View(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{OK: true, ID: run.ID(), View: view})
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookup(w, r)
	if !ok {
		return
	}
	view, err := run.View(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{OK: true, ID: run.ID(), View: view})
}

func (s *Server) actionHandler(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookup(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	idx, action, err := puzzle.DecodeAction(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sig, view, err := run.Do(r.Context(), idx, action)
	switch {
	case errors.Is(err, session.ErrNotActive):
		writeJSON(w, http.StatusConflict, ActionResponse{OK: false, Error: err.Error(), Signal: sig, View: view})
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, ActionResponse{OK: true, Signal: sig, View: view})
	}
}

func (s *Server) abortHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Abort(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Response{OK: true})
}

func (s *Server) settlementsHandler(w http.ResponseWriter, r *http.Request) {
	if s.settlements == nil {
		writeError(w, http.StatusNotFound, "settlement history not configured")
		return
	}

	limit := defaultSettlementLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	rows, err := s.settlements.RecentSettlements(r.Context(), limit)
	if err != nil {
		s.log.Error("query settlements failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query settlements failed")
		return
	}
	if rows == nil {
		rows = []postgres.SettlementRow{}
	}
	writeJSON(w, http.StatusOK, SettlementsResponse{OK: true, Settlements: rows})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Runner, bool) {
	run, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return run, true
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully. tlsFiles may be nil.
func (s *Server) ListenAndServe(ctx context.Context, port int, tlsFiles *TLSFiles) error {
	tlsCfg, err := tlsFiles.Config()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.Bool("tls", tlsCfg != nil),
			zap.Bool("auth", s.auth.Enabled()))
		if tlsCfg != nil {
			errCh <- srv.ListenAndServeTLS("", "")
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	events.CloseAllSubscribers()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}
