package api

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/AaronLay10/DefusalEngine/internal/events"
	"github.com/AaronLay10/DefusalEngine/internal/level"
	"github.com/AaronLay10/DefusalEngine/internal/mqtt"
	"github.com/AaronLay10/DefusalEngine/internal/puzzle"
	"github.com/AaronLay10/DefusalEngine/internal/session"
)

// ErrSessionNotFound is returned for unknown, aborted or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

const defaultIdleExpiry = 30 * time.Minute

// Panel mirrors a running session to a remote defuser panel.
type Panel interface {
	Attach(t mqtt.Target) error
}

// RegistryOptions configures every session the registry starts.
type RegistryOptions struct {
	IdleExpiry     time.Duration
	MaxStrikes     int
	StrikePenalty  int
	Reporters      []session.Reporter
	Observer       func(id string, sig session.Signal)
	Panel          Panel
	Logger         *zap.Logger
	Rand           func() *rand.Rand
	SessionOptions []session.Option
	RunnerOptions  []session.RunnerOption
}

// Registry holds the running sessions by ID. A session nobody touched for
// IdleExpiry is evicted; if it was still running it is aborted.
type Registry struct {
	cache  *cache.Cache
	opts   RegistryOptions
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.IdleExpiry <= 0 {
		opts.IdleExpiry = defaultIdleExpiry
	}
	if opts.Rand == nil {
		opts.Rand = puzzle.RandomRand
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		cache:  cache.New(opts.IdleExpiry, cleanupInterval(opts.IdleExpiry)),
		opts:   opts,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	r.cache.OnEvicted(r.evicted)
	return r
}

func cleanupInterval(expiry time.Duration) time.Duration {
	return max(expiry/4, time.Second)
}

func (r *Registry) evicted(id string, v interface{}) {
	run, ok := v.(*session.Runner)
	if !ok || finished(run) {
		return
	}
	run.Abort()
	events.Emit("warn", "session.expired", "idle session aborted", map[string]interface{}{
		"session_id": id,
	})
	r.log.Info("session expired", zap.String("session_id", id))
}

func finished(run *session.Runner) bool {
	select {
	case <-run.Done():
		return true
	default:
		return false
	}
}

// Start configures lvl in pack and starts its runner.
func (r *Registry) Start(lvl int, pack level.PackID) (*session.Runner, error) {
	sopts := append([]session.Option{
		session.WithMaxStrikes(r.opts.MaxStrikes),
		session.WithStrikePenalty(r.opts.StrikePenalty),
	}, r.opts.SessionOptions...)

	s, err := session.Start(lvl, pack, r.opts.Rand(), sopts...)
	if err != nil {
		return nil, err
	}

	ropts := append([]session.RunnerOption{
		session.WithReporters(r.opts.Reporters...),
		session.WithObserver(r.opts.Observer),
		session.WithLogger(r.log),
	}, r.opts.RunnerOptions...)

	run := session.Run(r.ctx, s, ropts...)
	r.cache.Set(run.ID(), run, cache.DefaultExpiration)
	r.log.Debug("session registered",
		zap.String("session_id", run.ID()),
		zap.Int("level", lvl),
		zap.String("pack", string(s.Plan().Pack)))

	if r.opts.Panel != nil {
		if err := r.opts.Panel.Attach(run); err != nil {
			r.log.Warn("panel attach failed", zap.String("session_id", run.ID()), zap.Error(err))
		}
	}
	return run, nil
}

// Get returns the runner for id and restarts its idle clock.
func (r *Registry) Get(id string) (*session.Runner, error) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	run := v.(*session.Runner)
	r.cache.Set(id, run, cache.DefaultExpiration)
	return run, nil
}

// Abort stops the session and forgets it. Nothing is settled.
func (r *Registry) Abort(id string) error {
	v, ok := r.cache.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	run := v.(*session.Runner)
	run.Abort()
	<-run.Done()
	r.cache.Delete(id)
	return nil
}

// Active counts sessions whose runner is still going.
func (r *Registry) Active() int {
	n := 0
	for _, item := range r.cache.Items() {
		if run, ok := item.Object.(*session.Runner); ok && !finished(run) {
			n++
		}
	}
	return n
}

// Len counts all registered sessions, finished ones included.
func (r *Registry) Len() int { return r.cache.ItemCount() }

// Close aborts every running session and waits for the runners to stop.
func (r *Registry) Close() {
	r.cancel()
	for _, item := range r.cache.Items() {
		if run, ok := item.Object.(*session.Runner); ok {
			<-run.Done()
		}
	}
	r.cache.Flush()
}
