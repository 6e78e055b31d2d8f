package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AaronLay10/DefusalEngine/internal/puzzle"
)

// Reporter receives the settlement of a won or lost session.
type Reporter interface {
	Report(ctx context.Context, s Settlement) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, s Settlement) error

func (f ReporterFunc) Report(ctx context.Context, s Settlement) error { return f(ctx, s) }

const defaultReportTimeout = 5 * time.Second

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTicks replaces the one-second ticker.
func WithTicks(ticks <-chan time.Time) RunnerOption {
	return func(r *Runner) { r.ticks = ticks }
}

// WithReporters adds settlement reporters. They run in order.
func WithReporters(reps ...Reporter) RunnerOption {
	return func(r *Runner) { r.reporters = append(r.reporters, reps...) }
}

// WithObserver is called from the runner goroutine for every action or
// tick that changed something.
func WithObserver(fn func(id string, sig Signal)) RunnerOption {
	return func(r *Runner) { r.observer = fn }
}

// WithLogger sets the process logger.
func WithLogger(log *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithReportTimeout bounds the settlement delivery.
func WithReportTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.reportTimeout = d }
}

type request struct {
	fn   func(*Session)
	done chan struct{}
}

// Runner owns a Session on a single goroutine. Timer ticks and player
// requests are served from one select, so they never interleave.
type Runner struct {
	s             *Session
	ticks         <-chan time.Time
	reporters     []Reporter
	observer      func(string, Signal)
	log           *zap.Logger
	reportTimeout time.Duration

	reqs      chan request
	abort     chan struct{}
	abortOnce sync.Once
	done      chan struct{}

	// Written by the loop before done is closed.
	final     View
	finalSett Settlement
	settled   bool
}

// Run starts serving s. Cancelling ctx aborts the session.
func Run(ctx context.Context, s *Session, opts ...RunnerOption) *Runner {
	r := &Runner{
		s:             s,
		log:           zap.NewNop(),
		reportTimeout: defaultReportTimeout,
		reqs:          make(chan request),
		abort:         make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.loop(ctx)
	return r
}

// ID returns the session ID.
func (r *Runner) ID() string { return r.s.ID() }

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	ticks := r.ticks
	if ticks == nil {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		ticks = t.C
	}

	r.s.emit("info", "timer.started", map[string]interface{}{"time_left": r.s.TimeLeft()})

	for !r.s.State().Terminal() {
		select {
		case <-ctx.Done():
			r.s.Abort()
		case <-r.abort:
			r.s.Abort()
		case <-ticks:
			r.observe(r.s.Tick())
		case req := <-r.reqs:
			req.fn(r.s)
			close(req.done)
		}
	}

	r.final = r.s.View()
	if sett, ok := r.s.Settlement(); ok {
		r.finalSett, r.settled = sett, true
		r.report(ctx, sett)
	}
}

func (r *Runner) observe(sig Signal) {
	if r.observer == nil {
		return
	}
	if sig.Outcome != puzzle.Ignored || sig.Terminal {
		r.observer(r.s.ID(), sig)
	}
}

func (r *Runner) report(ctx context.Context, sett Settlement) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.reportTimeout)
	defer cancel()

	for _, rep := range r.reporters {
		if err := rep.Report(ctx, sett); err != nil {
			r.log.Warn("settlement report failed", zap.String("session_id", sett.SessionID), zap.Error(err))
			r.s.emit("error", "settlement.failed", map[string]interface{}{"error": err.Error()})
			continue
		}
		r.s.emit("info", "settlement.reported", map[string]interface{}{"won": sett.Won})
	}
}

// call runs fn on the runner goroutine.
func (r *Runner) call(ctx context.Context, fn func(*Session)) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case r.reqs <- req:
	case <-r.done:
		return ErrRunnerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-req.done
	return nil
}

// Do applies an action and returns its signal with the HUD after it.
func (r *Runner) Do(ctx context.Context, index int, a puzzle.Action) (Signal, View, error) {
	var (
		sig  Signal
		view View
	)
	err := r.call(ctx, func(s *Session) {
		sig = s.Apply(index, a)
		view = s.View()
		r.observe(sig)
	})
	if errors.Is(err, ErrRunnerClosed) {
		return Signal{Module: index, State: r.final.State, Terminal: true}, r.final, ErrNotActive
	}
	return sig, view, err
}

// View returns the HUD. After the session ends the final HUD is returned.
func (r *Runner) View(ctx context.Context) (View, error) {
	var view View
	err := r.call(ctx, func(s *Session) { view = s.View() })
	if errors.Is(err, ErrRunnerClosed) {
		return r.final, nil
	}
	return view, err
}

// Abort stops the timer and discards the session without a settlement.
func (r *Runner) Abort() {
	r.abortOnce.Do(func() { close(r.abort) })
}

// Done is closed once the session is over and its settlement delivered.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Result returns the final state and settlement. It is only meaningful
// after Done is closed.
func (r *Runner) Result() (State, Settlement, bool) {
	<-r.done
	return r.final.State, r.finalSett, r.settled
}
