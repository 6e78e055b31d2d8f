// Package session runs one defusal attempt: it holds the modules, the
// timer and the strike budget, and decides when the bomb is defused or
// goes off.
package session

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/AaronLay10/DefusalEngine/internal/events"
	"github.com/AaronLay10/DefusalEngine/internal/level"
	"github.com/AaronLay10/DefusalEngine/internal/puzzle"
)

const (
	DefaultMaxStrikes    = 3
	DefaultStrikePenalty = 30
)

var (
	ErrNotActive    = errors.New("session is not active")
	ErrRunnerClosed = errors.New("session runner closed")
)

// State is the lifecycle state of a session.
type State int

const (
	Active State = iota
	Won
	Lost
	Aborted
)

var stateNames = [...]string{"active", "won", "lost", "aborted"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown session state: %q", b)
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool { return s != Active }

// Signal describes what one action or tick did.
type Signal struct {
	Module         int            `json:"module"`
	Outcome        puzzle.Outcome `json:"outcome"`
	StrikeOccurred bool           `json:"strike"`
	ModuleSolved   bool           `json:"module_solved"`
	Terminal       bool           `json:"terminal"`
	State          State          `json:"state"`
}

// Settlement is reported outward once a session is won or lost.
type Settlement struct {
	SessionID string       `json:"session_id"`
	Won       bool         `json:"won"`
	Level     int          `json:"level"`
	Pack      level.PackID `json:"pack"`
	TimeLeft  int          `json:"time_left"`
	TotalTime int          `json:"total_time"`
	Strikes   int          `json:"strikes"`
}

// Session is the state of one attempt. It is not safe for concurrent use;
// Runner serializes access.
type Session struct {
	id      string
	plan    level.Plan
	ctx     puzzle.Context
	modules []puzzle.Module
	rng     *rand.Rand

	strikes    int
	maxStrikes int
	penalty    int
	timeLeft   int
	totalTime  int
	state      State
}

// Option configures a Session.
type Option func(*config)

type config struct {
	id         string
	maxStrikes int
	penalty    int
	ctx        *puzzle.Context
	kinds      []puzzle.Kind
	modules    []puzzle.Module
}

// WithID sets the session ID. The default is a random UUID.
func WithID(id string) Option {
	return func(c *config) { c.id = id }
}

// WithMaxStrikes sets the strike budget.
func WithMaxStrikes(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxStrikes = n
		}
	}
}

// WithStrikePenalty sets the seconds removed from the timer per strike.
// Values below one keep the default.
func WithStrikePenalty(seconds int) Option {
	return func(c *config) {
		if seconds > 0 {
			c.penalty = seconds
		}
	}
}

// WithContext fixes the casing flags instead of drawing them.
func WithContext(ctx puzzle.Context) Option {
	return func(c *config) { c.ctx = &ctx }
}

// WithKinds fixes the module kinds instead of drawing them from the plan.
func WithKinds(kinds ...puzzle.Kind) Option {
	return func(c *config) { c.kinds = kinds }
}

// WithModules installs prebuilt modules; the plan's module count is
// ignored.
func WithModules(modules ...puzzle.Module) Option {
	return func(c *config) { c.modules = modules }
}

// Start configures level in pack and creates a session for it.
func Start(lvl int, pack level.PackID, rng *rand.Rand, opts ...Option) (*Session, error) {
	plan, err := level.Configure(lvl, pack)
	if err != nil {
		return nil, err
	}
	return New(plan, rng, opts...), nil
}

// New creates an active session for plan. The casing flags are drawn
// before the modules so a seed reproduces the whole bomb.
func New(plan level.Plan, rng *rand.Rand, opts ...Option) *Session {
	cfg := config{maxStrikes: DefaultMaxStrikes, penalty: DefaultStrikePenalty}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	ctx := puzzle.NewContext(rng, plan.Level)
	if cfg.ctx != nil {
		ctx = *cfg.ctx
		ctx.Level = plan.Level
	}

	modules := cfg.modules
	if modules == nil {
		kinds := cfg.kinds
		if kinds == nil {
			kinds = plan.Draw(rng)
		}
		modules = make([]puzzle.Module, len(kinds))
		for i, k := range kinds {
			modules[i] = generate(k, ctx, rng)
		}
	}
	modules = append([]puzzle.Module(nil), modules...)

	s := &Session{
		id:         cfg.id,
		plan:       plan,
		ctx:        ctx,
		modules:    modules,
		rng:        rng,
		maxStrikes: cfg.maxStrikes,
		penalty:    cfg.penalty,
		timeLeft:   plan.TimeBudget,
		totalTime:  plan.TimeBudget,
	}

	for i, m := range modules {
		s.emit("info", "module.generated", map[string]interface{}{
			"module": i,
			"kind":   m.Kind().String(),
		})
	}
	s.emit("info", "session.started", map[string]interface{}{
		"level":      plan.Level,
		"pack":       string(plan.Pack),
		"modules":    len(modules),
		"time_limit": plan.TimeBudget,
	})
	return s
}

// generate draws a module, redrawing complex wires until at least one wire
// has to be cut under ctx.
func generate(kind puzzle.Kind, ctx puzzle.Context, rng *rand.Rand) puzzle.Module {
	m := puzzle.Generate(kind, rng)
	if kind != puzzle.KindComplexWires {
		return m
	}
	for i := 0; i < 64; i++ {
		if m.Payload.(puzzle.ComplexWires).NeedsCut(ctx) {
			return m
		}
		m = puzzle.Generate(kind, rng)
	}
	cw := m.Payload.(puzzle.ComplexWires)
	cw.Wires[0] = puzzle.ComplexWire{}
	m.Payload = cw
	return m
}

func (s *Session) ID() string              { return s.id }
func (s *Session) Plan() level.Plan        { return s.plan }
func (s *Session) Context() puzzle.Context { return s.ctx }
func (s *Session) State() State            { return s.state }
func (s *Session) Strikes() int            { return s.strikes }
func (s *Session) MaxStrikes() int         { return s.maxStrikes }
func (s *Session) TimeLeft() int           { return s.timeLeft }
func (s *Session) TotalTime() int          { return s.totalTime }

// Modules returns a copy of the module list.
func (s *Session) Modules() []puzzle.Module {
	return append([]puzzle.Module(nil), s.modules...)
}

// Apply routes an action to module index. Actions on a finished session or
// a missing module are ignored.
func (s *Session) Apply(index int, a puzzle.Action) Signal {
	sig := Signal{Module: index, Outcome: puzzle.Ignored}
	if s.state != Active || index < 0 || index >= len(s.modules) {
		return s.finishSignal(sig)
	}

	next, out := puzzle.Apply(s.modules[index], a, puzzle.Env{
		Context:  s.ctx,
		TimeLeft: s.timeLeft,
		Rand:     s.rng,
	})
	sig.Outcome = out
	if out == puzzle.Ignored {
		return s.finishSignal(sig)
	}
	s.modules[index] = next

	fields := map[string]interface{}{
		"module": index,
		"kind":   next.Kind().String(),
		"action": a.Name(),
	}

	switch out {
	case puzzle.Progressed:
		s.emit("info", "module.progressed", fields)
	case puzzle.Solved:
		sig.ModuleSolved = true
		s.emit("info", "module.solved", fields)
	}

	// Completion is checked before the strike budget or the clock.
	if s.allSolved() {
		s.end(Won, "all modules solved")
		return s.finishSignal(sig)
	}

	if out == puzzle.Strike {
		sig.StrikeOccurred = true
		s.strikes++
		fields["strikes"] = s.strikes
		s.emit("warn", "module.strike", fields)

		if s.strikes >= s.maxStrikes {
			s.end(Lost, "strikes exhausted")
			return s.finishSignal(sig)
		}
		s.timeLeft = max(0, s.timeLeft-s.penalty)
		if s.timeLeft == 0 {
			s.end(Lost, "strike penalty emptied the timer")
		}
	}
	return s.finishSignal(sig)
}

// Tick advances the timer by one second.
func (s *Session) Tick() Signal {
	sig := Signal{Module: -1, Outcome: puzzle.Ignored}
	if s.state != Active {
		return s.finishSignal(sig)
	}
	s.timeLeft--
	if s.timeLeft <= 0 {
		s.timeLeft = 0
		s.emit("warn", "timer.expired", nil)
		s.end(Lost, "time expired")
	}
	return s.finishSignal(sig)
}

// Abort discards an active session. Aborted sessions produce no
// settlement.
func (s *Session) Abort() bool {
	if s.state != Active {
		return false
	}
	s.state = Aborted
	s.emit("info", "session.aborted", map[string]interface{}{"time_left": s.timeLeft})
	return true
}

// Settlement returns the result of a won or lost session.
func (s *Session) Settlement() (Settlement, bool) {
	if s.state != Won && s.state != Lost {
		return Settlement{}, false
	}
	return Settlement{
		SessionID: s.id,
		Won:       s.state == Won,
		Level:     s.plan.Level,
		Pack:      s.plan.Pack,
		TimeLeft:  s.timeLeft,
		TotalTime: s.totalTime,
		Strikes:   s.strikes,
	}, true
}

func (s *Session) allSolved() bool {
	for _, m := range s.modules {
		if !m.Solved {
			return false
		}
	}
	return true
}

func (s *Session) end(state State, reason string) {
	s.state = state
	name := "session.lost"
	if state == Won {
		name = "session.won"
	}
	s.emit("info", name, map[string]interface{}{
		"reason":    reason,
		"strikes":   s.strikes,
		"time_left": s.timeLeft,
	})
}

func (s *Session) finishSignal(sig Signal) Signal {
	sig.State = s.state
	sig.Terminal = s.state.Terminal()
	return sig
}

func (s *Session) emit(level, name string, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["session_id"] = s.id
	_, _ = events.Emit(level, name, "", fields)
}
