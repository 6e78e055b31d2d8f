package puzzle

import (
	"fmt"
	"math/rand/v2"
)

// Outcome is the verdict a validator returns for one action.
type Outcome int

const (
	// Ignored marks an action that cannot apply to the module in its
	// current state. The module is returned unchanged and no strike is due.
	Ignored Outcome = iota
	Progressed
	Solved
	Strike
)

var outcomeNames = [...]string{"ignored", "progressed", "solved", "strike"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	for i, name := range outcomeNames {
		if name == string(b) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome: %q", b)
}

// Payload is the variant-specific state of a module. The set of
// implementations is closed to this package.
type Payload interface {
	Kind() Kind
	payload()
}

// Module is one puzzle slot of a session.
type Module struct {
	Payload Payload
	Solved  bool
}

// Kind returns the variant of the module payload.
func (m Module) Kind() Kind {
	return m.Payload.Kind()
}

// Env is everything outside the payload a validator may consult.
type Env struct {
	Context  Context
	TimeLeft int
	// Rand feeds validators that regenerate their payload. Nil falls back
	// to an entropy-seeded source.
	Rand *rand.Rand
}

func (e Env) rng() *rand.Rand {
	if e.Rand != nil {
		return e.Rand
	}
	return RandomRand()
}

// Generate creates a fresh unsolved module of the given kind.
func Generate(kind Kind, rng *rand.Rand) Module {
	var p Payload
	switch kind {
	case KindWires:
		p = GenerateWires(rng)
	case KindWords:
		p = GenerateWords(rng)
	case KindKeypad:
		p = GenerateKeypad(rng)
	case KindButton:
		p = GenerateButton(rng)
	case KindSimon:
		p = GenerateSimon(rng)
	case KindMorse:
		p = GenerateMorse(rng)
	case KindPassword:
		p = GeneratePassword(rng)
	case KindMaze:
		p = GenerateMaze(rng)
	case KindComplexWires:
		p = GenerateComplexWires(rng)
	case KindVenting:
		p = GenerateVenting(rng)
	case KindKnob:
		p = GenerateKnob(rng)
	default:
		panic(fmt.Sprintf("puzzle: no generator for %v", kind))
	}
	return Module{Payload: p}
}

// Apply validates a against the module and returns the next module value.
// The input module is never modified. Solved modules, nil payloads and
// actions that do not belong to the module's kind yield Ignored.
func Apply(m Module, a Action, env Env) (Module, Outcome) {
	if m.Solved || m.Payload == nil || a == nil {
		return m, Ignored
	}

	var (
		next Payload
		out  Outcome
	)

	switch p := m.Payload.(type) {
	case Wires:
		act, ok := a.(CutWire)
		if !ok {
			return m, Ignored
		}
		next, out = p.Cut(act.Index, env.Context)

	case Words:
		act, ok := a.(PressLabel)
		if !ok {
			return m, Ignored
		}
		next, out = p.Press(act.Label, env.rng())

	case Keypad:
		act, ok := a.(PressSymbol)
		if !ok {
			return m, Ignored
		}
		next, out = p.Press(act.Symbol)

	case Button:
		switch a.(type) {
		case TapButton:
			next, out = p.Tap(env.Context)
		case HoldButton:
			next, out = p.Hold()
		case ReleaseButton:
			next, out = p.Release(env.Context, env.TimeLeft)
		default:
			return m, Ignored
		}

	case Simon:
		act, ok := a.(PressColor)
		if !ok {
			return m, Ignored
		}
		next, out = p.Press(act.Color)

	case Morse:
		switch act := a.(type) {
		case TuneFrequency:
			next, out = p.Tune(act.Delta)
		case SubmitFrequency:
			freq := act.Frequency
			if act.UseCurrent {
				freq = p.Current
			}
			next, out = p.Submit(freq)
		default:
			return m, Ignored
		}

	case Password:
		switch act := a.(type) {
		case CyclePassword:
			next, out = p.Cycle(act.Column, act.Delta)
		case SubmitPassword:
			next, out = p.Submit()
		default:
			return m, Ignored
		}

	case Maze:
		act, ok := a.(MoveMaze)
		if !ok {
			return m, Ignored
		}
		next, out = p.Move(act.Direction)

	case ComplexWires:
		act, ok := a.(CutComplexWire)
		if !ok {
			return m, Ignored
		}
		next, out = p.Cut(act.Index, env.Context)

	case Venting:
		act, ok := a.(AnswerVenting)
		if !ok {
			return m, Ignored
		}
		next, out = p.Reply(act.Answer)

	case Knob:
		act, ok := a.(RotateKnob)
		if !ok {
			return m, Ignored
		}
		next, out = p.Rotate(act.Position)

	default:
		return m, Ignored
	}

	if out == Ignored {
		return m, Ignored
	}
	m.Payload = next
	if out == Solved {
		m.Solved = true
	}
	return m, out
}
