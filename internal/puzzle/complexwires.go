package puzzle

import "math/rand/v2"

// ComplexWireCount is the number of wires on a ComplexWires module.
const ComplexWireCount = 6

// ComplexWire is one striped wire with its star and LED.
type ComplexWire struct {
	Red   bool `json:"red"`
	Blue  bool `json:"blue"`
	White bool `json:"white"`
	Star  bool `json:"star"`
	LED   bool `json:"led"`
	Cut   bool `json:"cut"`
}

// ComplexWires is solved once exactly the wires that should be cut are cut.
type ComplexWires struct {
	Wires []ComplexWire `json:"wires"`
}

func (ComplexWires) Kind() Kind { return KindComplexWires }
func (ComplexWires) payload()   {}

// GenerateComplexWires draws six wires. White is never set.
func GenerateComplexWires(rng *rand.Rand) ComplexWires {
	wires := make([]ComplexWire, ComplexWireCount)
	for i := range wires {
		wires[i] = ComplexWire{
			Red:  chance(rng, 0.6),
			Blue: chance(rng, 0.6),
			Star: chance(rng, 0.5),
			LED:  chance(rng, 0.5),
		}
	}
	return ComplexWires{Wires: wires}
}

// ShouldCutComplexWire evaluates the manual's Venn table for one wire.
func ShouldCutComplexWire(w ComplexWire, ctx Context) bool {
	switch {
	case !w.Red && !w.Blue:
		switch {
		case w.Star && w.LED:
			return ctx.HasBatteries
		case w.Star:
			return true
		case w.LED:
			return false
		default:
			return true
		}
	case w.Red && !w.Blue:
		switch {
		case w.Star && w.LED:
			return ctx.HasBatteries
		case w.Star:
			return true
		case w.LED:
			return ctx.HasBatteries
		default:
			return ctx.SerialOdd
		}
	case !w.Red && w.Blue:
		switch {
		case w.Star && w.LED:
			return ctx.HasParallelPort
		case w.Star:
			return false
		case w.LED:
			return ctx.HasParallelPort
		default:
			return ctx.SerialOdd
		}
	default:
		switch {
		case w.Star && w.LED:
			return false
		case w.Star:
			return ctx.HasParallelPort
		default:
			return ctx.SerialOdd
		}
	}
}

// NeedsCut reports whether at least one wire must be cut under ctx. A
// module without one would be solved before any input.
func (c ComplexWires) NeedsCut(ctx Context) bool {
	for _, w := range c.Wires {
		if ShouldCutComplexWire(w, ctx) {
			return true
		}
	}
	return false
}

// Cut cuts wire idx. A wrong cut strikes and leaves the wire intact.
func (c ComplexWires) Cut(idx int, ctx Context) (ComplexWires, Outcome) {
	if idx < 0 || idx >= len(c.Wires) || c.Wires[idx].Cut {
		return c, Ignored
	}
	if !ShouldCutComplexWire(c.Wires[idx], ctx) {
		return c, Strike
	}

	wires := append([]ComplexWire(nil), c.Wires...)
	wires[idx].Cut = true
	next := ComplexWires{Wires: wires}
	if next.done(ctx) {
		return next, Solved
	}
	return next, Progressed
}

func (c ComplexWires) done(ctx Context) bool {
	for _, w := range c.Wires {
		if w.Cut != ShouldCutComplexWire(w, ctx) {
			return false
		}
	}
	return true
}
