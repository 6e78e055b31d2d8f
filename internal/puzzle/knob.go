package puzzle

import "math/rand/v2"

// KnobLEDs is the number of indicator LEDs around the knob.
const KnobLEDs = 12

// Knob must be turned to the position given by how many LEDs are lit.
type Knob struct {
	LEDs    []bool    `json:"leds"`
	Target  Direction `json:"-"`
	Current Direction `json:"current"`
}

func (Knob) Kind() Kind { return KindKnob }
func (Knob) payload()   {}

// GenerateKnob lights each LED with a fair coin.
func GenerateKnob(rng *rand.Rand) Knob {
	leds := make([]bool, KnobLEDs)
	for i := range leds {
		leds[i] = chance(rng, 0.5)
	}
	return NewKnob(leds)
}

// NewKnob builds a knob for a fixed LED pattern. The knob starts UP.
func NewKnob(leds []bool) Knob {
	lit := 0
	for _, on := range leds {
		if on {
			lit++
		}
	}
	return Knob{
		LEDs:    append([]bool(nil), leds...),
		Target:  KnobTarget(lit),
		Current: Up,
	}
}

// KnobTarget maps a lit-LED count to the correct position.
func KnobTarget(lit int) Direction {
	switch {
	case lit <= 7:
		return Up
	case lit <= 9:
		return Right
	case lit == 10:
		return Down
	default:
		return Left
	}
}

// Rotate turns the knob to pos. A wrong position strikes and the knob
// does not move.
func (k Knob) Rotate(pos Direction) (Knob, Outcome) {
	if _, ok := pos.offset(); !ok {
		return k, Ignored
	}
	if pos != k.Target {
		return k, Strike
	}
	k.Current = pos
	return k, Solved
}
