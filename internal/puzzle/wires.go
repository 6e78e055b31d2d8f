package puzzle

import "math/rand/v2"

// WireColor is the insulation color of a plain wire.
type WireColor string

const (
	WireRed    WireColor = "red"
	WireBlue   WireColor = "blue"
	WireYellow WireColor = "yellow"
	WireWhite  WireColor = "white"
	WireBlack  WireColor = "black"
)

var wireColors = []WireColor{WireRed, WireBlue, WireYellow, WireWhite, WireBlack}

// Wire is one strand of a Wires module.
type Wire struct {
	Color WireColor `json:"color"`
	Cut   bool      `json:"cut"`
}

// Wires is the plain wire module. Exactly one wire, derived from the colors
// and the serial parity, may be cut.
type Wires struct {
	Wires []Wire `json:"wires"`
}

func (Wires) Kind() Kind { return KindWires }
func (Wires) payload()   {}

// GenerateWires lays out five wires, six with probability one half.
func GenerateWires(rng *rand.Rand) Wires {
	n := 5
	if chance(rng, 0.5) {
		n++
	}
	w := Wires{Wires: make([]Wire, n)}
	for i := range w.Wires {
		w.Wires[i].Color = pick(rng, wireColors)
	}
	return w
}

// Colors returns the wire colors in order.
func (w Wires) Colors() []WireColor {
	colors := make([]WireColor, len(w.Wires))
	for i, wire := range w.Wires {
		colors[i] = wire.Color
	}
	return colors
}

// Cut cuts wire i. Cutting the wire chosen by CorrectWireToCut solves the
// module; any other fresh wire is cut anyway and costs a strike.
func (w Wires) Cut(i int, ctx Context) (Wires, Outcome) {
	if i < 0 || i >= len(w.Wires) || w.Wires[i].Cut {
		return w, Ignored
	}
	correct := CorrectWireToCut(w.Colors(), ctx.SerialOdd)

	next := Wires{Wires: append([]Wire(nil), w.Wires...)}
	next.Wires[i].Cut = true
	if i == correct {
		return next, Solved
	}
	return next, Strike
}

// CorrectWireToCut returns the zero-based index of the wire the manual
// says to cut. Counts above five use the six-wire table.
func CorrectWireToCut(colors []WireColor, serialOdd bool) int {
	n := len(colors)
	if n == 0 {
		return -1
	}
	count := func(c WireColor) int {
		total := 0
		for _, x := range colors {
			if x == c {
				total++
			}
		}
		return total
	}
	lastOf := func(c WireColor) int {
		for i := n - 1; i >= 0; i-- {
			if colors[i] == c {
				return i
			}
		}
		return -1
	}
	red, blue, yellow := count(WireRed), count(WireBlue), count(WireYellow)
	last := colors[n-1]

	switch n {
	case 3:
		switch {
		case red == 0:
			return 1
		case last == WireWhite:
			return n - 1
		case blue > 1:
			return lastOf(WireBlue)
		default:
			return n - 1
		}
	case 4:
		switch {
		case red > 1 && serialOdd:
			return lastOf(WireRed)
		case last == WireYellow && red == 0:
			return 0
		case blue == 1:
			return 0
		case yellow > 1:
			return n - 1
		default:
			return 1
		}
	case 5:
		switch {
		case last == WireBlack && serialOdd:
			return 3
		case red == 1 && yellow > 1:
			return 0
		case count(WireBlack) == 0:
			return 1
		default:
			return 0
		}
	default:
		switch {
		case red == 0:
			return n - 1
		case yellow == 1 && count(WireWhite) > 1:
			return 3
		default:
			return 0
		}
	}
}
