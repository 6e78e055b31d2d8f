package puzzle

import (
	"math/rand/v2"
	"slices"
)

// symbolColumns lists the manual's columns; each column is its own
// correct press order.
var symbolColumns = [][]string{
	{"Ϙ", "Ω", "★", "Ϟ"},
	{"Ψ", "¶", "Ͼ", "Ӭ"},
	{"©", "★", "¿", "Ω"},
}

// Keypad is four symbols that must be pressed in column order.
type Keypad struct {
	Symbols []string `json:"symbols"`
	Order   []string `json:"-"`
	Pressed []string `json:"pressed"`
}

func (Keypad) Kind() Kind { return KindKeypad }
func (Keypad) payload()   {}

// GenerateKeypad picks a column and displays its symbols shuffled.
func GenerateKeypad(rng *rand.Rand) Keypad {
	column := pick(rng, symbolColumns)
	return Keypad{
		Symbols: shuffled(rng, column),
		Order:   slices.Clone(column),
		Pressed: []string{},
	}
}

// Press presses a symbol. The expected symbol extends the sequence; any
// other key clears it and costs a strike.
func (k Keypad) Press(symbol string) (Keypad, Outcome) {
	if !slices.Contains(k.Symbols, symbol) || len(k.Pressed) >= len(k.Order) {
		return k, Ignored
	}
	next := Keypad{Symbols: k.Symbols, Order: k.Order}
	if symbol != k.Order[len(k.Pressed)] {
		next.Pressed = []string{}
		return next, Strike
	}
	next.Pressed = append(slices.Clone(k.Pressed), symbol)
	if len(next.Pressed) == len(k.Order) {
		return next, Solved
	}
	return next, Progressed
}
