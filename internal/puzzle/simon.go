package puzzle

import (
	"math/rand/v2"
	"slices"
)

// SimonColor is one of the four Simon pads.
type SimonColor string

const (
	SimonRed    SimonColor = "R"
	SimonGreen  SimonColor = "G"
	SimonBlue   SimonColor = "B"
	SimonYellow SimonColor = "Y"
)

var simonColors = []SimonColor{SimonRed, SimonGreen, SimonBlue, SimonYellow}

// SimonLength is the number of rounds in a Simon module.
const SimonLength = 5

// Simon flashes a growing prefix of Sequence. Stage counts the prefixes
// already reproduced; the player must enter Stage+1 colors to advance.
type Simon struct {
	Sequence []SimonColor `json:"-"`
	Input    []SimonColor `json:"input"`
	Stage    int          `json:"stage"`
}

func (Simon) Kind() Kind { return KindSimon }
func (Simon) payload()   {}

// GenerateSimon draws SimonLength independent colors.
func GenerateSimon(rng *rand.Rand) Simon {
	seq := make([]SimonColor, SimonLength)
	for i := range seq {
		seq[i] = pick(rng, simonColors)
	}
	return Simon{Sequence: seq, Input: []SimonColor{}}
}

// Flashing returns the prefix the module currently plays back.
func (s Simon) Flashing() []SimonColor {
	end := min(s.Stage+1, len(s.Sequence))
	return slices.Clone(s.Sequence[:end])
}

// Press presses one pad.
func (s Simon) Press(c SimonColor) (Simon, Outcome) {
	if !slices.Contains(simonColors, c) || len(s.Input) >= len(s.Sequence) {
		return s, Ignored
	}
	next := Simon{Sequence: s.Sequence, Stage: s.Stage}

	if c != s.Sequence[len(s.Input)] {
		next.Input = []SimonColor{}
		return next, Strike
	}

	input := append(slices.Clone(s.Input), c)
	if len(input) < s.Stage+1 {
		next.Input = input
		return next, Progressed
	}
	if s.Stage+1 == len(s.Sequence) {
		next.Input = input
		return next, Solved
	}
	next.Stage++
	next.Input = []SimonColor{}
	return next, Progressed
}
