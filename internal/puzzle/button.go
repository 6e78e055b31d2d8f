package puzzle

import "math/rand/v2"

// ButtonColor is the cap or strip color of the Button module.
type ButtonColor string

const (
	ButtonRed    ButtonColor = "red"
	ButtonBlue   ButtonColor = "blue"
	ButtonYellow ButtonColor = "yellow"
	ButtonWhite  ButtonColor = "white"
)

// LabelDetonate is the one label that can make the button a tap.
const LabelDetonate = "PATLAT"

var (
	buttonColors = []ButtonColor{ButtonRed, ButtonBlue, ButtonYellow, ButtonWhite}
	buttonTexts  = []string{LabelDetonate, "BEKLE", "BASILI TUT", "İPTAL"}
	stripColors  = []ButtonColor{ButtonBlue, ButtonWhite, ButtonYellow, ButtonRed}
)

// Button is the big button. Depending on its color, label and the bomb
// context it must either be tapped or held and released on a timer digit
// chosen by the strip color.
type Button struct {
	Color ButtonColor `json:"color"`
	Label string      `json:"label"`
	Strip ButtonColor `json:"strip"`
	Held  bool        `json:"held"`
}

func (Button) Kind() Kind { return KindButton }
func (Button) payload()   {}

// GenerateButton draws color, label and strip independently.
func GenerateButton(rng *rand.Rand) Button {
	return Button{
		Color: pick(rng, buttonColors),
		Label: pick(rng, buttonTexts),
		Strip: pick(rng, stripColors),
	}
}

// ShouldTap reports whether the button must be tapped rather than held.
func (b Button) ShouldTap(ctx Context) bool {
	return b.Label == LabelDetonate && (b.Color == ButtonRed || ctx.HasBatteries)
}

// ReleaseDigit is the timer digit a held button must be released on.
func (b Button) ReleaseDigit() int {
	switch b.Strip {
	case ButtonBlue:
		return 4
	case ButtonYellow:
		return 5
	default:
		return 1
	}
}

// Tap is a press with an immediate release.
func (b Button) Tap(ctx Context) (Button, Outcome) {
	if b.Held {
		return b, Ignored
	}
	if b.ShouldTap(ctx) {
		return b, Solved
	}
	return b, Strike
}

// Hold presses the button down and lights the strip.
func (b Button) Hold() (Button, Outcome) {
	if b.Held {
		return b, Ignored
	}
	b.Held = true
	return b, Progressed
}

// Release lets go of a held button while the timer shows timeLeft seconds.
func (b Button) Release(ctx Context, timeLeft int) (Button, Outcome) {
	if !b.Held {
		return b, Ignored
	}
	b.Held = false
	if b.ShouldTap(ctx) {
		return b, Strike
	}
	if timeLeft%10 == b.ReleaseDigit() {
		return b, Solved
	}
	return b, Strike
}
