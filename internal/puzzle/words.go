package puzzle

import (
	"math/rand/v2"
	"slices"
)

// wordRules maps each displayed word to the only button that may be pressed.
var wordRules = []struct {
	display string
	label   string
}{
	{"BOŞ", "GİT"},
	{"BOMBA", "BEKLE"},
	{"BAS", "DUR"},
	{"YOK", "EVET"},
	{"HAZIR", "ORTA"},
}

var buttonLabels = []string{"GİT", "BEKLE", "DUR", "EVET", "ORTA", "HAYIR", "BAS", "SOL", "SAĞ"}

// Words shows a word and four labelled buttons.
type Words struct {
	Display string   `json:"display"`
	Buttons []string `json:"buttons"`
	Correct string   `json:"-"`
}

func (Words) Kind() Kind { return KindWords }
func (Words) payload()   {}

// GenerateWords picks a display word, three distinct distractor labels and
// shuffles the four buttons.
func GenerateWords(rng *rand.Rand) Words {
	rule := pick(rng, wordRules)

	others := make([]string, 0, len(buttonLabels)-1)
	for _, l := range buttonLabels {
		if l != rule.label {
			others = append(others, l)
		}
	}
	buttons := append(shuffled(rng, others)[:3], rule.label)

	return Words{
		Display: rule.display,
		Buttons: shuffled(rng, buttons),
		Correct: rule.label,
	}
}

// Press taps the button carrying label. A wrong tap swaps in a whole new
// puzzle drawn from rng.
func (w Words) Press(label string, rng *rand.Rand) (Words, Outcome) {
	if !slices.Contains(w.Buttons, label) {
		return w, Ignored
	}
	if label == w.Correct {
		return w, Solved
	}
	return GenerateWords(rng), Strike
}
