package puzzle

import (
	"math/rand/v2"
	"strings"
)

// Venting answers.
const (
	AnswerYes = "EVET"
	AnswerNo  = "HAYIR"
)

var ventingPrompts = []struct {
	question string
	answer   string
}{
	{"HAVALANDIR?", AnswerYes},
	{"PATLAT?", AnswerNo},
	{"BOŞALT?", AnswerYes},
	{"KİLİTLE?", AnswerNo},
	{"BASINÇ?", AnswerYes},
	{"AKIM?", AnswerNo},
	{"SICAKLIK?", AnswerNo},
	{"VANAYI AÇ?", AnswerYes},
}

// Venting asks a single yes/no question.
type Venting struct {
	Question string `json:"question"`
	Answer   string `json:"-"`
}

func (Venting) Kind() Kind { return KindVenting }
func (Venting) payload()   {}

// GenerateVenting picks one of the fixed prompts.
func GenerateVenting(rng *rand.Rand) Venting {
	p := pick(rng, ventingPrompts)
	return Venting{Question: p.question, Answer: p.answer}
}

// Reply answers the prompt. Anything but yes or no is ignored.
func (v Venting) Reply(ans string) (Venting, Outcome) {
	ans = strings.ToUpper(strings.TrimSpace(ans))
	if ans != AnswerYes && ans != AnswerNo {
		return v, Ignored
	}
	if ans == v.Answer {
		return v, Solved
	}
	return v, Strike
}
