package puzzle

import (
	"math"
	"math/rand/v2"
)

// Dial limits and resolution of the Morse transmitter, in MHz.
const (
	MorseMinFrequency = 3.500
	MorseMaxFrequency = 3.600
	MorseStep         = 0.005
)

// morseResolution is the transmitter's reading resolution in micro-MHz.
const morseResolution = 1000

var morseWords = []struct {
	word string
	freq float64
}{
	{"SHELL", 3.505}, {"HALLS", 3.515}, {"SLICK", 3.522}, {"TRICK", 3.532},
	{"BOXES", 3.535}, {"LEAKS", 3.542}, {"STROBE", 3.545}, {"BISTRO", 3.552},
	{"FLICK", 3.555}, {"BOMBS", 3.565}, {"BREAK", 3.572}, {"BRICK", 3.575},
	{"STEAK", 3.582}, {"STING", 3.592}, {"VECTOR", 3.595}, {"BEATS", 3.600},
}

// Morse blinks Word; the defuser must transmit on Target.
type Morse struct {
	Word    string  `json:"word"`
	Target  float64 `json:"-"`
	Current float64 `json:"current"`
}

func (Morse) Kind() Kind { return KindMorse }
func (Morse) payload()   {}

// GenerateMorse picks a word. The dial starts on the word's own frequency.
func GenerateMorse(rng *rand.Rand) Morse {
	w := pick(rng, morseWords)
	return Morse{Word: w.word, Target: w.freq, Current: w.freq}
}

// MorseFrequency returns the manual frequency for word.
func MorseFrequency(word string) (float64, bool) {
	for _, w := range morseWords {
		if w.word == word {
			return w.freq, true
		}
	}
	return 0, false
}

// Tune moves the dial. Values are kept to three decimals; moves that leave
// the band are ignored.
func (m Morse) Tune(delta float64) (Morse, Outcome) {
	if delta == 0 {
		return m, Ignored
	}
	f := math.Round((m.Current+delta)*1000) / 1000
	if micro(f) < micro(MorseMinFrequency) || micro(f) > micro(MorseMaxFrequency) {
		return m, Ignored
	}
	m.Current = f
	return m, Progressed
}

// Submit transmits on freq. The transmitter reads the value on its 0.001
// MHz scale, dropping further digits, so 3.5459 reads as 3.545 and 3.5449
// as 3.544.
func (m Morse) Submit(freq float64) (Morse, Outcome) {
	if dial(freq) == dial(m.Target) {
		return m, Solved
	}
	return m, Strike
}

func dial(f float64) int64 {
	u := micro(f)
	d := u / morseResolution
	if u < 0 && u%morseResolution != 0 {
		d--
	}
	return d
}

func micro(f float64) int64 {
	return int64(math.Round(f * 1e6))
}
