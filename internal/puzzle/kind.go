// Package puzzle implements the defusal modules: their payloads, the
// generators that create them and the rule tables that validate player
// actions against a session context.
package puzzle

import (
	"fmt"
	"strings"
)

// Kind identifies a module variant.
type Kind int

const (
	KindWires Kind = iota
	KindWords
	KindKeypad
	KindButton
	KindSimon
	KindMorse
	KindPassword
	KindMaze
	KindComplexWires
	KindVenting
	KindKnob
)

var kindNames = [...]string{
	KindWires:        "WIRES",
	KindWords:        "WORDS",
	KindKeypad:       "KEYPAD",
	KindButton:       "BUTTON",
	KindSimon:        "SIMON",
	KindMorse:        "MORSE",
	KindPassword:     "PASSWORD",
	KindMaze:         "MAZE",
	KindComplexWires: "COMPLEX_WIRES",
	KindVenting:      "VENTING",
	KindKnob:         "KNOB",
}

// AllKinds returns every module kind in unlock order.
func AllKinds() []Kind {
	kinds := make([]Kind, len(kindNames))
	for i := range kindNames {
		kinds[i] = Kind(i)
	}
	return kinds
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range kindNames {
		if name == want {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown module kind: %q", s)
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
