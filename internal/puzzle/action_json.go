package puzzle

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownAction is returned for an action type the codec does not know.
var ErrUnknownAction = errors.New("unknown action type")

// actionMessage is the JSON shape of an action aimed at one module:
//
//	{"module": 2, "type": "cut_wire", "index": 3}
type actionMessage struct {
	Module    int        `json:"module"`
	Type      string     `json:"type"`
	Index     *int       `json:"index,omitempty"`
	Label     string     `json:"label,omitempty"`
	Symbol    string     `json:"symbol,omitempty"`
	Color     SimonColor `json:"color,omitempty"`
	Delta     *float64   `json:"delta,omitempty"`
	Frequency *float64   `json:"frequency,omitempty"`
	Column    *int       `json:"column,omitempty"`
	Step      *int       `json:"step,omitempty"`
	Direction string     `json:"direction,omitempty"`
	Answer    string     `json:"answer,omitempty"`
}

// DecodeAction parses a JSON action and returns the target module index.
// Missing fields decode to values the validators reject as Ignored.
func DecodeAction(data []byte) (int, Action, error) {
	var msg actionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return 0, nil, fmt.Errorf("decode action: %w", err)
	}
	a, err := msg.action()
	if err != nil {
		return 0, nil, err
	}
	return msg.Module, a, nil
}

func (m actionMessage) action() (Action, error) {
	switch m.Type {
	case "cut_wire":
		return CutWire{Index: intOr(m.Index, -1)}, nil
	case "press_label":
		return PressLabel{Label: m.Label}, nil
	case "press_symbol":
		return PressSymbol{Symbol: m.Symbol}, nil
	case "tap_button":
		return TapButton{}, nil
	case "hold_button":
		return HoldButton{}, nil
	case "release_button":
		return ReleaseButton{}, nil
	case "press_color":
		return PressColor{Color: m.Color}, nil
	case "tune_frequency":
		delta := 0.0
		if m.Delta != nil {
			delta = *m.Delta
		}
		return TuneFrequency{Delta: delta}, nil
	case "submit_frequency":
		if m.Frequency == nil {
			return SubmitFrequency{UseCurrent: true}, nil
		}
		return SubmitFrequency{Frequency: *m.Frequency}, nil
	case "cycle_password":
		return CyclePassword{Column: intOr(m.Column, -1), Delta: intOr(m.Step, 0)}, nil
	case "submit_password":
		return SubmitPassword{}, nil
	case "move":
		d, _ := ParseDirection(m.Direction)
		return MoveMaze{Direction: d}, nil
	case "cut_complex_wire":
		return CutComplexWire{Index: intOr(m.Index, -1)}, nil
	case "answer":
		return AnswerVenting{Answer: m.Answer}, nil
	case "rotate_knob":
		d, _ := ParseDirection(m.Direction)
		return RotateKnob{Position: d}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, m.Type)
}

// EncodeAction renders a for module index.
func EncodeAction(module int, a Action) ([]byte, error) {
	msg := actionMessage{Module: module, Type: a.Name()}
	switch act := a.(type) {
	case CutWire:
		msg.Index = &act.Index
	case PressLabel:
		msg.Label = act.Label
	case PressSymbol:
		msg.Symbol = act.Symbol
	case PressColor:
		msg.Color = act.Color
	case TuneFrequency:
		msg.Delta = &act.Delta
	case SubmitFrequency:
		if !act.UseCurrent {
			msg.Frequency = &act.Frequency
		}
	case CyclePassword:
		msg.Column = &act.Column
		msg.Step = &act.Delta
	case MoveMaze:
		msg.Direction = string(act.Direction)
	case CutComplexWire:
		msg.Index = &act.Index
	case AnswerVenting:
		msg.Answer = act.Answer
	case RotateKnob:
		msg.Direction = string(act.Position)
	case TapButton, HoldButton, ReleaseButton, SubmitPassword:
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
	return json.Marshal(msg)
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
