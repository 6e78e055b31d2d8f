package puzzle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		in     string
		module int
		want   Action
	}{
		{`{"module":2,"type":"cut_wire","index":3}`, 2, CutWire{Index: 3}},
		{`{"module":0,"type":"cut_wire"}`, 0, CutWire{Index: -1}},
		{`{"module":1,"type":"press_label","label":"GİT"}`, 1, PressLabel{Label: "GİT"}},
		{`{"module":1,"type":"press_symbol","symbol":"Ω"}`, 1, PressSymbol{Symbol: "Ω"}},
		{`{"module":4,"type":"hold_button"}`, 4, HoldButton{}},
		{`{"module":4,"type":"press_color","color":"Y"}`, 4, PressColor{Color: SimonYellow}},
		{`{"module":5,"type":"tune_frequency","delta":-0.005}`, 5, TuneFrequency{Delta: -0.005}},
		{`{"module":5,"type":"submit_frequency","frequency":3.545}`, 5, SubmitFrequency{Frequency: 3.545}},
		{`{"module":5,"type":"submit_frequency"}`, 5, SubmitFrequency{UseCurrent: true}},
		{`{"module":6,"type":"cycle_password","column":2,"step":-1}`, 6, CyclePassword{Column: 2, Delta: -1}},
		{`{"module":7,"type":"move","direction":"down"}`, 7, MoveMaze{Direction: Down}},
		{`{"module":8,"type":"cut_complex_wire","index":0}`, 8, CutComplexWire{Index: 0}},
		{`{"module":9,"type":"answer","answer":"EVET"}`, 9, AnswerVenting{Answer: "EVET"}},
		{`{"module":10,"type":"rotate_knob","direction":"LEFT"}`, 10, RotateKnob{Position: Left}},
	}
	for _, tt := range tests {
		idx, a, err := DecodeAction([]byte(tt.in))
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.module, idx, tt.in)
		assert.Equal(t, tt.want, a, tt.in)
	}
}

func TestDecodeActionErrors(t *testing.T) {
	_, _, err := DecodeAction([]byte(`{"module":1,"type":"defuse_everything"}`))
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, _, err = DecodeAction([]byte(`{not json`))
	assert.Error(t, err)
}

func TestEncodeAction(t *testing.T) {
	data, err := EncodeAction(3, CyclePassword{Column: 1, Delta: 2})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "cycle_password", raw["type"])
	assert.EqualValues(t, 3, raw["module"])
	assert.EqualValues(t, 2, raw["step"])

	idx, a, err := DecodeAction(data)
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
	assert.Equal(t, CyclePassword{Column: 1, Delta: 2}, a)

	data, err = EncodeAction(0, TapButton{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"module":0,"type":"tap_button"}`, string(data))
}
