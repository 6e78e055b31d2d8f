package puzzle

// Action is one player input aimed at a single module.
type Action interface {
	// Name is the wire name of the action type.
	Name() string
	action()
}

// CutWire cuts a wire of a Wires module.
type CutWire struct{ Index int }

// PressLabel taps a button of a Words module.
type PressLabel struct{ Label string }

// PressSymbol presses a key of a Keypad module.
type PressSymbol struct{ Symbol string }

// TapButton presses and immediately releases the Button.
type TapButton struct{}

// HoldButton presses the Button and keeps it down.
type HoldButton struct{}

// ReleaseButton lets go of a held Button. The release is judged against
// the last digit of the session timer.
type ReleaseButton struct{}

// PressColor presses one Simon pad.
type PressColor struct{ Color SimonColor }

// TuneFrequency moves the Morse dial by Delta MHz.
type TuneFrequency struct{ Delta float64 }

// SubmitFrequency transmits on a frequency. With UseCurrent set the tuned
// dial value is sent and Frequency is ignored.
type SubmitFrequency struct {
	Frequency  float64
	UseCurrent bool
}

// CyclePassword rotates one Password column by Delta positions.
type CyclePassword struct {
	Column int
	Delta  int
}

// SubmitPassword submits the word currently spelled by the columns.
type SubmitPassword struct{}

// MoveMaze steps the Maze cursor one cell.
type MoveMaze struct{ Direction Direction }

// CutComplexWire cuts a wire of a ComplexWires module.
type CutComplexWire struct{ Index int }

// AnswerVenting answers the Venting prompt.
type AnswerVenting struct{ Answer string }

// RotateKnob turns the Knob to a position.
type RotateKnob struct{ Position Direction }

func (CutWire) Name() string         { return "cut_wire" }
func (PressLabel) Name() string      { return "press_label" }
func (PressSymbol) Name() string     { return "press_symbol" }
func (TapButton) Name() string       { return "tap_button" }
func (HoldButton) Name() string      { return "hold_button" }
func (ReleaseButton) Name() string   { return "release_button" }
func (PressColor) Name() string      { return "press_color" }
func (TuneFrequency) Name() string   { return "tune_frequency" }
func (SubmitFrequency) Name() string { return "submit_frequency" }
func (CyclePassword) Name() string   { return "cycle_password" }
func (SubmitPassword) Name() string  { return "submit_password" }
func (MoveMaze) Name() string        { return "move" }
func (CutComplexWire) Name() string  { return "cut_complex_wire" }
func (AnswerVenting) Name() string   { return "answer" }
func (RotateKnob) Name() string      { return "rotate_knob" }

func (CutWire) action()         {}
func (PressLabel) action()      {}
func (PressSymbol) action()     {}
func (TapButton) action()       {}
func (HoldButton) action()      {}
func (ReleaseButton) action()   {}
func (PressColor) action()      {}
func (TuneFrequency) action()   {}
func (SubmitFrequency) action() {}
func (CyclePassword) action()   {}
func (SubmitPassword) action()  {}
func (MoveMaze) action()        {}
func (CutComplexWire) action()  {}
func (AnswerVenting) action()   {}
func (RotateKnob) action()      {}
