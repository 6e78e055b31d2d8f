package puzzle

import "math/rand/v2"

// Context holds the session-wide flags printed on the bomb casing. It is
// generated once per session and never changes afterwards.
type Context struct {
	SerialOdd       bool `json:"serial_odd"`
	HasBatteries    bool `json:"has_batteries"`
	HasIndicator    bool `json:"has_indicator"`
	HasParallelPort bool `json:"has_parallel_port"`
	Level           int  `json:"level"`
}

// NewContext draws each flag with a fair coin.
func NewContext(rng *rand.Rand, level int) Context {
	return Context{
		SerialOdd:       chance(rng, 0.5),
		HasBatteries:    chance(rng, 0.5),
		HasIndicator:    chance(rng, 0.5),
		HasParallelPort: chance(rng, 0.5),
		Level:           level,
	}
}
