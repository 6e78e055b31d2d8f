package puzzle

// ModuleView is the part of a module the defuser may see.
type ModuleView struct {
	Kind   Kind `json:"kind"`
	Solved bool `json:"solved"`
	State  any  `json:"state"`
}

type simonView struct {
	Flashing []SimonColor `json:"flashing"`
	Input    []SimonColor `json:"input"`
	Stage    int          `json:"stage"`
}

// Public projects m for display. Hidden answers are left out by the
// payload field tags; Simon only reveals the prefix it is flashing.
func Public(m Module) ModuleView {
	v := ModuleView{Kind: m.Kind(), Solved: m.Solved, State: m.Payload}
	if s, ok := m.Payload.(Simon); ok {
		v.State = simonView{Flashing: s.Flashing(), Input: s.Input, Stage: s.Stage}
	}
	return v
}
