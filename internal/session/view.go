package session

import (
	"fmt"

	"github.com/AaronLay10/DefusalEngine/internal/level"
	"github.com/AaronLay10/DefusalEngine/internal/puzzle"
)

// View is the HUD projection of a session. It carries no hidden answers.
type View struct {
	ID         string              `json:"id"`
	Level      int                 `json:"level"`
	Pack       level.PackID        `json:"pack"`
	State      State               `json:"state"`
	Clock      string              `json:"clock"`
	TimeLeft   int                 `json:"time_left"`
	TotalTime  int                 `json:"total_time"`
	Strikes    int                 `json:"strikes"`
	MaxStrikes int                 `json:"max_strikes"`
	Context    puzzle.Context      `json:"context"`
	Modules    []puzzle.ModuleView `json:"modules"`
}

// View renders the current HUD.
func (s *Session) View() View {
	mods := make([]puzzle.ModuleView, len(s.modules))
	for i, m := range s.modules {
		mods[i] = puzzle.Public(m)
	}
	return View{
		ID:         s.id,
		Level:      s.plan.Level,
		Pack:       s.plan.Pack,
		State:      s.state,
		Clock:      FormatClock(s.timeLeft),
		TimeLeft:   s.timeLeft,
		TotalTime:  s.totalTime,
		Strikes:    s.strikes,
		MaxStrikes: s.maxStrikes,
		Context:    s.ctx,
		Modules:    mods,
	}
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
