// Package level turns a level number and content pack into a session plan.
package level

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/AaronLay10/DefusalEngine/internal/puzzle"
)

// MaxModules caps the module count of any plan.
const MaxModules = 11

var (
	ErrUnknownPack     = errors.New("unknown pack")
	ErrLevelOutOfRange = errors.New("level out of range")
)

// PackID names a content pack.
type PackID string

const (
	MainCampaign PackID = "main_campaign"
	CovertOps    PackID = "covert_ops"
	Nightmare    PackID = "nightmare"
)

// DefaultPack is used when no pack is named.
const DefaultPack = MainCampaign

// Pack describes one content pack.
type Pack struct {
	ID     PackID `json:"id"`
	Name   string `json:"name"`
	Levels int    `json:"levels"`
	// Gated packs unlock module kinds by level threshold; the others offer
	// every kind from the first level.
	Gated bool `json:"gated"`
}

// Packs is the pack catalogue in menu order.
var Packs = []Pack{
	{ID: MainCampaign, Name: "Ana Görev", Levels: 100, Gated: true},
	{ID: CovertOps, Name: "Gizli Operasyon", Levels: 20},
	{ID: Nightmare, Name: "Kabus Modu", Levels: 15},
}

// LookupPack returns the pack with id. An empty id selects DefaultPack.
func LookupPack(id PackID) (Pack, error) {
	if id == "" {
		id = DefaultPack
	}
	for _, p := range Packs {
		if p.ID == id {
			return p, nil
		}
	}
	return Pack{}, fmt.Errorf("%w: %q", ErrUnknownPack, id)
}

type profile struct {
	baseModules   int
	timePerModule int
}

func profileFor(pack PackID, level int) profile {
	switch pack {
	case CovertOps:
		return profile{baseModules: 5, timePerModule: 40}
	case Nightmare:
		return profile{baseModules: 8, timePerModule: 25}
	}
	if level > 50 {
		return profile{baseModules: 5, timePerModule: 45}
	}
	return profile{baseModules: 3, timePerModule: 50}
}

// unlocks lists the first level of the gated pack at which each kind may
// be drawn.
var unlocks = []struct {
	kind  puzzle.Kind
	level int
}{
	{puzzle.KindWires, 1},
	{puzzle.KindWords, 1},
	{puzzle.KindKeypad, 3},
	{puzzle.KindButton, 5},
	{puzzle.KindSimon, 8},
	{puzzle.KindMorse, 12},
	{puzzle.KindPassword, 15},
	{puzzle.KindMaze, 20},
	{puzzle.KindComplexWires, 30},
	{puzzle.KindVenting, 40},
	{puzzle.KindKnob, 50},
}

// UnlockLevel returns the gated-pack level at which kind becomes available.
func UnlockLevel(kind puzzle.Kind) int {
	for _, u := range unlocks {
		if u.kind == kind {
			return u.level
		}
	}
	return 0
}

// Plan is the shape of one session.
type Plan struct {
	Level       int           `json:"level"`
	Pack        PackID        `json:"pack"`
	ModuleCount int           `json:"module_count"`
	TimeBudget  int           `json:"time_budget"`
	Pool        []puzzle.Kind `json:"pool"`
}

// Configure computes the plan for level in pack.
func Configure(level int, pack PackID) (Plan, error) {
	p, err := LookupPack(pack)
	if err != nil {
		return Plan{}, err
	}
	if level < 1 || level > p.Levels {
		return Plan{}, fmt.Errorf("%w: %d not in [1, %d] for %s", ErrLevelOutOfRange, level, p.Levels, p.ID)
	}

	prof := profileFor(p.ID, level)
	count := min(prof.baseModules+(level-1)/8, MaxModules)
	budget := count * prof.timePerModule
	if level > 80 {
		budget = budget * 3 / 4
	}

	return Plan{
		Level:       level,
		Pack:        p.ID,
		ModuleCount: count,
		TimeBudget:  budget,
		Pool:        pool(p, level),
	}, nil
}

func pool(p Pack, level int) []puzzle.Kind {
	kinds := make([]puzzle.Kind, 0, len(unlocks))
	for _, u := range unlocks {
		if !p.Gated || level >= u.level {
			kinds = append(kinds, u.kind)
		}
	}
	return kinds
}

// Draw picks a kind for every slot uniformly from the pool. Repeats are
// allowed.
func (p Plan) Draw(rng *rand.Rand) []puzzle.Kind {
	kinds := make([]puzzle.Kind, p.ModuleCount)
	for i := range kinds {
		kinds[i] = p.Pool[rng.IntN(len(p.Pool))]
	}
	return kinds
}
