package level

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/AaronLay10/DefusalEngine/internal/puzzle"
)

func TestConfigure(t *testing.T) {
	tests := []struct {
		level  int
		pack   PackID
		count  int
		budget int
		pool   int
	}{
		{1, MainCampaign, 3, 150, 2},
		{3, MainCampaign, 3, 150, 3},
		{9, MainCampaign, 4, 200, 5},
		{50, MainCampaign, 9, 450, 11},
		{51, MainCampaign, 11, 495, 11},
		{81, MainCampaign, 11, 371, 11},
		{100, MainCampaign, 11, 371, 11},
		{1, CovertOps, 5, 200, 11},
		{20, CovertOps, 7, 280, 11},
		{1, Nightmare, 8, 200, 11},
		{15, Nightmare, 9, 225, 11},
	}
	for _, tt := range tests {
		plan, err := Configure(tt.level, tt.pack)
		require.NoError(t, err)
		assert.Equal(t, tt.count, plan.ModuleCount, "%s %d count", tt.pack, tt.level)
		assert.Equal(t, tt.budget, plan.TimeBudget, "%s %d budget", tt.pack, tt.level)
		assert.Len(t, plan.Pool, tt.pool, "%s %d pool", tt.pack, tt.level)
	}
}

func TestConfigureDefaultsToMainCampaign(t *testing.T) {
	plan, err := Configure(1, "")
	require.NoError(t, err)
	assert.Equal(t, MainCampaign, plan.Pack)
}

func TestConfigureErrors(t *testing.T) {
	_, err := Configure(1, "bonus_round")
	assert.ErrorIs(t, err, ErrUnknownPack)

	_, err = Configure(0, MainCampaign)
	assert.ErrorIs(t, err, ErrLevelOutOfRange)

	_, err = Configure(21, CovertOps)
	assert.ErrorIs(t, err, ErrLevelOutOfRange)
}

func TestPoolUnlocks(t *testing.T) {
	plan, err := Configure(29, MainCampaign)
	require.NoError(t, err)
	assert.Contains(t, plan.Pool, puzzle.KindMaze)
	assert.NotContains(t, plan.Pool, puzzle.KindComplexWires)

	plan, err = Configure(30, MainCampaign)
	require.NoError(t, err)
	assert.Contains(t, plan.Pool, puzzle.KindComplexWires)

	assert.Equal(t, 50, UnlockLevel(puzzle.KindKnob))
	assert.Equal(t, 1, UnlockLevel(puzzle.KindWords))
}

func TestPoolGrowsWithLevel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lvl := rapid.IntRange(1, 99).Draw(t, "level")
		a, _ := Configure(lvl, MainCampaign)
		b, _ := Configure(lvl+1, MainCampaign)
		if len(b.Pool) < len(a.Pool) {
			t.Fatalf("pool shrank from level %d to %d", lvl, lvl+1)
		}
		for _, k := range a.Pool {
			if !contains(b.Pool, k) {
				t.Fatalf("%v lost at level %d", k, lvl+1)
			}
		}
		if a.ModuleCount < 1 || a.ModuleCount > MaxModules {
			t.Fatalf("module count %d", a.ModuleCount)
		}
	})
}

func contains(kinds []puzzle.Kind, k puzzle.Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

func TestDraw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pack := rapid.SampledFrom([]PackID{MainCampaign, CovertOps, Nightmare}).Draw(t, "pack")
		p, _ := LookupPack(pack)
		plan, err := Configure(rapid.IntRange(1, p.Levels).Draw(t, "level"), pack)
		if err != nil {
			t.Fatal(err)
		}
		kinds := plan.Draw(puzzle.NewRand(rapid.Uint64().Draw(t, "seed")))
		if len(kinds) != plan.ModuleCount {
			t.Fatalf("drew %d kinds for %d slots", len(kinds), plan.ModuleCount)
		}
		for _, k := range kinds {
			if !contains(plan.Pool, k) {
				t.Fatalf("%v outside pool %v", k, plan.Pool)
			}
		}
	})
}
