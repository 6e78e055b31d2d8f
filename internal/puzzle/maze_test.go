package puzzle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMazeLayoutsParse(t *testing.T) {
	require.Equal(t, 3, MazeLayouts())
	for i, l := range mazeLayouts {
		for _, w := range l.walls {
			assert.True(t, w.A.inGrid() && w.B.inGrid(), "layout %d wall %+v", i, w)
			d := abs(w.A.X-w.B.X) + abs(w.A.Y-w.B.Y)
			assert.Equal(t, 1, d, "layout %d wall %+v is not between neighbours", i, w)
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func TestParseWall(t *testing.T) {
	w, err := parseWall("1,1-1,0")
	require.NoError(t, err)
	assert.Equal(t, Wall{A: Point{1, 0}, B: Point{1, 1}}, w)

	for _, bad := range []string{"", "1,1", "1-2", "a,1-1,1", "1,1-1,b"} {
		_, err := parseWall(bad)
		assert.Error(t, err, bad)
	}
}

func TestWallsAreUndirected(t *testing.T) {
	m := NewMaze(0, Point{0, 0}, Point{5, 5})
	assert.True(t, m.Blocked(Point{0, 1}, Point{1, 1}))
	assert.True(t, m.Blocked(Point{1, 1}, Point{0, 1}))
	assert.False(t, m.Blocked(Point{0, 0}, Point{1, 0}))
}

func TestMazeStartsAtOrigin(t *testing.T) {
	// The cursor starts at the grid origin rather than at Start.
	m := GenerateMaze(NewRand(5))
	assert.Equal(t, Point{0, 0}, m.Current)
}

func TestMazeMove(t *testing.T) {
	m := NewMaze(0, Point{0, 0}, Point{2, 0})

	next, out := m.Move(Up)
	assert.Equal(t, Strike, out, "leaving the grid")
	assert.Equal(t, Point{0, 0}, next.Current)

	next, out = m.Move(Right)
	require.Equal(t, Progressed, out)
	assert.Equal(t, Point{1, 0}, next.Current)
	assert.Equal(t, Point{0, 0}, m.Current)

	blocked, out := next.Move(Down)
	assert.Equal(t, Strike, out, "wall between (1,0) and (1,1)")
	assert.Equal(t, Point{1, 0}, blocked.Current)

	next, out = next.Move(Right)
	assert.Equal(t, Solved, out)
	assert.Equal(t, Point{2, 0}, next.Current)

	_, out = m.Move("NORTH")
	assert.Equal(t, Ignored, out)
}

func TestMazeReachable(t *testing.T) {
	m := NewMaze(0, Point{0, 0}, Point{5, 5})
	assert.True(t, m.Reachable())

	m.End = Point{0, 0}
	assert.True(t, m.Reachable())

	// Seal the origin in.
	m.End = Point{5, 5}
	m.Walls = []Wall{NewWall(Point{0, 0}, Point{1, 0}), NewWall(Point{0, 0}, Point{0, 1})}
	assert.False(t, m.Reachable())
}

func TestMazeGeneratedEndsMayBeUnreachable(t *testing.T) {
	// Start and end are drawn independently of the walls; record how often
	// the end turns out to be unreachable without failing.
	rng := NewRand(99)
	unreachable := 0
	for i := 0; i < 300; i++ {
		if !GenerateMaze(rng).Reachable() {
			unreachable++
		}
	}
	t.Logf("%d/300 generated mazes have an unreachable end", unreachable)
}

func TestParseDirection(t *testing.T) {
	d, ok := ParseDirection(" left ")
	assert.True(t, ok)
	assert.Equal(t, Left, d)

	_, ok = ParseDirection("forward")
	assert.False(t, ok)
}
