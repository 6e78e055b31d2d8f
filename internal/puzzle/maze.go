package puzzle

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

// MazeSize is the side of the square maze grid.
const MazeSize = 6

// Direction is a unit step on the maze grid. The knob uses the same four
// positions.
type Direction string

const (
	Up    Direction = "UP"
	Down  Direction = "DOWN"
	Left  Direction = "LEFT"
	Right Direction = "RIGHT"
)

// Directions lists the four directions in dial order.
var Directions = []Direction{Up, Right, Down, Left}

// ParseDirection resolves a direction name case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := d.offset()
	return d, ok
}

func (d Direction) offset() (Point, bool) {
	switch d {
	case Up:
		return Point{0, -1}, true
	case Down:
		return Point{0, 1}, true
	case Left:
		return Point{-1, 0}, true
	case Right:
		return Point{1, 0}, true
	}
	return Point{}, false
}

// Point is a maze cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }

func (p Point) inGrid() bool {
	return p.X >= 0 && p.X < MazeSize && p.Y >= 0 && p.Y < MazeSize
}

func (p Point) less(o Point) bool {
	return p.X < o.X || (p.X == o.X && p.Y < o.Y)
}

// Wall blocks the edge between two adjacent cells. A and B are stored in
// ascending order so a wall compares equal in both directions.
type Wall struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// NewWall returns the normalized wall between a and b.
func NewWall(a, b Point) Wall {
	if b.less(a) {
		a, b = b, a
	}
	return Wall{A: a, B: b}
}

type mazeLayout struct {
	markers [2]Point
	walls   []Wall
}

var mazeLayouts = []mazeLayout{
	{
		markers: [2]Point{{0, 1}, {5, 2}},
		walls: mustParseWalls(
			"0,1-1,1", "1,1-1,0", "1,1-2,1", "2,1-2,2", "2,2-3,2", "3,2-3,1", "3,1-3,0",
			"0,3-1,3", "1,3-1,4", "1,4-1,5", "2,3-3,3", "3,3-4,3", "4,3-4,2", "4,3-5,3",
			"5,3-5,4", "4,1-5,1", "4,1-4,0", "0,5-0,4", "2,5-3,5", "4,5-5,5",
		),
	},
	{
		markers: [2]Point{{1, 3}, {4, 1}},
		walls: mustParseWalls(
			"1,0-2,0", "3,0-4,0", "1,1-1,2", "2,1-3,1", "4,1-4,2", "5,1-5,2",
			"0,2-0,3", "1,2-2,2", "2,2-2,3", "3,2-3,3", "4,2-5,2",
			"0,4-1,4", "1,4-1,5", "2,4-3,4", "3,4-3,5", "4,4-5,4", "4,4-4,3",
		),
	},
	{
		markers: [2]Point{{3, 3}, {5, 3}},
		walls: mustParseWalls(
			"0,0-0,1", "0,1-1,1", "1,0-2,0", "2,0-3,0", "3,0-3,1", "4,0-4,1", "5,0-5,1",
			"0,2-1,2", "1,2-1,3", "2,2-2,3", "3,2-4,2", "4,2-5,2",
			"0,4-1,4", "1,4-2,4", "2,4-2,5", "3,4-3,5", "4,4-4,5", "5,4-5,5", "3,3-4,3",
		),
	},
}

// Maze is a 6x6 grid with walls. The cursor must be walked to End.
type Maze struct {
	Layout  int     `json:"layout"`
	Start   Point   `json:"start"`
	End     Point   `json:"end"`
	Current Point   `json:"current"`
	Markers []Point `json:"markers"`
	Walls   []Wall  `json:"-"`
}

func (Maze) Kind() Kind { return KindMaze }
func (Maze) payload()   {}

// GenerateMaze picks a layout and independent start and end cells. The
// cursor starts at the grid origin, not at Start, and End is not checked
// for reachability; Reachable reports it.
func GenerateMaze(rng *rand.Rand) Maze {
	idx := rng.IntN(len(mazeLayouts))
	return NewMaze(idx, randomCell(rng), randomCell(rng))
}

// NewMaze builds a maze on layout idx.
func NewMaze(idx int, start, end Point) Maze {
	layout := mazeLayouts[idx]
	return Maze{
		Layout:  idx,
		Start:   start,
		End:     end,
		Current: Point{0, 0},
		Markers: layout.markers[:],
		Walls:   append([]Wall(nil), layout.walls...),
	}
}

// MazeLayouts returns the number of built-in layouts.
func MazeLayouts() int { return len(mazeLayouts) }

func randomCell(rng *rand.Rand) Point {
	return Point{rng.IntN(MazeSize), rng.IntN(MazeSize)}
}

func (m Maze) wallSet() mapset.Set[Wall] {
	set := mapset.New[Wall]()
	for _, w := range m.Walls {
		set.Put(NewWall(w.A, w.B))
	}
	return set
}

// Blocked reports whether a wall separates a and b.
func (m Maze) Blocked(a, b Point) bool {
	return m.wallSet().Has(NewWall(a, b))
}

// Move steps the cursor. Leaving the grid or walking into a wall is a
// strike and the cursor stays put.
func (m Maze) Move(d Direction) (Maze, Outcome) {
	delta, ok := d.offset()
	if !ok {
		return m, Ignored
	}
	next := m.Current.add(delta)
	if !next.inGrid() || m.Blocked(m.Current, next) {
		return m, Strike
	}
	m.Current = next
	if next == m.End {
		return m, Solved
	}
	return m, Progressed
}

// Reachable reports whether End can be reached from the cursor.
func (m Maze) Reachable() bool {
	if m.Current == m.End {
		return true
	}
	walls := m.wallSet()
	visited := mapset.New[Point]()
	queue := []Point{m.Current}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited.Has(cur) {
			continue
		}
		visited.Put(cur)

		for _, d := range Directions {
			delta, _ := d.offset()
			n := cur.add(delta)
			if !n.inGrid() || visited.Has(n) || walls.Has(NewWall(cur, n)) {
				continue
			}
			if n == m.End {
				return true
			}
			queue = append(queue, n)
		}
	}
	return false
}

func mustParseWalls(specs ...string) []Wall {
	walls := make([]Wall, 0, len(specs))
	for _, s := range specs {
		w, err := parseWall(s)
		if err != nil {
			panic(err)
		}
		walls = append(walls, w)
	}
	return walls
}

// parseWall reads "x1,y1-x2,y2".
func parseWall(s string) (Wall, error) {
	ends := strings.Split(s, "-")
	if len(ends) != 2 {
		return Wall{}, fmt.Errorf("maze: bad wall %q", s)
	}
	var pts [2]Point
	for i, e := range ends {
		xy := strings.Split(e, ",")
		if len(xy) != 2 {
			return Wall{}, fmt.Errorf("maze: bad wall end %q", e)
		}
		x, err := strconv.Atoi(xy[0])
		if err != nil {
			return Wall{}, fmt.Errorf("maze: bad wall end %q: %w", e, err)
		}
		y, err := strconv.Atoi(xy[1])
		if err != nil {
			return Wall{}, fmt.Errorf("maze: bad wall end %q: %w", e, err)
		}
		pts[i] = Point{x, y}
	}
	return NewWall(pts[0], pts[1]), nil
}
