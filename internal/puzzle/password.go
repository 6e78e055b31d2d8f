package puzzle

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

var passwordWords = []string{
	"ABOUT", "AFTER", "AGAIN", "BELOW", "COULD", "EVERY", "FIRST", "FOUND", "GREAT", "HOUSE",
	"LARGE", "LEARN", "NEVER", "OTHER", "PLACE", "PLANT", "POINT", "RIGHT", "SMALL", "SOUND",
	"SPELL", "STILL", "STUDY", "THEIR", "THERE", "THESE", "THING", "THINK", "THREE", "WATER",
	"WHERE", "WHICH", "WORLD", "WOULD", "WRITE",
}

const (
	passwordLength = 5
	columnHeight   = 6
)

// Password is five letter wheels. Column i always carries Target[i].
type Password struct {
	Target  string     `json:"-"`
	Columns [][]string `json:"columns"`
	Indices []int      `json:"indices"`
}

func (Password) Kind() Kind { return KindPassword }
func (Password) payload()   {}

// GeneratePassword picks a target and fills each column with the needed
// letter plus distinct random ones, sorted alphabetically.
func GeneratePassword(rng *rand.Rand) Password {
	return NewPassword(pick(rng, passwordWords), rng)
}

// NewPassword builds the columns for a known target word.
func NewPassword(target string, rng *rand.Rand) Password {
	p := Password{
		Target:  target,
		Columns: make([][]string, passwordLength),
		Indices: make([]int, passwordLength),
	}
	for i := 0; i < passwordLength; i++ {
		letters := mapset.New[byte]()
		letters.Put(target[i])
		for letters.Size() < columnHeight {
			letters.Put(byte('A' + rng.IntN(26)))
		}
		col := make([]string, 0, columnHeight)
		letters.Each(func(b byte) {
			col = append(col, string(b))
		})
		slices.Sort(col)
		p.Columns[i] = col
	}
	return p
}

// Word returns the word currently spelled.
func (p Password) Word() string {
	var sb strings.Builder
	for i, col := range p.Columns {
		sb.WriteString(col[p.Indices[i]])
	}
	return sb.String()
}

// Cycle rotates a column with wrap-around. It never strikes.
func (p Password) Cycle(column, delta int) (Password, Outcome) {
	if column < 0 || column >= len(p.Columns) || delta == 0 {
		return p, Ignored
	}
	n := len(p.Columns[column])
	next := p
	next.Indices = slices.Clone(p.Indices)
	next.Indices[column] = ((p.Indices[column]+delta)%n + n) % n
	return next, Progressed
}

// Submit checks the spelled word against the target. Indices are kept
// on a miss.
func (p Password) Submit() (Password, Outcome) {
	if p.Word() == p.Target {
		return p, Solved
	}
	return p, Strike
}
