// Package profile keeps the defuser's progress and pays out rewards for
// settled sessions.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/AaronLay10/DefusalEngine/internal/level"
	"github.com/AaronLay10/DefusalEngine/internal/session"
)

const (
	ResultWin  = "WIN"
	ResultLoss = "LOSS"
)

// Profile is the persisted progress of one player.
type Profile struct {
	Username    string            `json:"username"`
	AvatarID    int               `json:"avatarId"`
	MaxLevel    int               `json:"maxLevel"`
	Money       int               `json:"money"`
	OwnedPacks  []level.PackID    `json:"ownedPacks"`
	GamesPlayed int               `json:"gamesPlayed"`
	GamesWon    int               `json:"gamesWon"`
	BestTimes   map[string]int    `json:"bestTimes"`
	LastResults map[string]string `json:"lastResults"`

	// Extra holds save-file fields this package does not use, such as
	// inventory or settings, so saving a loaded profile keeps them.
	Extra map[string]json.RawMessage `json:"-"`
}

type plainProfile Profile

var profileKeys = func() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(plainProfile{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
}()

// UnmarshalJSON decodes over the current values, so absent fields keep
// them, and stores unknown fields in Extra.
func (p *Profile) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*plainProfile)(p)); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Extra = nil
	for k, v := range raw {
		if _, known := profileKeys[k]; known {
			continue
		}
		if p.Extra == nil {
			p.Extra = map[string]json.RawMessage{}
		}
		p.Extra[k] = v
	}
	return nil
}

// MarshalJSON writes the known fields followed by Extra. Known fields win
// over Extra entries of the same name.
func (p Profile) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(plainProfile(p))
	if err != nil || len(p.Extra) == 0 {
		return data, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, known := profileKeys[k]; !known {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// Defaults returns the profile of a new player.
func Defaults() Profile {
	return Profile{
		Username:    "Ajan",
		AvatarID:    1,
		MaxLevel:    1,
		OwnedPacks:  []level.PackID{level.MainCampaign},
		BestTimes:   map[string]int{},
		LastResults: map[string]string{},
	}
}

// Reward is the money paid for winning level with timeLeft seconds to
// spare.
func Reward(lvl, timeLeft int) int {
	const fixedBonus = 20
	return 50 + lvl*10 + timeLeft*2 + fixedBonus
}

// Key identifies a level within a pack in BestTimes and LastResults.
func Key(pack level.PackID, lvl int) string {
	return fmt.Sprintf("%s_%d", pack, lvl)
}

// Settle returns p updated with the outcome of one session.
func Settle(p Profile, s session.Settlement) Profile {
	next := p
	next.BestTimes = copyMap(p.BestTimes)
	next.LastResults = copyMap(p.LastResults)

	key := Key(s.Pack, s.Level)
	next.GamesPlayed++
	next.LastResults[key] = ResultLoss

	if !s.Won {
		return next
	}

	next.LastResults[key] = ResultWin
	next.GamesWon++
	next.Money += Reward(s.Level, s.TimeLeft)
	if s.TimeLeft > next.BestTimes[key] {
		next.BestTimes[key] = s.TimeLeft
	}
	if s.Pack == level.MainCampaign && s.Level == p.MaxLevel && s.Level < 100 {
		next.MaxLevel = p.MaxLevel + 1
	}
	return next
}

// Unlocked reports whether lvl of pack may be played.
func (p Profile) Unlocked(pack level.PackID, lvl int) bool {
	if pack == "" || pack == level.MainCampaign {
		return lvl >= 1 && lvl <= p.MaxLevel
	}
	for _, owned := range p.OwnedPacks {
		if owned == pack {
			return true
		}
	}
	return false
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store loads and saves a profile.
type Store interface {
	Load() (Profile, error)
	Save(Profile) error
}

// Ledger applies settlements to a stored profile. It implements
// session.Reporter.
type Ledger struct {
	mu    sync.Mutex
	store Store
	cur   Profile
	log   *zap.Logger
}

// NewLedger loads the profile from store. A profile that cannot be read is
// replaced by the defaults.
func NewLedger(store Store, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	p, err := store.Load()
	if err != nil {
		log.Warn("profile unreadable, using defaults", zap.Error(err))
		p = Defaults()
	}
	return &Ledger{store: store, cur: p, log: log}
}

// Profile returns the current profile.
func (l *Ledger) Profile() Profile {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cur
}

// Report settles s and persists the result.
func (l *Ledger) Report(ctx context.Context, s session.Settlement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	next := Settle(l.cur, s)
	if err := l.store.Save(next); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	l.cur = next
	l.log.Debug("profile settled",
		zap.String("session_id", s.SessionID),
		zap.Bool("won", s.Won),
		zap.Int("money", next.Money),
		zap.Int("max_level", next.MaxLevel))
	return nil
}
