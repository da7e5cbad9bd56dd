package game

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/spf13/cast"

	"github.com/domino14/tilegame/config"
	"github.com/domino14/tilegame/edition"
	"github.com/domino14/tilegame/registry"
)

// The packed form of a game is a list of key=value fields joined by ';',
// short enough to live in a URL. Flags that are set appear as a bare key.
//
//	b board          e edition        d dictionary     k key
//	m created        s state          t timer type     x time allowed
//	y time penalty   v word check     c challenge pen. o penalty points
//	g allow takeback i predict score  l min players    h max players
//	w whose turn     p paused by      N next game
//
// Player i is P<i> followed by k key, n name, r robot, s score, R rack,
// c can challenge, d dictionary, m miss next turn, p passes, t clock.
// Turn i is T<i> followed by t type, p player, n next to go, c challenger,
// r replacement letters, s score, m timestamp, and k<j> for each player
// whose missed turn it used up. Only the latest turns are kept.

const fieldSep = ";"

// Pack values are escaped like a URL path segment, except that a few
// punctuation characters used by the board encoding are left readable.
var unescapePunct = strings.NewReplacer("%28", "(", "%29", ")", "%21", "!", "%27", "'", "%2A", "*")

func escapeValue(v string) string {
	return unescapePunct.Replace(url.PathEscape(v))
}

type packer struct {
	fields []string
}

func (pk *packer) str(key, v string) {
	if v != "" {
		pk.fields = append(pk.fields, key+"="+escapeValue(v))
	}
}

func (pk *packer) num(key string, v int64) {
	pk.fields = append(pk.fields, key+"="+strconv.FormatInt(v, 10))
}

// nonZero writes v only if it is not 0.
func (pk *packer) nonZero(key string, v int) {
	if v != 0 {
		pk.num(key, int64(v))
	}
}

func (pk *packer) flag(key string, v bool) {
	if v {
		pk.fields = append(pk.fields, key)
	}
}

// Pack returns the packed form of the game, keeping the latest
// MaxPackedTurns turns.
func (g *Game) Pack() string {
	return g.pack(g.MaxPackedTurns)
}

func (g *Game) pack(window int) string {
	pk := &packer{}
	pk.str("b", g.board.Pack())
	pk.str("e", g.Edition)
	pk.str("d", g.Dictionary)
	pk.str("k", g.Key)
	pk.num("m", g.CreationTimestamp)
	pk.num("s", int64(g.State))
	pk.num("t", int64(g.TimerType))
	pk.nonZero("x", g.TimeAllowed)
	pk.nonZero("y", g.TimePenalty)
	pk.num("v", int64(g.WordCheck))
	pk.num("c", int64(g.ChallengePenalty))
	pk.nonZero("o", g.PenaltyPoints)
	pk.flag("g", g.AllowTakeBack)
	pk.flag("i", g.PredictScore)
	pk.nonZero("l", g.MinPlayers)
	pk.nonZero("h", g.MaxPlayers)
	pk.str("w", g.WhosTurnKey)
	pk.str("p", g.PausedBy)
	pk.str("N", g.NextGameKey)

	for i, p := range g.players {
		pre := "P" + strconv.Itoa(i)
		pk.str(pre+"k", p.Key)
		pk.str(pre+"n", p.Name)
		pk.flag(pre+"r", p.IsRobot)
		pk.num(pre+"s", int64(p.Score))
		if !p.Rack.IsEmpty() {
			pk.str(pre+"R", p.Rack.Pack())
		}
		pk.flag(pre+"c", p.CanChallenge)
		pk.str(pre+"d", p.Dictionary)
		pk.flag(pre+"m", p.MissNextTurn)
		pk.nonZero(pre+"p", p.Passes)
		pk.nonZero(pre+"t", p.Clock)
	}

	for i, t := range g.turns.Tail(window) {
		pre := "T" + strconv.Itoa(i)
		pk.num(pre+"t", int64(t.Type))
		pk.str(pre+"p", t.PlayerKey)
		pk.str(pre+"n", t.NextToGoKey)
		pk.str(pre+"c", t.ChallengerKey)
		pk.str(pre+"r", t.ReplacementLetters())
		pk.nonZero(pre+"s", t.Score)
		pk.num(pre+"m", t.Timestamp)
		for j, k := range t.Skipped {
			pk.str(pre+"k"+strconv.Itoa(j), k)
		}
	}
	return strings.Join(pk.fields, fieldSep)
}

// Digest is a hash of the complete packed game, every turn included. Two
// games with the same digest are in the same position.
func (g *Game) Digest() uint64 {
	return xxhash.Sum64String(g.pack(-1))
}

// ParsePacked splits a packed game into its fields. A bare key is a flag
// and reads as "true".
func ParsePacked(packed string) (map[string]string, error) {
	params := map[string]string{}
	for _, field := range strings.Split(packed, fieldSep) {
		if field == "" {
			continue
		}
		key, value, found := strings.Cut(field, "=")
		if !found {
			params[key] = "true"
			continue
		}
		v, err := url.PathUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %w", ErrMalformed, key, err)
		}
		params[key] = v
	}
	return params, nil
}

// params reads typed values out of packed fields. The first error sticks.
type params struct {
	m   map[string]string
	err error
}

func (r *params) has(key string) bool {
	_, ok := r.m[key]
	return ok
}

func (r *params) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: field %s: %w", ErrMalformed, key, err)
	}
}

func (r *params) str(key string) string {
	return r.m[key]
}

func (r *params) required(key string) string {
	if r.m[key] == "" {
		r.fail(key, fmt.Errorf("missing"))
	}
	return r.str(key)
}

func (r *params) int(key string) int {
	v, ok := r.m[key]
	if !ok {
		return 0
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		r.fail(key, err)
	}
	return n
}

func (r *params) int64(key string) int64 {
	v, ok := r.m[key]
	if !ok {
		return 0
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		r.fail(key, err)
	}
	return n
}

func (r *params) flag(key string) bool {
	v, ok := r.m[key]
	if !ok {
		return false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		r.fail(key, err)
	}
	return b
}

// Unpack rebuilds a game from its packed form.
func Unpack(reg *registry.Registry, cfg *config.Config, packed string) (*Game, error) {
	p, err := ParsePacked(packed)
	if err != nil {
		return nil, err
	}
	return UnpackParams(reg, cfg, p)
}

// DeriveState works out the state of a game packed without one: a game whose
// last turn ended it is over, one with turns and enough players is in play,
// and anything else is still waiting.
func DeriveState(turns []Turn, numPlayers, minPlayers int) State {
	if len(turns) > 0 && turns[len(turns)-1].Type == TurnGameEnded {
		return StateGameOver
	}
	if len(turns) > 0 && numPlayers > 0 && numPlayers >= minPlayers {
		return StatePlaying
	}
	return StateWaiting
}

// UnpackParams rebuilds a game from parsed packed fields. Racks are filled
// from the packed letters and the bag gets whatever the board and racks do
// not hold. Unknown fields are ignored.
func UnpackParams(reg *registry.Registry, cfg *config.Config, m map[string]string) (*Game, error) {
	r := &params{m: m}
	edName := r.required("e")
	boardStr := r.required("b")
	key := r.required("k")
	if r.err != nil {
		return nil, r.err
	}
	ed, err := edition.Get(cfg, edName)
	if err != nil {
		return nil, fmt.Errorf("%w: field e: %w", ErrMalformed, err)
	}
	opts := Options{
		Key:               key,
		CreationTimestamp: r.int64("m"),
		Dictionary:        r.str("d"),
		TimerType:         TimerType(r.int("t")),
		TimeAllowed:       r.int("x"),
		TimePenalty:       r.int("y"),
		WordCheck:         WordCheck(r.int("v")),
		ChallengePenalty:  Penalty(r.int("c")),
		PenaltyPoints:     r.int("o"),
		AllowTakeBack:     r.flag("g"),
		PredictScore:      r.flag("i"),
		MinPlayers:        r.int("l"),
		MaxPlayers:        r.int("h"),
		WhosTurnKey:       r.str("w"),
		PausedBy:          r.str("p"),
		NextGameKey:       r.str("N"),
		State:             State(r.int("s")),
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := opts.check(); err != nil {
		return nil, err
	}
	applyConfig(&opts, cfg)
	g, err := New(reg, ed, opts)
	if err != nil {
		return nil, err
	}
	if _, err := g.board.Unpack(reg, ed, boardStr); err != nil {
		return nil, fmt.Errorf("%w: field b: %w", ErrMalformed, err)
	}

	for i := 0; r.has("P" + strconv.Itoa(i) + "k"); i++ {
		pre := "P" + strconv.Itoa(i)
		p, err := registry.CreateAs[*Player](reg, "Player", registry.Spec{
			"key":          r.str(pre + "k"),
			"name":         r.str(pre + "n"),
			"isRobot":      r.flag(pre + "r"),
			"canChallenge": r.flag(pre + "c"),
			"dictionary":   r.str(pre + "d"),
			"rackSize":     ed.RackCount,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: field %sk: %w", ErrMalformed, pre, err)
		}
		p.Score = r.int(pre + "s")
		p.Passes = r.int(pre + "p")
		p.Clock = r.int(pre + "t")
		p.MissNextTurn = r.flag(pre + "m")
		if rack := r.str(pre + "R"); rack != "" {
			if err := g.fillRackFromPacked(p, rack); err != nil {
				return nil, fmt.Errorf("field %sR: %w", pre, err)
			}
		}
		if g.playerIndex(p.Key) >= 0 {
			return nil, fmt.Errorf("%w: field %sk: player %s appears twice", ErrMalformed, pre, p.Key)
		}
		g.players = append(g.players, p)
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := g.deriveBag(); err != nil {
		return nil, err
	}

	for i := 0; r.has("T" + strconv.Itoa(i) + "t"); i++ {
		pre := "T" + strconv.Itoa(i)
		spec := registry.Spec{
			"type":          r.int(pre + "t"),
			"gameKey":       g.Key,
			"playerKey":     r.str(pre + "p"),
			"nextToGoKey":   r.str(pre + "n"),
			"challengerKey": r.str(pre + "c"),
			"score":         r.int(pre + "s"),
			"timestamp":     r.int64(pre + "m"),
		}
		if letters := r.str(pre + "r"); letters != "" {
			replacements := []any{}
			for _, c := range letters {
				t, err := g.newTile(c)
				if err != nil {
					return nil, err
				}
				replacements = append(replacements, t.Structure())
			}
			spec["replacements"] = replacements
		}
		var skipped []any
		for j := 0; r.has(pre + "k" + strconv.Itoa(j)); j++ {
			skipped = append(skipped, r.str(pre+"k"+strconv.Itoa(j)))
		}
		if len(skipped) > 0 {
			spec["skipped"] = skipped
		}
		t, err := registry.CreateAs[*Turn](reg, "Turn", spec)
		if err != nil {
			return nil, fmt.Errorf("field %st: %w", pre, err)
		}
		if field, err := g.checkTurnKeys(*t); err != nil {
			return nil, fmt.Errorf("%w: field %s%s: %w", ErrMalformed, pre, field, err)
		}
		g.turns.Push(*t)
	}
	if r.err != nil {
		return nil, r.err
	}

	if !r.has("s") {
		g.State = DeriveState(g.turns.All(), len(g.players), g.MinPlayers)
	}
	if err := g.checkHasPlayers(); err != nil {
		return nil, fmt.Errorf("%w: field s: %w", ErrMalformed, err)
	}
	if g.WhosTurnKey == "" {
		if last, ok := g.turns.Last(); ok && g.PlayerWithKey(last.NextToGoKey) != nil {
			g.WhosTurnKey = last.NextToGoKey
		}
	}
	if g.WhosTurnKey != "" && g.PlayerWithKey(g.WhosTurnKey) == nil {
		return nil, fmt.Errorf("%w: field w: %q is not a player", ErrMalformed, g.WhosTurnKey)
	}
	return g, nil
}
