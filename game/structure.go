package game

import (
	"fmt"
	"unicode"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/tilegame/bag"
	"github.com/domino14/tilegame/board"
	"github.com/domino14/tilegame/config"
	"github.com/domino14/tilegame/edition"
	"github.com/domino14/tilegame/registry"
)

func (g *Game) optionsSpec() registry.Spec {
	return registry.Spec{
		"key":               g.Key,
		"creationTimestamp": g.CreationTimestamp,
		"edition":           g.Edition,
		"dictionary":        g.Dictionary,
		"state":             int(g.State),
		"timerType":         int(g.TimerType),
		"timeAllowed":       g.TimeAllowed,
		"timePenalty":       g.TimePenalty,
		"predictScore":      g.PredictScore,
		"allowTakeBack":     g.AllowTakeBack,
		"wordCheck":         int(g.WordCheck),
		"challengePenalty":  int(g.ChallengePenalty),
		"penaltyPoints":     g.PenaltyPoints,
		"minPlayers":        g.MinPlayers,
		"maxPlayers":        g.MaxPlayers,
		"whosTurnKey":       g.WhosTurnKey,
		"pausedBy":          g.PausedBy,
		"nextGameKey":       g.NextGameKey,
	}
}

// Structure is the complete class-tagged plain-data form of the game: every
// entity it owns is included, so the game can be rebuilt exactly with
// registry.Restore.
func (g *Game) Structure() registry.Spec {
	s := g.optionsSpec()
	s[registry.ClassKey] = "Game"
	s["board"] = g.board.Structure()
	s["bag"] = g.bag.Structure()
	s["players"] = lo.Map(g.players, func(p *Player, _ int) any { return p.Structure() })
	s["turns"] = lo.Map(g.turns.All(), func(t Turn, _ int) any { return t.Structure() })
	return s
}

func (o Options) check() error {
	switch {
	case o.State < StateWaiting || o.State > StateGameOver:
		return fmt.Errorf("%w: state %d", ErrMalformed, o.State)
	case o.TimerType < TimerNone || o.TimerType > TimerGame:
		return fmt.Errorf("%w: timer type %d", ErrMalformed, o.TimerType)
	case o.WordCheck < WordCheckNone || o.WordCheck > WordCheckBefore:
		return fmt.Errorf("%w: word check %d", ErrMalformed, o.WordCheck)
	case o.ChallengePenalty < PenaltyNone || o.ChallengePenalty > PenaltyPerWord:
		return fmt.Errorf("%w: challenge penalty %d", ErrMalformed, o.ChallengePenalty)
	}
	return nil
}

// restore builds a game from either a Structure or a Serialisable
// snapshot. A spec with only options gives a new game.
func restore(reg *registry.Registry, cfg *config.Config, spec registry.Spec) (*Game, error) {
	opts := Options{}
	if err := registry.Decode(spec, &opts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := opts.check(); err != nil {
		return nil, err
	}
	if opts.Edition == "" {
		if cfg == nil {
			return nil, fmt.Errorf("%w: no edition", ErrMalformed)
		}
		opts.Edition = cfg.GetString(config.ConfigDefaultEdition)
	}
	ed, err := edition.Get(cfg, opts.Edition)
	if err != nil {
		return nil, err
	}
	applyConfig(&opts, cfg)
	g, err := New(reg, ed, opts)
	if err != nil {
		return nil, err
	}

	switch b := spec["board"].(type) {
	case nil:
	case string:
		if _, err := g.board.Unpack(reg, ed, b); err != nil {
			return nil, fmt.Errorf("%w: board: %w", ErrMalformed, err)
		}
	default:
		bs, ok := registry.AsSpec(b)
		if !ok {
			return nil, fmt.Errorf("%w: board is a %T", ErrMalformed, b)
		}
		surface, err := registry.Restore[*board.Surface](reg, bs, "Surface")
		if err != nil {
			return nil, err
		}
		if surface.Cols != ed.Cols() || surface.Rows != ed.Rows() {
			return nil, fmt.Errorf("%w: board is %dx%d, edition %s is %dx%d", ErrMalformed,
				surface.Cols, surface.Rows, ed.Name, ed.Cols(), ed.Rows())
		}
		g.board = surface
	}

	players, err := registry.AsList(spec["players"])
	if err != nil {
		return nil, fmt.Errorf("%w: players: %w", ErrMalformed, err)
	}
	for _, ps := range players {
		if _, ok := ps["rackSize"]; !ok {
			ps = lo.Assign(ps, registry.Spec{"rackSize": ed.RackCount})
		}
		p, err := registry.Restore[*Player](reg, ps, "Player")
		if err != nil {
			return nil, err
		}
		if err := p.restoreState(ps); err != nil {
			return nil, err
		}
		if rack, ok := ps["rack"].(string); ok {
			if err := g.fillRackFromPacked(p, rack); err != nil {
				return nil, err
			}
		}
		if g.playerIndex(p.Key) >= 0 {
			return nil, fmt.Errorf("%w: player %s appears twice", ErrMalformed, p.Key)
		}
		g.players = append(g.players, p)
	}

	if bs, ok := registry.AsSpec(spec["bag"]); ok {
		if g.bag, err = registry.Restore[*bag.LetterBag](reg, bs, "LetterBag"); err != nil {
			return nil, err
		}
	} else if err := g.deriveBag(); err != nil {
		return nil, err
	}

	if err := g.checkHasPlayers(); err != nil {
		return nil, fmt.Errorf("%w: state: %w", ErrMalformed, err)
	}

	turns, err := registry.AsList(spec["turns"])
	if err != nil {
		return nil, fmt.Errorf("%w: turns: %w", ErrMalformed, err)
	}
	for i, ts := range turns {
		t, err := registry.Restore[*Turn](reg, ts, "Turn")
		if err != nil {
			return nil, err
		}
		if field, err := g.checkTurnKeys(*t); err != nil {
			return nil, fmt.Errorf("%w: turn %d %s: %w", ErrMalformed, i, turnKeyNames[field], err)
		}
		g.turns.Push(*t)
	}
	if g.WhosTurnKey != "" && g.PlayerWithKey(g.WhosTurnKey) == nil {
		return nil, fmt.Errorf("%w: whose turn %q is not a player", ErrMalformed, g.WhosTurnKey)
	}
	log.Debug().Str("key", g.Key).Int("players", len(g.players)).Int("turns", g.turns.Len()).
		Msg("restored game")
	return g, nil
}

// checkHasPlayers rejects a started game with nobody in it.
func (g *Game) checkHasPlayers() error {
	if g.State != StateWaiting && len(g.players) == 0 {
		return fmt.Errorf("a %s game needs players", g.State)
	}
	return nil
}

// turnKeyNames maps the packed field of each player key on a turn to its
// name in the structure form.
var turnKeyNames = map[string]string{
	"p": "playerKey",
	"n": "nextToGoKey",
	"c": "challengerKey",
	"k": "skipped",
}

// checkTurnKeys checks that every player a loaded turn names is in the
// game. It returns the packed field of the first bad key.
func (g *Game) checkTurnKeys(t Turn) (string, error) {
	if t.PlayerKey == "" {
		return "p", fmt.Errorf("missing")
	}
	for _, f := range []struct{ field, key string }{
		{"p", t.PlayerKey},
		{"n", t.NextToGoKey},
		{"c", t.ChallengerKey},
	} {
		if f.key != "" && g.PlayerWithKey(f.key) == nil {
			return f.field, fmt.Errorf("%q is not a player", f.key)
		}
	}
	for _, k := range t.Skipped {
		if g.PlayerWithKey(k) == nil {
			return "k", fmt.Errorf("%q is not a player", k)
		}
	}
	return "", nil
}

// newTile makes the tile for one packed character, with the edition's
// score. The tile is unlocked.
func (g *Game) newTile(c rune) (*board.Tile, error) {
	spec := registry.Spec{}
	switch {
	case c == board.BlankTile:
		spec["letter"] = ""
		spec["isBlank"] = true
	case unicode.IsLower(c):
		spec["letter"] = string(unicode.ToUpper(c))
		spec["isBlank"] = true
	default:
		spec["letter"] = string(c)
		spec["score"] = g.ed.LetterScore(string(c))
	}
	return registry.CreateAs[*board.Tile](g.reg, "Tile", spec)
}

// fillRackFromPacked puts the tiles of a packed rack on p's rack. Empty
// cells are ignored, so a rack packed at another size still fits as long as
// it does not hold too many tiles.
func (g *Game) fillRackFromPacked(p *Player, packed string) error {
	cells, err := board.DecodeCells(packed)
	if err != nil {
		return fmt.Errorf("%w: rack of %s: %w", ErrMalformed, p.Key, err)
	}
	for _, c := range cells {
		if c == board.NoTile {
			continue
		}
		t, err := g.newTile(c)
		if err != nil {
			return err
		}
		if err := p.Rack.AddTile(t); err != nil {
			return fmt.Errorf("%w: rack of %s: %w", ErrMalformed, p.Key, err)
		}
	}
	return nil
}

// deriveBag sets the bag to the edition's full tile set less the tiles on
// the board and on the racks.
func (g *Game) deriveBag() error {
	full, err := bag.New(g.reg, g.ed)
	if err != nil {
		return err
	}
	tiles := g.board.Tiles()
	for _, p := range g.players {
		tiles = append(tiles, p.Rack.Tiles()...)
	}
	for _, t := range tiles {
		if _, ok := full.Remove(t.Letter, t.IsBlank); !ok {
			return fmt.Errorf("%w: more %s tiles than edition %s has", ErrMalformed, t, g.Edition)
		}
	}
	g.bag = full
	return nil
}
