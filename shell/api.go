package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/tilegame/codec"
	"github.com/domino14/tilegame/config"
	"github.com/domino14/tilegame/game"
	"github.com/domino14/tilegame/registry"
)

var penaltyNames = map[string]game.Penalty{
	"none":     game.PenaltyNone,
	"miss":     game.PenaltyMiss,
	"per-turn": game.PenaltyPerTurn,
	"per-word": game.PenaltyPerWord,
}

type CmdOptions map[string]string

func (c CmdOptions) String(key, def string) string {
	if v, ok := c[key]; ok {
		return v
	}
	return def
}

func (c CmdOptions) Int(key string, def int) (int, error) {
	v, ok := c[key]
	if !ok {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (c CmdOptions) Bool(key string) bool {
	return strings.ToLower(c[key]) == "true"
}

func (sc *ShellController) requireGame() (*game.Game, error) {
	if sc.curGame == nil {
		return nil, errNoGame
	}
	return sc.curGame, nil
}

// whoPlays is the -player option, or whoever's turn it is.
func (sc *ShellController) whoPlays(g *game.Game, cmd *shellcmd) (string, error) {
	if key := cmd.options["player"]; key != "" {
		return key, nil
	}
	p := g.Player()
	if p == nil {
		return "", errors.New("nobody is on turn")
	}
	return p.Key, nil
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	opts := CmdOptions(cmd.options)
	edName := sc.cfg.GetString(config.ConfigDefaultEdition)
	if len(cmd.args) > 0 {
		edName = cmd.args[0]
	}
	penalty, ok := penaltyNames[opts.String("penalty", "per-word")]
	if !ok {
		return nil, fmt.Errorf("unknown penalty %q; use one of %s", cmd.options["penalty"],
			strings.Join(lo.Keys(penaltyNames), ", "))
	}
	minPlayers, err := opts.Int("min", 2)
	if err != nil {
		return nil, err
	}
	g, err := game.Create(sc.reg, sc.cfg, game.Options{
		Key:              opts.String("key", ""),
		Edition:          edName,
		Dictionary:       opts.String("dictionary", ""),
		AllowTakeBack:    opts.Bool("takeback"),
		ChallengePenalty: penalty,
		MinPlayers:       minPlayers,
	})
	if err != nil {
		return nil, err
	}
	names := strings.Split(opts.String("players", "player1,player2"), ",")
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, err := game.NewPlayer(sc.reg, registry.Spec{
			"key":      name,
			"name":     name,
			"rackSize": g.EditionSet().RackCount,
		})
		if err != nil {
			return nil, err
		}
		if err := g.AddPlayer(p, false); err != nil {
			return nil, err
		}
	}
	if err := g.Start(); err != nil {
		return nil, err
	}
	sc.curGame = g
	return msg(g.ToDisplayText()), nil
}

func (sc *ShellController) unpack(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("need exactly one packed game (quote it)")
	}
	g, err := game.Unpack(sc.reg, sc.cfg, cmd.args[0])
	if err != nil {
		return nil, err
	}
	sc.curGame = g
	return msg(g.ToDisplayText()), nil
}

func (sc *ShellController) pack(cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	return msg(g.Pack()), nil
}

func (sc *ShellController) digest(cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("%016x", g.Digest())), nil
}

func (sc *ShellController) show(ctx context.Context, cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	var v any
	if cmd.options["viewer"] != "" || (len(cmd.args) > 0 && cmd.args[0] == "public") {
		v, err = g.Serialisable(ctx, nil, cmd.options["viewer"])
		if err != nil {
			return nil, err
		}
	} else {
		v = map[string]any(g.Structure())
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return msg(string(out)), nil
}

func (sc *ShellController) display(cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	return msg(g.ToDisplayText()), nil
}

func (sc *ShellController) players(cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, p := range g.Players() {
		marker := " "
		if p.Key == g.WhosTurnKey {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %s [%s]\n", marker, p, strings.Join(p.Rack.Letters(), ""))
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) turns(cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	g.ForEachTurn(func(i int, t game.Turn) bool {
		fmt.Fprintf(&sb, "%3d %s\n", i+1, t)
		return false
	})
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

// parsePlacements reads "<col> <row> <across|down> <letters>". A lower-case
// letter is played as a blank.
func parsePlacements(args []string) ([]game.Placement, error) {
	if len(args) != 4 {
		return nil, errors.New("play needs: <col> <row> <across|down> <letters>")
	}
	col, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("bad column %q", args[0])
	}
	row, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, fmt.Errorf("bad row %q", args[1])
	}
	dc, dr := 1, 0
	switch strings.ToLower(args[2]) {
	case "across", "a":
	case "down", "d":
		dc, dr = 0, 1
	default:
		return nil, fmt.Errorf("bad direction %q", args[2])
	}
	var pl []game.Placement
	for i, r := range []rune(args[3]) {
		pl = append(pl, game.Placement{
			Col:     col + i*dc,
			Row:     row + i*dr,
			Letter:  string(unicode.ToUpper(r)),
			IsBlank: unicode.IsLower(r),
		})
	}
	return pl, nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	pl, err := parsePlacements(cmd.args)
	if err != nil {
		return nil, err
	}
	key, err := sc.whoPlays(g, cmd)
	if err != nil {
		return nil, err
	}
	t, err := g.Play(key, pl)
	if err != nil {
		return nil, err
	}
	return msg(t.String()), nil
}

func (sc *ShellController) swap(cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("swap needs the letters to swap; ? is a blank")
	}
	key, err := sc.whoPlays(g, cmd)
	if err != nil {
		return nil, err
	}
	letters := lo.Map([]rune(cmd.args[0]), func(r rune, _ int) string {
		return string(unicode.ToUpper(r))
	})
	t, err := g.Swap(key, letters)
	if err != nil {
		return nil, err
	}
	return msg(t.String()), nil
}

func (sc *ShellController) pass(cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	key, err := sc.whoPlays(g, cmd)
	if err != nil {
		return nil, err
	}
	t, err := g.Pass(key)
	if err != nil {
		return nil, err
	}
	return msg(t.String()), nil
}

func (sc *ShellController) timeout(cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	key, err := sc.whoPlays(g, cmd)
	if err != nil {
		return nil, err
	}
	t, err := g.TimeOut(key)
	if err != nil {
		return nil, err
	}
	return msg(t.String()), nil
}

func (sc *ShellController) challenge(ctx context.Context, cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	name := CmdOptions(cmd.options).String("dictionary", g.Dictionary)
	dict, err := LoadWordList(sc.cfg, name)
	if err != nil {
		return nil, err
	}
	key, err := sc.whoPlays(g, cmd)
	if err != nil {
		return nil, err
	}
	t, err := g.Challenge(ctx, dict, key)
	if err != nil {
		return nil, err
	}
	return msg(t.String()), nil
}

func (sc *ShellController) takeBack(cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	removed, err := g.TakeBack()
	if err != nil {
		return nil, err
	}
	lines := lo.Map(removed, func(t game.Turn, _ int) string { return "took back " + t.String() })
	return msg(strings.Join(lines, "\n")), nil
}

func (sc *ShellController) endGame(cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	t, err := g.EndGame()
	if err != nil {
		return nil, err
	}
	return msg(t.String()), nil
}

func (sc *ShellController) save(ctx context.Context, cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	if err := sc.store.Save(ctx, g); err != nil {
		return nil, err
	}
	return msg("saved " + g.Key), nil
}

func (sc *ShellController) load(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("load needs a game key")
	}
	g, err := sc.store.Load(ctx, cmd.args[0])
	if err != nil {
		return nil, err
	}
	sc.curGame = g
	return msg(g.ToDisplayText()), nil
}

func (sc *ShellController) deleteGame(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("delete needs a game key")
	}
	if err := sc.store.Delete(ctx, cmd.args[0]); err != nil {
		return nil, err
	}
	if sc.curGame != nil && sc.curGame.Key == cmd.args[0] {
		sc.curGame = nil
	}
	return msg("deleted " + cmd.args[0]), nil
}

func (sc *ShellController) list(ctx context.Context, cmd *shellcmd) (*Response, error) {
	games, err := sc.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return msg("no saved games"), nil
	}
	var sb strings.Builder
	for _, s := range games {
		fmt.Fprintf(&sb, "%-20s %-20s %-10s %s\n", s.Key, s.Edition, s.State,
			time.UnixMilli(s.LastActivity).Format(time.RFC3339))
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) export(cmd *shellcmd) (*Response, error) {
	g, err := sc.requireGame()
	if err != nil {
		return nil, err
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("export needs a file name")
	}
	c, err := codec.ByName(cmd.options["codec"])
	if err != nil {
		return nil, err
	}
	data, err := codec.EncodeGame(c, g)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(cmd.args[0], data, 0o644); err != nil {
		return nil, err
	}
	log.Debug().Str("file", cmd.args[0]).Str("codec", c.Name()).Msg("exported")
	return msg(fmt.Sprintf("wrote %d bytes (%s)", len(data), c.Name())), nil
}

func (sc *ShellController) importGame(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("import needs a file name")
	}
	c, err := codec.ByName(cmd.options["codec"])
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(cmd.args[0])
	if err != nil {
		return nil, err
	}
	g, err := codec.DecodeGame(c, sc.reg, data)
	if err != nil {
		return nil, err
	}
	sc.curGame = g
	return msg(g.ToDisplayText()), nil
}
