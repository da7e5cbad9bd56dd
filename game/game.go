// Package game holds the game aggregate: the board, the bag, the players
// and the turn ledger, and the rules that move a game from one turn to the
// next. It also implements both saved forms of a game, the class-tagged
// structure used for storage and the compact packed string used in links.
package game

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/domino14/tilegame/bag"
	"github.com/domino14/tilegame/board"
	"github.com/domino14/tilegame/config"
	"github.com/domino14/tilegame/edition"
	"github.com/domino14/tilegame/registry"
)

const (
	DefaultPenaltyPoints  = 5
	DefaultMaxPackedTurns = 10
	DefaultLookupTimeout  = 5 * time.Second
)

// User is what the user manager knows about a player.
type User struct {
	Key   string
	Name  string
	Email string
}

// UserManager looks up the users behind player keys.
type UserManager interface {
	GetUser(ctx context.Context, key string) (*User, error)
}

// Dictionary decides challenges.
type Dictionary interface {
	// Check returns the words that are not in the dictionary.
	Check(ctx context.Context, words []string) ([]string, error)
}

// Options are the settings and scalar state of a game.
type Options struct {
	Key               string    `spec:"key"`
	CreationTimestamp int64     `spec:"creationTimestamp"`
	Edition           string    `spec:"edition"`
	Dictionary        string    `spec:"dictionary"`
	State             State     `spec:"state"`
	TimerType         TimerType `spec:"timerType"`
	TimeAllowed       int       `spec:"timeAllowed"`
	TimePenalty       int       `spec:"timePenalty"`
	PredictScore      bool      `spec:"predictScore"`
	AllowTakeBack     bool      `spec:"allowTakeBack"`
	WordCheck         WordCheck `spec:"wordCheck"`
	ChallengePenalty  Penalty   `spec:"challengePenalty"`
	PenaltyPoints     int       `spec:"penaltyPoints"`
	MinPlayers        int       `spec:"minPlayers"`
	// MaxPlayers of 0 means no limit.
	MaxPlayers  int    `spec:"maxPlayers"`
	WhosTurnKey string `spec:"whosTurnKey"`
	PausedBy    string `spec:"pausedBy"`
	NextGameKey string `spec:"nextGameKey"`

	// MaxPackedTurns is how many of the latest turns Pack keeps.
	MaxPackedTurns int `spec:"-"`
	// LookupTimeout bounds the user lookups in Serialisable.
	LookupTimeout time.Duration `spec:"-"`
}

// Game is the aggregate root. A Game is not safe for concurrent use: callers
// must make sure only one operation runs on it at a time.
type Game struct {
	Options

	reg     *registry.Registry
	ed      *edition.Edition
	board   *board.Surface
	bag     *bag.LetterBag
	players []*Player
	turns   *TurnLog
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func newKey() string {
	return hex.EncodeToString(frand.Bytes(8))
}

// New creates a game in the WAITING state with an empty board and a full
// bag.
func New(reg *registry.Registry, ed *edition.Edition, opts Options) (*Game, error) {
	g := &Game{Options: opts, reg: reg, ed: ed, turns: &TurnLog{}}
	g.Edition = ed.Name
	if g.Key == "" {
		g.Key = newKey()
	}
	if g.CreationTimestamp == 0 {
		g.CreationTimestamp = nowMillis()
	}
	if g.MaxPlayers > 0 && g.MaxPlayers < g.MinPlayers {
		g.MaxPlayers = 0
	}
	if g.PenaltyPoints == 0 {
		g.PenaltyPoints = DefaultPenaltyPoints
	}
	if g.MaxPackedTurns == 0 {
		g.MaxPackedTurns = DefaultMaxPackedTurns
	}
	if g.LookupTimeout == 0 {
		g.LookupTimeout = DefaultLookupTimeout
	}
	var err error
	if g.board, err = board.NewBoard(reg, ed); err != nil {
		return nil, err
	}
	if g.bag, err = bag.New(reg, ed); err != nil {
		return nil, err
	}
	log.Debug().Str("key", g.Key).Str("edition", g.Edition).Msg("new game")
	return g, nil
}

// applyConfig fills in the options that come from configuration.
func applyConfig(opts *Options, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if opts.MaxPackedTurns == 0 {
		opts.MaxPackedTurns = cfg.GetInt(config.ConfigMaxPackedTurns)
	}
	if opts.LookupTimeout == 0 {
		opts.LookupTimeout = cfg.GetDuration(config.ConfigLookupTimeout)
	}
	if opts.Dictionary == "" {
		opts.Dictionary = cfg.GetString(config.ConfigDefaultDictionary)
	}
}

// Create makes a new game using an edition from the configured sources.
func Create(reg *registry.Registry, cfg *config.Config, opts Options) (*Game, error) {
	name := opts.Edition
	if name == "" {
		name = cfg.GetString(config.ConfigDefaultEdition)
	}
	ed, err := edition.Get(cfg, name)
	if err != nil {
		return nil, err
	}
	applyConfig(&opts, cfg)
	return New(reg, ed, opts)
}

// Register adds the constructors for every game entity to reg.
func Register(reg *registry.Registry, cfg *config.Config) {
	board.Register(reg)
	bag.Register(reg)
	reg.Register("Player", newPlayerFromSpec)
	reg.Register("Turn", newTurnFromSpec)
	reg.Register("Game", func(reg *registry.Registry, spec registry.Spec) (any, error) {
		return restore(reg, cfg, spec)
	})
}

// NewRegistry returns a registry with the standard game entities.
func NewRegistry(cfg *config.Config) *registry.Registry {
	reg := registry.New()
	Register(reg, cfg)
	return reg
}

func (g *Game) Board() *board.Surface {
	return g.board
}

func (g *Game) Bag() *bag.LetterBag {
	return g.bag
}

// EditionSet is the edition the game is played with.
func (g *Game) EditionSet() *edition.Edition {
	return g.ed
}

// At returns the board square at col, row.
func (g *Game) At(col, row int) *board.Square {
	return g.board.At(col, row)
}

// Players returns the players in turn order. The slice is a copy.
func (g *Game) Players() []*Player {
	return append([]*Player(nil), g.players...)
}

func (g *Game) NumPlayers() int {
	return len(g.players)
}

func (g *Game) playerIndex(key string) int {
	_, i, ok := lo.FindIndexOf(g.players, func(p *Player) bool { return p.Key == key })
	if !ok {
		return -1
	}
	return i
}

// PlayerWithKey returns the player with the given key, or nil.
func (g *Game) PlayerWithKey(key string) *Player {
	if i := g.playerIndex(key); i >= 0 {
		return g.players[i]
	}
	return nil
}

// Player returns the player whose turn it is, or nil.
func (g *Game) Player() *Player {
	return g.PlayerWithKey(g.WhosTurnKey)
}

// PlayerWithNoTiles returns the first player with an empty rack, or nil.
func (g *Game) PlayerWithNoTiles() *Player {
	p, _ := lo.Find(g.players, func(p *Player) bool { return p.Rack.IsEmpty() })
	return p
}

func (g *Game) HasRobot() bool {
	return lo.SomeBy(g.players, func(p *Player) bool { return p.IsRobot })
}

// AddPlayer seats p at the end of the turn order. If fillRack is set the
// player draws a full rack.
func (g *Game) AddPlayer(p *Player, fillRack bool) error {
	if g.State == StateGameOver {
		return fmt.Errorf("%w: cannot join a finished game", ErrInvariant)
	}
	if g.playerIndex(p.Key) >= 0 {
		return fmt.Errorf("%w: player %s is already in the game", ErrInvariant, p.Key)
	}
	if g.MaxPlayers > 0 && len(g.players) >= g.MaxPlayers {
		return fmt.Errorf("%w: game already has %d players", ErrInvariant, g.MaxPlayers)
	}
	if p.Rack == nil || p.Rack.Cols != g.ed.RackCount {
		if p.Rack != nil && !p.Rack.IsEmpty() {
			return fmt.Errorf("%w: rack of %s does not fit edition %s", ErrInvariant, p.Key, g.Edition)
		}
		rack, err := board.NewRack(g.reg, "Rack_"+p.Key, g.ed.RackCount)
		if err != nil {
			return err
		}
		p.Rack = rack
	}
	g.players = append(g.players, p)
	if fillRack {
		p.FillRack(g.bag, g.ed.RackCount)
	}
	log.Debug().Str("game", g.Key).Str("player", p.Key).Int("players", len(g.players)).
		Msg("player added")
	return nil
}

// RemovePlayer takes a player out of a game that has not started. Their
// tiles go back in the bag.
func (g *Game) RemovePlayer(key string) error {
	if g.State != StateWaiting {
		return fmt.Errorf("%w: players can only leave before the game starts", ErrInvariant)
	}
	i := g.playerIndex(key)
	if i < 0 {
		return fmt.Errorf("%w: no player %s", ErrInvariant, key)
	}
	p := g.players[i]
	p.ReturnRack(g.bag)
	g.players = append(g.players[:i], g.players[i+1:]...)
	if g.WhosTurnKey == key {
		g.WhosTurnKey = ""
	}
	log.Debug().Str("game", g.Key).Str("player", key).Msg("player removed")
	return nil
}

// NextPlayer returns the player after ref in turn order, where ref defaults
// to the player whose turn it is. A player flagged to miss a turn is
// skipped, and the flag is cleared.
func (g *Game) NextPlayer(ref string) *Player {
	p, _ := g.walk(ref, 1)
	return p
}

// PreviousPlayer is NextPlayer going the other way.
func (g *Game) PreviousPlayer(ref string) *Player {
	p, _ := g.walk(ref, -1)
	return p
}

// walk also returns the keys of the players whose flag it cleared, so that
// a take-back can set them again.
func (g *Game) walk(ref string, step int) (*Player, []string) {
	if ref == "" {
		ref = g.WhosTurnKey
	}
	n := len(g.players)
	i := g.playerIndex(ref)
	if i < 0 {
		return nil, nil
	}
	var skipped []string
	// Two laps are enough: every flag met on the first lap is cleared.
	for k := 1; k <= 2*n; k++ {
		p := g.players[((i+step*k)%n+n)%n]
		if p.MissNextTurn {
			log.Debug().Str("player", p.Key).Msg("missing a turn")
			p.MissNextTurn = false
			skipped = append(skipped, p.Key)
			continue
		}
		return p, skipped
	}
	return nil, skipped
}

// CalculateBonus is the bonus for playing n tiles in one move.
func (g *Game) CalculateBonus(n int) int {
	if n == g.ed.RackCount {
		return g.ed.BingoBonus
	}
	return 0
}

// Winner returns the player with the highest score. On a tie the first of
// them in turn order wins.
func (g *Game) Winner() *Player {
	return lo.MaxBy(g.players, func(a, b *Player) bool { return a.Score > b.Score })
}

func (g *Game) WinningScore() int {
	if w := g.Winner(); w != nil {
		return w.Score
	}
	return 0
}

// LastTurn returns the latest turn, if there is one.
func (g *Game) LastTurn() (Turn, bool) {
	return g.turns.Last()
}

// ForEachTurn calls fn for each turn, oldest first, until fn returns true.
func (g *Game) ForEachTurn(fn func(i int, t Turn) bool) bool {
	return g.turns.ForEach(fn)
}

// Turns returns a copy of the turn ledger.
func (g *Game) Turns() []Turn {
	return g.turns.All()
}

func (g *Game) NumTurns() int {
	return g.turns.Len()
}

// LastActivity is the time of the latest turn, or the creation time.
func (g *Game) LastActivity() int64 {
	if t, ok := g.turns.Last(); ok {
		return t.Timestamp
	}
	return g.CreationTimestamp
}

// CanStart reports whether there are enough players to start.
func (g *Game) CanStart() bool {
	n := len(g.players)
	return g.State == StateWaiting && n > 0 && n >= g.MinPlayers &&
		(g.MaxPlayers == 0 || n <= g.MaxPlayers)
}

// Start moves the game from WAITING to PLAYING, topping up every rack.
func (g *Game) Start() error {
	if !g.CanStart() {
		return fmt.Errorf("%w: cannot start a %s game with %d players",
			ErrInvariant, g.State, len(g.players))
	}
	for _, p := range g.players {
		p.FillRack(g.bag, g.ed.RackCount)
	}
	if g.Player() == nil {
		g.WhosTurnKey = g.players[0].Key
	}
	g.State = StatePlaying
	log.Info().Str("game", g.Key).Str("first", g.WhosTurnKey).Msg("game started")
	return nil
}

// Pause stops play. It is recorded who paused.
func (g *Game) Pause(by string) error {
	if g.State != StatePlaying {
		return fmt.Errorf("%w: only a game in play can be paused", ErrInvariant)
	}
	if g.PausedBy != "" {
		return fmt.Errorf("%w: already paused by %s", ErrInvariant, g.PausedBy)
	}
	if by == "" {
		return fmt.Errorf("%w: pause needs a name", ErrInvariant)
	}
	g.PausedBy = by
	return nil
}

func (g *Game) Resume() error {
	if g.PausedBy == "" {
		return fmt.Errorf("%w: game is not paused", ErrInvariant)
	}
	g.PausedBy = ""
	return nil
}

func (g *Game) checkTurn(t Turn) error {
	if !t.Type.valid() {
		return fmt.Errorf("%w: unknown turn type %d", ErrInvariant, t.Type)
	}
	if g.PlayerWithKey(t.PlayerKey) == nil {
		return fmt.Errorf("%w: turn by %q, who is not playing", ErrInvariant, t.PlayerKey)
	}
	if t.NextToGoKey != "" && g.PlayerWithKey(t.NextToGoKey) == nil {
		return fmt.Errorf("%w: next player %q is not playing", ErrInvariant, t.NextToGoKey)
	}
	if t.ChallengerKey != "" && g.PlayerWithKey(t.ChallengerKey) == nil {
		return fmt.Errorf("%w: challenger %q is not playing", ErrInvariant, t.ChallengerKey)
	}
	if t.Type == TurnChallengeLost && t.ChallengerKey == "" {
		return fmt.Errorf("%w: a lost challenge needs a challenger", ErrInvariant)
	}
	for _, k := range t.Skipped {
		if g.PlayerWithKey(k) == nil {
			return fmt.Errorf("%w: skipped player %q is not playing", ErrInvariant, k)
		}
	}
	for _, d := range t.Adjustments {
		if g.PlayerWithKey(d.PlayerKey) == nil {
			return fmt.Errorf("%w: adjustment for %q, who is not playing", ErrInvariant, d.PlayerKey)
		}
	}
	return nil
}

// RecordTurn appends a turn to the ledger and applies its score and
// whose-turn effects. Board, rack and bag are not touched; the move methods
// do that before recording.
func (g *Game) RecordTurn(t Turn) error {
	if g.State != StatePlaying {
		return fmt.Errorf("%w: cannot record a turn in a %s game", ErrInvariant, g.State)
	}
	if g.PausedBy != "" {
		return fmt.Errorf("%w: game is paused", ErrInvariant)
	}
	if err := g.checkTurn(t); err != nil {
		return err
	}
	g.record(t)
	return nil
}

func (g *Game) record(t Turn) Turn {
	if t.GameKey == "" {
		t.GameKey = g.Key
	}
	if t.Timestamp == 0 {
		t.Timestamp = nowMillis()
	}
	p := g.PlayerWithKey(t.PlayerKey)
	g.PlayerWithKey(t.scoredKey()).Score += t.Score
	for _, d := range t.Adjustments {
		g.PlayerWithKey(d.PlayerKey).Score += d.Delta
	}
	switch t.Type {
	case TurnPassed, TurnTimedOut:
		p.Passes++
	case TurnPlaced, TurnSwapped:
		p.Passes = 0
	}
	if t.NextToGoKey != "" {
		g.WhosTurnKey = t.NextToGoKey
	}
	if t.Type == TurnGameEnded {
		g.State = StateGameOver
	}
	g.turns.Push(t)
	log.Debug().Str("game", g.Key).Stringer("turn", t).Msg("recorded turn")
	return t
}

// requireTurn checks that key may make a move now.
func (g *Game) requireTurn(key string) (*Player, error) {
	if g.State != StatePlaying {
		return nil, fmt.Errorf("%w: game is %s", ErrInvariant, g.State)
	}
	if g.PausedBy != "" {
		return nil, fmt.Errorf("%w: game is paused", ErrInvariant)
	}
	p := g.PlayerWithKey(key)
	if p == nil {
		return nil, fmt.Errorf("%w: %q is not playing", ErrInvariant, key)
	}
	if key != g.WhosTurnKey {
		return nil, fmt.Errorf("%w: it is not %s's turn", ErrInvariant, key)
	}
	return p, nil
}

// tileKey is how a tile is matched on a rack: upper-case letter, or "?" for
// a blank.
func tileKey(letter string, isBlank bool) string {
	if isBlank {
		return "?"
	}
	return strings.ToUpper(letter)
}

func tileCounts(tiles []board.Tile) map[string]int {
	return lo.CountValuesBy(tiles, func(t board.Tile) string { return tileKey(t.Letter, t.IsBlank) })
}

// holds reports whether tiles has every tile of want.
func holds(tiles []*board.Tile, want map[string]int) bool {
	have := lo.CountValuesBy(tiles, func(t *board.Tile) string { return tileKey(t.Letter, t.IsBlank) })
	for k, n := range want {
		if have[k] < n {
			return false
		}
	}
	return true
}

// Play puts tiles from the player's rack on the board, scores the move and
// refills the rack. When the rack and the bag are both empty afterwards the
// game ends.
func (g *Game) Play(playerKey string, placements []Placement) (Turn, error) {
	p, err := g.requireTurn(playerKey)
	if err != nil {
		return Turn{}, err
	}
	placements = lo.Map(placements, func(pl Placement, _ int) Placement {
		pl.Letter = strings.ToUpper(pl.Letter)
		return pl
	})
	want := lo.CountValuesBy(placements, func(pl Placement) string {
		return tileKey(pl.Letter, pl.IsBlank)
	})
	if !holds(p.Rack.Tiles(), want) {
		return Turn{}, fmt.Errorf("%w: %s does not hold those tiles", ErrInvariant, playerKey)
	}
	score, words, err := ScorePlacement(g.board, placements, g.ed)
	if err != nil {
		return Turn{}, err
	}
	score += g.CalculateBonus(len(placements))

	for _, pl := range placements {
		t := p.Rack.TakeLetter(tileKey(pl.Letter, pl.IsBlank))
		if pl.IsBlank {
			t.Letter = pl.Letter
		}
		t.IsLocked = true
		if err := g.board.At(pl.Col, pl.Row).PlaceTile(t); err != nil {
			return Turn{}, err
		}
	}
	drawn := p.FillRack(g.bag, g.ed.RackCount)
	next, skipped := g.walk(playerKey, 1)
	turn := g.record(Turn{
		Type:         TurnPlaced,
		Score:        score,
		PlayerKey:    playerKey,
		NextToGoKey:  next.Key,
		Placements:   placements,
		Replacements: tileCopies(drawn),
		Words:        words,
		Skipped:      skipped,
	})
	if p.Rack.IsEmpty() && g.bag.IsEmpty() {
		if _, err := g.EndGame(); err != nil {
			return turn, err
		}
	}
	return turn, nil
}

// Swap returns letters from the player's rack to the bag in exchange for
// the same number of new tiles. "?" swaps a blank.
func (g *Game) Swap(playerKey string, letters []string) (Turn, error) {
	p, err := g.requireTurn(playerKey)
	if err != nil {
		return Turn{}, err
	}
	if len(letters) == 0 {
		return Turn{}, fmt.Errorf("%w: nothing to swap", ErrInvariant)
	}
	if g.bag.Len() < max(len(letters), g.ed.SwapCount) {
		return Turn{}, fmt.Errorf("%w: only %d tiles in the bag", ErrInvariant, g.bag.Len())
	}
	want := lo.CountValuesBy(letters, func(l string) string { return tileKey(l, l == "?" || l == "") })
	if !holds(p.Rack.Tiles(), want) {
		return Turn{}, fmt.Errorf("%w: %s does not hold those tiles", ErrInvariant, playerKey)
	}
	swapped := make([]*board.Tile, 0, len(letters))
	for _, l := range letters {
		swapped = append(swapped, p.Rack.TakeLetter(l))
	}
	drawn, err := g.bag.Draw(len(swapped))
	if err != nil {
		return Turn{}, err
	}
	for _, t := range drawn {
		_ = p.Rack.AddTile(t)
	}
	swappedCopies := tileCopies(swapped)
	g.bag.Return(swapped...)
	next, skipped := g.walk(playerKey, 1)
	return g.record(Turn{
		Type:         TurnSwapped,
		PlayerKey:    playerKey,
		NextToGoKey:  next.Key,
		Replacements: tileCopies(drawn),
		Swapped:      swappedCopies,
		Skipped:      skipped,
	}), nil
}

// Pass skips the player's turn. The game ends once every player has
// passed twice in a row.
func (g *Game) Pass(playerKey string) (Turn, error) {
	if _, err := g.requireTurn(playerKey); err != nil {
		return Turn{}, err
	}
	next, skipped := g.walk(playerKey, 1)
	turn := g.record(Turn{Type: TurnPassed, PlayerKey: playerKey, NextToGoKey: next.Key, Skipped: skipped})
	return turn, g.endIfAllPassed()
}

// TimeOut records that the player ran out of time. It counts as a pass; in
// a game with a whole-game timer it also costs TimePenalty points.
func (g *Game) TimeOut(playerKey string) (Turn, error) {
	if g.TimerType == TimerNone {
		return Turn{}, fmt.Errorf("%w: game has no timer", ErrInvariant)
	}
	if _, err := g.requireTurn(playerKey); err != nil {
		return Turn{}, err
	}
	score := 0
	if g.TimerType == TimerGame {
		score = -g.TimePenalty
	}
	next, skipped := g.walk(playerKey, 1)
	turn := g.record(Turn{
		Type:        TurnTimedOut,
		Score:       score,
		PlayerKey:   playerKey,
		NextToGoKey: next.Key,
		Skipped:     skipped,
	})
	return turn, g.endIfAllPassed()
}

func (g *Game) endIfAllPassed() error {
	if len(g.players) == 0 || lo.SomeBy(g.players, func(p *Player) bool { return p.Passes < 2 }) {
		return nil
	}
	log.Debug().Str("game", g.Key).Msg("all players passed twice")
	_, err := g.EndGame()
	return err
}

// EndGame finishes the game. Every player loses the value of the tiles
// left on their rack; if the bag is empty and someone has played out, they
// gain the total.
func (g *Game) EndGame() (Turn, error) {
	if g.State != StatePlaying {
		return Turn{}, fmt.Errorf("%w: cannot end a %s game", ErrInvariant, g.State)
	}
	if len(g.players) == 0 {
		return Turn{}, fmt.Errorf("%w: cannot end a game with no players", ErrInvariant)
	}
	var out *Player
	if g.bag.IsEmpty() {
		out = g.PlayerWithNoTiles()
	}
	adjustments := []ScoreDelta{}
	total := 0
	for _, p := range g.players {
		if v := p.Rack.Score(); !p.Rack.IsEmpty() {
			total += v
			adjustments = append(adjustments, ScoreDelta{PlayerKey: p.Key, Delta: -v})
		}
	}
	key := g.WhosTurnKey
	if out != nil {
		key = out.Key
		if total > 0 {
			adjustments = append(adjustments, ScoreDelta{PlayerKey: out.Key, Delta: total})
		}
	}
	if g.PlayerWithKey(key) == nil {
		key = g.players[0].Key
	}
	turn := g.record(Turn{Type: TurnGameEnded, PlayerKey: key, Adjustments: adjustments})
	log.Info().Str("game", g.Key).Str("winner", g.Winner().Key).Int("score", g.WinningScore()).
		Msg("game over")
	return turn, nil
}

// Challenge checks the words of the latest move. If any is not a word the
// move comes off the board and its score is taken back; otherwise the
// challenger pays the game's challenge penalty. Either way the turn's
// PlayerKey is the player who made the move. The game is not changed if
// the dictionary fails.
func (g *Game) Challenge(ctx context.Context, dict Dictionary, challengerKey string) (Turn, error) {
	if g.State == StateWaiting {
		return Turn{}, fmt.Errorf("%w: game has not started", ErrInvariant)
	}
	challenger := g.PlayerWithKey(challengerKey)
	if challenger == nil {
		return Turn{}, fmt.Errorf("%w: %q is not playing", ErrInvariant, challengerKey)
	}
	if challenger.IsRobot && !challenger.CanChallenge {
		return Turn{}, fmt.Errorf("%w: %s cannot challenge", ErrInvariant, challengerKey)
	}
	idx := g.turns.Len() - 1
	last, ok := g.turns.At(idx)
	var end *Turn
	if ok && last.Type == TurnGameEnded {
		end = &last
		idx--
		last, ok = g.turns.At(idx)
	}
	if !ok || last.Type != TurnPlaced {
		return Turn{}, fmt.Errorf("%w: there is no move to challenge", ErrInvariant)
	}
	if last.PlayerKey == challengerKey {
		return Turn{}, fmt.Errorf("%w: cannot challenge your own move", ErrInvariant)
	}
	challenged := g.PlayerWithKey(last.PlayerKey)
	if challenged == nil {
		return Turn{}, fmt.Errorf("%w: %q is no longer playing", ErrInvariant, last.PlayerKey)
	}
	words := lo.Map(last.Words, func(w WordScore, _ int) string { return w.Word })
	bad, err := dict.Check(ctx, words)
	if err != nil {
		return Turn{}, fmt.Errorf("checking %v: %w", words, err)
	}

	if len(bad) == 0 {
		turn := Turn{
			Type:          TurnChallengeLost,
			PlayerKey:     challenged.Key,
			ChallengerKey: challengerKey,
			NextToGoKey:   g.WhosTurnKey,
		}
		switch g.ChallengePenalty {
		case PenaltyMiss:
			if g.State == StatePlaying {
				if challengerKey == g.WhosTurnKey {
					next, skipped := g.walk(challengerKey, 1)
					turn.NextToGoKey = next.Key
					turn.Skipped = skipped
				} else {
					challenger.MissNextTurn = true
				}
			}
		case PenaltyPerTurn:
			turn.Score = -g.PenaltyPoints
		case PenaltyPerWord:
			turn.Score = -g.PenaltyPoints * len(words)
		}
		return g.record(turn), nil
	}

	if !holds(challenged.Rack.Tiles(), tileCounts(last.Replacements)) {
		return Turn{}, fmt.Errorf("%w: rack of %s no longer holds the tiles drawn", ErrInvariant, challenged.Key)
	}
	if end != nil {
		g.undoGameEnd(*end)
		if _, err := g.turns.RevertTo(idx + 1); err != nil {
			return Turn{}, err
		}
	}
	g.unplay(challenged, last)
	log.Debug().Strs("bad", bad).Str("challenged", challenged.Key).Msg("challenge won")
	return g.record(Turn{
		Type:          TurnChallengeWon,
		Score:         -last.Score,
		PlayerKey:     challenged.Key,
		ChallengerKey: challengerKey,
		NextToGoKey:   g.WhosTurnKey,
		Placements:    last.Placements,
		Words:         last.Words,
	}), nil
}

// unplay reverses the board, rack and bag effects of a placed turn.
func (g *Game) unplay(p *Player, t Turn) {
	for _, r := range t.Replacements {
		g.bag.Return(p.Rack.TakeLetter(tileKey(r.Letter, r.IsBlank)))
	}
	for _, pl := range t.Placements {
		tile := g.board.At(pl.Col, pl.Row).ForceRemoveTile()
		tile.Reset()
		_ = p.Rack.AddTile(tile)
	}
}

func (g *Game) undoGameEnd(t Turn) {
	for _, d := range t.Adjustments {
		if p := g.PlayerWithKey(d.PlayerKey); p != nil {
			p.Score -= d.Delta
		}
	}
	g.State = StatePlaying
}

// TakeBack undoes the latest move (and the end of the game, if that move
// ended it) and returns the turns removed from the ledger. It is turned on
// by AllowTakeBack.
func (g *Game) TakeBack() ([]Turn, error) {
	if !g.AllowTakeBack {
		return nil, fmt.Errorf("%w: take-back is not allowed", ErrInvariant)
	}
	if g.State == StateWaiting {
		return nil, fmt.Errorf("%w: game has not started", ErrInvariant)
	}
	idx := g.turns.Len() - 1
	last, ok := g.turns.At(idx)
	var end *Turn
	if ok && last.Type == TurnGameEnded {
		end = &last
		idx--
		last, ok = g.turns.At(idx)
	}
	if !ok {
		return nil, fmt.Errorf("%w: there is nothing to take back", ErrInvariant)
	}
	p := g.PlayerWithKey(last.PlayerKey)
	if p == nil {
		return nil, fmt.Errorf("%w: %q is no longer playing", ErrInvariant, last.PlayerKey)
	}
	switch last.Type {
	case TurnPlaced:
		if len(last.Placements) == 0 {
			return nil, fmt.Errorf("%w: the tiles of that move were not recorded", ErrInvariant)
		}
		if !holds(p.Rack.Tiles(), tileCounts(last.Replacements)) {
			return nil, fmt.Errorf("%w: rack of %s no longer holds the tiles drawn", ErrInvariant, p.Key)
		}
	case TurnSwapped:
		if !holds(p.Rack.Tiles(), tileCounts(last.Replacements)) || !holds(g.bag.Tiles(), tileCounts(last.Swapped)) {
			return nil, fmt.Errorf("%w: the swapped tiles cannot be found", ErrInvariant)
		}
	case TurnPassed, TurnTimedOut:
	default:
		return nil, fmt.Errorf("%w: a %s turn cannot be taken back", ErrInvariant, last.Type)
	}

	if end != nil {
		g.undoGameEnd(*end)
	}
	switch last.Type {
	case TurnPlaced:
		g.unplay(p, last)
	case TurnSwapped:
		for _, r := range last.Replacements {
			g.bag.Return(p.Rack.TakeLetter(tileKey(r.Letter, r.IsBlank)))
		}
		for _, s := range last.Swapped {
			t, _ := g.bag.Remove(s.Letter, s.IsBlank)
			_ = p.Rack.AddTile(t)
		}
	case TurnPassed, TurnTimedOut:
		if p.Passes > 0 {
			p.Passes--
		}
	}
	for _, k := range last.Skipped {
		if q := g.PlayerWithKey(k); q != nil {
			q.MissNextTurn = true
		}
	}
	p.Score -= last.Score
	g.WhosTurnKey = p.Key
	g.State = StatePlaying
	removed, err := g.turns.RevertTo(idx)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("game", g.Key).Int("turns", len(removed)).Msg("took back")
	return removed, nil
}
