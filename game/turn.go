package game

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/domino14/tilegame/board"
	"github.com/domino14/tilegame/registry"
)

// A Placement is one tile put on the board in a move.
type Placement struct {
	Col     int    `spec:"col"`
	Row     int    `spec:"row"`
	Letter  string `spec:"letter"`
	IsBlank bool   `spec:"isBlank"`
}

// A WordScore is one word formed by a move and what it scored.
type WordScore struct {
	Word  string `spec:"word"`
	Score int    `spec:"score"`
}

// A ScoreDelta is a score change for one player, used for the rack
// adjustments at the end of a game.
type ScoreDelta struct {
	PlayerKey string `spec:"playerKey"`
	Delta     int    `spec:"delta"`
}

// A Turn is one entry in the game ledger. Turns are values: the log hands
// out deep copies, and nothing changes a turn once it is recorded.
//
// Score is applied to PlayerKey, except for a lost challenge, where
// PlayerKey is the player whose move was challenged and the score (the
// penalty) goes to ChallengerKey. For a won challenge PlayerKey is the
// player whose move came off the board.
type Turn struct {
	Type          TurnType `spec:"type"`
	Score         int      `spec:"score"`
	GameKey       string   `spec:"gameKey"`
	PlayerKey     string   `spec:"playerKey"`
	NextToGoKey   string   `spec:"nextToGoKey"`
	ChallengerKey string   `spec:"challengerKey"`
	Timestamp     int64    `spec:"timestamp"`

	// Replacements are the tiles drawn after a move or swap.
	Replacements []board.Tile `spec:"-"`
	// Swapped are the tiles put back in the bag by a swap.
	Swapped     []board.Tile `spec:"-"`
	Placements  []Placement  `spec:"placements"`
	Words       []WordScore  `spec:"words"`
	Adjustments []ScoreDelta `spec:"adjustments"`
	// Skipped are the players whose missed turn was used up in choosing
	// NextToGoKey.
	Skipped []string `spec:"skipped"`
}

// scoredKey is the player the turn's score belongs to.
func (t Turn) scoredKey() string {
	if t.Type == TurnChallengeLost {
		return t.ChallengerKey
	}
	return t.PlayerKey
}

func (t Turn) clone() Turn {
	t.Replacements = slices.Clone(t.Replacements)
	t.Swapped = slices.Clone(t.Swapped)
	t.Placements = slices.Clone(t.Placements)
	t.Words = slices.Clone(t.Words)
	t.Adjustments = slices.Clone(t.Adjustments)
	t.Skipped = slices.Clone(t.Skipped)
	return t
}

func newTurnFromSpec(reg *registry.Registry, spec registry.Spec) (any, error) {
	t := Turn{}
	if err := registry.Decode(spec, &t); err != nil {
		return nil, fmt.Errorf("%w: turn: %w", ErrMalformed, err)
	}
	if !t.Type.valid() {
		return nil, fmt.Errorf("%w: turn type %d", ErrMalformed, t.Type)
	}
	var err error
	if t.Replacements, err = tileValues(reg, spec["replacements"]); err != nil {
		return nil, err
	}
	if t.Swapped, err = tileValues(reg, spec["swapped"]); err != nil {
		return nil, err
	}
	return &t, nil
}

func tileValues(reg *registry.Registry, v any) ([]board.Tile, error) {
	list, err := registry.AsList(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	tiles := make([]board.Tile, len(list))
	for i, ts := range list {
		t, err := registry.Restore[*board.Tile](reg, ts, "Tile")
		if err != nil {
			return nil, err
		}
		tiles[i] = *t
	}
	return tiles, nil
}

func tileCopies(tiles []*board.Tile) []board.Tile {
	if len(tiles) == 0 {
		return nil
	}
	return lo.Map(tiles, func(t *board.Tile, _ int) board.Tile { return *t })
}

// ReplacementLetters is the packed form of the replacement tiles.
func (t Turn) ReplacementLetters() string {
	var sb strings.Builder
	for i := range t.Replacements {
		sb.WriteRune(t.Replacements[i].Char())
	}
	return sb.String()
}

func (t Turn) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s by %s for %d", t.Type, t.PlayerKey, t.Score)
	if t.ChallengerKey != "" {
		fmt.Fprintf(&sb, ", challenged by %s", t.ChallengerKey)
	}
	if len(t.Words) > 0 {
		words := lo.Map(t.Words, func(w WordScore, _ int) string {
			return fmt.Sprintf("%s(%d)", w.Word, w.Score)
		})
		fmt.Fprintf(&sb, " [%s]", strings.Join(words, " "))
	}
	if t.NextToGoKey != "" {
		fmt.Fprintf(&sb, ", next %s", t.NextToGoKey)
	}
	return sb.String()
}

// Structure is the class-tagged plain-data form of the turn. Empty
// optional fields are left out.
func (t Turn) Structure() registry.Spec {
	s := registry.Spec{
		registry.ClassKey: "Turn",
		"type":            int(t.Type),
		"score":           t.Score,
		"gameKey":         t.GameKey,
		"playerKey":       t.PlayerKey,
		"timestamp":       t.Timestamp,
	}
	if t.NextToGoKey != "" {
		s["nextToGoKey"] = t.NextToGoKey
	}
	if t.ChallengerKey != "" {
		s["challengerKey"] = t.ChallengerKey
	}
	tileList := func(tiles []board.Tile) []any {
		return lo.Map(tiles, func(tl board.Tile, _ int) any { return tl.Structure() })
	}
	if len(t.Replacements) > 0 {
		s["replacements"] = tileList(t.Replacements)
	}
	if len(t.Swapped) > 0 {
		s["swapped"] = tileList(t.Swapped)
	}
	if len(t.Placements) > 0 {
		s["placements"] = lo.Map(t.Placements, func(p Placement, _ int) any {
			return map[string]any{"col": p.Col, "row": p.Row, "letter": p.Letter, "isBlank": p.IsBlank}
		})
	}
	if len(t.Words) > 0 {
		s["words"] = lo.Map(t.Words, func(w WordScore, _ int) any {
			return map[string]any{"word": w.Word, "score": w.Score}
		})
	}
	if len(t.Adjustments) > 0 {
		s["adjustments"] = lo.Map(t.Adjustments, func(d ScoreDelta, _ int) any {
			return map[string]any{"playerKey": d.PlayerKey, "delta": d.Delta}
		})
	}
	if len(t.Skipped) > 0 {
		s["skipped"] = lo.Map(t.Skipped, func(k string, _ int) any { return k })
	}
	return s
}
