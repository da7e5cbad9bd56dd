package board

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/domino14/tilegame/registry"
)

// A Tile is a single letter unit. Blank tiles get their letter when they are
// played and always score 0. A locked tile has been committed to the board
// and can no longer be moved by the player who placed it.
type Tile struct {
	Letter   string `spec:"letter"`
	Score    int    `spec:"score"`
	IsBlank  bool   `spec:"isBlank"`
	IsLocked bool   `spec:"isLocked"`
}

// NewTile creates a tile. A blank always scores 0.
func NewTile(letter string, score int, isBlank bool) *Tile {
	t := &Tile{Letter: letter, Score: score, IsBlank: isBlank}
	if isBlank {
		t.Score = 0
	}
	return t
}

func newTileFromSpec(reg *registry.Registry, spec registry.Spec) (any, error) {
	t := &Tile{}
	if err := registry.Decode(spec, t); err != nil {
		return nil, fmt.Errorf("tile: %w", err)
	}
	if t.IsBlank {
		t.Score = 0
	}
	return t, nil
}

// Char is the single character the tile packs to.
func (t *Tile) Char() rune {
	if t.Letter == "" {
		return BlankTile
	}
	r := []rune(t.Letter)[0]
	if t.IsBlank {
		return unicode.ToLower(r)
	}
	return unicode.ToUpper(r)
}

// Reset makes a tile ready to go back into a bag or rack: blanks lose their
// letter and nothing stays locked.
func (t *Tile) Reset() {
	if t.IsBlank {
		t.Letter = ""
	}
	t.IsLocked = false
}

func (t *Tile) String() string {
	if t.IsBlank && t.Letter == "" {
		return "?"
	}
	if t.IsBlank {
		return strings.ToLower(t.Letter)
	}
	return t.Letter
}

// Structure is the class-tagged plain-data form of the tile.
func (t *Tile) Structure() registry.Spec {
	return registry.Spec{
		registry.ClassKey: "Tile",
		"letter":          t.Letter,
		"score":           t.Score,
		"isBlank":         t.IsBlank,
		"isLocked":        t.IsLocked,
	}
}
