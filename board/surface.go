// Package board holds the grid model shared by the game board and player
// racks: tiles, squares and surfaces, plus the compact packed form of a
// surface's contents.
package board

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/domino14/tilegame/registry"
)

// LetterScorer gives the face value of a letter.
type LetterScorer interface {
	LetterScore(letter string) int
}

// Layout describes the bonus markings of a board.
type Layout interface {
	Rows() int
	Cols() int
	LayoutAt(col, row int) rune
}

var ErrMalformed = errors.New("malformed surface")

// A Surface is a grid of squares: the game board, or a single-row rack.
// Squares are visited column by column.
type Surface struct {
	ID   string
	Cols int
	Rows int

	// squares[col][row]
	squares [][]*Square
}

// NewSurface creates an empty surface. typeAt, if non-nil, gives the square
// type at each position.
func NewSurface(reg *registry.Registry, id string, cols, rows int,
	typeAt func(col, row int) SquareType) (*Surface, error) {

	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: %s has size %dx%d", ErrMalformed, id, cols, rows)
	}
	s := &Surface{ID: id, Cols: cols, Rows: rows, squares: make([][]*Square, cols)}
	for col := 0; col < cols; col++ {
		s.squares[col] = make([]*Square, rows)
		for row := 0; row < rows; row++ {
			t := Normal
			if typeAt != nil {
				t = typeAt(col, row)
			}
			sq, err := registry.CreateAs[*Square](reg, "Square",
				registry.Spec{"type": int(t), "col": col, "row": row})
			if err != nil {
				return nil, err
			}
			s.squares[col][row] = sq
		}
	}
	return s, nil
}

// NewBoard creates an empty board using the bonus markings of layout.
func NewBoard(reg *registry.Registry, layout Layout) (*Surface, error) {
	return NewSurface(reg, "Board", layout.Cols(), layout.Rows(),
		func(col, row int) SquareType {
			return TypeForBonus(BonusSquare(layout.LayoutAt(col, row)))
		})
}

// NewRack creates an empty single-row rack.
func NewRack(reg *registry.Registry, id string, size int) (*Surface, error) {
	return NewSurface(reg, id, size, 1, nil)
}

// At returns the square at col, row, or nil if that is off the surface.
func (s *Surface) At(col, row int) *Square {
	if col < 0 || col >= s.Cols || row < 0 || row >= s.Rows {
		return nil
	}
	return s.squares[col][row]
}

// ForEachSquare calls fn on each square, column by column. It stops as soon
// as fn returns true and reports whether it did.
func (s *Surface) ForEachSquare(fn func(sq *Square) bool) bool {
	for col := 0; col < s.Cols; col++ {
		for row := 0; row < s.Rows; row++ {
			if fn(s.squares[col][row]) {
				return true
			}
		}
	}
	return false
}

// ForEachTiledSquare is ForEachSquare restricted to squares holding a tile.
func (s *Surface) ForEachTiledSquare(fn func(sq *Square) bool) bool {
	return s.ForEachSquare(func(sq *Square) bool {
		return sq.tile != nil && fn(sq)
	})
}

// ForEachEmptySquare is ForEachSquare restricted to squares with no tile.
func (s *Surface) ForEachEmptySquare(fn func(sq *Square) bool) bool {
	return s.ForEachSquare(func(sq *Square) bool {
		return sq.tile == nil && fn(sq)
	})
}

// SquaresUsed counts squares holding a tile.
func (s *Surface) SquaresUsed() int {
	n := 0
	s.ForEachTiledSquare(func(*Square) bool {
		n++
		return false
	})
	return n
}

// Tiles lists the placed tiles in traversal order.
func (s *Surface) Tiles() []*Tile {
	tiles := []*Tile{}
	s.ForEachTiledSquare(func(sq *Square) bool {
		tiles = append(tiles, sq.tile)
		return false
	})
	return tiles
}

// Empty clears every square and hands back the tiles that were on them.
func (s *Surface) Empty() []*Tile {
	tiles := []*Tile{}
	s.ForEachTiledSquare(func(sq *Square) bool {
		tiles = append(tiles, sq.ForceRemoveTile())
		return false
	})
	return tiles
}

// Score is the sum of the face values of the tiles. Square bonuses are not
// applied here.
func (s *Surface) Score() int {
	score := 0
	s.ForEachTiledSquare(func(sq *Square) bool {
		score += sq.tile.Score
		return false
	})
	return score
}

func (s *Surface) IsEmpty() bool {
	return !s.ForEachTiledSquare(func(*Square) bool { return true })
}

// AddTile puts t on the first empty square.
func (s *Surface) AddTile(t *Tile) error {
	if !s.ForEachEmptySquare(func(sq *Square) bool {
		sq.tile = t
		return true
	}) {
		return fmt.Errorf("%s is full", s.ID)
	}
	return nil
}

// TakeLetter removes and returns the first unlocked tile matching letter.
// An empty letter or "?" asks for a blank. It returns nil if nothing
// matches.
func (s *Surface) TakeLetter(letter string) *Tile {
	wantBlank := letter == "" || letter == "?"
	var found *Tile
	s.ForEachTiledSquare(func(sq *Square) bool {
		t := sq.tile
		if t.IsLocked {
			return false
		}
		if (wantBlank && t.IsBlank) || (!wantBlank && !t.IsBlank && strings.EqualFold(t.Letter, letter)) {
			found = sq.ForceRemoveTile()
			return true
		}
		return false
	})
	return found
}

// Letters lists the letters of the placed tiles. Unassigned blanks are "?".
func (s *Surface) Letters() []string {
	letters := []string{}
	s.ForEachTiledSquare(func(sq *Square) bool {
		letters = append(letters, sq.tile.String())
		return false
	})
	return letters
}

// Pack writes the surface contents in compact form: one character per
// square, blanks in lower case, empty squares as NoTile with long runs
// collapsed.
func (s *Surface) Pack() string {
	cells := make([]rune, 0, s.Cols*s.Rows)
	s.ForEachSquare(func(sq *Square) bool {
		if sq.tile == nil {
			cells = append(cells, NoTile)
		} else {
			cells = append(cells, sq.tile.Char())
		}
		return false
	})
	return EncodeCells(cells)
}

// Unpack replaces the surface contents with a packed string. Tiles are
// created locked with scores from scorer; a lower-case letter is a blank
// and BlankTile is a blank with no letter. The surface is left untouched if
// the string is malformed. The tiles that were on the surface are returned.
func (s *Surface) Unpack(reg *registry.Registry, scorer LetterScorer, packed string) ([]*Tile, error) {
	cells, err := DecodeCells(packed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, s.ID, err)
	}
	if len(cells) != s.Cols*s.Rows {
		return nil, fmt.Errorf("%w: %s expects %d cells, got %d",
			ErrMalformed, s.ID, s.Cols*s.Rows, len(cells))
	}
	tiles := make([]*Tile, len(cells))
	for i, c := range cells {
		if c == NoTile {
			continue
		}
		spec := registry.Spec{"isLocked": true}
		switch {
		case c == BlankTile:
			spec["letter"] = ""
			spec["isBlank"] = true
		case unicode.IsLower(c):
			spec["letter"] = string(unicode.ToUpper(c))
			spec["isBlank"] = true
		default:
			letter := string(c)
			spec["letter"] = letter
			spec["score"] = scorer.LetterScore(letter)
		}
		t, err := registry.CreateAs[*Tile](reg, "Tile", spec)
		if err != nil {
			return nil, err
		}
		tiles[i] = t
	}
	old := s.Empty()
	i := 0
	s.ForEachSquare(func(sq *Square) bool {
		sq.tile = tiles[i]
		i++
		return false
	})
	log.Debug().Str("surface", s.ID).Int("tiles", s.SquaresUsed()).Msg("unpacked")
	return old, nil
}

// String renders the surface row by row, for display.
func (s *Surface) String() string {
	var sb strings.Builder
	for row := 0; row < s.Rows; row++ {
		for col := 0; col < s.Cols; col++ {
			sq := s.squares[col][row]
			switch {
			case sq.tile != nil:
				sb.WriteString(sq.tile.String())
			case sq.Type == Normal:
				sb.WriteByte('.')
			default:
				sb.WriteRune(bonusMarker(sq.Type))
			}
			if col != s.Cols-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func bonusMarker(t SquareType) rune {
	switch t {
	case DoubleLetter:
		return rune(Bonus2LS)
	case TripleLetter:
		return rune(Bonus3LS)
	case QuadLetter:
		return rune(Bonus4LS)
	case DoubleWord:
		return rune(Bonus2WS)
	case TripleWord:
		return rune(Bonus3WS)
	case QuadWord:
		return rune(Bonus4WS)
	}
	return ' '
}
