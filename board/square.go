package board

import (
	"errors"
	"fmt"

	"github.com/domino14/tilegame/registry"
)

// A BonusSquare is the marker used for a bonus square in an edition layout.
type BonusSquare rune

const (
	Bonus4WS BonusSquare = '~'
	Bonus4LS BonusSquare = '^'
	// Bonus3WS is a triple word score
	Bonus3WS BonusSquare = '='
	// Bonus3LS is a triple letter score
	Bonus3LS BonusSquare = '"'
	// Bonus2LS is a double letter score
	Bonus2LS BonusSquare = '\''
	// Bonus2WS is a double word score
	Bonus2WS BonusSquare = '-'
)

type SquareType int

const (
	Normal SquareType = iota
	DoubleLetter
	TripleLetter
	QuadLetter
	DoubleWord
	TripleWord
	QuadWord
)

var squareTypeNames = [...]string{"Normal", "DoubleLetter", "TripleLetter",
	"QuadLetter", "DoubleWord", "TripleWord", "QuadWord"}

func (t SquareType) String() string {
	if t < 0 || int(t) >= len(squareTypeNames) {
		return fmt.Sprintf("SquareType(%d)", int(t))
	}
	return squareTypeNames[t]
}

// TypeForBonus maps a layout marker to a square type. Anything that isn't a
// known bonus marker is a normal square.
func TypeForBonus(b BonusSquare) SquareType {
	switch b {
	case Bonus2LS:
		return DoubleLetter
	case Bonus3LS:
		return TripleLetter
	case Bonus4LS:
		return QuadLetter
	case Bonus2WS:
		return DoubleWord
	case Bonus3WS:
		return TripleWord
	case Bonus4WS:
		return QuadWord
	}
	return Normal
}

// LetterMultiplier is the factor applied to a tile newly placed on a square
// of this type.
func (t SquareType) LetterMultiplier() int {
	switch t {
	case DoubleLetter:
		return 2
	case TripleLetter:
		return 3
	case QuadLetter:
		return 4
	}
	return 1
}

// WordMultiplier is the factor applied to a word that uses a newly placed
// tile on a square of this type.
func (t SquareType) WordMultiplier() int {
	switch t {
	case DoubleWord:
		return 2
	case TripleWord:
		return 3
	case QuadWord:
		return 4
	}
	return 1
}

var (
	ErrSquareOccupied = errors.New("square already holds a tile")
	ErrTileLocked     = errors.New("tile is locked")
)

// A Square is a single cell on a Surface. The tile slot does not own the
// tile: removing it hands the tile back to the caller.
type Square struct {
	Type SquareType `spec:"type"`
	Col  int        `spec:"col"`
	Row  int        `spec:"row"`

	tile *Tile
}

func newSquareFromSpec(reg *registry.Registry, spec registry.Spec) (any, error) {
	sq := &Square{}
	if err := registry.Decode(spec, sq); err != nil {
		return nil, fmt.Errorf("square: %w", err)
	}
	if ts, ok := registry.AsSpec(spec["tile"]); ok {
		t, err := registry.Restore[*Tile](reg, ts, "Tile")
		if err != nil {
			return nil, err
		}
		sq.tile = t
	}
	return sq, nil
}

func (s *Square) Tile() *Tile {
	return s.tile
}

func (s *Square) IsEmpty() bool {
	return s.tile == nil
}

// PlaceTile puts t on the square.
func (s *Square) PlaceTile(t *Tile) error {
	if s.tile != nil {
		return fmt.Errorf("%w at %d,%d", ErrSquareOccupied, s.Col, s.Row)
	}
	s.tile = t
	return nil
}

// RemoveTile takes the tile off the square and returns it. Locked tiles stay
// put. An empty square returns nil.
func (s *Square) RemoveTile() (*Tile, error) {
	if s.tile != nil && s.tile.IsLocked {
		return nil, fmt.Errorf("%w at %d,%d", ErrTileLocked, s.Col, s.Row)
	}
	t := s.tile
	s.tile = nil
	return t, nil
}

// ForceRemoveTile removes the tile even if it is locked. This is for the
// game itself when it reverts a turn.
func (s *Square) ForceRemoveTile() *Tile {
	t := s.tile
	s.tile = nil
	return t
}

func (s *Square) String() string {
	if s.tile == nil {
		return fmt.Sprintf("<%d,%d %s>", s.Col, s.Row, s.Type)
	}
	return fmt.Sprintf("<%d,%d %s %s>", s.Col, s.Row, s.Type, s.tile)
}

// Structure is the class-tagged plain-data form of the square.
func (s *Square) Structure() registry.Spec {
	st := registry.Spec{
		registry.ClassKey: "Square",
		"type":            int(s.Type),
		"col":             s.Col,
		"row":             s.Row,
	}
	if s.tile != nil {
		st["tile"] = s.tile.Structure()
	}
	return st
}
