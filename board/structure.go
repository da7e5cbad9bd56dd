package board

import (
	"fmt"

	"github.com/domino14/tilegame/registry"
)

// Register adds the board constructors to reg.
func Register(reg *registry.Registry) {
	reg.Register("Tile", newTileFromSpec)
	reg.Register("Square", newSquareFromSpec)
	reg.Register("Surface", newSurfaceFromSpec)
}

// Structure is the class-tagged plain-data form of the surface, with every
// square listed in traversal order.
func (s *Surface) Structure() registry.Spec {
	squares := make([]any, 0, s.Cols*s.Rows)
	s.ForEachSquare(func(sq *Square) bool {
		squares = append(squares, sq.Structure())
		return false
	})
	return registry.Spec{
		registry.ClassKey: "Surface",
		"id":              s.ID,
		"cols":            s.Cols,
		"rows":            s.Rows,
		"squares":         squares,
	}
}

type surfaceSpec struct {
	ID   string `spec:"id"`
	Cols int    `spec:"cols"`
	Rows int    `spec:"rows"`
}

func newSurfaceFromSpec(reg *registry.Registry, spec registry.Spec) (any, error) {
	ss := surfaceSpec{}
	if err := registry.Decode(spec, &ss); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	s, err := NewSurface(reg, ss.ID, ss.Cols, ss.Rows, nil)
	if err != nil {
		return nil, err
	}
	squares, err := registry.AsList(spec["squares"])
	if err != nil {
		return nil, fmt.Errorf("%w: %s squares: %w", ErrMalformed, ss.ID, err)
	}
	for _, sqs := range squares {
		sq, err := registry.Restore[*Square](reg, sqs, "Square")
		if err != nil {
			return nil, err
		}
		if s.At(sq.Col, sq.Row) == nil {
			return nil, fmt.Errorf("%w: %s has no square %d,%d", ErrMalformed, ss.ID, sq.Col, sq.Row)
		}
		s.squares[sq.Col][sq.Row] = sq
	}
	return s, nil
}
