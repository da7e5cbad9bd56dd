package game

import "errors"

var (
	// ErrMalformed is returned for packed strings and snapshots that cannot
	// be turned back into a game.
	ErrMalformed = errors.New("malformed game data")
	// ErrInvariant is returned when an operation would break the rules of
	// the game. The game is left as it was.
	ErrInvariant = errors.New("game invariant violated")
)
