// Package store keeps games between requests, keyed by game key. Games are
// saved in their complete structural form, encoded with a codec.
package store

import (
	"context"
	"errors"

	"github.com/domino14/tilegame/game"
)

var ErrNotFound = errors.New("game not found")

// Summary is what a store can say about a game without rebuilding it.
type Summary struct {
	Key          string
	Edition      string
	State        game.State
	LastActivity int64
	Digest       uint64
}

type Store interface {
	// Save writes g, replacing any earlier version.
	Save(ctx context.Context, g *game.Game) error
	// Load rebuilds the game with the given key.
	Load(ctx context.Context, key string) (*game.Game, error)
	Delete(ctx context.Context, key string) error
	// List summarises every stored game, most recently active first.
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

func summarise(g *game.Game) Summary {
	return Summary{
		Key:          g.Key,
		Edition:      g.Edition,
		State:        g.State,
		LastActivity: g.LastActivity(),
		Digest:       g.Digest(),
	}
}
