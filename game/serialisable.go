package game

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/tilegame/registry"
)

// Serialisable produces the snapshot sent to a client. The board is packed,
// and only the viewer's own rack is included. If um is given each player is
// looked up to add their e-mail address; the lookups run concurrently and
// the first failure, or running past the lookup timeout, fails the call.
// The game itself is never changed.
func (g *Game) Serialisable(ctx context.Context, um UserManager, viewerKey string) (map[string]any, error) {
	emails := make([]string, len(g.players))
	if um != nil && len(g.players) > 0 {
		ctx, cancel := context.WithTimeout(ctx, g.LookupTimeout)
		defer cancel()
		eg, ctx := errgroup.WithContext(ctx)
		for i, p := range g.players {
			i, p := i, p
			eg.Go(func() error {
				u, err := um.GetUser(ctx, p.Key)
				if err != nil {
					return fmt.Errorf("looking up player %s: %w", p.Key, err)
				}
				if u != nil {
					emails[i] = u.Email
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("game", g.Key).Msg("user lookup failed")
			return nil, err
		}
	}

	s := map[string]any(g.optionsSpec())
	s["lastActivity"] = g.LastActivity()
	s["board"] = g.board.Pack()
	s["tilesLeft"] = g.bag.Len()
	players := make([]any, len(g.players))
	for i, p := range g.players {
		players[i] = p.view(p.Key == viewerKey, emails[i])
	}
	s["players"] = players
	s["turns"] = lo.Map(g.turns.All(), func(t Turn, _ int) any { return map[string]any(t.Structure()) })
	return s, nil
}

// FromSerialisable rebuilds a game from a Serialisable or Structure
// snapshot. Racks missing from the snapshot come back empty and their tiles
// are counted as still in the bag.
func FromSerialisable(reg *registry.Registry, snap map[string]any) (*Game, error) {
	return registry.Restore[*Game](reg, registry.Spec(snap), "Game")
}
