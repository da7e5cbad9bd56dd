package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domino14/tilegame/codec"
	"github.com/domino14/tilegame/config"
	"github.com/domino14/tilegame/game"
	"github.com/domino14/tilegame/registry"
)

var DefaultConfig = config.DefaultConfig()

func newGame(t *testing.T, reg *registry.Registry, key string, created int64) *game.Game {
	g, err := game.Create(reg, DefaultConfig, game.Options{Edition: "Test", Key: key, CreationTimestamp: created})
	require.NoError(t, err)
	for _, k := range []string{"a", "b"} {
		p, err := game.NewPlayer(reg, registry.Spec{"key": k, "name": k})
		require.NoError(t, err)
		require.NoError(t, g.AddPlayer(p, false))
	}
	require.NoError(t, g.Start())
	return g
}

func stores(t *testing.T) map[string]func(reg *registry.Registry) Store {
	return map[string]func(reg *registry.Registry) Store{
		"memory": func(reg *registry.Registry) Store {
			return NewMemoryStore(reg, codec.CBOR)
		},
		"sqlite": func(reg *registry.Registry) Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "games.db"), reg, codec.CBOR)
			require.NoError(t, err)
			return s
		},
		"sqlite-proto": func(reg *registry.Registry) Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "games.db"), reg, codec.Proto)
			require.NoError(t, err)
			return s
		},
	}
}

func TestStores(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			reg := game.NewRegistry(DefaultConfig)
			s := open(reg)
			defer s.Close()

			g1 := newGame(t, reg, "g1", 100)
			g2 := newGame(t, reg, "g2", 200)
			require.NoError(t, s.Save(ctx, g1))
			require.NoError(t, s.Save(ctx, g2))

			loaded, err := s.Load(ctx, "g1")
			require.NoError(t, err)
			assert.Equal(t, g1.Digest(), loaded.Digest())
			assert.Equal(t, g1.Pack(), loaded.Pack())

			// Changes to the loaded game stay out of the store until saved.
			_, err = loaded.Pass("a")
			require.NoError(t, err)
			again, err := s.Load(ctx, "g1")
			require.NoError(t, err)
			assert.Equal(t, 0, again.NumTurns())

			require.NoError(t, s.Save(ctx, loaded))
			again, err = s.Load(ctx, "g1")
			require.NoError(t, err)
			assert.Equal(t, 1, again.NumTurns())
			assert.Equal(t, "b", again.WhosTurnKey)

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "g1", list[0].Key) // g1 has the latest turn
			assert.Equal(t, game.StatePlaying, list[0].State)
			assert.Equal(t, loaded.Digest(), list[0].Digest)
			assert.Equal(t, "Test", list[1].Edition)

			require.NoError(t, s.Delete(ctx, "g2"))
			_, err = s.Load(ctx, "g2")
			assert.True(t, errors.Is(err, ErrNotFound))
			assert.True(t, errors.Is(s.Delete(ctx, "g2"), ErrNotFound))
		})
	}
}

func TestSQLiteSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	reg := game.NewRegistry(DefaultConfig)
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "sub", "games.db"), reg, codec.CBOR)
	require.NoError(t, err)
	defer s.Close()

	g := newGame(t, reg, "g1", 100)
	require.NoError(t, s.Save(ctx, g))
	require.NoError(t, s.Save(ctx, g))

	res, err := s.db.ExecContext(ctx, `UPDATE games SET data = x'00' WHERE key = ? AND digest <> ?`,
		"g1", int64(g.Digest()))
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
