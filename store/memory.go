package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/domino14/tilegame/codec"
	"github.com/domino14/tilegame/game"
	"github.com/domino14/tilegame/registry"
)

type memoryEntry struct {
	summary Summary
	data    []byte
}

// MemoryStore holds encoded games in a map. Games are encoded on Save, so a
// loaded game never shares state with the caller's copy.
type MemoryStore struct {
	sync.RWMutex
	reg   *registry.Registry
	codec codec.Codec
	games map[string]memoryEntry
}

func NewMemoryStore(reg *registry.Registry, c codec.Codec) *MemoryStore {
	return &MemoryStore{reg: reg, codec: c, games: map[string]memoryEntry{}}
}

func (m *MemoryStore) Save(ctx context.Context, g *game.Game) error {
	data, err := codec.EncodeGame(m.codec, g)
	if err != nil {
		return fmt.Errorf("encoding game %s: %w", g.Key, err)
	}
	m.Lock()
	defer m.Unlock()
	m.games[g.Key] = memoryEntry{summary: summarise(g), data: data}
	zerolog.Ctx(ctx).Debug().Str("game", g.Key).Int("bytes", len(data)).Msg("saved")
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, key string) (*game.Game, error) {
	m.RLock()
	e, ok := m.games[key]
	m.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return codec.DecodeGame(m.codec, m.reg, e.data)
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.Lock()
	defer m.Unlock()
	if _, ok := m.games[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(m.games, key)
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	m.RLock()
	defer m.RUnlock()
	out := make([]Summary, 0, len(m.games))
	for _, e := range m.games {
		out = append(out, e.summary)
	}
	sortSummaries(out)
	return out, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func sortSummaries(s []Summary) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].LastActivity != s[j].LastActivity {
			return s[i].LastActivity > s[j].LastActivity
		}
		return s[i].Key < s[j].Key
	})
}
