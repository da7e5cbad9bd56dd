// Package bag implements the letter bag tiles are drawn from.
package bag

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/tilegame/board"
	"github.com/domino14/tilegame/registry"
)

// Distribution is the full tile set of an edition.
type Distribution interface {
	Distribution() map[string]int
	LetterScore(letter string) int
}

var ErrNotEnoughTiles = errors.New("not enough tiles in bag")

// A LetterBag is the pool of tiles not on the board or on a rack.
type LetterBag struct {
	tiles []*board.Tile
}

// New fills a bag with the complete tile set of dist.
func New(reg *registry.Registry, dist Distribution) (*LetterBag, error) {
	b := &LetterBag{}
	counts := dist.Distribution()
	letters := make([]string, 0, len(counts))
	for l := range counts {
		letters = append(letters, l)
	}
	// Map order is random; keep the bag contents stable before shuffling.
	sort.Strings(letters)
	for _, l := range letters {
		for i := 0; i < counts[l]; i++ {
			spec := registry.Spec{"letter": l, "isBlank": l == "", "score": dist.LetterScore(l)}
			t, err := registry.CreateAs[*board.Tile](reg, "Tile", spec)
			if err != nil {
				return nil, err
			}
			b.tiles = append(b.tiles, t)
		}
	}
	log.Debug().Int("tiles", len(b.tiles)).Msg("filled letter bag")
	return b, nil
}

// Register adds the LetterBag constructor to reg.
func Register(reg *registry.Registry) {
	reg.Register("LetterBag", newFromSpec)
}

func newFromSpec(reg *registry.Registry, spec registry.Spec) (any, error) {
	list, err := registry.AsList(spec["tiles"])
	if err != nil {
		return nil, fmt.Errorf("letter bag: %w", err)
	}
	b := &LetterBag{tiles: make([]*board.Tile, 0, len(list))}
	for _, ts := range list {
		t, err := registry.Restore[*board.Tile](reg, ts, "Tile")
		if err != nil {
			return nil, err
		}
		b.tiles = append(b.tiles, t)
	}
	return b, nil
}

// Structure is the class-tagged plain-data form of the bag.
func (b *LetterBag) Structure() registry.Spec {
	tiles := make([]any, len(b.tiles))
	for i, t := range b.tiles {
		tiles[i] = t.Structure()
	}
	return registry.Spec{registry.ClassKey: "LetterBag", "tiles": tiles}
}

func (b *LetterBag) Len() int {
	return len(b.tiles)
}

func (b *LetterBag) IsEmpty() bool {
	return len(b.tiles) == 0
}

// Shuffle shuffles the bag.
func (b *LetterBag) Shuffle() {
	frand.Shuffle(len(b.tiles), func(i, j int) {
		b.tiles[i], b.tiles[j] = b.tiles[j], b.tiles[i]
	})
}

// Draw removes n random tiles from the bag.
func (b *LetterBag) Draw(n int) ([]*board.Tile, error) {
	if n > len(b.tiles) {
		return nil, fmt.Errorf("%w: tried to draw %d, bag has %d",
			ErrNotEnoughTiles, n, len(b.tiles))
	}
	b.Shuffle()
	drawn := make([]*board.Tile, n)
	copy(drawn, b.tiles[:n])
	b.tiles = b.tiles[n:]
	return drawn, nil
}

// DrawAtMost draws at most n tiles from the bag. It can draw fewer if there
// are fewer tiles than n.
func (b *LetterBag) DrawAtMost(n int) []*board.Tile {
	if n > len(b.tiles) {
		n = len(b.tiles)
	}
	drawn, _ := b.Draw(n)
	return drawn
}

// Return puts tiles back in the bag, resetting blanks and locks.
func (b *LetterBag) Return(tiles ...*board.Tile) {
	for _, t := range tiles {
		t.Reset()
		b.tiles = append(b.tiles, t)
	}
}

// Remove takes a tile with the given letter out of the bag. Blanks are
// asked for with isBlank; the letter is then ignored. It reports whether
// such a tile was present.
func (b *LetterBag) Remove(letter string, isBlank bool) (*board.Tile, bool) {
	for i, t := range b.tiles {
		if (isBlank && t.IsBlank) || (!isBlank && !t.IsBlank && strings.EqualFold(t.Letter, letter)) {
			b.tiles = append(b.tiles[:i], b.tiles[i+1:]...)
			return t, true
		}
	}
	return nil, false
}

// Letters lists the bag contents, sorted, with blanks as "?".
func (b *LetterBag) Letters() []string {
	letters := make([]string, len(b.tiles))
	for i, t := range b.tiles {
		letters[i] = t.String()
	}
	sort.Strings(letters)
	return letters
}

// Tiles returns the tiles in the bag without removing them.
func (b *LetterBag) Tiles() []*board.Tile {
	return append([]*board.Tile(nil), b.tiles...)
}
