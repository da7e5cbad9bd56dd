package bag

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/tilegame/board"
	"github.com/domino14/tilegame/config"
	"github.com/domino14/tilegame/edition"
	"github.com/domino14/tilegame/registry"
)

var DefaultConfig = config.DefaultConfig()

func testBag(t *testing.T) (*registry.Registry, *LetterBag) {
	reg := registry.New()
	board.Register(reg)
	Register(reg)
	ed, err := edition.Get(DefaultConfig, "English_Scrabble")
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(reg, ed)
	if err != nil {
		t.Fatal(err)
	}
	return reg, b
}

func TestNewBag(t *testing.T) {
	is := is.New(t)
	_, b := testBag(t)
	is.Equal(b.Len(), 100)
	blanks, zs := 0, 0
	for _, tl := range b.Tiles() {
		if tl.IsBlank {
			blanks++
			is.Equal(tl.Score, 0)
		}
		if tl.Letter == "Z" {
			zs++
			is.Equal(tl.Score, 10)
		}
	}
	is.Equal(blanks, 2)
	is.Equal(zs, 1)
}

func TestDraw(t *testing.T) {
	is := is.New(t)
	_, b := testBag(t)
	drawn, err := b.Draw(7)
	is.NoErr(err)
	is.Equal(len(drawn), 7)
	is.Equal(b.Len(), 93)

	_, err = b.Draw(94)
	is.True(errors.Is(err, ErrNotEnoughTiles))
	is.Equal(b.Len(), 93)

	rest := b.DrawAtMost(200)
	is.Equal(len(rest), 93)
	is.True(b.IsEmpty())

	b.Return(drawn...)
	is.Equal(b.Len(), 7)
}

func TestReturnResetsBlank(t *testing.T) {
	is := is.New(t)
	_, b := testBag(t)
	blank, ok := b.Remove("", true)
	is.True(ok)
	blank.Letter = "Q"
	blank.IsLocked = true
	b.Return(blank)
	is.Equal(blank.Letter, "")
	is.True(!blank.IsLocked)
	is.Equal(b.Len(), 100)
}

func TestRemove(t *testing.T) {
	is := is.New(t)
	_, b := testBag(t)
	z, ok := b.Remove("z", false)
	is.True(ok)
	is.Equal(z.Letter, "Z")
	_, ok = b.Remove("Z", false)
	is.True(!ok)
	is.Equal(b.Len(), 99)
}

func TestStructureRoundTrip(t *testing.T) {
	is := is.New(t)
	reg, b := testBag(t)
	_, err := b.Draw(50)
	is.NoErr(err)
	b2, err := registry.Restore[*LetterBag](reg, b.Structure(), "LetterBag")
	is.NoErr(err)
	is.Equal(b2.Letters(), b.Letters())
}
