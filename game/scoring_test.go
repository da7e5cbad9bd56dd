package game

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/tilegame/board"
	"github.com/domino14/tilegame/edition"
)

func testBoard(t *testing.T, packed string) (*board.Surface, *edition.Edition) {
	reg := NewRegistry(DefaultConfig)
	ed, err := edition.Get(DefaultConfig, "Test")
	if err != nil {
		t.Fatal(err)
	}
	b, err := board.NewBoard(reg, ed)
	if err != nil {
		t.Fatal(err)
	}
	if packed != "" {
		if _, err := b.Unpack(reg, ed, packed); err != nil {
			t.Fatal(err)
		}
	}
	return b, ed
}

func TestScoreFirstMove(t *testing.T) {
	is := is.New(t)
	b, ed := testBoard(t, "")
	score, words, err := ScorePlacement(b, across3(5, "CAT"), ed)
	is.NoErr(err)
	is.Equal(score, 10)
	is.Equal(words, []WordScore{{Word: "CAT", Score: 10}})
	is.True(b.IsEmpty()) // board untouched
}

func TestScoreDown(t *testing.T) {
	is := is.New(t)
	b, ed := testBoard(t, "")
	pl := []Placement{
		{Col: 5, Row: 2, Letter: "C"},
		{Col: 5, Row: 3, Letter: "A"},
		{Col: 5, Row: 4, Letter: "T"},
		{Col: 5, Row: 5, Letter: "S"},
	}
	score, words, err := ScorePlacement(b, pl, ed)
	is.NoErr(err)
	// C on a double letter, S on the centre double word.
	is.Equal(score, (6+1+1+1)*2)
	is.Equal(words, []WordScore{{Word: "CATS", Score: 18}})
}

func TestScoreCrossWords(t *testing.T) {
	is := is.New(t)
	// CAT across the centre row.
	b, ed := testBoard(t, "(49)C(10)A(10)T(49)")
	is.Equal(b.At(4, 5).Tile().Letter, "C")

	pl := []Placement{
		{Col: 4, Row: 6, Letter: "O"},
		{Col: 5, Row: 6, Letter: "N"},
	}
	score, words, err := ScorePlacement(b, pl, ed)
	is.NoErr(err)
	// ON across: O on a 2WS at 4,6; cross words CO and AN.
	is.Equal(words, []WordScore{
		{Word: "ON", Score: 4},
		{Word: "CO", Score: 8},
		{Word: "AN", Score: 2},
	})
	is.Equal(score, 14)
}

func TestScoreBlankAndExisting(t *testing.T) {
	is := is.New(t)
	b, ed := testBoard(t, "(49)C(10)A(10)T(49)")
	pl := []Placement{{Col: 7, Row: 5, Letter: "S", IsBlank: true}}
	score, words, err := ScorePlacement(b, pl, ed)
	is.NoErr(err)
	is.Equal(words, []WordScore{{Word: "CATS", Score: 5}})
	is.Equal(score, 5)
}

func TestScoreInvalid(t *testing.T) {
	b, ed := testBoard(t, "(49)C(10)A(10)T(49)")
	empty, _ := testBoard(t, "")
	for _, tc := range []struct {
		name string
		b    *board.Surface
		pl   []Placement
	}{
		{"nothing", b, nil},
		{"off the board", b, []Placement{{Col: 11, Row: 0, Letter: "A"}}},
		{"occupied", b, []Placement{{Col: 4, Row: 5, Letter: "A"}}},
		{"no letter", b, []Placement{{Col: 4, Row: 6}}},
		{"twice", b, []Placement{{Col: 4, Row: 6, Letter: "A"}, {Col: 4, Row: 6, Letter: "B"}}},
		{"not in line", b, []Placement{{Col: 4, Row: 6, Letter: "A"}, {Col: 5, Row: 7, Letter: "B"}}},
		{"gap", b, []Placement{{Col: 4, Row: 6, Letter: "A"}, {Col: 4, Row: 8, Letter: "B"}}},
		{"not connected", b, []Placement{{Col: 0, Row: 0, Letter: "A"}, {Col: 1, Row: 0, Letter: "B"}}},
		{"off centre", empty, []Placement{{Col: 0, Row: 0, Letter: "A"}, {Col: 1, Row: 0, Letter: "B"}}},
		{"single tile first move", empty, []Placement{{Col: 5, Row: 5, Letter: "A"}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			_, _, err := ScorePlacement(tc.b, tc.pl, ed)
			is.True(errors.Is(err, ErrInvariant))
		})
	}
}
