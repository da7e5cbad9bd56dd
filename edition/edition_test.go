package edition

import (
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/tilegame/config"
)

var DefaultConfig = config.DefaultConfig()

func TestEnglishEdition(t *testing.T) {
	is := is.New(t)
	ed, err := Get(DefaultConfig, "English_Scrabble")
	is.NoErr(err)
	is.Equal(ed.Rows(), 15)
	is.Equal(ed.Cols(), 15)
	is.Equal(ed.TotalTiles(), 100)
	is.Equal(ed.RackCount, 7)
	is.Equal(ed.BingoBonus, 50)
	is.Equal(ed.LetterScore("Q"), 10)
	is.Equal(ed.LetterScore("q"), 10)
	is.Equal(ed.LetterScore(BlankLetter), 0)
	is.Equal(ed.Distribution()["E"], 12)
	is.Equal(ed.Distribution()[BlankLetter], 2)
	is.Equal(ed.LayoutAt(0, 0), '=')
	is.Equal(ed.LayoutAt(7, 7), '-')
	is.Equal(len(ed.Alphabet()), 26)
}

func TestTestEdition(t *testing.T) {
	is := is.New(t)
	ed, err := Get(DefaultConfig, "Test")
	is.NoErr(err)
	is.Equal(ed.Rows(), 11)
	is.Equal(ed.Cols(), 11)
	is.Equal(ed.TotalTiles(), 59)
	is.Equal(ed.LetterScore("Q"), 4)
}

func TestUnknownEdition(t *testing.T) {
	is := is.New(t)
	_, err := Get(DefaultConfig, "Klingon")
	is.True(err != nil)
}

func TestScanEditionValidation(t *testing.T) {
	is := is.New(t)
	for _, tc := range []struct {
		name string
		yaml string
	}{
		{"no name", "rackCount: 7\nlayout: [\"  \"]\n"},
		{"no rack", "name: X\nlayout: [\"  \"]\n"},
		{"ragged", "name: X\nrackCount: 7\nlayout: [\"  \", \" \"]\n"},
		{"dup letter", "name: X\nrackCount: 7\nlayout: [\" \"]\nletters: [{letter: A}, {letter: a}]\n"},
		{"long letter", "name: X\nrackCount: 7\nlayout: [\" \"]\nletters: [{letter: AB}]\n"},
	} {
		_, err := ScanEdition(strings.NewReader(tc.yaml))
		is.True(err != nil) // tc.name
	}
}

func TestBuiltinNames(t *testing.T) {
	is := is.New(t)
	names := BuiltinNames()
	is.Equal(names, []string{"English_Scrabble", "Test"})
}
