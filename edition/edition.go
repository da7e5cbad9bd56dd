// Package edition describes the physical game set: board layout, rack size,
// tile distribution and letter scores.
package edition

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/tilegame/cache"
	"github.com/domino14/tilegame/config"
)

//go:embed data/*.yaml
var builtin embed.FS

// BlankLetter is the letter of a blank tile that has not been played.
const BlankLetter = ""

type LetterSpec struct {
	Letter string `yaml:"letter"`
	Score  int    `yaml:"score"`
	Count  int    `yaml:"count"`
}

// Edition encodes the board layout and tile distribution for a game.
type Edition struct {
	Name       string       `yaml:"name"`
	Layout     []string     `yaml:"layout"`
	RackCount  int          `yaml:"rackCount"`
	SwapCount  int          `yaml:"swapCount"`
	BingoBonus int          `yaml:"bingoBonus"`
	Letters    []LetterSpec `yaml:"letters"`

	scores     map[string]int
	layout     [][]rune
	numLetters int
}

// ScanEdition reads an edition from YAML.
func ScanEdition(r io.Reader) (*Edition, error) {
	ed := &Edition{}
	if err := yaml.NewDecoder(r).Decode(ed); err != nil {
		return nil, err
	}
	if err := ed.init(); err != nil {
		return nil, err
	}
	return ed, nil
}

func (ed *Edition) init() error {
	if ed.Name == "" {
		return errors.New("edition has no name")
	}
	if ed.RackCount <= 0 {
		return fmt.Errorf("edition %s: rackCount must be positive", ed.Name)
	}
	if len(ed.Layout) == 0 {
		return fmt.Errorf("edition %s: empty layout", ed.Name)
	}
	ed.layout = make([][]rune, len(ed.Layout))
	for i, row := range ed.Layout {
		ed.layout[i] = []rune(row)
		if len(ed.layout[i]) != len(ed.layout[0]) {
			return fmt.Errorf("edition %s: layout row %d has %d squares, expected %d",
				ed.Name, i, len(ed.layout[i]), len(ed.layout[0]))
		}
	}
	ed.scores = make(map[string]int, len(ed.Letters))
	ed.numLetters = 0
	for _, l := range ed.Letters {
		if l.Letter != BlankLetter && utf8.RuneCountInString(l.Letter) != 1 {
			return fmt.Errorf("edition %s: letter %q must be a single character", ed.Name, l.Letter)
		}
		key := strings.ToUpper(l.Letter)
		if _, dup := ed.scores[key]; dup {
			return fmt.Errorf("edition %s: letter %q listed twice", ed.Name, l.Letter)
		}
		ed.scores[key] = l.Score
		ed.numLetters += l.Count
	}
	return nil
}

// Rows is the number of rows on the board.
func (ed *Edition) Rows() int {
	return len(ed.layout)
}

// Cols is the number of columns on the board.
func (ed *Edition) Cols() int {
	return len(ed.layout[0])
}

// LayoutAt returns the layout marker for the square at col, row.
func (ed *Edition) LayoutAt(col, row int) rune {
	return ed.layout[row][col]
}

// LetterScore gives the score of a (non-blank) letter. Unknown letters
// score 0.
func (ed *Edition) LetterScore(letter string) int {
	return ed.scores[strings.ToUpper(letter)]
}

// HasLetter reports whether the letter is part of the distribution.
func (ed *Edition) HasLetter(letter string) bool {
	_, ok := ed.scores[strings.ToUpper(letter)]
	return ok
}

// TotalTiles is the number of tiles in a complete set, blanks included.
func (ed *Edition) TotalTiles() int {
	return ed.numLetters
}

// Distribution returns the count of each letter, keyed by letter. Blanks are
// keyed by BlankLetter.
func (ed *Edition) Distribution() map[string]int {
	d := make(map[string]int, len(ed.Letters))
	for _, l := range ed.Letters {
		d[strings.ToUpper(l.Letter)] = l.Count
	}
	return d
}

// Alphabet returns the sorted non-blank letters.
func (ed *Edition) Alphabet() []string {
	letters := []string{}
	for _, l := range ed.Letters {
		if l.Letter != BlankLetter {
			letters = append(letters, strings.ToUpper(l.Letter))
		}
	}
	sort.Strings(letters)
	return letters
}

func loadFunc(cfg *config.Config, key string) (any, error) {
	name := strings.TrimPrefix(key, "edition:")
	if cfg != nil {
		override := filepath.Join(cfg.GetString(config.ConfigDataPath), "editions", name+".yaml")
		if f, err := os.Open(override); err == nil {
			defer f.Close()
			log.Debug().Str("path", override).Msg("loading edition override")
			return ScanEdition(f)
		}
	}
	f, err := builtin.Open("data/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("edition %q: %w", name, ErrUnknownEdition)
	}
	defer f.Close()
	return ScanEdition(f)
}

var ErrUnknownEdition = errors.New("unknown edition")

// Get returns the named edition, loading it on first use. Editions in
// <data-path>/editions take precedence over the built-in ones.
func Get(cfg *config.Config, name string) (*Edition, error) {
	obj, err := cache.Load(cfg, "edition:"+name, loadFunc)
	if err != nil {
		return nil, err
	}
	ed, ok := obj.(*Edition)
	if !ok {
		return nil, errors.New("could not read edition from cache")
	}
	return ed, nil
}

// BuiltinNames lists the editions compiled into the binary.
func BuiltinNames() []string {
	entries, err := builtin.ReadDir("data")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return names
}
