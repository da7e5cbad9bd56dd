package game

import (
	"fmt"
	"strings"

	"github.com/domino14/tilegame/board"
)

type direction struct{ dc, dr int }

var (
	across = direction{1, 0}
	down   = direction{0, 1}
)

func (d direction) perpendicular() direction {
	return direction{d.dr, d.dc}
}

// ScorePlacement checks that placements form a legal move on b and scores
// it: the main word plus every cross word formed. Letter and word bonuses
// only count for the newly placed tiles. The bingo bonus is not included.
// The board is not changed.
func ScorePlacement(b *board.Surface, placements []Placement, scorer board.LetterScorer) (int, []WordScore, error) {
	if len(placements) == 0 {
		return 0, nil, fmt.Errorf("%w: no tiles placed", ErrInvariant)
	}
	placed := make(map[[2]int]Placement, len(placements))
	for _, p := range placements {
		sq := b.At(p.Col, p.Row)
		if sq == nil {
			return 0, nil, fmt.Errorf("%w: %d,%d is off the board", ErrInvariant, p.Col, p.Row)
		}
		if !sq.IsEmpty() {
			return 0, nil, fmt.Errorf("%w: %d,%d is occupied", ErrInvariant, p.Col, p.Row)
		}
		if p.Letter == "" {
			return 0, nil, fmt.Errorf("%w: no letter for %d,%d", ErrInvariant, p.Col, p.Row)
		}
		pos := [2]int{p.Col, p.Row}
		if _, dup := placed[pos]; dup {
			return 0, nil, fmt.Errorf("%w: two tiles on %d,%d", ErrInvariant, p.Col, p.Row)
		}
		placed[pos] = p
	}

	first := placements[0]
	sameRow, sameCol := true, true
	for _, p := range placements[1:] {
		sameRow = sameRow && p.Row == first.Row
		sameCol = sameCol && p.Col == first.Col
	}
	var dir direction
	switch {
	case len(placements) == 1:
		// A single tile: the main word runs whichever way it makes one,
		// across if both.
		dir = across
		if wordLength(b, placed, first.Col, first.Row, across) < 2 {
			dir = down
		}
	case sameRow:
		dir = across
	case sameCol:
		dir = down
	default:
		return 0, nil, fmt.Errorf("%w: tiles are not in one line", ErrInvariant)
	}

	// Every square between the first and last tile must be filled.
	minC, minR, maxC, maxR := first.Col, first.Row, first.Col, first.Row
	for _, p := range placements {
		minC, maxC = min(minC, p.Col), max(maxC, p.Col)
		minR, maxR = min(minR, p.Row), max(maxR, p.Row)
	}
	for c, r := minC, minR; c <= maxC && r <= maxR; c, r = c+dir.dc, r+dir.dr {
		if _, ok := placed[[2]int{c, r}]; !ok && b.At(c, r).IsEmpty() {
			return 0, nil, fmt.Errorf("%w: gap at %d,%d", ErrInvariant, c, r)
		}
	}

	if b.IsEmpty() {
		cc, cr := b.Cols/2, b.Rows/2
		if _, ok := placed[[2]int{cc, cr}]; !ok {
			return 0, nil, fmt.Errorf("%w: first move must cover %d,%d", ErrInvariant, cc, cr)
		}
	} else if !touchesBoard(b, placements) {
		return 0, nil, fmt.Errorf("%w: move is not connected", ErrInvariant)
	}

	words := []WordScore{}
	main, ok := scoreWord(b, placed, first.Col, first.Row, dir, scorer)
	if !ok {
		return 0, nil, fmt.Errorf("%w: a word needs at least two letters", ErrInvariant)
	}
	words = append(words, main)
	cross := dir.perpendicular()
	for _, p := range placements {
		if w, ok := scoreWord(b, map[[2]int]Placement{{p.Col, p.Row}: p}, p.Col, p.Row, cross, scorer); ok {
			words = append(words, w)
		}
	}
	total := 0
	for _, w := range words {
		total += w.Score
	}
	return total, words, nil
}

func touchesBoard(b *board.Surface, placements []Placement) bool {
	for _, p := range placements {
		for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			if sq := b.At(p.Col+d[0], p.Row+d[1]); sq != nil && !sq.IsEmpty() {
				return true
			}
		}
	}
	return false
}

func filled(b *board.Surface, placed map[[2]int]Placement, c, r int) bool {
	if _, ok := placed[[2]int{c, r}]; ok {
		return true
	}
	sq := b.At(c, r)
	return sq != nil && !sq.IsEmpty()
}

// wordStart walks back from c, r to the first letter of the word through it.
func wordStart(b *board.Surface, placed map[[2]int]Placement, c, r int, d direction) (int, int) {
	for filled(b, placed, c-d.dc, r-d.dr) {
		c, r = c-d.dc, r-d.dr
	}
	return c, r
}

func wordLength(b *board.Surface, placed map[[2]int]Placement, c, r int, d direction) int {
	c, r = wordStart(b, placed, c, r, d)
	n := 0
	for filled(b, placed, c, r) {
		n++
		c, r = c+d.dc, r+d.dr
	}
	return n
}

// scoreWord scores the word running through c, r in direction d. It
// returns false if there is no word of two or more letters there.
func scoreWord(b *board.Surface, placed map[[2]int]Placement, c, r int, d direction,
	scorer board.LetterScorer) (WordScore, bool) {

	c, r = wordStart(b, placed, c, r, d)
	var word strings.Builder
	score, mult, n := 0, 1, 0
	for ; filled(b, placed, c, r); c, r = c+d.dc, r+d.dr {
		n++
		if p, ok := placed[[2]int{c, r}]; ok {
			sq := b.At(c, r)
			ls := 0
			if !p.IsBlank {
				ls = scorer.LetterScore(p.Letter)
			}
			score += ls * sq.Type.LetterMultiplier()
			mult *= sq.Type.WordMultiplier()
			word.WriteString(strings.ToUpper(p.Letter))
			continue
		}
		t := b.At(c, r).Tile()
		score += t.Score
		word.WriteString(strings.ToUpper(t.Letter))
	}
	if n < 2 {
		return WordScore{}, false
	}
	return WordScore{Word: word.String(), Score: score * mult}, true
}
