package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// NoTile marks an empty cell in a packed surface.
	NoTile = '-'
	// BlankTile marks a blank that has no letter assigned yet.
	BlankTile = '!'

	// Runs of empty cells at least this long are written as (n).
	minRun = 5
)

var ErrBadRun = errors.New("bad run-length encoding")

// EncodeCells writes one character per cell, collapsing long runs of NoTile
// into (n). Shorter runs are left as they are so small gaps stay readable.
func EncodeCells(cells []rune) string {
	var sb strings.Builder
	run := 0
	flush := func() {
		if run >= minRun {
			sb.WriteByte('(')
			sb.WriteString(strconv.Itoa(run))
			sb.WriteByte(')')
		} else {
			for i := 0; i < run; i++ {
				sb.WriteRune(NoTile)
			}
		}
		run = 0
	}
	for _, c := range cells {
		if c == NoTile {
			run++
			continue
		}
		flush()
		sb.WriteRune(c)
	}
	flush()
	return sb.String()
}

// DecodeCells is the inverse of EncodeCells.
func DecodeCells(s string) ([]rune, error) {
	cells := make([]rune, 0, len(s))
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if rs[i] == ')' {
			return nil, fmt.Errorf("%w: unexpected ) at %d", ErrBadRun, i)
		}
		if rs[i] != '(' {
			cells = append(cells, rs[i])
			continue
		}
		end := i + 1
		for end < len(rs) && rs[end] != ')' {
			end++
		}
		if end == len(rs) {
			return nil, fmt.Errorf("%w: unclosed ( at %d", ErrBadRun, i)
		}
		n, err := strconv.Atoi(string(rs[i+1 : end]))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad run length %q", ErrBadRun, string(rs[i+1:end]))
		}
		for j := 0; j < n; j++ {
			cells = append(cells, NoTile)
		}
		i = end
	}
	return cells, nil
}
