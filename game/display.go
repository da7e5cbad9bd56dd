package game

import (
	"fmt"
	"strings"
)

func splitSubN(s string, n int) []string {
	sub := ""
	subs := []string{}

	runes := []rune(s)
	l := len(runes)
	for i, r := range runes {
		sub = sub + string(r)
		if (i+1)%n == 0 {
			subs = append(subs, sub)
			sub = ""
		} else if (i + 1) == l {
			subs = append(subs, sub)
		}
	}

	return subs
}

func addText(lines []string, row int, hpad int, text string) []string {
	maxTextSize := 42
	sp := splitSubN(text, maxTextSize)

	for _, chunk := range sp {
		for row >= len(lines) {
			lines = append(lines, "")
		}
		lines[row] = lines[row] + strings.Repeat(" ", hpad) + chunk
		row++
	}
	return lines
}

// boardText draws the board with column letters and row numbers.
func (g *Game) boardText() []string {
	b := g.board
	header := "   "
	for c := 0; c < b.Cols; c++ {
		header += fmt.Sprintf("%c ", 'A'+c)
	}
	lines := []string{header, "   " + strings.Repeat("-", b.Cols*2)}
	for i, row := range strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n") {
		lines = append(lines, fmt.Sprintf("%2d|%s |", i+1, row))
	}
	return append(lines, "   "+strings.Repeat("-", b.Cols*2))
}

// ToDisplayText renders the game for a terminal: the board, with the
// players, the bag and the latest turn beside it.
func (g *Game) ToDisplayText() string {
	lines := g.boardText()
	hpadding := 3
	vpadding := 1

	for i, p := range g.players {
		marker := " "
		if g.State == StatePlaying && p.Key == g.WhosTurnKey {
			marker = "*"
		}
		lines = addText(lines, vpadding+i, hpadding,
			fmt.Sprintf("%s %-20s %4d  %s", marker, p.Name, p.Score, strings.Join(p.Rack.Letters(), "")))
	}

	vpadding += len(g.players) + 1
	lines = addText(lines, vpadding, hpadding, fmt.Sprintf("Bag: (%d)", g.bag.Len()))
	lines = addText(lines, vpadding+1, hpadding, strings.Join(g.bag.Letters(), " "))

	vpadding += 5
	lines = addText(lines, vpadding, hpadding, fmt.Sprintf("Turn %d:", g.turns.Len()))
	if t, ok := g.turns.Last(); ok {
		lines = addText(lines, vpadding+1, hpadding, t.String())
	}
	if g.PausedBy != "" {
		lines = addText(lines, vpadding+3, hpadding, "Paused by "+g.PausedBy)
	}
	if g.State == StateGameOver {
		lines = addText(lines, vpadding+3, hpadding, "Game is over.")
	}

	return "\n" + strings.Join(lines, "\n") + "\n"
}
