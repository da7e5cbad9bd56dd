package game

import "fmt"

// TurnLog is the append-only ledger of a game. The only way to remove
// entries is RevertTo, which drops everything from an index onwards.
type TurnLog struct {
	turns []Turn
}

// Push appends a copy of t.
func (l *TurnLog) Push(t Turn) {
	l.turns = append(l.turns, t.clone())
}

func cloneTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = t.clone()
	}
	return out
}

// RevertTo truncates the log to its first index entries and returns the
// removed turns, oldest first.
func (l *TurnLog) RevertTo(index int) ([]Turn, error) {
	if index < 0 || index > len(l.turns) {
		return nil, fmt.Errorf("%w: cannot revert log of %d turns to %d",
			ErrInvariant, len(l.turns), index)
	}
	removed := cloneTurns(l.turns[index:])
	l.turns = l.turns[:index]
	return removed, nil
}

func (l *TurnLog) Len() int {
	return len(l.turns)
}

// At returns a copy of the turn at index i.
func (l *TurnLog) At(i int) (Turn, bool) {
	if i < 0 || i >= len(l.turns) {
		return Turn{}, false
	}
	return l.turns[i].clone(), true
}

// Last returns a copy of the most recent turn.
func (l *TurnLog) Last() (Turn, bool) {
	return l.At(len(l.turns) - 1)
}

// ForEach calls fn with each turn, oldest first, stopping early if fn
// returns true.
func (l *TurnLog) ForEach(fn func(i int, t Turn) bool) bool {
	for i, t := range l.turns {
		if fn(i, t.clone()) {
			return true
		}
	}
	return false
}

// All returns a copy of every turn.
func (l *TurnLog) All() []Turn {
	return cloneTurns(l.turns)
}

// Tail returns copies of the last n turns, or all of them if there are
// fewer, or if n is negative.
func (l *TurnLog) Tail(n int) []Turn {
	if n < 0 || n >= len(l.turns) {
		return l.All()
	}
	return cloneTurns(l.turns[len(l.turns)-n:])
}
