package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnLog(t *testing.T) {
	l := &TurnLog{}
	_, ok := l.Last()
	assert.False(t, ok)

	for i := 0; i < 5; i++ {
		l.Push(Turn{Type: TurnPassed, PlayerKey: "p", Timestamp: int64(i)})
	}
	assert.Equal(t, 5, l.Len())
	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, int64(4), last.Timestamp)

	tail := l.Tail(2)
	assert.Len(t, tail, 2)
	assert.Equal(t, int64(3), tail[0].Timestamp)
	assert.Len(t, l.Tail(-1), 5)
	assert.Len(t, l.Tail(10), 5)

	// Copies handed out do not alias the log.
	all := l.All()
	all[0].Score = 99
	first, _ := l.At(0)
	assert.Equal(t, 0, first.Score)

	stopped := l.ForEach(func(i int, t Turn) bool { return i == 2 })
	assert.True(t, stopped)

	removed, err := l.RevertTo(3)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.Equal(t, int64(3), removed[0].Timestamp)
	assert.Equal(t, 3, l.Len())

	_, err = l.RevertTo(4)
	assert.True(t, errors.Is(err, ErrInvariant))
	_, err = l.RevertTo(-1)
	assert.True(t, errors.Is(err, ErrInvariant))
}

func TestTurnLogDeepCopies(t *testing.T) {
	l := &TurnLog{}
	placements := []Placement{{Col: 4, Row: 5, Letter: "C"}}
	words := []WordScore{{Word: "C", Score: 3}}
	l.Push(Turn{Type: TurnPlaced, PlayerKey: "p", Placements: placements, Words: words,
		Adjustments: []ScoreDelta{{PlayerKey: "p", Delta: 1}}, Skipped: []string{"q"}})

	// The pushed slices stay with the caller.
	placements[0].Letter = "X"
	words[0].Score = 0

	got, _ := l.At(0)
	got.Placements[0].Col = 9
	got.Adjustments[0].Delta = 7
	got.Skipped[0] = "r"
	l.Tail(1)[0].Words[0].Word = "Z"
	l.ForEach(func(i int, t Turn) bool {
		t.Placements[0].Row = 9
		return false
	})

	removed, err := l.RevertTo(0)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	turn := removed[0]
	assert.Equal(t, []Placement{{Col: 4, Row: 5, Letter: "C"}}, turn.Placements)
	assert.Equal(t, []WordScore{{Word: "C", Score: 3}}, turn.Words)
	assert.Equal(t, []ScoreDelta{{PlayerKey: "p", Delta: 1}}, turn.Adjustments)
	assert.Equal(t, []string{"q"}, turn.Skipped)
}

func TestTurnString(t *testing.T) {
	turn := Turn{
		Type:          TurnChallengeWon,
		Score:         -10,
		PlayerKey:     "human1",
		ChallengerKey: "human2",
		NextToGoKey:   "human2",
		Words:         []WordScore{{Word: "CAT", Score: 10}},
	}
	assert.Equal(t, "CHALLENGE_WON by human1 for -10, challenged by human2 [CAT(10)], next human2", turn.String())
	assert.Equal(t, "TurnType(42)", TurnType(42).String())
}
