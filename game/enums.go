package game

import "fmt"

// The ordinals of these enums are part of the packed format and must not
// change.

type State int

const (
	StateWaiting State = iota
	StatePlaying
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StatePlaying:
		return "PLAYING"
	case StateGameOver:
		return "GAME_OVER"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type TimerType int

const (
	TimerNone TimerType = iota
	// TimerTurn gives each player TimeAllowed seconds per turn.
	TimerTurn
	// TimerGame gives each player TimeAllowed minutes for the whole game.
	TimerGame
)

func (t TimerType) String() string {
	switch t {
	case TimerNone:
		return "NONE"
	case TimerTurn:
		return "TURN"
	case TimerGame:
		return "GAME"
	}
	return fmt.Sprintf("TimerType(%d)", int(t))
}

type WordCheck int

const (
	WordCheckNone WordCheck = iota
	WordCheckAfter
	WordCheckBefore
)

func (w WordCheck) String() string {
	switch w {
	case WordCheckNone:
		return "NONE"
	case WordCheckAfter:
		return "AFTER"
	case WordCheckBefore:
		return "BEFORE"
	}
	return fmt.Sprintf("WordCheck(%d)", int(w))
}

// Penalty is what happens to a player who challenges a valid play.
type Penalty int

const (
	PenaltyNone Penalty = iota
	// PenaltyMiss makes the challenger miss their next turn.
	PenaltyMiss
	// PenaltyPerTurn takes PenaltyPoints off the challenger.
	PenaltyPerTurn
	// PenaltyPerWord takes PenaltyPoints off the challenger for each word
	// challenged.
	PenaltyPerWord
)

func (p Penalty) String() string {
	switch p {
	case PenaltyNone:
		return "NONE"
	case PenaltyMiss:
		return "MISS"
	case PenaltyPerTurn:
		return "PER_TURN"
	case PenaltyPerWord:
		return "PER_WORD"
	}
	return fmt.Sprintf("Penalty(%d)", int(p))
}

type TurnType int

const (
	TurnPlaced TurnType = iota
	TurnSwapped
	TurnPassed
	TurnChallengeLost
	TurnChallengeWon
	TurnTookBack
	TurnTimedOut
	TurnGameEnded
)

var turnTypeNames = [...]string{"PLACED", "SWAPPED", "PASSED", "CHALLENGE_LOST",
	"CHALLENGE_WON", "TOOK_BACK", "TIMED_OUT", "GAME_ENDED"}

func (t TurnType) String() string {
	if t < 0 || int(t) >= len(turnTypeNames) {
		return fmt.Sprintf("TurnType(%d)", int(t))
	}
	return turnTypeNames[t]
}

func (t TurnType) valid() bool {
	return t >= TurnPlaced && t <= TurnGameEnded
}
