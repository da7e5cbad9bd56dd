package game

import (
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/tilegame/board"
)

func TestPack(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry(DefaultConfig)
	g, err := Create(reg, DefaultConfig, Options{
		Edition:          "English_Scrabble",
		Dictionary:       "Oxford_5000",
		TimerType:        TimerGame,
		TimeAllowed:      60,
		TimePenalty:      100,
		PredictScore:     true,
		AllowTakeBack:    true,
		WordCheck:        WordCheckAfter,
		ChallengePenalty: PenaltyPerWord,
		State:            StateWaiting,
		MinPlayers:       5,
		MaxPlayers:       10,
	})
	is.NoErr(err)
	is.NoErr(g.AddPlayer(newTestPlayer(t, reg, "robot1", "Robot", true), true))
	is.NoErr(g.AddPlayer(newTestPlayer(t, reg, "human2", "Human", false), true))
	g.turns.Push(Turn{
		Type:          TurnChallengeLost,
		Score:         -5,
		GameKey:       g.Key,
		PlayerKey:     "human2",
		NextToGoKey:   "robot1",
		ChallengerKey: "robot1",
		Timestamp:     g.CreationTimestamp + 1,
	})
	g.turns.Push(Turn{
		Type:        TurnSwapped,
		GameKey:     g.Key,
		PlayerKey:   "robot1",
		NextToGoKey: "human2",
		Replacements: []board.Tile{
			{Letter: "A", Score: 1},
			{Letter: "Q", Score: 10},
		},
		Timestamp: 1,
	})

	p, err := ParsePacked(g.Pack())
	is.NoErr(err)
	is.Equal(p["b"], "(225)") // empty board
	is.Equal(p["c"], "3")
	is.Equal(p["d"], "Oxford_5000")
	is.Equal(p["e"], "English_Scrabble")
	is.Equal(p["g"], "true")
	is.Equal(p["i"], "true")
	is.Equal(len(p["k"]), 16)
	is.True(p["m"] != "")
	is.Equal(p["o"], "5")
	is.Equal(p["s"], "0")
	is.Equal(p["t"], "2")
	is.Equal(p["v"], "1")
	is.Equal(p["x"], "60")
	is.Equal(p["y"], "100")
	is.Equal(p["l"], "5")
	is.Equal(p["h"], "10")

	is.Equal(p["P0k"], "robot1")
	is.Equal(p["P0n"], "Robot")
	is.Equal(p["P0r"], "true")
	is.Equal(p["P0s"], "0")
	is.Equal(len(p["P0R"]), 7)
	is.Equal(p["P1k"], "human2")
	is.Equal(p["P1n"], "Human")
	is.Equal(p["P1s"], "0")
	_, robot := p["P1r"]
	is.True(!robot)

	is.True(p["T0m"] != "")
	is.Equal(p["T0n"], "robot1")
	is.Equal(p["T0p"], "human2")
	is.Equal(p["T0t"], "3")
	is.Equal(p["T0c"], "robot1")
	is.Equal(p["T0s"], "-5")

	is.Equal(p["T1m"], "1")
	is.Equal(p["T1n"], "human2")
	is.Equal(p["T1p"], "robot1")
	is.Equal(p["T1r"], "AQ")
	is.Equal(p["T1t"], "1")
}

func TestPackKeepsLatestTurns(t *testing.T) {
	is := is.New(t)
	g := twoPlayerGame(t, Options{MaxPackedTurns: 2})
	for i := 0; i < 3; i++ {
		_, err := g.Pass(g.WhosTurnKey)
		is.NoErr(err)
	}
	p, err := ParsePacked(g.Pack())
	is.NoErr(err)
	_, ok := p["T2t"]
	is.True(!ok)
	is.Equal(p["T1p"], "human1")
	is.Equal(p["T0p"], "human2")
}

func TestPackEscapesValues(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry(DefaultConfig)
	g, err := Create(reg, DefaultConfig, Options{Edition: "Test", Key: "k1"})
	is.NoErr(err)
	is.NoErr(g.AddPlayer(newTestPlayer(t, reg, "p1", "Zoë; the=best (maybe)!", false), false))
	packed := g.Pack()
	is.True(strings.Contains(packed, "P0n=Zo%C3%AB%3B%20the=best%20(maybe)!"))
	p, err := ParsePacked(packed)
	is.NoErr(err)
	is.Equal(p["P0n"], "Zoë; the=best (maybe)!")
}

const questionBoard = "qUESTION(6)C--P(7)I--I(7)E--N(7)N--I(7)C--O(7)E--NO(10)M(36)"

func unpackFixture() map[string]string {
	return map[string]string{
		"a":   "1",
		"b":   questionBoard,
		"c":   "3",
		"o":   "5",
		"d":   "Oxford_5000",
		"e":   "Test",
		"g":   "true",
		"i":   "true",
		"k":   "30e820bbc5f4ef41",
		"m":   "1707125064802",
		"P0k": "robot1",
		"P0n": "Robot",
		"P0r": "true",
		"P0R": "NTGTSVO-",
		"P0s": "0",
		"P1k": "human2",
		"P1n": "Human",
		"P1R": "NEAGAEA-",
		"P1s": "12",
		"T0c": "robot1",
		"T0m": "1707125064803",
		"T0n": "robot1",
		"T0p": "human2",
		"T0t": "3",
		"T1m": "1",
		"T1n": "human2",
		"T1s": "12",
		"T1p": "robot1",
		"T1r": "AQ",
		"T1t": "1",
		"s":   "1",
		"t":   "2",
		"u":   "true",
		"v":   "1",
		"x":   "60",
		"y":   "100",
	}
}

func TestUnpack(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry(DefaultConfig)
	g, err := UnpackParams(reg, DefaultConfig, unpackFixture())
	is.NoErr(err)
	is.Equal(g.ChallengePenalty, PenaltyPerWord)
	is.Equal(g.Dictionary, "Oxford_5000")
	is.Equal(g.Edition, "Test")
	is.True(g.AllowTakeBack)
	is.True(g.PredictScore)
	is.Equal(g.Key, "30e820bbc5f4ef41")
	is.Equal(g.CreationTimestamp, int64(1707125064802))
	is.Equal(g.PenaltyPoints, 5)
	is.Equal(g.State, StatePlaying)
	is.Equal(g.TimerType, TimerGame)
	is.Equal(g.WordCheck, WordCheckAfter)
	is.Equal(g.TimeAllowed, 60)
	is.Equal(g.TimePenalty, 100)
	is.Equal(g.WhosTurnKey, "human2")

	// 59 tiles, 22 on the board and 14 on the racks.
	is.Equal(g.Bag().Len(), 23)
	is.Equal(g.Board().SquaresUsed(), 22)
	q := g.At(0, 0).Tile()
	is.True(q.IsBlank)
	is.Equal(q.Letter, "Q")
	is.Equal(q.Score, 0)

	p0 := g.Players()[0]
	is.Equal(p0.Key, "robot1")
	is.Equal(p0.Name, "Robot")
	is.Equal(p0.Score, 0)
	is.True(p0.IsRobot)
	is.Equal(strings.Join(p0.Rack.Letters(), ""), "NTGTSVO")

	p1 := g.Players()[1]
	is.Equal(p1.Key, "human2")
	is.Equal(p1.Name, "Human")
	is.Equal(p1.Score, 12)
	is.True(!p1.IsRobot)

	turns := g.Turns()
	is.Equal(len(turns), 2)
	is.Equal(turns[0].Type, TurnChallengeLost)
	is.Equal(turns[0].Timestamp, int64(1707125064803))
	is.Equal(turns[0].NextToGoKey, "robot1")
	is.Equal(turns[0].PlayerKey, "human2")
	is.Equal(turns[0].ChallengerKey, "robot1")
	is.Equal(turns[0].GameKey, g.Key)

	is.Equal(turns[1].Type, TurnSwapped)
	is.Equal(turns[1].Timestamp, int64(1))
	is.Equal(turns[1].NextToGoKey, "human2")
	is.Equal(turns[1].PlayerKey, "robot1")
	is.Equal(turns[1].Score, 12)
	is.Equal(turns[1].Replacements[0].Letter, "A")
	is.Equal(turns[1].Replacements[0].Score, 1)
	is.Equal(turns[1].Replacements[1].Letter, "Q")
	is.Equal(turns[1].Replacements[1].Score, 4)
}

func TestUnpackDerivesState(t *testing.T) {
	is := is.New(t)
	params := unpackFixture()
	delete(params, "s")
	g, err := UnpackParams(NewRegistry(DefaultConfig), DefaultConfig, params)
	is.NoErr(err)
	is.Equal(g.State, StatePlaying)

	params["l"] = "3"
	g, err = UnpackParams(NewRegistry(DefaultConfig), DefaultConfig, params)
	is.NoErr(err)
	is.Equal(g.State, StateWaiting)
}

func TestDeriveState(t *testing.T) {
	is := is.New(t)
	is.Equal(DeriveState(nil, 2, 0), StateWaiting)
	is.Equal(DeriveState([]Turn{{Type: TurnPassed}}, 0, 0), StateWaiting)
	is.Equal(DeriveState([]Turn{{Type: TurnPassed}}, 2, 2), StatePlaying)
	is.Equal(DeriveState([]Turn{{Type: TurnPassed}}, 1, 2), StateWaiting)
	is.Equal(DeriveState([]Turn{{Type: TurnPassed}, {Type: TurnGameEnded}}, 2, 0), StateGameOver)
}

func TestUnpackErrors(t *testing.T) {
	for name, change := range map[string]func(map[string]string){
		"no edition":       func(p map[string]string) { delete(p, "e") },
		"no board":         func(p map[string]string) { delete(p, "b") },
		"no key":           func(p map[string]string) { delete(p, "k") },
		"unknown edition":  func(p map[string]string) { p["e"] = "Klingon" },
		"bad number":       func(p map[string]string) { p["x"] = "sixty" },
		"bad state":        func(p map[string]string) { p["s"] = "7" },
		"short board":      func(p map[string]string) { p["b"] = "(120)" },
		"bad run":          func(p map[string]string) { p["b"] = "(12" },
		"whose turn":       func(p map[string]string) { p["w"] = "nobody" },
		"duplicate player": func(p map[string]string) { p["P1k"] = "robot1" },
		"too many tiles":   func(p map[string]string) { p["P1R"] = "ZZZ" },
		"bad turn type":    func(p map[string]string) { p["T0t"] = "99" },
		"turn by nobody":   func(p map[string]string) { delete(p, "T1p") },
	} {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			params := unpackFixture()
			change(params)
			_, err := UnpackParams(NewRegistry(DefaultConfig), DefaultConfig, params)
			is.True(err != nil)
		})
	}
}

func TestUnpackChecksRoster(t *testing.T) {
	noPlayers := func(p map[string]string) {
		for k := range p {
			if strings.HasPrefix(k, "P") || strings.HasPrefix(k, "T") {
				delete(p, k)
			}
		}
	}
	for _, tc := range []struct {
		name   string
		change func(map[string]string)
		field  string
	}{
		{"playing with no players", noPlayers, "field s:"},
		{"over with no players", func(p map[string]string) { noPlayers(p); p["s"] = "2" }, "field s:"},
		{"unknown player", func(p map[string]string) { p["T1p"] = "ghost" }, "field T1p:"},
		{"unknown next", func(p map[string]string) { p["T0n"] = "ghost" }, "field T0n:"},
		{"unknown challenger", func(p map[string]string) { p["T0c"] = "ghost" }, "field T0c:"},
		{"unknown skipped", func(p map[string]string) { p["T1k0"] = "ghost" }, "field T1k:"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			params := unpackFixture()
			tc.change(params)
			_, err := UnpackParams(NewRegistry(DefaultConfig), DefaultConfig, params)
			is.True(errors.Is(err, ErrMalformed))
			is.True(strings.Contains(err.Error(), tc.field))
		})
	}

	is := is.New(t)
	params := unpackFixture()
	noPlayers(params)
	params["s"] = "0"
	g, err := UnpackParams(NewRegistry(DefaultConfig), DefaultConfig, params)
	is.NoErr(err)
	is.Equal(g.State, StateWaiting)
}

func TestPackKeepsNamesExact(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry(DefaultConfig)
	g, err := Create(reg, DefaultConfig, Options{Edition: "Test", Key: "k1"})
	is.NoErr(err)
	decomposed := "Zoe\u0301"
	is.NoErr(g.AddPlayer(newTestPlayer(t, reg, "p1", decomposed, false), false))
	packed := g.Pack()
	g2, err := Unpack(NewRegistry(DefaultConfig), DefaultConfig, packed)
	is.NoErr(err)
	is.Equal(g2.Players()[0].Name, decomposed)
	is.Equal(g2.Pack(), packed)
	is.Equal(g2.Digest(), g.Digest())
}

func TestParsePackedMalformed(t *testing.T) {
	is := is.New(t)
	_, err := ParsePacked("b=(225);e=%zz")
	is.True(errors.Is(err, ErrMalformed))
	p, err := ParsePacked(";;g;;")
	is.NoErr(err)
	is.Equal(p, map[string]string{"g": "true"})
}

func TestPackRoundTrip(t *testing.T) {
	is := is.New(t)
	g := twoPlayerGame(t, Options{AllowTakeBack: true, ChallengePenalty: PenaltyPerTurn})
	setRack(t, g, g.PlayerWithKey("human1"), "CATNESS")
	_, err := g.Play("human1", across3(5, "CAT"))
	is.NoErr(err)
	_, err = g.Pass("human2")
	is.NoErr(err)
	g.PlayerWithKey("human2").MissNextTurn = true

	packed := g.Pack()
	g2, err := Unpack(NewRegistry(DefaultConfig), DefaultConfig, packed)
	is.NoErr(err)
	is.Equal(g2.Pack(), packed)
	is.Equal(g2.Digest(), g.Digest())
	is.Equal(g2.Bag().Len(), g.Bag().Len())
	is.True(g2.PlayerWithKey("human2").MissNextTurn)
}

func TestDigestChanges(t *testing.T) {
	is := is.New(t)
	g := twoPlayerGame(t, Options{})
	before := g.Digest()
	is.Equal(g.Digest(), before)
	_, err := g.Pass("human1")
	is.NoErr(err)
	is.True(g.Digest() != before)
}
