package game

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/tilegame/registry"
)

func TestNewPlayerZeroesState(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry(DefaultConfig)
	spec := registry.Spec{
		"name":         "name",
		"key":          "key",
		"isRobot":      true,
		"canChallenge": true,
		"dictionary":   "NoDic",
	}
	p, err := NewPlayer(reg, spec)
	is.NoErr(err)
	is.Equal(p.Name, "name")
	is.Equal(p.Key, "key")
	is.True(p.IsRobot)
	is.True(p.CanChallenge)
	is.Equal(p.Dictionary, "NoDic")
	is.Equal(p.Rack.Cols, DefaultRackSize)
	is.Equal(p.Rack.ID, "Rack_key")

	spec["score"] = 999
	spec["passes"] = 999
	spec["clock"] = 999
	spec["missNextTurn"] = true
	p, err = NewPlayer(reg, spec)
	is.NoErr(err)
	is.Equal(p.Score, 0)
	is.Equal(p.Passes, 0)
	is.Equal(p.Clock, 0)
	is.True(!p.MissNextTurn)
}

func TestNewPlayerNeedsKey(t *testing.T) {
	is := is.New(t)
	_, err := NewPlayer(NewRegistry(DefaultConfig), registry.Spec{"name": "anon"})
	is.True(err != nil)
}

func TestPlayerView(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry(DefaultConfig)
	p, err := NewPlayer(reg, registry.Spec{
		"name":       "Player 1",
		"key":        "playerkey",
		"dictionary": "NoDic",
		"rackSize":   3,
	})
	is.NoErr(err)
	p.IsRobot = true
	p.Score = 20

	is.Equal(p.view(false, ""), map[string]any{
		"name":       "Player 1",
		"isRobot":    true,
		"dictionary": "NoDic",
		"key":        "playerkey",
		"score":      20,
	})
	v := p.view(true, "p1@players.com")
	is.Equal(v["rack"], "---")
	is.Equal(v["email"], "p1@players.com")
	is.Equal(p.String(), "Player 1 (robot) <playerkey> 20")
}

func TestPlayerStructureRoundTrip(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry(DefaultConfig)
	g := twoPlayerGame(t, Options{})
	p := g.PlayerWithKey("human1")
	setRack(t, g, p, "QUIZ")
	p.Score, p.Passes, p.Clock, p.MissNextTurn = 33, 1, 120, true

	s := p.Structure()
	p2, err := registry.Restore[*Player](reg, s, "")
	is.NoErr(err)
	is.NoErr(p2.restoreState(s))
	is.Equal(p2.Key, p.Key)
	is.Equal(p2.Score, 33)
	is.Equal(p2.Passes, 1)
	is.Equal(p2.Clock, 120)
	is.True(p2.MissNextTurn)
	is.Equal(p2.Rack.Pack(), p.Rack.Pack())
	is.Equal(p2.Rack.Letters(), []string{"Q", "U", "I", "Z"})
}

func TestFillRack(t *testing.T) {
	is := is.New(t)
	g := twoPlayerGame(t, Options{})
	p := g.PlayerWithKey("human1")
	setRack(t, g, p, "AB")
	drawn := p.FillRack(g.Bag(), 7)
	is.Equal(len(drawn), 5)
	is.Equal(p.Rack.SquaresUsed(), 7)
	is.Equal(len(p.FillRack(g.Bag(), 7)), 0)

	n := g.Bag().Len()
	p.ReturnRack(g.Bag())
	is.True(p.Rack.IsEmpty())
	is.Equal(g.Bag().Len(), n+7)
}
