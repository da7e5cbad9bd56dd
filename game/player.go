package game

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/domino14/tilegame/bag"
	"github.com/domino14/tilegame/board"
	"github.com/domino14/tilegame/registry"
)

// DefaultRackSize is used for players created without a rack size.
const DefaultRackSize = 7

// A Player is one seat at the game. Score, Passes, Clock and MissNextTurn
// are game state: they always start out zeroed, whatever the player was
// created from.
type Player struct {
	Key          string `spec:"key"`
	Name         string `spec:"name"`
	IsRobot      bool   `spec:"isRobot"`
	CanChallenge bool   `spec:"canChallenge"`
	Dictionary   string `spec:"dictionary"`
	IsConnected  bool   `spec:"isConnected"`

	Rack *board.Surface `spec:"-"`

	Score        int  `spec:"-"`
	Passes       int  `spec:"-"`
	Clock        int  `spec:"-"`
	MissNextTurn bool `spec:"-"`
}

type playerSpec struct {
	RackSize int `spec:"rackSize"`
}

// NewPlayer creates a player from a plain-data spec, with an empty rack.
func NewPlayer(reg *registry.Registry, spec registry.Spec) (*Player, error) {
	p := &Player{}
	if err := registry.Decode(spec, p); err != nil {
		return nil, fmt.Errorf("%w: player: %w", ErrMalformed, err)
	}
	if p.Key == "" {
		return nil, fmt.Errorf("%w: player has no key", ErrMalformed)
	}
	ps := playerSpec{}
	if err := registry.Decode(spec, &ps); err != nil {
		return nil, fmt.Errorf("%w: player %s: %w", ErrMalformed, p.Key, err)
	}
	if rs, ok := registry.AsSpec(spec["rack"]); ok {
		rack, err := registry.Restore[*board.Surface](reg, rs, "Surface")
		if err != nil {
			return nil, err
		}
		p.Rack = rack
		return p, nil
	}
	if ps.RackSize <= 0 {
		ps.RackSize = DefaultRackSize
	}
	rack, err := board.NewRack(reg, "Rack_"+p.Key, ps.RackSize)
	if err != nil {
		return nil, err
	}
	p.Rack = rack
	return p, nil
}

func newPlayerFromSpec(reg *registry.Registry, spec registry.Spec) (any, error) {
	return NewPlayer(reg, spec)
}

func (p *Player) String() string {
	robot := ""
	if p.IsRobot {
		robot = " (robot)"
	}
	return fmt.Sprintf("%s%s <%s> %d", p.Name, robot, p.Key, p.Score)
}

// FillRack draws from the bag until the rack holds size tiles or the bag is
// empty. It returns the tiles drawn.
func (p *Player) FillRack(lb *bag.LetterBag, size int) []*board.Tile {
	need := size - p.Rack.SquaresUsed()
	if need <= 0 {
		return nil
	}
	drawn := lb.DrawAtMost(need)
	for _, t := range drawn {
		t.IsLocked = false
		if err := p.Rack.AddTile(t); err != nil {
			// The rack is sized for the edition so this cannot happen
			// unless the rack was swapped out from under us.
			log.Error().Err(err).Str("player", p.Key).Msg("rack overflow")
			lb.Return(t)
		}
	}
	return drawn
}

// ReturnRack puts every tile on the rack back in the bag.
func (p *Player) ReturnRack(lb *bag.LetterBag) {
	log.Debug().Strs("rack", p.Rack.Letters()).Str("player", p.Key).
		Msg("throwing rack in")
	lb.Return(p.Rack.Empty()...)
}

// Structure is the class-tagged plain-data form of the player, including
// the game-state fields and the rack.
func (p *Player) Structure() registry.Spec {
	return registry.Spec{
		registry.ClassKey: "Player",
		"key":             p.Key,
		"name":            p.Name,
		"isRobot":         p.IsRobot,
		"canChallenge":    p.CanChallenge,
		"dictionary":      p.Dictionary,
		"isConnected":     p.IsConnected,
		"score":           p.Score,
		"passes":          p.Passes,
		"clock":           p.Clock,
		"missNextTurn":    p.MissNextTurn,
		"rack":            p.Rack.Structure(),
	}
}

// restoreState copies the game-state fields out of a snapshot. NewPlayer
// never sets them.
func (p *Player) restoreState(spec registry.Spec) error {
	st := struct {
		Score        int  `spec:"score"`
		Passes       int  `spec:"passes"`
		Clock        int  `spec:"clock"`
		MissNextTurn bool `spec:"missNextTurn"`
	}{}
	if err := registry.Decode(spec, &st); err != nil {
		return fmt.Errorf("%w: player %s: %w", ErrMalformed, p.Key, err)
	}
	p.Score, p.Passes, p.Clock, p.MissNextTurn = st.Score, st.Passes, st.Clock, st.MissNextTurn
	return nil
}

// view is the client snapshot of the player. Only fields with a value are
// included; the rack only when asked for.
func (p *Player) view(withRack bool, email string) map[string]any {
	v := map[string]any{
		"key":   p.Key,
		"name":  p.Name,
		"score": p.Score,
	}
	if p.IsRobot {
		v["isRobot"] = true
	}
	if p.CanChallenge {
		v["canChallenge"] = true
	}
	if p.Dictionary != "" {
		v["dictionary"] = p.Dictionary
	}
	if p.IsConnected {
		v["isConnected"] = true
	}
	if p.MissNextTurn {
		v["missNextTurn"] = true
	}
	if p.Passes != 0 {
		v["passes"] = p.Passes
	}
	if p.Clock != 0 {
		v["clock"] = p.Clock
	}
	if email != "" {
		v["email"] = email
	}
	if withRack {
		v["rack"] = p.Rack.Pack()
	}
	return v
}
