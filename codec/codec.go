// Package codec turns structural game snapshots into bytes and back. CBOR
// is the storage format; protobuf (as a google.protobuf.Struct) is offered
// for transports that already speak protobuf.
package codec

import (
	"errors"
	"fmt"

	"github.com/domino14/tilegame/game"
	"github.com/domino14/tilegame/registry"
)

var ErrUnknownCodec = errors.New("unknown codec")

// A Codec encodes a structural snapshot. Decoded snapshots hold only plain
// maps, slices and scalars, so numbers may not come back with the type they
// went in with.
type Codec interface {
	Name() string
	Encode(s registry.Spec) ([]byte, error)
	Decode(data []byte) (registry.Spec, error)
}

// ByName returns the codec called name: "cbor" or "proto".
func ByName(name string) (Codec, error) {
	switch name {
	case "cbor", "":
		return CBOR, nil
	case "proto", "protobuf":
		return Proto, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

// EncodeGame encodes the complete structure of g.
func EncodeGame(c Codec, g *game.Game) ([]byte, error) {
	return c.Encode(g.Structure())
}

// DecodeGame rebuilds a game encoded with EncodeGame.
func DecodeGame(c Codec, reg *registry.Registry, data []byte) (*game.Game, error) {
	s, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	return registry.Restore[*game.Game](reg, s, "Game")
}

// plain rewrites named map and slice types as map[string]any and []any, the
// only container types every codec understands.
func plain(v any) any {
	switch t := v.(type) {
	case registry.Spec:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	case []registry.Spec:
		out := make([]any, len(t))
		for i := range t {
			out[i] = plainMap(t[i])
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = plainMap(t[i])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = plain(t[i])
		}
		return out
	}
	return v
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}
