package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/domino14/tilegame/registry"
)

type protoCodec struct{}

// Proto encodes snapshots as a google.protobuf.Struct. All numbers come
// back as float64, which is exact for every value a game holds.
var Proto Codec = protoCodec{}

func (protoCodec) Name() string {
	return "proto"
}

func (protoCodec) Encode(s registry.Spec) ([]byte, error) {
	st, err := structpb.NewStruct(plainMap(s))
	if err != nil {
		return nil, fmt.Errorf("proto: %w", err)
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(st)
}

func (protoCodec) Decode(data []byte) (registry.Spec, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("proto: %w", err)
	}
	return registry.Spec(st.AsMap()), nil
}
