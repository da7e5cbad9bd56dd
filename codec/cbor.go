package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/domino14/tilegame/registry"
)

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// CBOR is the persistence codec. Map keys are written in canonical order,
// so equal snapshots encode to equal bytes.
var CBOR Codec = newCBOR()

func newCBOR() *cborCodec {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return &cborCodec{enc: enc, dec: dec}
}

func (c *cborCodec) Name() string {
	return "cbor"
}

func (c *cborCodec) Encode(s registry.Spec) ([]byte, error) {
	return c.enc.Marshal(plainMap(s))
}

func (c *cborCodec) Decode(data []byte) (registry.Spec, error) {
	var m map[string]any
	if err := c.dec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("cbor: %w", err)
	}
	return registry.Spec(m), nil
}
