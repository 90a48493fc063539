package gochan

import (
	"encoding/json"

	"github.com/golang/snappy"
)

// Codec marshals values to and from the bytes stored in a Channel slot.
// Implementations must be safe for concurrent use; Channel may call Marshal
// and Unmarshal from multiple goroutines.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default wire encoding for a Channel that doesn't specify
// one: plain UTF-8 JSON.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// SnappyCodec wraps another Codec and compresses its output with Snappy.
// It trades a few bytes of framing overhead for smaller slot occupancy on
// channels carrying large or repetitive payloads; pair it with a larger
// SlotSize only if the uncompressed form would otherwise overflow it.
type SnappyCodec struct {
	Inner Codec
}

// NewSnappyCodec wraps inner, defaulting to JSONCodec if inner is nil.
func NewSnappyCodec(inner Codec) SnappyCodec {
	if inner == nil {
		inner = JSONCodec{}
	}
	return SnappyCodec{Inner: inner}
}

func (c SnappyCodec) Marshal(v any) ([]byte, error) {
	raw, err := c.Inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func (c SnappyCodec) Unmarshal(data []byte, v any) error {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return err
	}
	return c.Inner.Unmarshal(raw, v)
}

var _ Codec = JSONCodec{}
var _ Codec = SnappyCodec{}
