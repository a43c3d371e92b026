package codec

import (
	"github.com/segmentio/encoding/json"
)

// FastJSONCodec uses segmentio/encoding/json, a drop-in replacement for encoding/json
// that avoids most of the reflection cost on large item.get / history.get replies.
type FastJSONCodec struct{}

func (c *FastJSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *FastJSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c *FastJSONCodec) Type() CodecType {
	return CodecTypeFastJSON
}
