package codec

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

type CodecType byte

const (
	CodecTypeJSON     CodecType = 0
	CodecTypeFastJSON CodecType = 1
)

// Codec serializes request envelopes and deserializes replies.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Type() CodecType // 0=JSON, 1=FastJSON
}

func GetCodec(codecType CodecType) Codec {
	if codecType == CodecTypeFastJSON {
		return &FastJSONCodec{}
	}

	return &JSONCodec{}
}

// ParseCodecType maps a configuration name to a CodecType. The empty name selects JSON.
func ParseCodecType(name string) (CodecType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return CodecTypeJSON, nil
	case "fastjson", "segmentio":
		return CodecTypeFastJSON, nil
	default:
		return CodecTypeJSON, errors.NotValidf("codec %q", name)
	}
}

func (t CodecType) String() string {
	switch t {
	case CodecTypeJSON:
		return "json"
	case CodecTypeFastJSON:
		return "fastjson"
	default:
		return fmt.Sprintf("codec(%d)", byte(t))
	}
}
