package directory

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"dappdir/internal/types"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

const (
	CodecJSON = "json"
	CodecZstd = "zstd"

	zstdMarker = "z:"
)

var enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
var dec, _ = zstd.NewReader(nil)

// Codec serializes records for the KV backend. Decode accepts both forms regardless of the
// configured one, so switching RECORD_CODEC needs no migration.
type Codec struct {
	compress bool
}

// NewCodec returns the codec named by name. An empty name means CodecJSON.
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return Codec{}, nil
	case CodecZstd:
		return Codec{compress: true}, nil
	default:
		return Codec{}, fmt.Errorf("unknown record codec %q", name)
	}
}

func (c Codec) Encode(r types.Record) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	if !c.compress {
		return b, nil
	}
	z := enc.EncodeAll(b, make([]byte, 0, len(b)))
	out := make([]byte, len(zstdMarker)+base64.RawURLEncoding.EncodedLen(len(z)))
	copy(out, zstdMarker)
	base64.RawURLEncoding.Encode(out[len(zstdMarker):], z)
	return out, nil
}

func (c Codec) Decode(b []byte) (types.Record, error) {
	var r types.Record
	if bytes.HasPrefix(b, []byte(zstdMarker)) {
		z, err := base64.RawURLEncoding.DecodeString(string(b[len(zstdMarker):]))
		if err != nil {
			return r, err
		}
		b, err = dec.DecodeAll(z, nil)
		if err != nil {
			return r, err
		}
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, err
	}
	return r, nil
}
