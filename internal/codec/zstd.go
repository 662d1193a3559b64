package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// HotCodec is the write-only hot-path transform. It embeds a zstd.Encoder
// but exposes no Decode method at the Go type level — the hot process is
// structurally incapable of reading its own compressed evidence back.
type HotCodec struct {
	enc *zstd.Encoder
}

// NewHotCodec builds a hot-path codec with the given compression level.
func NewHotCodec(level zstd.EncoderLevel) (*HotCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("codec: build hot encoder: %w", err)
	}
	return &HotCodec{enc: enc}, nil
}

func (c *HotCodec) Encode(b []byte) ([]byte, error) {
	return c.enc.EncodeAll(b, make([]byte, 0, len(b))), nil
}

// Close releases the underlying encoder's resources.
func (c *HotCodec) Close() error {
	return c.enc.Close()
}

// ColdCodec is the full read/write transform used only by offline/forensic
// tooling against evacuated bytes; the Agent never holds one.
type ColdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewColdCodec builds a cold-path codec capable of both directions.
func NewColdCodec(level zstd.EncoderLevel) (*ColdCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("codec: build cold encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("codec: build cold decoder: %w", err)
	}
	return &ColdCodec{enc: enc, dec: dec}, nil
}

func (c *ColdCodec) Encode(b []byte) ([]byte, error) {
	return c.enc.EncodeAll(b, make([]byte, 0, len(b))), nil
}

func (c *ColdCodec) Decode(b []byte) ([]byte, error) {
	return c.dec.DecodeAll(b, nil)
}

// Close releases the underlying encoder/decoder resources.
func (c *ColdCodec) Close() error {
	c.dec.Close()
	return c.enc.Close()
}
