package session

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Codec is the pluggable compression step at the storage boundary.
// Snapshot state documents are verbose free-text-heavy JSON captured
// frequently, so compressing them trades CPU for storage. The codec is
// an interface so the algorithm is swappable without touching the data
// model or the stored rows' shape.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// ZstdCodec compresses snapshot blobs with zstandard.
type ZstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstdCodec creates a ZstdCodec with default compression level.
// The encoder and decoder are safe for concurrent EncodeAll/DecodeAll use.
func NewZstdCodec() (*ZstdCodec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("codec: create encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("codec: create decoder: %w", err)
	}
	return &ZstdCodec{enc: enc, dec: dec}, nil
}

// Compress compresses data into a self-contained zstd frame.
func (c *ZstdCodec) Compress(data []byte) ([]byte, error) {
	return c.enc.EncodeAll(data, nil), nil
}

// Decompress inflates a zstd frame. A malformed frame returns an error,
// which callers map to ErrCorruptData.
func (c *ZstdCodec) Decompress(data []byte) ([]byte, error) {
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("codec: decompress: %w", err)
	}
	return out, nil
}
