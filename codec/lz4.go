package codec

import (
	"github.com/pierrec/lz4/v4"
)

// LZ4Name names the LZ4 block codec.
const LZ4Name = "lz4"

// LZ4 compresses blocks with LZ4, favoring speed over ratio.
type LZ4 struct{}

// Name implements Compressor.
func (LZ4) Name() string { return LZ4Name }

// Compress implements Compressor. Incompressible input is stored raw.
func (LZ4) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return frame(data, nil), nil
	}
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible.
		return frame(data, nil), nil
	}
	return frame(data, compressed[:n]), nil
}

// Decompress implements Compressor.
func (LZ4) Decompress(block []byte) ([]byte, error) {
	uncompressed, compressed, payload, err := unframe(block)
	if err != nil {
		return nil, err
	}
	if compressed == 0 {
		return payload, nil
	}
	out := make([]byte, uncompressed)
	n, err := lz4.UncompressBlock(payload, out)
	if err != nil {
		return nil, err
	}
	if uint32(n) != uncompressed {
		return nil, ErrSizeMismatch
	}
	return out, nil
}
