package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZstdName names the zstd block codec.
const ZstdName = "zstd"

// Encoder/decoder pools; zstd contexts are expensive to build.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Zstd compresses blocks with zstd, trading speed for a better ratio than
// LZ4.
type Zstd struct{}

// Name implements Compressor.
func (Zstd) Name() string { return ZstdName }

// Compress implements Compressor. Incompressible input is stored raw.
func (Zstd) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return frame(data, nil), nil
	}
	enc := getZstdEncoder()
	defer zstdEncoderPool.Put(enc)
	return frame(data, enc.EncodeAll(data, nil)), nil
}

// Decompress implements Compressor.
func (Zstd) Decompress(block []byte) ([]byte, error) {
	uncompressed, compressed, payload, err := unframe(block)
	if err != nil {
		return nil, err
	}
	if compressed == 0 {
		return payload, nil
	}
	dec := getZstdDecoder()
	defer zstdDecoderPool.Put(dec)
	out, err := dec.DecodeAll(payload, make([]byte, 0, uncompressed))
	if err != nil {
		return nil, err
	}
	if uint32(len(out)) != uncompressed {
		return nil, ErrSizeMismatch
	}
	return out, nil
}
