// Package codec frames container blobs for storage. A compressor wraps a
// serialized container in a small block header recording the uncompressed
// and compressed payload sizes, so snapshots stay self-describing and
// incompressible payloads fall back to raw storage.
//
// Codec selection is a compatibility boundary: snapshots record the codec
// name in their header, and bytes written by one codec only decode through
// the same codec.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrShortBlock is returned for inputs smaller than their framing claims.
	ErrShortBlock = errors.New("codec: block too small")
	// ErrSizeMismatch is returned when decompression yields an unexpected size.
	ErrSizeMismatch = errors.New("codec: decompressed size mismatch")
	// ErrUnknownCodec is returned by ByName for unregistered codec names.
	ErrUnknownCodec = errors.New("codec: unknown codec")
)

// Compressor frames and unframes a byte block.
// Implementations must be safe for concurrent use.
type Compressor interface {
	// Name identifies the codec in snapshot headers.
	Name() string
	// Compress wraps data in a framed block.
	Compress(data []byte) ([]byte, error)
	// Decompress unwraps a framed block back to the original bytes.
	Decompress(block []byte) ([]byte, error)
}

// Block framing: [UncompressedSize uint32][CompressedSize uint32][Data...],
// little endian. CompressedSize 0 means the payload is stored raw.
const blockHeaderSize = 8

// frame prepends the block header. A nil compressed slice, or one no better
// than a 0.9 ratio, stores data raw instead.
func frame(data, compressed []byte) []byte {
	if compressed == nil || float64(len(compressed)) > float64(len(data))*0.9 {
		out := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(out[4:], 0)
		copy(out[blockHeaderSize:], data)
		return out
	}
	out := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[blockHeaderSize:], compressed)
	return out
}

// unframe validates the framing and splits the block into the declared
// sizes and the payload. The payload is raw when compressed is zero.
func unframe(block []byte) (uncompressed, compressed uint32, payload []byte, err error) {
	if len(block) < blockHeaderSize {
		return 0, 0, nil, ErrShortBlock
	}
	uncompressed = binary.LittleEndian.Uint32(block[0:])
	compressed = binary.LittleEndian.Uint32(block[4:])
	size := compressed
	if size == 0 {
		size = uncompressed
	}
	if uint64(len(block)) < blockHeaderSize+uint64(size) {
		return 0, 0, nil, fmt.Errorf("%w: payload truncated", ErrShortBlock)
	}
	return uncompressed, compressed, block[blockHeaderSize : blockHeaderSize+size], nil
}

// ByName returns a built-in compressor by its stable name. It is used by
// self-describing persistence formats that store the codec name in their
// header.
func ByName(name string) (Compressor, error) {
	switch name {
	case NoneName:
		return None{}, nil
	case LZ4Name:
		return LZ4{}, nil
	case ZstdName:
		return Zstd{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

// NoneName names the pass-through codec.
const NoneName = "none"

// None frames blocks without compressing them.
type None struct{}

// Name implements Compressor.
func (None) Name() string { return NoneName }

// Compress implements Compressor.
func (None) Compress(data []byte) ([]byte, error) {
	return frame(data, nil), nil
}

// Decompress implements Compressor.
func (None) Decompress(block []byte) ([]byte, error) {
	uncompressed, compressed, payload, err := unframe(block)
	if err != nil {
		return nil, err
	}
	if compressed != 0 || uint32(len(payload)) != uncompressed {
		return nil, ErrSizeMismatch
	}
	return payload, nil
}
