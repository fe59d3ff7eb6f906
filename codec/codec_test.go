package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressors() []Compressor {
	return []Compressor{None{}, LZ4{}, Zstd{}}
}

func TestRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("container blob payload "), 500)
	for _, c := range compressors() {
		t.Run(c.Name(), func(t *testing.T) {
			block, err := c.Compress(data)
			require.NoError(t, err)

			out, err := c.Decompress(block)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestCompressibleDataShrinks(t *testing.T) {
	data := bytes.Repeat([]byte("hello world! "), 1000)
	for _, c := range []Compressor{LZ4{}, Zstd{}} {
		t.Run(c.Name(), func(t *testing.T) {
			block, err := c.Compress(data)
			require.NoError(t, err)
			assert.Less(t, len(block), len(data)/2, "repeated data should compress well")
		})
	}
}

func TestIncompressibleDataStoredRaw(t *testing.T) {
	// Pseudo-random bytes defeat both codecs; framing should fall back to
	// raw storage rather than growing the payload.
	data := make([]byte, 4096)
	state := uint32(0x9E3779B9)
	for i := range data {
		state = state*1664525 + 1013904223
		data[i] = byte(state >> 24)
	}

	for _, c := range compressors() {
		t.Run(c.Name(), func(t *testing.T) {
			block, err := c.Compress(data)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(block), len(data)+blockHeaderSize)

			out, err := c.Decompress(block)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestEmptyPayload(t *testing.T) {
	for _, c := range compressors() {
		t.Run(c.Name(), func(t *testing.T) {
			block, err := c.Compress(nil)
			require.NoError(t, err)

			out, err := c.Decompress(block)
			require.NoError(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestDecompressShortBlock(t *testing.T) {
	for _, c := range compressors() {
		t.Run(c.Name(), func(t *testing.T) {
			_, err := c.Decompress([]byte{1, 2, 3})
			assert.ErrorIs(t, err, ErrShortBlock)
		})
	}
}

func TestDecompressTruncatedPayload(t *testing.T) {
	data := bytes.Repeat([]byte("payload "), 200)
	for _, c := range compressors() {
		t.Run(c.Name(), func(t *testing.T) {
			block, err := c.Compress(data)
			require.NoError(t, err)

			_, err = c.Decompress(block[:len(block)-4])
			assert.ErrorIs(t, err, ErrShortBlock)
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{NoneName, LZ4Name, ZstdName} {
		c, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}

	_, err := ByName("snappy")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestCrossCodecRejection(t *testing.T) {
	data := bytes.Repeat([]byte("abc"), 300)
	block, err := Zstd{}.Compress(data)
	require.NoError(t, err)

	// A zstd block fed to LZ4 must fail, not silently corrupt.
	out, err := LZ4{}.Decompress(block)
	if err == nil {
		assert.NotEqual(t, data, out)
	}
}
