package cnext

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/james-card/cnext/codec"
	"github.com/james-card/cnext/hashtable"
	"github.com/james-card/cnext/vector"
)

// Snapshot file layout, little endian:
//
//	[Magic uint32][Version uint32][Kind uint8][CodecNameLen uint8]
//	[Reserved [2]byte][PayloadLen uint64][Checksum uint32]
//	[codec name][framed payload]
//
// The codec name makes snapshots self-describing; the checksum covers the
// framed payload only.
const (
	// SnapshotMagic identifies snapshot files (ASCII "CNX0").
	SnapshotMagic = 0x434E5830
	// SnapshotVersion is the current snapshot format version.
	SnapshotVersion = 1

	kindHashTable uint8 = 1
	kindVector    uint8 = 2
)

var (
	// ErrInvalidMagic is returned for inputs without the snapshot magic.
	ErrInvalidMagic = errors.New("cnext: invalid snapshot magic")
	// ErrInvalidVersion is returned for unsupported snapshot versions.
	ErrInvalidVersion = errors.New("cnext: unsupported snapshot version")
	// ErrChecksum is returned when the payload checksum does not match.
	ErrChecksum = errors.New("cnext: snapshot checksum mismatch")
	// ErrWrongKind is returned when a snapshot holds a different container
	// kind than the loader expects.
	ErrWrongKind = errors.New("cnext: wrong container kind")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

type snapshotHeader struct {
	Magic        uint32
	Version      uint32
	Kind         uint8
	CodecNameLen uint8
	Reserved     [2]byte
	PayloadLen   uint64
	Checksum     uint32
}

// Container is the common surface Save needs from both container kinds.
type Container interface {
	ToBlob() ([]byte, error)
}

type snapshotOptions struct {
	ctx    context.Context
	logger *Logger
}

// SnapshotOption configures Save and the Load functions.
type SnapshotOption func(*snapshotOptions)

// WithSnapshotLogger attaches a logger to snapshot operations.
func WithSnapshotLogger(l *Logger) SnapshotOption {
	return func(o *snapshotOptions) { o.logger = l }
}

// WithSnapshotContext sets the context used for log records.
func WithSnapshotContext(ctx context.Context) SnapshotOption {
	return func(o *snapshotOptions) { o.ctx = ctx }
}

func applySnapshotOptions(opts []SnapshotOption) snapshotOptions {
	o := snapshotOptions{ctx: context.Background(), logger: NoopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Save serializes c, frames the blob through comp, and writes a snapshot
// to w. A nil comp stores the payload uncompressed.
func Save(w io.Writer, c Container, comp codec.Compressor, opts ...SnapshotOption) error {
	o := applySnapshotOptions(opts)
	if comp == nil {
		comp = codec.None{}
	}

	var kind uint8
	switch c.(type) {
	case *hashtable.HashTable:
		kind = kindHashTable
	case *vector.Vector:
		kind = kindVector
	default:
		return fmt.Errorf("cnext: unsupported container %T", c)
	}

	blob, err := c.ToBlob()
	if err != nil {
		o.logger.LogSnapshot(o.ctx, comp.Name(), 0, err)
		return err
	}
	payload, err := comp.Compress(blob)
	if err != nil {
		o.logger.LogSnapshot(o.ctx, comp.Name(), 0, err)
		return err
	}

	name := comp.Name()
	header := snapshotHeader{
		Magic:        SnapshotMagic,
		Version:      SnapshotVersion,
		Kind:         kind,
		CodecNameLen: uint8(len(name)),
		PayloadLen:   uint64(len(payload)),
		Checksum:     crc32.Checksum(payload, castagnoli),
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		o.logger.LogSnapshot(o.ctx, name, 0, err)
		return err
	}
	if _, err := io.WriteString(w, name); err != nil {
		o.logger.LogSnapshot(o.ctx, name, 0, err)
		return err
	}
	if _, err := w.Write(payload); err != nil {
		o.logger.LogSnapshot(o.ctx, name, 0, err)
		return err
	}
	o.logger.LogSnapshot(o.ctx, name, len(payload), nil)
	return nil
}

// readSnapshot reads, validates, and decompresses a snapshot, returning
// the container kind and the raw container blob.
func readSnapshot(r io.Reader) (uint8, string, []byte, error) {
	var header snapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return 0, "", nil, err
	}
	if header.Magic != SnapshotMagic {
		return 0, "", nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != SnapshotVersion {
		return 0, "", nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, header.Version)
	}

	name := make([]byte, header.CodecNameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return 0, "", nil, err
	}
	comp, err := codec.ByName(string(name))
	if err != nil {
		return 0, "", nil, err
	}

	// PayloadLen is untrusted input; reading through a limited reader grows
	// the buffer with the bytes actually present instead of allocating the
	// declared length up front.
	if int64(header.PayloadLen) < 0 {
		return 0, string(name), nil, fmt.Errorf(
			"cnext: snapshot declares %d payload bytes: %w",
			header.PayloadLen, io.ErrUnexpectedEOF)
	}
	payload, err := io.ReadAll(io.LimitReader(r, int64(header.PayloadLen)))
	if err != nil {
		return 0, string(name), nil, err
	}
	if uint64(len(payload)) != header.PayloadLen {
		return 0, string(name), nil, fmt.Errorf(
			"cnext: snapshot payload truncated after %d of %d bytes: %w",
			len(payload), header.PayloadLen, io.ErrUnexpectedEOF)
	}
	if crc32.Checksum(payload, castagnoli) != header.Checksum {
		return 0, string(name), nil, ErrChecksum
	}

	blob, err := comp.Decompress(payload)
	if err != nil {
		return 0, string(name), nil, err
	}
	return header.Kind, string(name), blob, nil
}

// LoadHashTable reads a hash table snapshot written by Save.
func LoadHashTable(r io.Reader, opts ...SnapshotOption) (*hashtable.HashTable, error) {
	o := applySnapshotOptions(opts)
	kind, name, blob, err := readSnapshot(r)
	if err != nil {
		o.logger.LogRestore(o.ctx, name, 0, err)
		return nil, err
	}
	if kind != kindHashTable {
		err = fmt.Errorf("%w: snapshot holds kind %d", ErrWrongKind, kind)
		o.logger.LogRestore(o.ctx, name, 0, err)
		return nil, err
	}
	t, _, err := hashtable.FromBlob(blob)
	if err != nil {
		o.logger.LogRestore(o.ctx, name, 0, err)
		return nil, err
	}
	o.logger.LogRestore(o.ctx, name, t.Len(), nil)
	return t, nil
}

// LoadVector reads a vector snapshot written by Save.
func LoadVector(r io.Reader, opts ...SnapshotOption) (*vector.Vector, error) {
	o := applySnapshotOptions(opts)
	kind, name, blob, err := readSnapshot(r)
	if err != nil {
		o.logger.LogRestore(o.ctx, name, 0, err)
		return nil, err
	}
	if kind != kindVector {
		err = fmt.Errorf("%w: snapshot holds kind %d", ErrWrongKind, kind)
		o.logger.LogRestore(o.ctx, name, 0, err)
		return nil, err
	}
	v, _, err := vector.FromBlob(blob)
	if err != nil {
		o.logger.LogRestore(o.ctx, name, 0, err)
		return nil, err
	}
	o.logger.LogRestore(o.ctx, name, v.Len(), nil)
	return v, nil
}
