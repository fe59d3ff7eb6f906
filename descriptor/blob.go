package descriptor

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Binary blob framing shared by every container encoder. All multi-byte
// fields are little-endian.
//
//	offset 0: marker   (2 bytes)  0x5344, "DS" on the wire
//	offset 2: version  (4 bytes)  currently 10
//	offset 6: keyType  (2 bytes)  signed registry index, must be >= 1
//	offset 8: count    (8 bytes)  declared entry count
const (
	Marker  uint16 = 0x5344
	Version uint32 = 10

	// HeaderSize is the fixed size of the blob header in bytes.
	HeaderSize = 16
)

var (
	// ErrShortBuffer is returned when data ends before a complete value.
	ErrShortBuffer = errors.New("descriptor: short buffer")
	// ErrBadMarker is returned when data does not start with Marker.
	ErrBadMarker = errors.New("descriptor: unknown blob marker")
	// ErrBadVersion is returned for any version other than Version.
	ErrBadVersion = errors.New("descriptor: unsupported blob version")
	// ErrBadTypeIndex is returned for a type index below 1 or one that maps
	// to no registered type.
	ErrBadTypeIndex = errors.New("descriptor: invalid type index")
)

// Header is the decoded fixed prefix of a container blob.
type Header struct {
	KeyTypeIndex int16
	EntryCount   uint64
}

// AppendHeader appends the wire encoding of h to buf.
func AppendHeader(buf []byte, h Header) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, Marker)
	buf = binary.LittleEndian.AppendUint32(buf, Version)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(h.KeyTypeIndex))
	buf = binary.LittleEndian.AppendUint64(buf, h.EntryCount)
	return buf
}

// ParseHeader decodes and validates the fixed blob prefix. It returns the
// header, the number of bytes consumed, and an error describing the first
// structural problem encountered. The key type itself is validated for
// index range only; resolving it against the registry is the caller's job.
func ParseHeader(data []byte) (Header, uint64, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, 0, fmt.Errorf("%w: %d bytes, need %d for header", ErrShortBuffer, len(data), HeaderSize)
	}
	if binary.LittleEndian.Uint16(data) != Marker {
		return h, 0, ErrBadMarker
	}
	if v := binary.LittleEndian.Uint32(data[2:]); v != Version {
		return h, 0, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	h.KeyTypeIndex = int16(binary.LittleEndian.Uint16(data[6:]))
	if h.KeyTypeIndex < 1 {
		return h, 8, fmt.Errorf("%w: key type %d", ErrBadTypeIndex, h.KeyTypeIndex)
	}
	h.EntryCount = binary.LittleEndian.Uint64(data[8:])
	return h, HeaderSize, nil
}

// AppendTypeIndex appends the signed 2-byte registry index of t to buf.
func AppendTypeIndex(buf []byte, t *Type) ([]byte, error) {
	index := IndexOf(t.Base())
	if index < 1 {
		return nil, fmt.Errorf("%w: type %s is not registered", ErrBadTypeIndex, t.Name)
	}
	return binary.LittleEndian.AppendUint16(buf, uint16(index)), nil
}

// ParseTypeIndex decodes a 2-byte type index and resolves both the owning
// type and its no-copy variant.
func ParseTypeIndex(data []byte) (owning, noCopy *Type, consumed uint64, err error) {
	if len(data) < 2 {
		return nil, nil, 0, fmt.Errorf("%w: truncated type index", ErrShortBuffer)
	}
	index := int16(binary.LittleEndian.Uint16(data))
	if index < 1 {
		return nil, nil, 0, fmt.Errorf("%w: %d", ErrBadTypeIndex, index)
	}
	t := ByIndex(index)
	if t == nil {
		return nil, nil, 0, fmt.Errorf("%w: no type at index %d", ErrBadTypeIndex, index)
	}
	owning = t.Base()
	return owning, owning.NoCopy(), 2, nil
}
