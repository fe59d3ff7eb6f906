package vector

import (
	"fmt"

	"github.com/james-card/cnext/descriptor"
)

// ToBlob encodes the vector in the shared container wire format: the fixed
// header, then one [value type index][value][key presence byte][key] record
// per allocated slot in traversal order. Slots populated positionally carry
// no key; those encode presence 0 and no key bytes. Unallocated gaps are
// not represented; decoding yields a dense vector.
func (v *Vector) ToBlob() ([]byte, error) {
	v.lock()
	defer v.unlock()

	keyIndex := descriptor.IndexOf(v.keyType.Base())
	if keyIndex < 1 {
		return nil, fmt.Errorf("%w: key type %s", descriptor.ErrBadTypeIndex, v.keyType.Name)
	}
	buf := descriptor.AppendHeader(nil, descriptor.Header{
		KeyTypeIndex: keyIndex,
		EntryCount:   v.size,
	})

	var err error
	for i := v.head; i != none; i = v.slots[i].next {
		s := &v.slots[i]
		if buf, err = descriptor.AppendTypeIndex(buf, s.typ); err != nil {
			return nil, err
		}
		if buf, err = s.typ.ToBlob(buf, s.value); err != nil {
			return nil, err
		}
		if s.key == nil {
			buf = append(buf, 0)
			continue
		}
		buf = append(buf, 1)
		if buf, err = v.keyType.ToBlob(buf, s.key); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// FromBlobOption configures blob decoding.
type FromBlobOption func(*fromBlobOptions)

type fromBlobOptions struct {
	inPlace        bool
	disableLocking bool
}

// InPlace makes decoded []byte values alias the input buffer instead of
// copying. The caller must keep the buffer alive for the vector's lifetime.
// Composite values are always independently allocated regardless.
func InPlace() FromBlobOption {
	return func(o *fromBlobOptions) { o.inPlace = true }
}

// BlobWithoutLocking disables the lock on the reconstructed vector.
func BlobWithoutLocking() FromBlobOption {
	return func(o *fromBlobOptions) { o.disableLocking = true }
}

// FromBlob reconstructs a vector from data, returning the vector and the
// number of bytes consumed. Slots are repopulated densely from index zero.
// Decoding stops at the first structural problem; a header failure returns
// a nil vector, while a failure inside the record stream returns the
// partially populated vector along with the error.
func FromBlob(data []byte, opts ...FromBlobOption) (*Vector, uint64, error) {
	var o fromBlobOptions
	for _, opt := range opts {
		opt(&o)
	}

	header, consumed, err := descriptor.ParseHeader(data)
	if err != nil {
		return nil, consumed, err
	}
	keyType := descriptor.ByIndex(header.KeyTypeIndex)
	if keyType == nil {
		return nil, consumed, fmt.Errorf("%w: no key type at index %d",
			descriptor.ErrBadTypeIndex, header.KeyTypeIndex)
	}
	keyType = keyType.Base()

	// The declared count is untrusted input. Every record carries at least
	// a two-byte type index and a key presence byte, so a count the
	// remaining bytes cannot hold must not drive the slot preallocation;
	// the vector grows on demand and the count check below reports the
	// error.
	hint := header.EntryCount
	if limit := (uint64(len(data)) - consumed) / 3; hint > limit {
		hint = 0
	}

	// Bulk construction goes through the no-copy variants so decoded values
	// transfer into the vector without a second copy; the owning
	// descriptors are restored below so destruction still happens once.
	newOpts := []Option{WithInitialSize(hint)}
	if o.disableLocking {
		newOpts = append(newOpts, WithoutLocking())
	}
	v, err := New(keyType.NoCopy(), newOpts...)
	if err != nil {
		return nil, consumed, err
	}
	finish := func() {
		if !o.inPlace || keyType.Composite {
			v.keyType = keyType
		}
	}

	for consumed < uint64(len(data)) && v.size < header.EntryCount {
		valueType, valueNoCopy, n, err := descriptor.ParseTypeIndex(data[consumed:])
		if err != nil {
			finish()
			return v, consumed, err
		}
		consumed += n

		value, n, err := valueType.FromBlob(data[consumed:], o.inPlace)
		consumed += n
		if err != nil {
			finish()
			return v, consumed, fmt.Errorf("vector: value decode: %w", err)
		}

		if consumed >= uint64(len(data)) {
			finish()
			return v, consumed, fmt.Errorf("%w: key presence byte", descriptor.ErrShortBuffer)
		}
		var key any
		if present := data[consumed]; present != 0 {
			consumed++
			key, n, err = keyType.FromBlob(data[consumed:], o.inPlace)
			consumed += n
			if err != nil {
				finish()
				return v, consumed, fmt.Errorf("vector: key decode: %w", err)
			}
		} else {
			consumed++
		}

		e := v.setEntry(int(v.size), key, value, valueNoCopy)
		if !o.inPlace || valueType.Composite {
			v.slots[e.index].typ = valueType
		}
	}
	finish()
	if v.size < header.EntryCount {
		return v, consumed, fmt.Errorf("vector: expected %d entries, decoded %d",
			header.EntryCount, v.size)
	}
	return v, consumed, nil
}
