package hashtable

import (
	"fmt"

	"github.com/james-card/cnext/descriptor"
)

// ToBlob encodes the table in the shared container wire format: the fixed
// header, then one [value type index][value][key] record per entry in
// global traversal order.
func (t *HashTable) ToBlob() ([]byte, error) {
	t.lock()
	defer t.unlock()

	keyIndex := descriptor.IndexOf(t.keyType.Base())
	if keyIndex < 1 {
		return nil, fmt.Errorf("%w: key type %s", descriptor.ErrBadTypeIndex, t.keyType.Name)
	}
	buf := descriptor.AppendHeader(nil, descriptor.Header{
		KeyTypeIndex: keyIndex,
		EntryCount:   t.size,
	})

	var err error
	for e := t.head; e != nil; e = e.next {
		if buf, err = descriptor.AppendTypeIndex(buf, e.typ); err != nil {
			return nil, err
		}
		if buf, err = e.typ.ToBlob(buf, e.value); err != nil {
			return nil, err
		}
		if buf, err = t.keyType.ToBlob(buf, e.key); err != nil {
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
// copying. The caller must keep the buffer alive for the table's lifetime.
// Composite values are always independently allocated regardless.
func InPlace() FromBlobOption {
	return func(o *fromBlobOptions) { o.inPlace = true }
}

// BlobWithoutLocking disables the lock on the reconstructed table.
func BlobWithoutLocking() FromBlobOption {
	return func(o *fromBlobOptions) { o.disableLocking = true }
}

// FromBlob reconstructs a table from data, returning the table and the
// number of bytes consumed. Decoding stops at the first structural problem;
// a header failure returns a nil table, while a failure inside the entry
// stream returns the partially populated table along with the error, so the
// caller can use the consumed count to diagnose the input.
func FromBlob(data []byte, opts ...FromBlobOption) (*HashTable, uint64, error) {
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
	// a two-byte type index, so a count the remaining bytes cannot hold is
	// malformed and must not drive the bucket allocation; the table falls
	// back to the default size and the count check below reports the error.
	hint := header.EntryCount
	if limit := (uint64(len(data)) - consumed) / 2; hint > limit {
		hint = 0
	}

	// Bulk construction goes through the no-copy variants so decoded values
	// transfer into the table without a second copy; the owning descriptors
	// are restored below so destruction still happens exactly once.
	newOpts := []Option{WithMinimumSize(hint)}
	if o.disableLocking {
		newOpts = append(newOpts, WithoutLocking())
	}
	t, err := New(keyType.NoCopy(), newOpts...)
	if err != nil {
		return nil, consumed, err
	}
	finish := func() {
		// Aliased primitive keys keep the no-copy descriptor so the table
		// never frees buffer-backed data it does not own.
		if !o.inPlace || keyType.Composite {
			t.keyType = keyType
		}
	}

	for consumed < uint64(len(data)) && t.size < header.EntryCount {
		valueType, valueNoCopy, n, err := descriptor.ParseTypeIndex(data[consumed:])
		if err != nil {
			finish()
			return t, consumed, err
		}
		consumed += n

		value, n, err := valueType.FromBlob(data[consumed:], o.inPlace)
		consumed += n
		if err != nil {
			finish()
			return t, consumed, fmt.Errorf("hashtable: value decode: %w", err)
		}

		key, n, err := keyType.FromBlob(data[consumed:], o.inPlace)
		consumed += n
		if err != nil {
			finish()
			return t, consumed, fmt.Errorf("hashtable: key decode: %w", err)
		}

		e := t.addEntry(key, value, valueNoCopy)
		if !o.inPlace || valueType.Composite {
			e.typ = valueType
		}
	}
	finish()
	if t.size < header.EntryCount {
		return t, consumed, fmt.Errorf("hashtable: expected %d entries, decoded %d",
			header.EntryCount, t.size)
	}
	return t, consumed, nil
}
