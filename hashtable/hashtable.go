// Package hashtable implements a thread-safe, type-erased hash table whose
// buckets are balanced ordered trees and whose entries form one doubly
// linked chain spanning every non-empty bucket in bucket-index order.
//
// Keys are typed by a single descriptor chosen at construction; values may
// be heterogeneous, each entry carrying its own descriptor. The table owns
// deep copies of everything it stores and releases them through the
// descriptors' Destroy capability.
package hashtable

import (
	"errors"
	"io"
	"log/slog"
	"math/bits"
	"sort"
	"sync"

	"github.com/james-card/cnext/descriptor"
)

const (
	// defaultTableSize is used when no minimum size is requested.
	defaultTableSize = 1024
	// minTableSize is the platform word width, the smallest bucket count
	// the table will operate with.
	minTableSize = bits.UintSize
)

var (
	// ErrNilKeyType is returned by New when no key descriptor is given.
	ErrNilKeyType = errors.New("hashtable: nil key type")
	// ErrNilKey is returned by mutators called with a nil key.
	ErrNilKey = errors.New("hashtable: nil key")
	// ErrNilTable is returned when an operation that needs a table gets nil.
	ErrNilTable = errors.New("hashtable: nil table")
	// ErrNilValueType is returned by AddOwned when no descriptor is given.
	ErrNilValueType = errors.New("hashtable: nil value type")
)

// Entry is one key/value pair. Entries expose the intrusive chain through
// Next and Prev; neighbor references are traversal-only, ownership of each
// entry stays with its bucket.
type Entry struct {
	key, value any
	typ        *descriptor.Type
	prev, next *Entry
}

// Key returns the entry's key.
func (e *Entry) Key() any { return e.key }

// Value returns the entry's value.
func (e *Entry) Value() any { return e.value }

// Type returns the descriptor of the entry's value.
func (e *Entry) Type() *descriptor.Type { return e.typ }

// Next returns the entry's successor in global traversal order.
func (e *Entry) Next() *Entry { return e.next }

// Prev returns the entry's predecessor in global traversal order.
func (e *Entry) Prev() *Entry { return e.prev }

// HashTable is an associative container keyed by a single descriptor type.
// All public operations are safe for concurrent use unless the table was
// created with WithoutLocking.
type HashTable struct {
	mu     *sync.Mutex
	logger *slog.Logger

	keyType   *descriptor.Type
	buckets   []*bucket
	tableSize uint64

	size       uint64
	head, tail *Entry

	// lastAddedType is used when Add omits an explicit value descriptor.
	lastAddedType *descriptor.Type
}

type options struct {
	disableLocking bool
	minimumSize    uint64
	logger         *slog.Logger
}

// Option configures table construction.
type Option func(*options)

// WithoutLocking disables the per-table lock. The caller then owns all
// synchronization.
func WithoutLocking() Option {
	return func(o *options) { o.disableLocking = true }
}

// WithMinimumSize sets the minimum bucket count. Sizes below the platform
// word width are raised to it; zero selects the default.
func WithMinimumSize(n uint64) Option {
	return func(o *options) { o.minimumSize = n }
}

// WithLogger attaches a structured logger. The default discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an empty table keyed by keyType.
func New(keyType *descriptor.Type, opts ...Option) (*HashTable, error) {
	if keyType == nil {
		return nil, ErrNilKeyType
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tableSize := o.minimumSize
	switch {
	case tableSize == 0:
		tableSize = defaultTableSize
	case tableSize < minTableSize:
		tableSize = minTableSize
	}

	t := &HashTable{
		logger:    o.logger,
		keyType:   keyType,
		buckets:   make([]*bucket, tableSize),
		tableSize: tableSize,
	}
	if t.logger == nil {
		t.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if !o.disableLocking {
		t.mu = &sync.Mutex{}
	}
	return t, nil
}

func (t *HashTable) lock() {
	if t.mu != nil {
		t.mu.Lock()
	}
}

func (t *HashTable) unlock() {
	if t.mu != nil {
		t.mu.Unlock()
	}
}

// Hash returns the bucket index for key: the key type's custom hash when
// present, otherwise the Jenkins one-at-a-time hash of the key's encoded
// bytes, reduced mod the bucket count.
func (t *HashTable) Hash(key any) uint64 {
	return descriptor.HashValue(t.keyType, key) % t.tableSize
}

// KeyType returns the descriptor the table keys with.
func (t *HashTable) KeyType() *descriptor.Type { return t.keyType }

// Len returns the number of entries.
func (t *HashTable) Len() uint64 {
	t.lock()
	defer t.unlock()
	return t.size
}

// TableSize returns the bucket count.
func (t *HashTable) TableSize() uint64 { return t.tableSize }

// Head returns the globally first entry, or nil for an empty table.
func (t *HashTable) Head() *Entry {
	t.lock()
	defer t.unlock()
	return t.head
}

// Tail returns the globally last entry, or nil for an empty table.
func (t *HashTable) Tail() *Entry {
	t.lock()
	defer t.unlock()
	return t.tail
}

// Locking reports whether the table synchronizes its operations.
func (t *HashTable) Locking() bool { return t.mu != nil }

// Add stores a deep copy of key and value. When valueType is omitted it
// defaults to the type of the last added entry, falling back to the key
// type. Adding an existing key replaces its value, destroying the old one
// through its descriptor.
func (t *HashTable) Add(key, value any, valueType ...*descriptor.Type) (*Entry, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	var typ *descriptor.Type
	if len(valueType) > 0 {
		typ = valueType[0]
	}

	t.lock()
	defer t.unlock()

	if typ == nil {
		if t.lastAddedType != nil {
			typ = t.lastAddedType
		} else {
			typ = t.keyType
		}
	}
	return t.addEntry(key, value, typ), nil
}

// AddOwned inserts value without copying it. The table takes ownership and
// destroys the value through valueType when the entry is removed. The key
// is still copied. Useful for handing over freshly built composite values.
func (t *HashTable) AddOwned(key, value any, valueType *descriptor.Type) (*Entry, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	if valueType == nil {
		return nil, ErrNilValueType
	}

	t.lock()
	defer t.unlock()

	e := t.addEntry(key, value, valueType.NoCopy())
	e.typ = valueType
	t.lastAddedType = valueType
	return e, nil
}

// addEntry is the unlocked insertion path shared by Add, Copy and FromBlob.
func (t *HashTable) addEntry(key, value any, typ *descriptor.Type) *Entry {
	index := t.Hash(key)
	b := t.buckets[index]
	if b == nil {
		b = newBucket(t.keyType)
		t.buckets[index] = b
	}

	e := &Entry{
		key:   t.keyType.Copy(key),
		value: typ.Copy(value),
		typ:   typ,
	}
	inserted, existing, needsLink := b.insert(e)
	if existing != nil {
		// Same key: replace the value in place, destroy the old one.
		t.keyType.Destroy(e.key)
		existing.typ.Destroy(existing.value)
		existing.value = e.value
		existing.typ = typ
		t.lastAddedType = typ
		return existing
	}
	t.lastAddedType = typ
	t.size++

	if needsLink && t.size > 1 {
		t.linkBucket(index)
	}
	if inserted.prev == nil {
		t.head = inserted
	}
	if inserted.next == nil {
		t.tail = inserted
	}
	return inserted
}

// linkBucket splices a bucket that just became non-empty into the global
// chain by locating the nearest populated buckets on either side. It runs
// exactly once per empty-to-non-empty transition.
func (t *HashTable) linkBucket(index uint64) {
	b := t.buckets[index]

	var prev, next *Entry
	for i := index + 1; i < t.tableSize; i++ {
		if t.buckets[i] != nil && t.buckets[i].head != nil {
			next = t.buckets[i].head
			prev = next.prev
			break
		}
	}
	if next == nil {
		for i := index; i > 0; i-- {
			if nb := t.buckets[i-1]; nb != nil && nb.tail != nil {
				prev = nb.tail
				next = prev.next
				break
			}
		}
	}

	if prev != nil {
		b.head.prev = prev
		prev.next = b.head
	}
	if next != nil {
		b.tail.next = next
		next.prev = b.tail
	}
}

// Get returns the entry for key, or nil when key is absent.
func (t *HashTable) Get(key any) *Entry {
	if key == nil {
		return nil
	}
	t.lock()
	defer t.unlock()
	return t.getEntry(key)
}

func (t *HashTable) getEntry(key any) *Entry {
	b := t.buckets[t.Hash(key)]
	if b == nil {
		return nil
	}
	return b.get(key)
}

// Value returns the value stored under key, or nil when key is absent.
func (t *HashTable) Value(key any) any {
	e := t.Get(key)
	if e == nil {
		return nil
	}
	return e.value
}

// Remove deletes the entry for key, destroying its key and value through
// their descriptors. Removing an absent key is a no-op, not an error.
func (t *HashTable) Remove(key any) error {
	if key == nil {
		return ErrNilKey
	}
	t.lock()
	defer t.unlock()

	index := t.Hash(key)
	b := t.buckets[index]
	if b == nil {
		return nil
	}
	e := b.remove(key)
	if e == nil {
		return nil
	}
	if t.head == e {
		t.head = b.head
		if t.head == nil {
			// The bucket emptied; its successor (if any) is the new head.
			t.head = t.tailwardOf(index)
		}
	}
	if t.tail == e {
		t.tail = b.tail
		if t.tail == nil {
			t.tail = t.headwardOf(index)
		}
	}
	t.size--

	t.keyType.Destroy(e.key)
	if e.typ != nil {
		e.typ.Destroy(e.value)
	}
	if b.len() == 0 {
		t.buckets[index] = nil
	}
	return nil
}

// tailwardOf returns the head of the nearest populated bucket above index.
func (t *HashTable) tailwardOf(index uint64) *Entry {
	for i := index + 1; i < t.tableSize; i++ {
		if b := t.buckets[i]; b != nil && b.head != nil {
			return b.head
		}
	}
	return nil
}

// headwardOf returns the tail of the nearest populated bucket below index.
func (t *HashTable) headwardOf(index uint64) *Entry {
	for i := index; i > 0; i-- {
		if b := t.buckets[i-1]; b != nil && b.tail != nil {
			return b.tail
		}
	}
	return nil
}

// Clear destroys every entry and resets the table to empty. The bucket
// array and lock stay allocated for reuse.
func (t *HashTable) Clear() {
	t.lock()
	defer t.unlock()
	t.clear()
}

func (t *HashTable) clear() {
	for e := t.head; e != nil; e = e.next {
		t.keyType.Destroy(e.key)
		if e.typ != nil {
			e.typ.Destroy(e.value)
		}
	}
	for i := range t.buckets {
		t.buckets[i] = nil
	}
	t.size = 0
	t.head = nil
	t.tail = nil
}

// Copy returns a deep copy of the table: same key type, same locking mode,
// every entry re-inserted in global traversal order through its own
// descriptor's copy.
func (t *HashTable) Copy() *HashTable {
	t.lock()
	defer t.unlock()

	opts := []Option{WithMinimumSize(t.tableSize)}
	if t.mu == nil {
		opts = append(opts, WithoutLocking())
	}
	dup, _ := New(t.keyType, opts...)
	for e := t.head; e != nil; e = e.next {
		dup.addEntry(e.key, e.value, e.typ)
	}
	return dup
}

// Compare structurally compares two tables as ordered sequences of key/value
// pairs. Entries are compared in key order rather than traversal order, so
// two tables holding the same content compare equal even when their bucket
// counts, and therefore their traversal orders, differ. A nil table compares
// less than a non-nil one and equal to another nil.
func Compare(a, b *HashTable) int {
	switch {
	case a == b:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	a.lock()
	defer a.unlock()
	b.lock()
	defer b.unlock()

	ae := a.sortedEntries()
	be := b.sortedEntries()
	for i := 0; i < len(ae) && i < len(be); i++ {
		if c := a.keyType.Compare(ae[i].key, be[i].key); c != 0 {
			return c
		}
		if c := ae[i].typ.Compare(ae[i].value, be[i].value); c != 0 {
			return c
		}
	}
	switch {
	case len(ae) > len(be):
		return 1
	case len(ae) < len(be):
		return -1
	}
	return 0
}

// sortedEntries returns the table's entries ordered by key. Keys are unique,
// so the order is total.
func (t *HashTable) sortedEntries() []*Entry {
	entries := make([]*Entry, 0, t.size)
	for e := t.head; e != nil; e = e.next {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return t.keyType.Compare(entries[i].key, entries[j].key) < 0
	})
	return entries
}
