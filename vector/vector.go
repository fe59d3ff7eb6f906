// Package vector implements a thread-safe, type-erased dynamic array with
// key-value semantics layered on top of positional storage.
//
// Slots are sparse: setting index 40 of an empty vector allocates backing
// storage through index 40 but only that one slot holds data. Allocated
// slots form an intrusive index-linked chain in increasing slot order, and
// the set of allocated indices is additionally tracked in a roaring bitmap
// so neighbor scans stay cheap even across large unallocated gaps.
//
// Every allocated slot carries both its positional index and a typed key,
// so the same vector serves as an ordered list and as a linear-scan map.
package vector

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/james-card/cnext/descriptor"
)

const none = -1 // chain link terminator

var (
	// ErrNilKeyType is returned by New when no key descriptor is given.
	ErrNilKeyType = errors.New("vector: nil key type")
	// ErrNilVector is returned when an operation that needs a vector gets nil.
	ErrNilVector = errors.New("vector: nil vector")
	// ErrIndexRange is returned for indexes beyond the addressable range.
	ErrIndexRange = errors.New("vector: index out of range")
	// ErrNilValueType is returned by SetOwned when no descriptor is given.
	ErrNilValueType = errors.New("vector: nil value type")
)

// slot is one position of the backing array. Links are slot indexes, not
// pointers, so growing the array never invalidates them.
type slot struct {
	key, value any
	typ        *descriptor.Type
	allocated  bool
	prev, next int
}

// Entry is a handle to an allocated slot. Entries stay positionally
// addressed: removing a lower index shifts later slots down, so handles at
// or above a removed index refer to the shifted contents afterward.
type Entry struct {
	v     *Vector
	index int
}

// Index returns the slot index the handle addresses.
func (e *Entry) Index() uint64 { return uint64(e.index) }

// Key returns the slot's key.
func (e *Entry) Key() any {
	e.v.lock()
	defer e.v.unlock()
	return e.v.slots[e.index].key
}

// Value returns the slot's value.
func (e *Entry) Value() any {
	e.v.lock()
	defer e.v.unlock()
	return e.v.slots[e.index].value
}

// Type returns the descriptor of the slot's value.
func (e *Entry) Type() *descriptor.Type {
	e.v.lock()
	defer e.v.unlock()
	return e.v.slots[e.index].typ
}

// Next returns the next allocated slot in index order, or nil.
func (e *Entry) Next() *Entry {
	e.v.lock()
	defer e.v.unlock()
	return e.v.entryAt(e.v.slots[e.index].next)
}

// Prev returns the previous allocated slot in index order, or nil.
func (e *Entry) Prev() *Entry {
	e.v.lock()
	defer e.v.unlock()
	return e.v.entryAt(e.v.slots[e.index].prev)
}

// Vector is a sparse, randomly indexable dynamic array. All public
// operations are safe for concurrent use unless the vector was created with
// WithoutLocking.
type Vector struct {
	mu     *sync.Mutex
	logger *slog.Logger

	keyType *descriptor.Type
	slots   []slot

	allocated  *roaring.Bitmap
	size       uint64
	head, tail int
}

type options struct {
	disableLocking bool
	initialSize    uint64
	logger         *slog.Logger
}

// Option configures vector construction.
type Option func(*options)

// WithoutLocking disables the per-vector lock. The caller then owns all
// synchronization.
func WithoutLocking() Option {
	return func(o *options) { o.disableLocking = true }
}

// WithInitialSize preallocates n unallocated slots.
func WithInitialSize(n uint64) Option {
	return func(o *options) { o.initialSize = n }
}

// WithLogger attaches a structured logger. The default discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an empty vector keyed by keyType.
func New(keyType *descriptor.Type, opts ...Option) (*Vector, error) {
	if keyType == nil {
		return nil, ErrNilKeyType
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.initialSize > math.MaxUint32 {
		return nil, ErrIndexRange
	}

	v := &Vector{
		logger:    o.logger,
		keyType:   keyType,
		slots:     make([]slot, o.initialSize),
		allocated: roaring.New(),
		head:      none,
		tail:      none,
	}
	if v.logger == nil {
		v.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if !o.disableLocking {
		v.mu = &sync.Mutex{}
	}
	return v, nil
}

func (v *Vector) lock() {
	if v.mu != nil {
		v.mu.Lock()
	}
}

func (v *Vector) unlock() {
	if v.mu != nil {
		v.mu.Unlock()
	}
}

// KeyType returns the descriptor the vector keys with.
func (v *Vector) KeyType() *descriptor.Type { return v.keyType }

// Len returns the number of allocated slots.
func (v *Vector) Len() uint64 {
	v.lock()
	defer v.unlock()
	return v.size
}

// Cap returns the backing array size, allocated or not.
func (v *Vector) Cap() uint64 {
	v.lock()
	defer v.unlock()
	return uint64(len(v.slots))
}

// Head returns the first allocated slot, or nil for an empty vector.
func (v *Vector) Head() *Entry {
	v.lock()
	defer v.unlock()
	return v.entryAt(v.head)
}

// Tail returns the last allocated slot, or nil for an empty vector.
func (v *Vector) Tail() *Entry {
	v.lock()
	defer v.unlock()
	return v.entryAt(v.tail)
}

// Locking reports whether the vector synchronizes its operations.
func (v *Vector) Locking() bool { return v.mu != nil }

func (v *Vector) entryAt(index int) *Entry {
	if index == none {
		return nil
	}
	return &Entry{v: v, index: index}
}

// Set stores a deep copy of key and value at index, growing the backing
// array as needed. An already-allocated slot has its old key and value
// destroyed through their descriptors first. When valueType is omitted it
// defaults to the slot's current type, then the tail's type, then the key
// type.
func (v *Vector) Set(index uint64, key, value any, valueType ...*descriptor.Type) (*Entry, error) {
	if v == nil {
		return nil, ErrNilVector
	}
	if index >= math.MaxUint32 {
		return nil, ErrIndexRange
	}
	var typ *descriptor.Type
	if len(valueType) > 0 {
		typ = valueType[0]
	}

	v.lock()
	defer v.unlock()
	return v.setEntry(int(index), key, value, typ), nil
}

// SetValue stores value at index with a nil key, for purely positional use.
func (v *Vector) SetValue(index uint64, value any, valueType ...*descriptor.Type) (*Entry, error) {
	return v.Set(index, nil, value, valueType...)
}

// SetOwned stores value at index without copying it. The vector takes
// ownership and destroys the value through valueType when the slot is
// cleared. The key is still copied.
func (v *Vector) SetOwned(index uint64, key, value any, valueType *descriptor.Type) (*Entry, error) {
	if v == nil {
		return nil, ErrNilVector
	}
	if valueType == nil {
		return nil, ErrNilValueType
	}
	if index >= math.MaxUint32 {
		return nil, ErrIndexRange
	}

	v.lock()
	defer v.unlock()

	e := v.setEntry(int(index), key, value, valueType.NoCopy())
	v.slots[e.index].typ = valueType
	return e, nil
}

// setEntry is the unlocked mutation path shared by Set, Copy and FromBlob.
func (v *Vector) setEntry(index int, key, value any, typ *descriptor.Type) *Entry {
	if typ == nil {
		switch {
		case index < len(v.slots) && v.slots[index].allocated:
			typ = v.slots[index].typ
		case v.tail != none:
			typ = v.slots[v.tail].typ
		default:
			typ = v.keyType
		}
	}

	if index >= len(v.slots) {
		// Grow by reallocation to exactly index+1 slots. Chain links are
		// slot indexes, so relocation needs no relink pass.
		grown := make([]slot, index+1)
		copy(grown, v.slots)
		v.slots = grown
	}

	s := &v.slots[index]
	wasAllocated := s.allocated
	if wasAllocated {
		v.keyType.Destroy(s.key)
		if s.typ != nil {
			s.typ.Destroy(s.value)
		}
	}
	s.key = v.keyType.Copy(key)
	s.value = typ.Copy(value)
	s.typ = typ
	s.allocated = true

	if !wasAllocated {
		v.allocated.Add(uint32(index))
		v.size++
		s.prev = v.prevAllocated(index)
		s.next = v.nextAllocated(index)
		if s.prev != none {
			v.slots[s.prev].next = index
		}
		if s.next != none {
			v.slots[s.next].prev = index
		}
		v.head = int(v.allocated.Minimum())
		v.tail = int(v.allocated.Maximum())
	}
	return v.entryAt(index)
}

// prevAllocated returns the nearest allocated slot strictly below index.
func (v *Vector) prevAllocated(index int) int {
	if index <= 0 {
		return none
	}
	rank := v.allocated.Rank(uint32(index - 1))
	if rank == 0 {
		return none
	}
	val, err := v.allocated.Select(uint32(rank - 1))
	if err != nil {
		return none
	}
	return int(val)
}

// nextAllocated returns the nearest allocated slot strictly above index.
func (v *Vector) nextAllocated(index int) int {
	rank := v.allocated.Rank(uint32(index))
	if rank >= v.allocated.GetCardinality() {
		return none
	}
	val, err := v.allocated.Select(uint32(rank))
	if err != nil {
		return none
	}
	return int(val)
}

// Get returns the entry at index, or nil when index is out of range or the
// slot is unallocated.
func (v *Vector) Get(index uint64) *Entry {
	if v == nil {
		return nil
	}
	v.lock()
	defer v.unlock()
	if index >= uint64(len(v.slots)) || !v.slots[index].allocated {
		return nil
	}
	return v.entryAt(int(index))
}

// Value returns the value at index, or nil when the slot holds nothing.
func (v *Vector) Value(index uint64) any {
	if v == nil {
		return nil
	}
	v.lock()
	defer v.unlock()
	if index >= uint64(len(v.slots)) || !v.slots[index].allocated {
		return nil
	}
	return v.slots[index].value
}

// GetByKey returns the first allocated slot whose key compares equal to
// key, scanning in traversal order.
func (v *Vector) GetByKey(key any) *Entry {
	if v == nil {
		return nil
	}
	v.lock()
	defer v.unlock()
	cmp := v.keyType.Compare
	for i := v.head; i != none; i = v.slots[i].next {
		if cmp(v.slots[i].key, key) == 0 {
			return v.entryAt(i)
		}
	}
	return nil
}

// ValueByKey returns the value of the first slot matching key, or nil.
func (v *Vector) ValueByKey(key any) any {
	if v == nil {
		return nil
	}
	v.lock()
	defer v.unlock()
	cmp := v.keyType.Compare
	for i := v.head; i != none; i = v.slots[i].next {
		if cmp(v.slots[i].key, key) == 0 {
			return v.slots[i].value
		}
	}
	return nil
}

// PreviousAllocated returns the nearest allocated slot strictly before
// index, or nil when none exists.
func (v *Vector) PreviousAllocated(index uint64) *Entry {
	if v == nil {
		return nil
	}
	v.lock()
	defer v.unlock()
	if index > uint64(len(v.slots)) {
		index = uint64(len(v.slots))
	}
	return v.entryAt(v.prevAllocated(int(index)))
}

// NextAllocated returns the nearest allocated slot strictly after index,
// or nil when none exists.
func (v *Vector) NextAllocated(index uint64) *Entry {
	if v == nil {
		return nil
	}
	v.lock()
	defer v.unlock()
	if index >= uint64(len(v.slots)) {
		return nil
	}
	return v.entryAt(v.nextAllocated(int(index)))
}

// Remove destroys the slot at index (when allocated) and shifts every later
// slot down one position, preserving the relative order of survivors. Index
// identity above the removed position is not stable across Remove; only
// relative order is. An out-of-range index is a no-op, not an error.
func (v *Vector) Remove(index uint64) error {
	if v == nil {
		return ErrNilVector
	}
	v.lock()
	defer v.unlock()

	if index >= uint64(len(v.slots)) {
		return nil
	}
	i := int(index)
	if v.slots[i].allocated {
		v.keyType.Destroy(v.slots[i].key)
		if v.slots[i].typ != nil {
			v.slots[i].typ.Destroy(v.slots[i].value)
		}
		v.slots[i].allocated = false
		v.size--
	}

	// Shift everything after index down one slot. This is deliberately
	// O(n): surviving entries keep their relative order and stay index
	// addressable below the removed position.
	copy(v.slots[i:], v.slots[i+1:])
	last := len(v.slots) - 1
	v.slots[last] = slot{prev: none, next: none}

	v.reindex()
	return nil
}

// reindex rebuilds the allocated bitmap, chain links, and endpoints from
// the slot array. Mutations that relocate slot contents use it instead of
// incremental link surgery.
func (v *Vector) reindex() {
	v.allocated.Clear()
	prev := none
	for i := range v.slots {
		if !v.slots[i].allocated {
			continue
		}
		v.allocated.Add(uint32(i))
		v.slots[i].prev = prev
		v.slots[i].next = none
		if prev != none {
			v.slots[prev].next = i
		}
		prev = i
	}
	if v.allocated.IsEmpty() {
		v.head, v.tail = none, none
		return
	}
	v.head = int(v.allocated.Minimum())
	v.tail = int(v.allocated.Maximum())
}

// Clear destroys every allocated slot but keeps the backing array and lock.
func (v *Vector) Clear() {
	if v == nil {
		return
	}
	v.lock()
	defer v.unlock()
	v.clear()
}

func (v *Vector) clear() {
	for i := v.head; i != none; {
		s := &v.slots[i]
		v.keyType.Destroy(s.key)
		if s.typ != nil {
			s.typ.Destroy(s.value)
		}
		next := s.next
		*s = slot{prev: none, next: none}
		i = next
	}
	// Backing storage is kept; only the contents are gone.
	v.allocated.Clear()
	v.size = 0
	v.head, v.tail = none, none
}

// Copy returns a deep copy: same key type, same locking mode, same backing
// array size, every allocated slot copied through its own descriptor.
func (v *Vector) Copy() *Vector {
	if v == nil {
		return nil
	}
	v.lock()
	defer v.unlock()

	opts := []Option{WithInitialSize(uint64(len(v.slots)))}
	if v.mu == nil {
		opts = append(opts, WithoutLocking())
	}
	dup, _ := New(v.keyType, opts...)
	for i := v.head; i != none; i = v.slots[i].next {
		s := &v.slots[i]
		dup.setEntry(i, s.key, s.value, s.typ)
	}
	return dup
}

// Compare structurally compares two vectors as sequences of key/value pairs
// in traversal order. A nil vector compares less than a non-nil one and
// equal to another nil.
func Compare(a, b *Vector) int {
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

	ai, bi := a.head, b.head
	for ai != none && bi != none {
		as, bs := &a.slots[ai], &b.slots[bi]
		if c := a.keyType.Compare(as.key, bs.key); c != 0 {
			return c
		}
		if c := as.typ.Compare(as.value, bs.value); c != 0 {
			return c
		}
		ai, bi = as.next, bs.next
	}
	switch {
	case ai != none:
		return 1
	case bi != none:
		return -1
	}
	return 0
}
