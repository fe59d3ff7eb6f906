package descriptor

// Type is the capability table attached to a value type. All container
// operations dispatch through these function fields; there is no reflection
// and no interface satisfaction requirement on the values themselves.
//
// Types are immutable after registration and safe to share between any
// number of containers.
type Type struct {
	// Name identifies the type in renderings and diagnostics.
	Name string

	// Composite marks container types (Vector, HashTable). Composite values
	// always allocate during blob decode, even in-place, so their entries
	// must keep an owning descriptor (see FromBlob implementations).
	Composite bool

	// Copy returns an independently owned deep copy of v.
	Copy func(v any) any

	// Destroy releases resources owned by v. For most Go types this is a
	// no-op kept so tests and callers can observe ownership transfers; for
	// containers it tears down the entries.
	Destroy func(v any)

	// Compare returns <0, 0, >0 for a<b, a==b, a>b. A nil value compares
	// less than any non-nil value and equal to another nil.
	Compare func(a, b any) int

	// Size reports the in-memory payload size of v in bytes.
	Size func(v any) uint64

	// ToString renders v for human consumption.
	ToString func(v any) string

	// ToJSON renders v as a JSON value.
	ToJSON func(v any) []byte

	// ToXML renders v as an XML element with the given name.
	ToXML func(v any, element string, indent bool) []byte

	// ToBlob appends the self-delimiting binary encoding of v to buf.
	ToBlob func(buf []byte, v any) ([]byte, error)

	// FromBlob decodes one value from the front of data, returning the value
	// and the number of bytes consumed. When inPlace is true, decoded []byte
	// payloads alias data instead of copying; the caller owns keeping data
	// alive for the lifetime of the result.
	FromBlob func(data []byte, inPlace bool) (v any, consumed uint64, err error)

	// Hash, if non-nil, overrides the default byte-wise key hash used by
	// HashTable bucket selection.
	Hash func(v any) uint64

	noCopy *Type // paired transfer-ownership variant, nil on the variant itself
	base   *Type // owning variant, nil on an owning type
}

// NoCopy returns the paired variant of t whose Copy is identity and whose
// Destroy is a no-op. For a type that already is a no-copy variant it
// returns t itself.
func (t *Type) NoCopy() *Type {
	if t.noCopy != nil {
		return t.noCopy
	}
	return t
}

// Base returns the owning variant of t. For an owning type it returns t
// itself.
func (t *Type) Base() *Type {
	if t.base != nil {
		return t.base
	}
	return t
}

// IsNoCopy reports whether t is a transfer-ownership variant.
func (t *Type) IsNoCopy() bool { return t.base != nil }

// makeNoCopy derives the transfer-ownership variant of t.
func makeNoCopy(t *Type) *Type {
	nc := *t
	nc.Copy = func(v any) any { return v }
	nc.Destroy = func(any) {}
	nc.base = t
	nc.noCopy = nil
	t.noCopy = &nc
	return &nc
}
