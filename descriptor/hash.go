package descriptor

// OneAtATime computes the Jenkins one-at-a-time hash of data. HashTable uses
// it for bucket selection whenever a key type carries no custom Hash.
func OneAtATime(data []byte) uint64 {
	var h uint64
	for _, b := range data {
		h += uint64(b)
		h += h << 10
		h ^= h >> 6
	}
	h += h << 3
	h ^= h >> 11
	h += h << 15
	return h
}

// HashValue hashes v using t's custom Hash when present, falling back to
// OneAtATime over the value's raw bytes. Strings and byte slices hash their
// contents directly; other values hash their blob encoding, which for the
// fixed-width primitives is the little-endian in-memory representation. The
// temporary encoding is discarded after hashing. A value that cannot be
// encoded hashes to 0.
func HashValue(t *Type, v any) uint64 {
	if t.Hash != nil {
		return t.Hash(v)
	}
	// The blob encoding of variable-length values carries a length prefix
	// that must not participate in the hash.
	switch raw := v.(type) {
	case string:
		return OneAtATime([]byte(raw))
	case []byte:
		return OneAtATime(raw)
	}
	buf, err := t.ToBlob(nil, v)
	if err != nil {
		return 0
	}
	return OneAtATime(buf)
}
