package descriptor

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Built-in descriptors. Each is registered with its no-copy variant in init.
var (
	// Bool describes bool values.
	Bool *Type
	// Int64 describes int64 values.
	Int64 *Type
	// Uint64 describes uint64 values.
	Uint64 *Type
	// Float64 describes float64 values.
	Float64 *Type
	// String describes string values.
	String *Type
	// Bytes describes []byte values. Bytes is the only primitive whose
	// in-place blob decode aliases the input buffer.
	Bytes *Type
	// Pointer describes an untyped nil placeholder, used for JSON null
	// entries. Its values are always nil and encode to zero bytes.
	Pointer *Type
)

func init() {
	Bool = &Type{
		Name:     "bool",
		Copy:     func(v any) any { return v },
		Destroy:  func(any) {},
		Compare:  compareBool,
		Size:     func(any) uint64 { return 1 },
		ToString: func(v any) string { return strconv.FormatBool(v.(bool)) },
		ToJSON:   func(v any) []byte { return []byte(strconv.FormatBool(v.(bool))) },
		ToXML:    scalarToXML(func(v any) string { return strconv.FormatBool(v.(bool)) }),
		ToBlob: func(buf []byte, v any) ([]byte, error) {
			if v.(bool) {
				return append(buf, 1), nil
			}
			return append(buf, 0), nil
		},
		FromBlob: func(data []byte, _ bool) (any, uint64, error) {
			if len(data) < 1 {
				return nil, 0, fmt.Errorf("%w: bool", ErrShortBuffer)
			}
			return data[0] != 0, 1, nil
		},
	}

	Int64 = &Type{
		Name:     "int64",
		Copy:     func(v any) any { return v },
		Destroy:  func(any) {},
		Compare:  compareOrdered[int64],
		Size:     func(any) uint64 { return 8 },
		ToString: func(v any) string { return strconv.FormatInt(v.(int64), 10) },
		ToJSON:   func(v any) []byte { return []byte(strconv.FormatInt(v.(int64), 10)) },
		ToXML:    scalarToXML(func(v any) string { return strconv.FormatInt(v.(int64), 10) }),
		ToBlob: func(buf []byte, v any) ([]byte, error) {
			return binary.LittleEndian.AppendUint64(buf, uint64(v.(int64))), nil
		},
		FromBlob: func(data []byte, _ bool) (any, uint64, error) {
			if len(data) < 8 {
				return nil, 0, fmt.Errorf("%w: int64", ErrShortBuffer)
			}
			return int64(binary.LittleEndian.Uint64(data)), 8, nil
		},
	}

	Uint64 = &Type{
		Name:     "uint64",
		Copy:     func(v any) any { return v },
		Destroy:  func(any) {},
		Compare:  compareOrdered[uint64],
		Size:     func(any) uint64 { return 8 },
		ToString: func(v any) string { return strconv.FormatUint(v.(uint64), 10) },
		ToJSON:   func(v any) []byte { return []byte(strconv.FormatUint(v.(uint64), 10)) },
		ToXML:    scalarToXML(func(v any) string { return strconv.FormatUint(v.(uint64), 10) }),
		ToBlob: func(buf []byte, v any) ([]byte, error) {
			return binary.LittleEndian.AppendUint64(buf, v.(uint64)), nil
		},
		FromBlob: func(data []byte, _ bool) (any, uint64, error) {
			if len(data) < 8 {
				return nil, 0, fmt.Errorf("%w: uint64", ErrShortBuffer)
			}
			return binary.LittleEndian.Uint64(data), 8, nil
		},
	}

	Float64 = &Type{
		Name:     "float64",
		Copy:     func(v any) any { return v },
		Destroy:  func(any) {},
		Compare:  compareOrdered[float64],
		Size:     func(any) uint64 { return 8 },
		ToString: func(v any) string { return strconv.FormatFloat(v.(float64), 'g', -1, 64) },
		ToJSON:   func(v any) []byte { return []byte(strconv.FormatFloat(v.(float64), 'g', -1, 64)) },
		ToXML:    scalarToXML(func(v any) string { return strconv.FormatFloat(v.(float64), 'g', -1, 64) }),
		ToBlob: func(buf []byte, v any) ([]byte, error) {
			return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.(float64))), nil
		},
		FromBlob: func(data []byte, _ bool) (any, uint64, error) {
			if len(data) < 8 {
				return nil, 0, fmt.Errorf("%w: float64", ErrShortBuffer)
			}
			return math.Float64frombits(binary.LittleEndian.Uint64(data)), 8, nil
		},
	}

	String = &Type{
		Name:     "string",
		Copy:     func(v any) any { return v },
		Destroy:  func(any) {},
		Compare:  compareOrdered[string],
		Size:     func(v any) uint64 { return uint64(len(v.(string))) },
		ToString: func(v any) string { return v.(string) },
		ToJSON:   func(v any) []byte { return []byte(strconv.Quote(v.(string))) },
		ToXML:    scalarToXML(func(v any) string { return v.(string) }),
		ToBlob: func(buf []byte, v any) ([]byte, error) {
			s := v.(string)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
			return append(buf, s...), nil
		},
		// Strings are immutable in Go, so in-place decode still copies.
		FromBlob: func(data []byte, _ bool) (any, uint64, error) {
			payload, consumed, err := parseLengthPrefixed(data, "string")
			if err != nil {
				return nil, 0, err
			}
			return string(payload), consumed, nil
		},
	}

	Bytes = &Type{
		Name:    "bytes",
		Copy:    func(v any) any { return append([]byte(nil), v.([]byte)...) },
		Destroy: func(any) {},
		Compare: func(a, b any) int {
			if c, done := compareNil(a, b); done {
				return c
			}
			return bytesCompare(a.([]byte), b.([]byte))
		},
		Size:     func(v any) uint64 { return uint64(len(v.([]byte))) },
		ToString: func(v any) string { return string(v.([]byte)) },
		ToJSON:   func(v any) []byte { return []byte(strconv.Quote(string(v.([]byte)))) },
		ToXML:    scalarToXML(func(v any) string { return string(v.([]byte)) }),
		ToBlob: func(buf []byte, v any) ([]byte, error) {
			b := v.([]byte)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b)))
			return append(buf, b...), nil
		},
		FromBlob: func(data []byte, inPlace bool) (any, uint64, error) {
			payload, consumed, err := parseLengthPrefixed(data, "bytes")
			if err != nil {
				return nil, 0, err
			}
			if inPlace {
				return payload, consumed, nil
			}
			return append([]byte(nil), payload...), consumed, nil
		},
	}

	Pointer = &Type{
		Name:     "pointer",
		Copy:     func(v any) any { return v },
		Destroy:  func(any) {},
		Compare:  func(a, b any) int { c, _ := compareNil(a, b); return c },
		Size:     func(any) uint64 { return 0 },
		ToString: func(any) string { return "(null)" },
		ToJSON:   func(any) []byte { return []byte("null") },
		ToXML:    scalarToXML(func(any) string { return "" }),
		ToBlob:   func(buf []byte, _ any) ([]byte, error) { return buf, nil },
		FromBlob: func(_ []byte, _ bool) (any, uint64, error) { return nil, 0, nil },
	}

	RegisterAt(IndexBool, Bool)
	RegisterAt(IndexInt64, Int64)
	RegisterAt(IndexUint64, Uint64)
	RegisterAt(IndexFloat64, Float64)
	RegisterAt(IndexString, String)
	RegisterAt(IndexBytes, Bytes)
	RegisterAt(IndexPointer, Pointer)
}

// compareNil implements the shared nil ordering: nil < non-nil, nil == nil.
// done reports whether the comparison was decided here.
func compareNil(a, b any) (result int, done bool) {
	switch {
	case a == nil && b == nil:
		return 0, true
	case a == nil:
		return -1, true
	case b == nil:
		return 1, true
	}
	return 0, false
}

func compareOrdered[T int64 | uint64 | float64 | string](a, b any) int {
	if c, done := compareNil(a, b); done {
		return c
	}
	av, bv := a.(T), b.(T)
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	}
	return 0
}

func compareBool(a, b any) int {
	if c, done := compareNil(a, b); done {
		return c
	}
	av, bv := a.(bool), b.(bool)
	switch {
	case av == bv:
		return 0
	case bv:
		return -1
	}
	return 1
}

func bytesCompare(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func parseLengthPrefixed(data []byte, what string) ([]byte, uint64, error) {
	if len(data) < 4 {
		return nil, 0, fmt.Errorf("%w: %s length", ErrShortBuffer, what)
	}
	n := binary.LittleEndian.Uint32(data)
	if uint64(len(data)) < 4+uint64(n) {
		return nil, 0, fmt.Errorf("%w: %s payload of %d bytes", ErrShortBuffer, what, n)
	}
	return data[4 : 4+n], 4 + uint64(n), nil
}

func scalarToXML(render func(v any) string) func(any, string, bool) []byte {
	return func(v any, element string, _ bool) []byte {
		return []byte("<" + element + ">" + xmlEscape(render(v)) + "</" + element + ">")
	}
}

func xmlEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
