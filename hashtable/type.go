package hashtable

import (
	"github.com/james-card/cnext/descriptor"
)

// TypeDescriptor is the capability table for *HashTable values, letting
// tables nest inside other containers. Registered at
// descriptor.IndexHashTable when this package is linked.
var TypeDescriptor *descriptor.Type

func init() {
	TypeDescriptor = &descriptor.Type{
		Name:      "HashTable",
		Composite: true,
		Copy: func(v any) any {
			if v == nil {
				return nil
			}
			return v.(*HashTable).Copy()
		},
		Destroy: func(v any) {
			if v != nil {
				v.(*HashTable).Clear()
			}
		},
		Compare: func(a, b any) int {
			return Compare(asTable(a), asTable(b))
		},
		Size: func(v any) uint64 {
			if v == nil {
				return 0
			}
			return v.(*HashTable).Len()
		},
		ToString: func(v any) string {
			return asTable(v).String()
		},
		ToJSON: func(v any) []byte {
			return asTable(v).ToJSON()
		},
		ToXML: func(v any, element string, indent bool) []byte {
			return asTable(v).ToXML(element, indent)
		},
		ToBlob: func(buf []byte, v any) ([]byte, error) {
			t := asTable(v)
			if t == nil {
				return nil, ErrNilTable
			}
			blob, err := t.ToBlob()
			if err != nil {
				return nil, err
			}
			return append(buf, blob...), nil
		},
		FromBlob: func(data []byte, inPlace bool) (any, uint64, error) {
			var opts []FromBlobOption
			if inPlace {
				opts = append(opts, InPlace())
			}
			t, consumed, err := FromBlob(data, opts...)
			if err != nil {
				return nil, consumed, err
			}
			return t, consumed, nil
		},
	}
	descriptor.RegisterAt(descriptor.IndexHashTable, TypeDescriptor)
}

func asTable(v any) *HashTable {
	if v == nil {
		return nil
	}
	return v.(*HashTable)
}
