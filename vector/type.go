package vector

import (
	"github.com/james-card/cnext/descriptor"
)

// TypeDescriptor is the capability table for *Vector values, letting
// vectors nest inside other containers. Registered at
// descriptor.IndexVector when this package is linked.
var TypeDescriptor *descriptor.Type

func init() {
	TypeDescriptor = &descriptor.Type{
		Name:      "Vector",
		Composite: true,
		Copy: func(v any) any {
			if v == nil {
				return nil
			}
			return v.(*Vector).Copy()
		},
		Destroy: func(v any) {
			if v != nil {
				v.(*Vector).Clear()
			}
		},
		Compare: func(a, b any) int {
			return Compare(asVector(a), asVector(b))
		},
		Size: func(v any) uint64 {
			if v == nil {
				return 0
			}
			return v.(*Vector).Len()
		},
		ToString: func(v any) string {
			return asVector(v).String()
		},
		ToJSON: func(v any) []byte {
			return asVector(v).ToJSON()
		},
		ToXML: func(v any, element string, indent bool) []byte {
			return asVector(v).ToXML(element, indent)
		},
		ToBlob: func(buf []byte, v any) ([]byte, error) {
			vec := asVector(v)
			if vec == nil {
				return nil, ErrNilVector
			}
			blob, err := vec.ToBlob()
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
			vec, consumed, err := FromBlob(data, opts...)
			if err != nil {
				return nil, consumed, err
			}
			return vec, consumed, nil
		},
	}
	descriptor.RegisterAt(descriptor.IndexVector, TypeDescriptor)
}

func asVector(v any) *Vector {
	if v == nil {
		return nil
	}
	return v.(*Vector)
}
