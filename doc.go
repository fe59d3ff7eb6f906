// Package cnext provides thread-safe, type-erased containers for Go:
// a chained hash table and a sparse vector, both built on typed key and
// value descriptors so heterogeneous values can live in the same container
// and round-trip through a versioned binary format.
//
// # Containers
//
// HashTable maps typed keys to typed values with bucket-ordered iteration:
//
//	t, _ := hashtable.New(descriptor.String)
//	t.Add("name", "gamma")
//	t.Add("count", int64(3), descriptor.Int64)
//	for e := t.Head(); e != nil; e = e.Next() {
//	    fmt.Println(e.Key(), e.Value())
//	}
//
// Vector is a sparse dynamic array whose slots also carry typed keys:
//
//	v, _ := vector.New(descriptor.String)
//	v.Set(0, "first", "alpha")
//	v.Set(40, "last", int64(7), descriptor.Int64)
//	e := v.GetByKey("last")
//
// # Descriptors
//
// A descriptor.Type bundles the operations a container needs for one value
// type: copy, destroy, compare, hash, render, and the binary codec. The
// package registers descriptors for the common primitive types; containers
// register their own so they nest inside each other.
//
// # Serialization
//
// Both containers encode to a shared little-endian wire format with a
// versioned header, and decode back including nested containers. The codec
// package wraps blobs in LZ4 or zstd framing, and Save/Load stream framed
// snapshots with a self-describing codec header:
//
//	var buf bytes.Buffer
//	cnext.Save(&buf, t, codec.Zstd{})
//	t2, _ := cnext.LoadHashTable(&buf)
//
// # JSON
//
// JSONToVector and JSONToHashTable build containers from JSON text, mapping
// arrays to vectors and objects to hash tables, recursively.
package cnext
