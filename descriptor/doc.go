// Package descriptor provides the capability tables that make cnext's
// containers polymorphic over their element types.
//
// A Type bundles every operation a generic container needs to treat a value
// uniformly: copy, destroy, compare, size, textual rendering (string, JSON,
// XML), binary blob encode/decode, and an optional custom hash. Containers
// never inspect values directly; everything goes through the descriptor.
//
// # Registry
//
// Types are registered at fixed indexes in a process-wide registry. The index
// is part of the binary wire format (see Marker/Version in blob.go), so it
// must remain stable across versions. Every owning type has a paired "no
// copy" variant at index+1 whose Copy is identity and whose Destroy is a
// no-op; bulk construction paths (blob decode) insert through the no-copy
// variant to transfer ownership without duplicating data, then restore the
// owning variant on the stored entry.
//
// # Built-in types
//
// Bool, Int64, Uint64, Float64, String, Bytes and Pointer are registered by
// this package. The container types (Vector, HashTable) register themselves
// at reserved indexes from their own packages, so a program that never
// imports them simply cannot decode nested containers.
package descriptor
