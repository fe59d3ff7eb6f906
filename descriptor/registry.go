package descriptor

import (
	"fmt"
	"sync"
)

// Reserved registry indexes. Owning types sit at the listed index and their
// no-copy variants at index+1. These values are part of the blob wire
// format; never renumber them.
const (
	IndexInvalid int16 = 0

	IndexBool    int16 = 1
	IndexInt64   int16 = 3
	IndexUint64  int16 = 5
	IndexFloat64 int16 = 7
	IndexString  int16 = 9
	IndexBytes   int16 = 11
	IndexPointer int16 = 13

	// Composite types. Registered by their own packages at init time.
	IndexVector    int16 = 15
	IndexHashTable int16 = 17

	registrySize = 19
)

// The index map is initialized in the literal, not an init function:
// RegisterAt runs from other files' init functions, which Go orders by
// file name and may execute first.
var registry = struct {
	mu    sync.RWMutex
	types [registrySize + 1]*Type
	index map[*Type]int16
}{
	index: make(map[*Type]int16, registrySize),
}

// RegisterAt installs t and its derived no-copy variant at the reserved
// index. It panics on an invalid or already-occupied index; registration
// happens from init functions, so a failure is a programming error.
func RegisterAt(index int16, t *Type) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if index < 1 || index+1 > registrySize || index%2 == 0 {
		panic(fmt.Sprintf("descriptor: invalid registry index %d for %s", index, t.Name))
	}
	if registry.types[index] != nil {
		panic(fmt.Sprintf("descriptor: registry index %d already taken by %s", index, registry.types[index].Name))
	}

	nc := makeNoCopy(t)
	registry.types[index] = t
	registry.types[index+1] = nc
	registry.index[t] = index
	registry.index[nc] = index + 1
}

// ByIndex returns the type registered at index, or nil when the index is out
// of range or unoccupied. Index values below 1 are never valid.
func ByIndex(index int16) *Type {
	if index < 1 || index > registrySize {
		return nil
	}
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.types[index]
}

// IndexOf returns the registry index of t, or IndexInvalid when t was never
// registered.
func IndexOf(t *Type) int16 {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.index[t]
}
