package vector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadPath is returned for paths that fail to parse, that descend into a
// slot not holding a nested vector, or that stop short of one.
var ErrBadPath = errors.New("vector: bad index path")

// GetIndex resolves a bracketed index path such as "[4]" or "[4][2][0]"
// against the vector, descending through nested vectors for each additional
// bracket pair. It returns the entry the full path addresses.
func (v *Vector) GetIndex(path string) (*Entry, error) {
	if v == nil {
		return nil, ErrNilVector
	}
	index, rest, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	e := v.Get(index)
	if e == nil {
		return nil, fmt.Errorf("%w: no entry at [%d]", ErrBadPath, index)
	}
	if rest == "" {
		// A path that stops at a nested vector is ambiguous: the caller
		// either wanted a scalar or forgot the remaining brackets.
		if _, isVector := e.Value().(*Vector); isVector {
			return nil, fmt.Errorf("%w: entry at [%d] is a nested vector, path needs another segment",
				ErrBadPath, index)
		}
		return e, nil
	}
	nested, ok := e.Value().(*Vector)
	if !ok || nested == nil {
		return nil, fmt.Errorf("%w: entry at [%d] is not a vector", ErrBadPath, index)
	}
	return nested.GetIndex(rest)
}

// splitPath peels one "[N]" segment off the front of path.
func splitPath(path string) (uint64, string, error) {
	if len(path) < 3 || path[0] != '[' {
		return 0, "", fmt.Errorf("%w: %q", ErrBadPath, path)
	}
	end := strings.IndexByte(path, ']')
	if end < 0 {
		return 0, "", fmt.Errorf("%w: unterminated bracket in %q", ErrBadPath, path)
	}
	index, err := strconv.ParseUint(path[1:end], 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q: %v", ErrBadPath, path, err)
	}
	return index, path[end+1:], nil
}
