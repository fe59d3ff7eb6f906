package hashtable

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/james-card/cnext/descriptor"
)

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilKeyType)

	table, err := New(descriptor.String)
	require.NoError(t, err)
	assert.True(t, table.Locking())
	assert.Equal(t, uint64(0), table.Len())
	assert.Nil(t, table.Head())
	assert.Nil(t, table.Tail())
}

func TestNewMinimumSize(t *testing.T) {
	table, err := New(descriptor.String, WithMinimumSize(10))
	require.NoError(t, err)
	// Requested sizes are clamped up to the platform word width.
	assert.GreaterOrEqual(t, table.TableSize(), uint64(32))
}

func TestAddAndGet(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)

	_, err = table.Add("one", int64(1), descriptor.Int64)
	require.NoError(t, err)
	_, err = table.Add("two", int64(2), descriptor.Int64)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), table.Len())
	assert.Equal(t, int64(1), table.Value("one"))
	assert.Equal(t, int64(2), table.Value("two"))
	assert.Nil(t, table.Get("missing"))
	assert.Nil(t, table.Value("missing"))

	e := table.Get("one")
	require.NotNil(t, e)
	assert.Equal(t, "one", e.Key())
	assert.Equal(t, int64(1), e.Value())
	assert.Same(t, descriptor.Int64, e.Type())
}

func TestAddNilKey(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)
	_, err = table.Add(nil, "value")
	assert.ErrorIs(t, err, ErrNilKey)
}

func TestAddReplacesExistingKey(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)

	first, err := table.Add("key", "old")
	require.NoError(t, err)
	second, err := table.Add("key", "new")
	require.NoError(t, err)

	// Same key replaces the value in place, the entry identity survives.
	assert.Same(t, first, second)
	assert.Equal(t, uint64(1), table.Len())
	assert.Equal(t, "new", table.Value("key"))
}

func TestValueTypeDefaulting(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)

	// No type given and nothing added yet: the key type is used.
	e, err := table.Add("a", "text")
	require.NoError(t, err)
	assert.Same(t, descriptor.String, e.Type())

	// An explicit type becomes the default for subsequent adds.
	_, err = table.Add("b", int64(1), descriptor.Int64)
	require.NoError(t, err)
	e, err = table.Add("c", int64(2))
	require.NoError(t, err)
	assert.Same(t, descriptor.Int64, e.Type())
}

func TestTraversalVisitsAllEntries(t *testing.T) {
	table, err := New(descriptor.String, WithMinimumSize(64))
	require.NoError(t, err)

	const n = 500
	for i := 0; i < n; i++ {
		_, err := table.Add(fmt.Sprintf("key%03d", i), int64(i), descriptor.Int64)
		require.NoError(t, err)
	}
	require.Equal(t, uint64(n), table.Len())

	seen := make(map[string]bool, n)
	var prev *Entry
	for e := table.Head(); e != nil; e = e.Next() {
		key := e.Key().(string)
		assert.False(t, seen[key], "entry %s visited twice", key)
		seen[key] = true
		assert.Same(t, prev, e.Prev(), "backward link broken at %s", key)
		prev = e
	}
	assert.Len(t, seen, n)
	assert.Same(t, prev, table.Tail())

	// Backward traversal covers the same entries.
	count := 0
	for e := table.Tail(); e != nil; e = e.Prev() {
		count++
	}
	assert.Equal(t, n, count)
}

func TestBucketOrderWithinTraversal(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		_, err := table.Add(fmt.Sprintf("k%02d", i), int64(i), descriptor.Int64)
		require.NoError(t, err)
	}

	// Entries sharing a bucket must appear in ascending key order.
	lastBucket := uint64(0)
	var lastKey string
	first := true
	for e := table.Head(); e != nil; e = e.Next() {
		key := e.Key().(string)
		b := table.Hash(key)
		if !first && b == lastBucket {
			assert.Negative(t, descriptor.String.Compare(lastKey, key),
				"keys out of order within bucket %d", b)
		}
		lastBucket, lastKey, first = b, key, false
	}
}

func TestRemove(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		_, err := table.Add(fmt.Sprintf("key%d", i), int64(i), descriptor.Int64)
		require.NoError(t, err)
	}

	require.NoError(t, table.Remove("key7"))
	assert.Equal(t, uint64(19), table.Len())
	assert.Nil(t, table.Get("key7"))

	// Removing an absent key is a no-op.
	require.NoError(t, table.Remove("key7"))
	assert.Equal(t, uint64(19), table.Len())

	// The chain stays intact.
	count := 0
	for e := table.Head(); e != nil; e = e.Next() {
		assert.NotEqual(t, "key7", e.Key())
		count++
	}
	assert.Equal(t, 19, count)
}

func TestRemoveEndpoints(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := table.Add(fmt.Sprintf("k%d", i), int64(i), descriptor.Int64)
		require.NoError(t, err)
	}

	head := table.Head().Key()
	require.NoError(t, table.Remove(head))
	assert.NotEqual(t, head, table.Head().Key())
	assert.Nil(t, table.Head().Prev())

	tail := table.Tail().Key()
	require.NoError(t, table.Remove(tail))
	assert.NotEqual(t, tail, table.Tail().Key())
	assert.Nil(t, table.Tail().Next())
}

func TestRemoveAllThenReuse(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)

	keys := []string{"a", "b", "c"}
	for i, k := range keys {
		_, err := table.Add(k, int64(i), descriptor.Int64)
		require.NoError(t, err)
	}
	for _, k := range keys {
		require.NoError(t, table.Remove(k))
	}
	assert.Equal(t, uint64(0), table.Len())
	assert.Nil(t, table.Head())
	assert.Nil(t, table.Tail())

	_, err = table.Add("again", int64(9), descriptor.Int64)
	require.NoError(t, err)
	assert.Equal(t, int64(9), table.Value("again"))
}

// countingType wraps a descriptor to count destructor calls.
func countingType(base *descriptor.Type, destroyed *int) *descriptor.Type {
	ct := *base
	ct.Destroy = func(any) { *destroyed++ }
	return &ct
}

func TestDestroyCalledExactlyOnce(t *testing.T) {
	destroyed := 0
	vt := countingType(descriptor.String, &destroyed)

	table, err := New(descriptor.String)
	require.NoError(t, err)

	_, err = table.Add("a", "va", vt)
	require.NoError(t, err)
	_, err = table.Add("b", "vb", vt)
	require.NoError(t, err)

	// Replacing destroys the old value once.
	_, err = table.Add("a", "va2", vt)
	require.NoError(t, err)
	assert.Equal(t, 1, destroyed)

	require.NoError(t, table.Remove("a"))
	assert.Equal(t, 2, destroyed)

	table.Clear()
	assert.Equal(t, 3, destroyed)
}

func TestClear(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := table.Add(fmt.Sprintf("k%d", i), int64(i), descriptor.Int64)
		require.NoError(t, err)
	}
	size := table.TableSize()
	table.Clear()

	assert.Equal(t, uint64(0), table.Len())
	assert.Nil(t, table.Head())
	assert.Equal(t, size, table.TableSize(), "bucket array survives Clear")

	_, err = table.Add("fresh", int64(1), descriptor.Int64)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), table.Len())
}

func TestCopy(t *testing.T) {
	table, err := New(descriptor.String, WithoutLocking())
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		_, err := table.Add(fmt.Sprintf("k%d", i), int64(i), descriptor.Int64)
		require.NoError(t, err)
	}

	dup := table.Copy()
	require.NotNil(t, dup)
	assert.False(t, dup.Locking(), "copy keeps the locking mode")
	assert.Equal(t, table.Len(), dup.Len())
	assert.Zero(t, Compare(table, dup))

	// Mutating the copy leaves the original alone.
	require.NoError(t, dup.Remove("k3"))
	assert.NotNil(t, table.Get("k3"))
	assert.NotZero(t, Compare(table, dup))
}

func TestCompare(t *testing.T) {
	build := func(pairs ...[2]string) *HashTable {
		table, err := New(descriptor.String)
		require.NoError(t, err)
		for _, p := range pairs {
			_, err := table.Add(p[0], p[1])
			require.NoError(t, err)
		}
		return table
	}

	a := build([2]string{"x", "1"}, [2]string{"y", "2"})
	b := build([2]string{"x", "1"}, [2]string{"y", "2"})
	c := build([2]string{"x", "1"})

	assert.Zero(t, Compare(a, b))
	assert.Zero(t, Compare(nil, nil))
	assert.Negative(t, Compare(nil, a))
	assert.Positive(t, Compare(a, nil))
	assert.Positive(t, Compare(a, c), "longer table compares greater")
	assert.Negative(t, Compare(c, a))
}

// Tables holding the same entries compare equal even when their bucket
// counts, and therefore their traversal orders, differ.
func TestCompareIgnoresBucketCount(t *testing.T) {
	small, err := New(descriptor.String, WithMinimumSize(minTableSize))
	require.NoError(t, err)
	large, err := New(descriptor.String, WithMinimumSize(4096))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, err := small.Add(fmt.Sprintf("key%02d", i), int64(i), descriptor.Int64)
		require.NoError(t, err)
	}
	// Reverse insertion order so the comparison cannot lean on it either.
	for i := 49; i >= 0; i-- {
		_, err := large.Add(fmt.Sprintf("key%02d", i), int64(i), descriptor.Int64)
		require.NoError(t, err)
	}

	require.NotEqual(t, small.TableSize(), large.TableSize())
	assert.Zero(t, Compare(small, large))
	assert.Zero(t, Compare(large, small))

	_, err = large.Add("key50", int64(50), descriptor.Int64)
	require.NoError(t, err)
	assert.Negative(t, Compare(small, large))
	assert.Positive(t, Compare(large, small))
}

func TestAddOwnedTransfersOwnership(t *testing.T) {
	destroyed := 0
	vt := countingType(descriptor.Bytes, &destroyed)

	table, err := New(descriptor.String)
	require.NoError(t, err)

	payload := []byte("owned")
	e, err := table.AddOwned("k", payload, vt)
	require.NoError(t, err)

	// The stored value aliases the caller's slice; no copy was taken.
	payload[0] = 'X'
	assert.Equal(t, byte('X'), e.Value().([]byte)[0])

	// Ownership transferred: removal destroys through the owning type.
	require.NoError(t, table.Remove("k"))
	assert.Equal(t, 1, destroyed)
}

func TestAddOwnedValidation(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)
	_, err = table.AddOwned("k", "v", nil)
	assert.ErrorIs(t, err, ErrNilValueType)
}

func TestConcurrentAddAndGet(t *testing.T) {
	table, err := New(descriptor.String, WithMinimumSize(256))
	require.NoError(t, err)

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("w%d-i%d", w, i)
				if _, err := table.Add(key, int64(i), descriptor.Int64); err != nil {
					return err
				}
				if table.Value(key) == nil {
					return fmt.Errorf("lost key %s", key)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, uint64(8*200), table.Len())
}

func TestConcurrentMixedOperations(t *testing.T) {
	table, err := New(descriptor.String)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("w%d-i%d", w, i)
				_, _ = table.Add(key, int64(i), descriptor.Int64)
				if i%3 == 0 {
					_ = table.Remove(key)
				}
			}
		}(w)
	}
	wg.Wait()

	// The chain must stay consistent with the reported size.
	count := uint64(0)
	for e := table.Head(); e != nil; e = e.Next() {
		count++
	}
	assert.Equal(t, table.Len(), count)
}
