package cnext_test

import (
	"bytes"
	"fmt"
	"log"

	"github.com/james-card/cnext"
	"github.com/james-card/cnext/codec"
	"github.com/james-card/cnext/descriptor"
	"github.com/james-card/cnext/hashtable"
	"github.com/james-card/cnext/vector"
)

// Example_hashTable demonstrates typed key/value storage with ordered
// traversal.
func Example_hashTable() {
	table, err := hashtable.New(descriptor.String)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := table.Add("greeting", "hello"); err != nil {
		log.Fatal(err)
	}
	if _, err := table.Add("count", int64(2), descriptor.Int64); err != nil {
		log.Fatal(err)
	}

	fmt.Println(table.Value("greeting"))
	fmt.Println(table.Len())
	// Output:
	// hello
	// 2
}

// Example_vector demonstrates sparse slots and keyed lookup in the same
// container.
func Example_vector() {
	v, err := vector.New(descriptor.String)
	if err != nil {
		log.Fatal(err)
	}

	// Slot 0 and slot 40; the gap stays unallocated.
	if _, err := v.Set(0, "first", "alpha"); err != nil {
		log.Fatal(err)
	}
	if _, err := v.Set(40, "last", "omega"); err != nil {
		log.Fatal(err)
	}

	fmt.Println(v.Len())
	fmt.Println(v.ValueByKey("last"))
	fmt.Println(v.Tail().Index())
	// Output:
	// 2
	// omega
	// 40
}

// Example_jsonToVector builds a container from JSON text.
func Example_jsonToVector() {
	v, err := cnext.JSONToVector([]byte(`["value1", false, null]`))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(v.Len())
	fmt.Println(v.Value(0))
	fmt.Println(v.Value(1))
	// Output:
	// 3
	// value1
	// false
}

// Example_snapshot round-trips a table through a compressed snapshot.
func Example_snapshot() {
	table, err := hashtable.New(descriptor.String)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := table.Add("k", "v"); err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	if err := cnext.Save(&buf, table, codec.Zstd{}); err != nil {
		log.Fatal(err)
	}

	loaded, err := cnext.LoadHashTable(&buf)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(loaded.Value("k"))
	// Output: v
}
