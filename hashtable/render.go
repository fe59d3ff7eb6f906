package hashtable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/james-card/cnext/internal/textutil"
)

// String renders the table's size, bucket count, and each non-empty
// bucket's entries, 2-space indented and wrapped in braces.
func (t *HashTable) String() string {
	if t == nil {
		return ""
	}
	t.lock()
	defer t.unlock()

	var body strings.Builder
	fmt.Fprintf(&body, "size=%d\ntableSize=%d", t.size, t.tableSize)
	for i, b := range t.buckets {
		if b == nil || b.head == nil {
			continue
		}
		var entries strings.Builder
		for e := b.head; e != nil; e = e.next {
			if e != b.head {
				entries.WriteByte('\n')
			}
			fmt.Fprintf(&entries, "%s=%s", t.keyType.ToString(e.key), e.typ.ToString(e.value))
			if e == b.tail {
				break
			}
		}
		fmt.Fprintf(&body, "\nbucket[%d]={\n%s\n}", i, textutil.Indent(entries.String(), 2))
	}
	return "{\n" + textutil.Indent(body.String(), 2) + "\n}"
}

// ToJSON renders the table as a JSON object in global traversal order.
// Nested containers render recursively through their descriptors.
func (t *HashTable) ToJSON() []byte {
	if t == nil {
		return []byte("{}")
	}
	t.lock()
	defer t.unlock()

	var out strings.Builder
	out.WriteString("{\n")
	for e := t.head; e != nil; e = e.next {
		out.WriteString("  ")
		out.WriteString(strconv.Quote(t.keyType.ToString(e.key)))
		out.WriteString(": ")
		if e.value == nil && !e.typ.Composite {
			out.WriteString("null")
		} else {
			out.WriteString(textutil.IndentTail(string(e.typ.ToJSON(e.value)), 2))
		}
		if e.next != nil {
			out.WriteString(",")
		}
		out.WriteString("\n")
	}
	out.WriteString("}")
	return []byte(out.String())
}

// ToXML renders the table as one XML element per entry, keyed by the
// entry's key rendering, wrapped in element.
func (t *HashTable) ToXML(element string, indent bool) []byte {
	if t == nil {
		return nil
	}
	t.lock()
	defer t.unlock()

	var out strings.Builder
	out.WriteString("<" + element + ">")
	for e := t.head; e != nil; e = e.next {
		child := string(e.typ.ToXML(e.value, t.keyType.ToString(e.key), indent))
		if indent {
			out.WriteString("\n" + textutil.Indent(child, 2))
		} else {
			out.WriteString(child)
		}
	}
	if indent && t.head != nil {
		out.WriteString("\n")
	}
	out.WriteString("</" + element + ">")
	return []byte(out.String())
}
