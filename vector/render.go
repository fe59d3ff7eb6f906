package vector

import (
	"fmt"
	"strings"

	"github.com/james-card/cnext/internal/textutil"
)

// String renders the vector's size, capacity, and each allocated slot by
// index, 2-space indented and wrapped in brackets.
func (v *Vector) String() string {
	if v == nil {
		return ""
	}
	v.lock()
	defer v.unlock()

	var body strings.Builder
	fmt.Fprintf(&body, "size=%d\ncapacity=%d", v.size, len(v.slots))
	for i := v.head; i != none; i = v.slots[i].next {
		s := &v.slots[i]
		fmt.Fprintf(&body, "\n[%d]=%s", i, textutil.IndentTail(s.typ.ToString(s.value), 2))
	}
	return "[\n" + textutil.Indent(body.String(), 2) + "\n]"
}

// ToJSON renders the allocated slots as a JSON array in traversal order.
// Keys are not represented; a vector serializes positionally. Nested
// containers render recursively through their descriptors.
func (v *Vector) ToJSON() []byte {
	if v == nil {
		return []byte("[]")
	}
	v.lock()
	defer v.unlock()

	if v.size == 0 {
		return []byte("[]")
	}
	var out strings.Builder
	out.WriteString("[\n")
	for i := v.head; i != none; i = v.slots[i].next {
		s := &v.slots[i]
		if s.value == nil && !s.typ.Composite {
			out.WriteString("  null")
		} else {
			out.WriteString(textutil.Indent(string(s.typ.ToJSON(s.value)), 2))
		}
		if s.next != none {
			out.WriteString(",")
		}
		out.WriteString("\n")
	}
	out.WriteString("]")
	return []byte(out.String())
}

// ToXML renders the allocated slots as repeated "item" child elements
// wrapped in element.
func (v *Vector) ToXML(element string, indent bool) []byte {
	if v == nil {
		return nil
	}
	v.lock()
	defer v.unlock()

	var out strings.Builder
	out.WriteString("<" + element + ">")
	for i := v.head; i != none; i = v.slots[i].next {
		s := &v.slots[i]
		child := string(s.typ.ToXML(s.value, "item", indent))
		if indent {
			out.WriteString("\n" + textutil.Indent(child, 2))
		} else {
			out.WriteString(child)
		}
	}
	if indent && v.head != none {
		out.WriteString("\n")
	}
	out.WriteString("</" + element + ">")
	return []byte(out.String())
}
