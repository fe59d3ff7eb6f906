// Package textutil provides small text-shaping helpers for the nested
// container renderings.
package textutil

import "strings"

// Indent prefixes every line of s with n spaces. Empty trailing lines are
// left as-is so repeated indentation of nested renderings stays stable.
func Indent(s string, n int) string {
	if s == "" {
		return s
	}
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}

// IndentTail indents every line of s except the first, for values rendered
// inline after a key prefix.
func IndentTail(s string, n int) string {
	head, tail, found := strings.Cut(s, "\n")
	if !found {
		return s
	}
	return head + "\n" + Indent(tail, n)
}
