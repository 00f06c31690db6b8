package model

import "strings"

// Predicate reports whether a node matches a selection.
type Predicate func(*Node) bool

// IDContains matches nodes whose resource id contains sub, ignoring case.
func IDContains(sub string) Predicate {
	subLower := strings.ToLower(sub)
	return func(n *Node) bool {
		return n.ResourceID != "" && strings.Contains(strings.ToLower(n.ResourceID), subLower)
	}
}

// TextContains matches nodes whose text contains sub, ignoring case.
func TextContains(sub string) Predicate {
	subLower := strings.ToLower(sub)
	return func(n *Node) bool {
		return n.Text != "" && strings.Contains(strings.ToLower(n.Text), subLower)
	}
}

// ClassEquals matches nodes whose class name is exactly class.
func ClassEquals(class string) Predicate {
	return func(n *Node) bool {
		return n.ClassName == class
	}
}

// IsHeading matches nodes flagged as headings.
func IsHeading() Predicate {
	return func(n *Node) bool {
		return n.Heading
	}
}

// First returns the first node in list matching p at or after start, or -1.
func First(list []*Node, start int, p Predicate) int {
	if start < 0 {
		start = 0
	}
	for i := start; i < len(list); i++ {
		if p(list[i]) {
			return i
		}
	}
	return -1
}
