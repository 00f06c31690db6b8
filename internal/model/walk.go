package model

// Walk visits the tree rooted at root in pre-order. fn receives each node, its
// depth (root = 0) and its index within its parent. Returning false from fn
// skips that node's children.
func Walk(root *Node, fn func(n *Node, depth, index int) bool) {
	if root == nil {
		return
	}
	walkRecursive(root, 0, 0, fn)
}

func walkRecursive(n *Node, depth, index int, fn func(*Node, int, int) bool) {
	if !fn(n, depth, index) {
		return
	}
	for i, child := range n.Children {
		if child == nil {
			continue
		}
		walkRecursive(child, depth+1, i, fn)
	}
}

// Flatten returns the depth-first pre-order node list, root first. When
// reverse is true the list is returned back to front, which is the order a
// backward focus search scans in.
func Flatten(root *Node, reverse bool) []*Node {
	var list []*Node
	Walk(root, func(n *Node, _, _ int) bool {
		list = append(list, n)
		return true
	})
	if reverse {
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
	}
	return list
}

// IndexOf returns the position of the node whose Ref matches ref, or -1.
func IndexOf(list []*Node, ref string) int {
	if ref == "" {
		return -1
	}
	for i, n := range list {
		if n.Ref == ref {
			return i
		}
	}
	return -1
}
