package model

import "strings"

// nafExcludedClasses are container classes that are often clickable and enabled
// without carrying a label of their own. They are never flagged.
var nafExcludedClasses = []string{
	"android.widget.GridView",
	"android.widget.GridLayout",
	"android.widget.ListView",
	"android.widget.TableLayout",
}

// NAFExcludedClass reports whether n's class is one of the excluded containers.
func NAFExcludedClass(n *Node) bool {
	for _, cls := range nafExcludedClasses {
		if strings.HasSuffix(n.ClassName, cls) {
			return true
		}
	}
	return false
}

// IsNAF reports whether n is "not accessibility friendly": an interactive,
// enabled control with no text and no content description, where no
// descendant supplies a label either.
func IsNAF(n *Node) bool {
	if n == nil || NAFExcludedClass(n) {
		return false
	}
	unlabeled := n.Clickable && n.Enabled && n.ContentDesc == "" && n.Text == ""
	if !unlabeled {
		return false
	}
	return !hasLabeledDescendant(n)
}

// hasLabeledDescendant reports whether any node below n has text or a content
// description.
func hasLabeledDescendant(n *Node) bool {
	for _, child := range n.Children {
		if child == nil {
			continue
		}
		if child.ContentDesc != "" || child.Text != "" {
			return true
		}
		if hasLabeledDescendant(child) {
			return true
		}
	}
	return false
}
