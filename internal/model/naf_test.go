package model

import "testing"

func clickableContainer(children ...*Node) *Node {
	return &Node{
		Ref:       "parent",
		ClassName: "android.widget.LinearLayout",
		Clickable: true,
		Enabled:   true,
		Children:  children,
	}
}

func TestIsNAF_RescuedByLabeledChild(t *testing.T) {
	n := clickableContainer(&Node{Ref: "c", ClassName: "android.widget.TextView", Text: "Settings"})
	if IsNAF(n) {
		t.Error("clickable container with a labeled child should not be flagged")
	}
}

func TestIsNAF_UnlabeledChildren(t *testing.T) {
	n := clickableContainer(&Node{Ref: "c1"}, &Node{Ref: "c2"})
	if !IsNAF(n) {
		t.Error("clickable container with only unlabeled children should be flagged")
	}
}

func TestIsNAF_RescuedByDeepDescendant(t *testing.T) {
	n := clickableContainer(&Node{Ref: "c", Children: []*Node{{Ref: "gc", ContentDesc: "Profile picture"}}})
	if IsNAF(n) {
		t.Error("a labeled grandchild should rescue the container")
	}
}

func TestIsNAF_ExcludedClass(t *testing.T) {
	n := clickableContainer(&Node{Ref: "c"})
	n.ClassName = "android.widget.ListView"
	if IsNAF(n) {
		t.Error("ListView is an excluded container and must not be flagged")
	}
}

func TestIsNAF_NotInteractive(t *testing.T) {
	tests := []struct {
		name string
		node *Node
	}{
		{"not clickable", &Node{Enabled: true}},
		{"disabled", &Node{Clickable: true}},
		{"has text", &Node{Clickable: true, Enabled: true, Text: "OK"}},
		{"has description", &Node{Clickable: true, Enabled: true, ContentDesc: "Close"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsNAF(tt.node) {
				t.Errorf("%s: should not be flagged", tt.name)
			}
		})
	}
}

func TestIsNAF_Nil(t *testing.T) {
	if IsNAF(nil) {
		t.Error("nil node should not be flagged")
	}
}
