package model

import "fmt"

// Node is a snapshot of one UI node copied out of the platform's accessibility tree.
// A tree of Nodes is owned by the caller; nothing needs to be released after use.
type Node struct {
	Ref         string `json:"ref"                    yaml:"ref"`                    // Platform handle, unique within a snapshot
	ResourceID  string `json:"resource_id,omitempty"  yaml:"resource_id,omitempty"`  // View id resource name
	Text        string `json:"text,omitempty"         yaml:"text,omitempty"`
	ClassName   string `json:"class,omitempty"        yaml:"class,omitempty"`
	ContentDesc string `json:"content_desc,omitempty" yaml:"content_desc,omitempty"`
	Package     string `json:"package,omitempty"      yaml:"package,omitempty"`

	Checkable                 bool `json:"checkable,omitempty"         yaml:"checkable,omitempty"`
	Checked                   bool `json:"checked,omitempty"           yaml:"checked,omitempty"`
	Clickable                 bool `json:"clickable,omitempty"         yaml:"clickable,omitempty"`
	Enabled                   bool `json:"enabled,omitempty"           yaml:"enabled,omitempty"`
	Focusable                 bool `json:"focusable,omitempty"         yaml:"focusable,omitempty"`
	Focused                   bool `json:"focused,omitempty"           yaml:"focused,omitempty"`
	AccessibilityFocused      bool `json:"a11y_focused,omitempty"      yaml:"a11y_focused,omitempty"`
	Scrollable                bool `json:"scrollable,omitempty"        yaml:"scrollable,omitempty"`
	LongClickable             bool `json:"long_clickable,omitempty"    yaml:"long_clickable,omitempty"`
	Password                  bool `json:"password,omitempty"          yaml:"password,omitempty"`
	Selected                  bool `json:"selected,omitempty"          yaml:"selected,omitempty"`
	Visible                   bool `json:"visible,omitempty"           yaml:"visible,omitempty"`
	ContentInvalid            bool `json:"content_invalid,omitempty"   yaml:"content_invalid,omitempty"`
	Heading                   bool `json:"heading,omitempty"           yaml:"heading,omitempty"`
	ImportantForAccessibility bool `json:"important_for_a11y,omitempty" yaml:"important_for_a11y,omitempty"`

	LiveRegion   int     `json:"live_region,omitempty"   yaml:"live_region,omitempty"`
	DrawingOrder int     `json:"drawing_order,omitempty" yaml:"drawing_order,omitempty"`
	Actions      []int   `json:"actions,omitempty"       yaml:"actions,omitempty"` // Available action ids
	Bounds       Rect    `json:"bounds"                  yaml:"bounds"`
	Children     []*Node `json:"children,omitempty"      yaml:"children,omitempty"`
}

// Rect is a screen rectangle in device pixels.
type Rect struct {
	Left   int `json:"left"   yaml:"left"`
	Top    int `json:"top"    yaml:"top"`
	Right  int `json:"right"  yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// Width returns the horizontal extent of r.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent of r.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// ShortString renders r as "[left,top][right,bottom]", the form used in tree dumps.
func (r Rect) ShortString() string {
	return fmt.Sprintf("[%d,%d][%d,%d]", r.Left, r.Top, r.Right, r.Bottom)
}

// Label returns a short human-readable description of the node for logs.
func (n *Node) Label() string {
	if n == nil {
		return "<none>"
	}
	switch {
	case n.ResourceID != "":
		return fmt.Sprintf("%s : %s", n.ClassName, n.ResourceID)
	case n.Text != "":
		return fmt.Sprintf("%s : %q", n.ClassName, n.Text)
	case n.ContentDesc != "":
		return fmt.Sprintf("%s : desc=%q", n.ClassName, n.ContentDesc)
	}
	return n.ClassName
}

// FindByRef returns the first node in the subtree rooted at n whose Ref equals ref.
func FindByRef(n *Node, ref string) *Node {
	if n == nil || ref == "" {
		return nil
	}
	if n.Ref == ref {
		return n
	}
	for _, c := range n.Children {
		if found := FindByRef(c, ref); found != nil {
			return found
		}
	}
	return nil
}
