// Package capture turns the node tree and screen into on-disk artifacts.
package capture

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/mj1618/a11y-probe/internal/model"
)

// Record is the dump form of one node. Attribute order is the order the
// attributes appear in the file.
type Record struct {
	XMLName                   xml.Name `xml:"node"`
	Index                     int      `xml:"index,attr"`
	ResourceID                string   `xml:"resource-id,attr"`
	Text                      string   `xml:"text,attr"`
	Class                     string   `xml:"class,attr"`
	Package                   string   `xml:"package,attr"`
	ContentDesc               string   `xml:"content-desc,attr"`
	Checkable                 bool     `xml:"checkable,attr"`
	Checked                   bool     `xml:"checked,attr"`
	Clickable                 bool     `xml:"clickable,attr"`
	Enabled                   bool     `xml:"enabled,attr"`
	Focusable                 bool     `xml:"focusable,attr"`
	ImportantForAccessibility bool     `xml:"importantForAccessibility,attr"`
	Focused                   bool     `xml:"focused,attr"`
	A11yFocused               bool     `xml:"a11yFocused,attr"`
	Scrollable                bool     `xml:"scrollable,attr"`
	LongClickable             bool     `xml:"long-clickable,attr"`
	Password                  bool     `xml:"password,attr"`
	Selected                  bool     `xml:"selected,attr"`
	Visible                   bool     `xml:"visible,attr"`
	Invalid                   bool     `xml:"invalid,attr"`
	LiveRegion                int      `xml:"liveRegion,attr"`
	DrawingOrder              int      `xml:"drawingOrder,attr"`
	ActionList                string   `xml:"actionList,attr"`
	NAF                       bool     `xml:"NAF,attr,omitempty"`
	Bounds                    string   `xml:"bounds,attr"`
	Children                  []Record `xml:"node"`
}

// Hierarchy is the document root of a tree dump.
type Hierarchy struct {
	XMLName xml.Name `xml:"hierarchy"`
	Nodes   []Record `xml:"node"`
}

// BuildHierarchy converts the tree rooted at root. A nil root yields an
// empty hierarchy.
func BuildHierarchy(root *model.Node) Hierarchy {
	var h Hierarchy
	if root != nil {
		h.Nodes = []Record{BuildRecord(root, 0)}
	}
	return h
}

// BuildRecord converts n and its subtree in pre-order. index is n's position
// within its parent. Nil children are skipped but keep their index slot.
func BuildRecord(n *model.Node, index int) Record {
	r := Record{
		Index:                     index,
		ResourceID:                model.SanitizeXML(n.ResourceID),
		Text:                      model.SanitizeXML(n.Text),
		Class:                     model.SanitizeXML(n.ClassName),
		Package:                   model.SanitizeXML(n.Package),
		ContentDesc:               model.SanitizeXML(n.ContentDesc),
		Checkable:                 n.Checkable,
		Checked:                   n.Checked,
		Clickable:                 n.Clickable,
		Enabled:                   n.Enabled,
		Focusable:                 n.Focusable,
		ImportantForAccessibility: n.ImportantForAccessibility,
		Focused:                   n.Focused,
		A11yFocused:               n.AccessibilityFocused,
		Scrollable:                n.Scrollable,
		LongClickable:             n.LongClickable,
		Password:                  n.Password,
		Selected:                  n.Selected,
		Visible:                   n.Visible,
		Invalid:                   n.ContentInvalid,
		LiveRegion:                n.LiveRegion,
		DrawingOrder:              n.DrawingOrder,
		ActionList:                actionList(n.Actions),
		NAF:                       model.IsNAF(n),
		Bounds:                    n.Bounds.ShortString(),
	}
	for i, child := range n.Children {
		if child == nil {
			continue
		}
		r.Children = append(r.Children, BuildRecord(child, i))
	}
	return r
}

func actionList(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "-")
}

// NAFNodes returns every flagged node in pre-order.
func NAFNodes(root *model.Node) []*model.Node {
	var out []*model.Node
	model.Walk(root, func(n *model.Node, _, _ int) bool {
		if model.IsNAF(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}
