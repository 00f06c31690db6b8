package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mj1618/a11y-probe/internal/model"
	"github.com/mj1618/a11y-probe/internal/navigate"
	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// Stdout is where Print writes.
var Stdout io.Writer = os.Stdout

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatYAML, FormatJSON:
		return Format(s), nil
	case "":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported output format: %q (expected yaml or json)", s)
}

// NodeSummary is the compact form of a node used in command output.
type NodeSummary struct {
	Ref         string `yaml:"ref"                    json:"ref"`
	Class       string `yaml:"class,omitempty"        json:"class,omitempty"`
	ResourceID  string `yaml:"resource_id,omitempty"  json:"resource_id,omitempty"`
	Text        string `yaml:"text,omitempty"         json:"text,omitempty"`
	ContentDesc string `yaml:"content_desc,omitempty" json:"content_desc,omitempty"`
	Bounds      string `yaml:"bounds"                 json:"bounds"`
	Heading     bool   `yaml:"heading,omitempty"      json:"heading,omitempty"`
}

// Summarize returns the summary of n, or nil for a nil node.
func Summarize(n *model.Node) *NodeSummary {
	if n == nil {
		return nil
	}
	return &NodeSummary{
		Ref:         n.Ref,
		Class:       n.ClassName,
		ResourceID:  n.ResourceID,
		Text:        n.Text,
		ContentDesc: n.ContentDesc,
		Bounds:      n.Bounds.ShortString(),
		Heading:     n.Heading,
	}
}

// TreeEntry is one row of a flattened tree listing.
type TreeEntry struct {
	Depth       int `yaml:"depth" json:"depth"`
	NodeSummary `yaml:",inline"`
	NAF         bool `yaml:"naf,omitempty" json:"naf,omitempty"`
}

// FlattenTree lists the tree rooted at root in pre-order, marking nodes that
// are not accessibility friendly.
func FlattenTree(root *model.Node) []TreeEntry {
	var entries []TreeEntry
	model.Walk(root, func(n *model.Node, depth, _ int) bool {
		entries = append(entries, TreeEntry{Depth: depth, NodeSummary: *Summarize(n), NAF: model.IsNAF(n)})
		return true
	})
	return entries
}

// FocusResult is the output of the `focus` command.
type FocusResult struct {
	Moved     bool         `yaml:"moved"              json:"moved"`
	Performed bool         `yaml:"performed"          json:"performed"`
	Previous  *NodeSummary `yaml:"previous,omitempty" json:"previous,omitempty"`
	Selected  *NodeSummary `yaml:"selected,omitempty" json:"selected,omitempty"`
}

// NewFocusResult converts a navigation result for printing.
func NewFocusResult(r navigate.Result) FocusResult {
	return FocusResult{
		Moved:     r.Moved,
		Performed: r.Performed,
		Previous:  Summarize(r.Previous),
		Selected:  Summarize(r.Selected),
	}
}

// Print serializes v to Stdout in the current output format.
func Print(v interface{}) error {
	data, err := Marshal(v, OutputFormat, PrettyOutput)
	if err != nil {
		return err
	}
	_, err = Stdout.Write(data)
	return err
}

// Marshal serializes v in format. Compact JSON is a single line.
func Marshal(v interface{}, format Format, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		if pretty {
			enc.SetIndent("", "  ")
		}
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("json encode: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("yaml encode: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("yaml encode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return buf.Bytes(), nil
}

// YAML serializes v as YAML text, the form MCP tool results use.
func YAML(v interface{}) (string, error) {
	data, err := Marshal(v, FormatYAML, false)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
