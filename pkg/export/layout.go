// Package export renders a tree forest to Markdown, JSON, SVG and PNG.
package export

import (
	"github.com/vanderheijden86/treestack/pkg/model"
)

// Options controls which nodes are exported.
type Options struct {
	// IncludeHidden exports nodes whose computed visibility is off
	IncludeHidden bool
	// ExpandedOnly stops at collapsed nodes, mirroring the TUI
	ExpandedOnly bool
}

// Row is one line of an exported outline.
type Row struct {
	Key      string
	Label    string
	Kind     string
	Depth    int
	Last     bool   // last among its exported siblings
	Guides   []bool // per ancestor depth: true when a vertical guide continues
	Selected bool
	Disabled bool
	Hidden   bool
	Node     model.Node
}

// Flatten lays the forest out as pre-order rows. Nodes must carry
// IsVisibleComputed, as returned by Cache.ToTree(true).
func Flatten(nodes []model.Node, opts Options) []Row {
	var rows []Row
	var walk func(nodes []model.Node, depth int, guides []bool)
	walk = func(nodes []model.Node, depth int, guides []bool) {
		kept := make([]model.Node, 0, len(nodes))
		for _, n := range nodes {
			if opts.IncludeHidden || n.IsVisibleComputed {
				kept = append(kept, n)
			}
		}
		for i, n := range kept {
			last := i == len(kept)-1
			rows = append(rows, Row{
				Key:      n.Key,
				Label:    labelOf(n),
				Kind:     n.Values.Kind,
				Depth:    depth,
				Last:     last,
				Guides:   append([]bool(nil), guides...),
				Selected: n.IsSelected,
				Disabled: n.IsDisabled,
				Hidden:   !n.IsVisibleComputed,
				Node:     n,
			})
			if opts.ExpandedOnly && !n.IsExpanded {
				continue
			}
			walk(n.Children, depth+1, append(guides, !last))
		}
	}
	walk(nodes, 0, nil)
	return rows
}

func labelOf(n model.Node) string {
	if n.Label != "" {
		return n.Label
	}
	return n.Key
}

// Prefix returns the box-drawing prefix for a row, e.g. "│   ├── ".
func (r Row) Prefix() string {
	if r.Depth == 0 {
		return ""
	}
	var s string
	for _, cont := range r.Guides[1:] {
		if cont {
			s += "│   "
		} else {
			s += "    "
		}
	}
	if r.Last {
		return s + "└── "
	}
	return s + "├── "
}
