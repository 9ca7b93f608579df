package export

import (
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/treestack/pkg/model"
)

// RobotTree is the machine-readable snapshot written by -robot-tree.
type RobotTree struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Title       string         `json:"title,omitempty"`
	Count       int            `json:"count"`
	Selected    []string       `json:"selected"`
	Document    model.Document `json:"document"`
}

// NewRobotTree summarizes the exported forest.
func NewRobotTree(nodes []model.Node, title string, opts Options) RobotTree {
	rows := Flatten(nodes, opts)
	selected := make([]string, 0)
	for _, r := range rows {
		if r.Selected {
			selected = append(selected, r.Key)
		}
	}
	return RobotTree{
		GeneratedAt: time.Now().UTC(),
		Title:       title,
		Count:       len(rows),
		Selected:    selected,
		Document:    model.NewDocument(title, prune(nodes, opts)),
	}
}

// WriteJSON writes a RobotTree as indented JSON.
func WriteJSON(w io.Writer, nodes []model.Node, title string, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewRobotTree(nodes, title, opts))
}

// prune drops the nodes Flatten would skip so the document matches the
// outline.
func prune(nodes []model.Node, opts Options) []model.Node {
	var out []model.Node
	for _, n := range nodes {
		if !opts.IncludeHidden && !n.IsVisibleComputed {
			continue
		}
		if opts.ExpandedOnly && !n.IsExpanded {
			n.Children = nil
		} else {
			n.Children = prune(n.Children, opts)
		}
		out = append(out, n)
	}
	return out
}
