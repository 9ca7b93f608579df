package model

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/treestack/pkg/tree"
)

// Item is the payload carried by every node of a document.
type Item struct {
	Kind        string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Clone creates a deep copy of the item
func (i Item) Clone() Item {
	clone := i
	if i.Tags != nil {
		clone.Tags = make([]string, len(i.Tags))
		copy(clone.Tags, i.Tags)
	}
	return clone
}

// Node is a tree node carrying an Item.
type Node = tree.Node[Item]

// DocumentVersion is the current schema version for tree documents
const DocumentVersion = 1

// Document is the on-disk form of a tree. Nodes hold a nested forest;
// Records hold a flat list linked by parent keys. Both may be present, in
// which case the records are appended after the nested roots.
type Document struct {
	Version int       `json:"version" yaml:"version"`
	Title   string    `json:"title,omitempty" yaml:"title,omitempty"`
	Nodes   []DocNode `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Records []Record  `json:"records,omitempty" yaml:"records,omitempty"`
}

// DocNode is a nested document entry. Visibility is stored inverted so
// an omitted field means visible.
type DocNode struct {
	Key         string    `json:"key" yaml:"key"`
	Label       string    `json:"label" yaml:"label"`
	Kind        string    `json:"kind,omitempty" yaml:"kind,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Disabled    bool      `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Expanded    bool      `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	Selected    bool      `json:"selected,omitempty" yaml:"selected,omitempty"`
	Hidden      bool      `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Children    []DocNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Record is a flat document entry. Parent is empty for roots.
type Record struct {
	Key         string   `json:"key" yaml:"key"`
	Label       string   `json:"label" yaml:"label"`
	Parent      string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Kind        string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Disabled    bool     `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Expanded    bool     `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	Selected    bool     `json:"selected,omitempty" yaml:"selected,omitempty"`
	Hidden      bool     `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

func (d DocNode) toNode() Node {
	n := Node{
		Key:        d.Key,
		Label:      d.Label,
		Values:     Item{Kind: d.Kind, Description: d.Description, Tags: d.Tags}.Clone(),
		IsDisabled: d.Disabled,
		IsExpanded: d.Expanded,
		IsSelected: d.Selected,
		IsVisible:  !d.Hidden,
	}
	for _, child := range d.Children {
		n.Children = append(n.Children, child.toNode())
	}
	return n
}

func (r Record) toNode() Node {
	return DocNode{
		Key:         r.Key,
		Label:       r.Label,
		Kind:        r.Kind,
		Description: r.Description,
		Tags:        r.Tags,
		Disabled:    r.Disabled,
		Expanded:    r.Expanded,
		Selected:    r.Selected,
		Hidden:      r.Hidden,
	}.toNode()
}

// FromNode converts a tree node back to its document form.
func FromNode(n Node) DocNode {
	d := DocNode{
		Key:         n.Key,
		Label:       n.Label,
		Kind:        n.Values.Kind,
		Description: n.Values.Description,
		Tags:        n.Values.Clone().Tags,
		Disabled:    n.IsDisabled,
		Expanded:    n.IsExpanded,
		Selected:    n.IsSelected,
		Hidden:      !n.IsVisible,
	}
	for _, child := range n.Children {
		d.Children = append(d.Children, FromNode(child))
	}
	return d
}

// NewDocument wraps a forest in a document using the nested layout.
func NewDocument(title string, nodes []Node) Document {
	doc := Document{Version: DocumentVersion, Title: title}
	for _, n := range nodes {
		doc.Nodes = append(doc.Nodes, FromNode(n))
	}
	return doc
}

// Forest converts the document into tree nodes. Records are linked via
// FromRecords; warnings about dangling parents are returned alongside.
func (d Document) Forest() ([]Node, []string, error) {
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	nodes := make([]Node, 0, len(d.Nodes))
	for _, dn := range d.Nodes {
		nodes = append(nodes, dn.toNode())
	}
	if len(d.Records) == 0 {
		return nodes, nil, nil
	}
	fromRecords, warnings, err := FromRecords(d.Records)
	if err != nil {
		return nil, nil, err
	}
	return append(nodes, fromRecords...), warnings, nil
}

// Validate checks if the document data is logically valid
func (d *Document) Validate() error {
	if d.Version > DocumentVersion {
		return fmt.Errorf("unsupported document version %d (max %d)", d.Version, DocumentVersion)
	}
	seen := make(map[string]bool)
	var check func(nodes []DocNode, path string) error
	check = func(nodes []DocNode, path string) error {
		for i, n := range nodes {
			where := fmt.Sprintf("%s[%d]", path, i)
			if strings.TrimSpace(n.Key) == "" {
				return fmt.Errorf("%s: key cannot be empty", where)
			}
			if seen[n.Key] {
				return fmt.Errorf("%s: duplicate key %q", where, n.Key)
			}
			seen[n.Key] = true
			if err := check(n.Children, where+".children"); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(d.Nodes, "nodes"); err != nil {
		return err
	}
	for i, r := range d.Records {
		if strings.TrimSpace(r.Key) == "" {
			return fmt.Errorf("records[%d]: key cannot be empty", i)
		}
		if seen[r.Key] {
			return fmt.Errorf("records[%d]: duplicate key %q", i, r.Key)
		}
		seen[r.Key] = true
	}
	return nil
}
