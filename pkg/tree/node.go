package tree

// Node is a keyed, labeled entry in a forest. Values carries the caller's
// payload. ParentKey is empty for roots.
//
// IsVisibleComputed is derived by the Cache: it is true only when the node
// and every ancestor have IsVisible set. Callers never need to set it.
type Node[T any] struct {
	Key               string    `json:"key" yaml:"key"`
	Label             string    `json:"label" yaml:"label"`
	Values            T         `json:"values,omitempty" yaml:"values,omitempty"`
	IsDisabled        bool      `json:"isDisabled" yaml:"disabled"`
	IsExpanded        bool      `json:"isExpanded" yaml:"expanded"`
	IsSelected        bool      `json:"isSelected" yaml:"selected"`
	IsVisible         bool      `json:"isVisible" yaml:"visible"`
	IsVisibleComputed bool      `json:"isVisibleComputed" yaml:"-"`
	ParentKey         string    `json:"parentKey,omitempty" yaml:"-"`
	Children          []Node[T] `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewNode returns a visible, collapsed, unselected node.
// The zero Node is hidden, so prefer this when building forests by hand.
func NewNode[T any](key, label string, children ...Node[T]) Node[T] {
	return Node[T]{
		Key:       key,
		Label:     label,
		IsVisible: true,
		Children:  children,
	}
}

// HasChildren reports whether the node has nested children.
func (n Node[T]) HasChildren() bool {
	return len(n.Children) > 0
}

// Walk visits every node of the forest in depth-first pre-order.
// Returning false from fn skips the node's children.
func Walk[T any](nodes []Node[T], fn func(n Node[T], depth int) bool) {
	var walk func(nodes []Node[T], depth int)
	walk = func(nodes []Node[T], depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(nodes, 0)
}

// Find returns the node with the given key from a nested forest.
func Find[T any](nodes []Node[T], key string) (Node[T], bool) {
	for _, n := range nodes {
		if n.Key == key {
			return n, true
		}
		if found, ok := Find(n.Children, key); ok {
			return found, true
		}
	}
	return Node[T]{}, false
}

// Patch describes a property update. Nil fields are left untouched.
type Patch struct {
	Label      *string
	IsDisabled *bool
	IsExpanded *bool
	IsSelected *bool
	IsVisible  *bool
}

// WithLabel returns a patch that renames a node.
func WithLabel(label string) Patch { return Patch{Label: &label} }

// WithDisabled returns a patch that sets IsDisabled.
func WithDisabled(v bool) Patch { return Patch{IsDisabled: &v} }

// WithExpanded returns a patch that sets IsExpanded.
func WithExpanded(v bool) Patch { return Patch{IsExpanded: &v} }

// WithSelected returns a patch that sets IsSelected.
func WithSelected(v bool) Patch { return Patch{IsSelected: &v} }

// WithVisible returns a patch that sets IsVisible.
func WithVisible(v bool) Patch { return Patch{IsVisible: &v} }

// Merge combines two patches; fields set in o win.
func (p Patch) Merge(o Patch) Patch {
	if o.Label != nil {
		p.Label = o.Label
	}
	if o.IsDisabled != nil {
		p.IsDisabled = o.IsDisabled
	}
	if o.IsExpanded != nil {
		p.IsExpanded = o.IsExpanded
	}
	if o.IsSelected != nil {
		p.IsSelected = o.IsSelected
	}
	if o.IsVisible != nil {
		p.IsVisible = o.IsVisible
	}
	return p
}

func applyPatch[T any](p Patch, n *Node[T]) {
	if p.Label != nil {
		n.Label = *p.Label
	}
	if p.IsDisabled != nil {
		n.IsDisabled = *p.IsDisabled
	}
	if p.IsExpanded != nil {
		n.IsExpanded = *p.IsExpanded
	}
	if p.IsSelected != nil {
		n.IsSelected = *p.IsSelected
	}
	if p.IsVisible != nil {
		n.IsVisible = *p.IsVisible
	}
}
