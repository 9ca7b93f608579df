package tree

import (
	"fmt"
	"slices"
)

// Actions wraps a Cache with the verbs a tree view needs. Every method
// mutates the cache and returns the freshly serialized forest, which the
// caller stores as its current tree.
type Actions[T any] struct {
	cache *Cache[T]
}

// NewActions builds the cache for nodes.
func NewActions[T any](nodes []Node[T]) (*Actions[T], error) {
	c, err := NewCache(nodes)
	if err != nil {
		return nil, err
	}
	return &Actions[T]{cache: c}, nil
}

// Cache exposes the underlying index for read access.
func (a *Actions[T]) Cache() *Cache[T] {
	return a.cache
}

// Tree returns the current forest.
func (a *Actions[T]) Tree() []Node[T] {
	return a.cache.ToTree(true)
}

// Rebuild replaces the whole forest, e.g. after the source data changed.
func (a *Actions[T]) Rebuild(nodes []Node[T]) ([]Node[T], error) {
	if err := a.cache.Rebuild(nodes); err != nil {
		return nil, err
	}
	return a.Tree(), nil
}

func (a *Actions[T]) result(err error) ([]Node[T], error) {
	if err != nil {
		return nil, err
	}
	return a.Tree(), nil
}

// InsertBefore inserts nodes as previous siblings of target.
func (a *Actions[T]) InsertBefore(target string, nodes ...Node[T]) ([]Node[T], error) {
	return a.result(a.cache.AddNodes(target, nodes, Before))
}

// InsertAfter inserts nodes as next siblings of target.
func (a *Actions[T]) InsertAfter(target string, nodes ...Node[T]) ([]Node[T], error) {
	return a.result(a.cache.AddNodes(target, nodes, After))
}

// InsertInto appends nodes to target's children.
func (a *Actions[T]) InsertInto(target string, nodes ...Node[T]) ([]Node[T], error) {
	return a.result(a.cache.AddNodes(target, nodes, Into))
}

// MoveBefore moves keys so they end up directly before target.
func (a *Actions[T]) MoveBefore(target string, keys ...string) ([]Node[T], error) {
	return a.result(a.cache.MoveNodes(target, keys, Before))
}

// MoveAfter moves keys so they end up directly after target.
func (a *Actions[T]) MoveAfter(target string, keys ...string) ([]Node[T], error) {
	return a.result(a.cache.MoveNodes(target, keys, After))
}

// MoveInto moves keys to the end of target's children.
func (a *Actions[T]) MoveInto(target string, keys ...string) ([]Node[T], error) {
	return a.result(a.cache.MoveNodes(target, keys, Into))
}

// Remove deletes keys and their descendants. Keys that were already
// removed as a descendant of an earlier key are skipped.
func (a *Actions[T]) Remove(keys ...string) ([]Node[T], error) {
	if err := a.require(keys); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if !a.cache.Has(key) {
			continue
		}
		if err := a.cache.DeleteNode(key); err != nil {
			return nil, err
		}
	}
	return a.Tree(), nil
}

// UpdateNode edits the node's properties through fn.
func (a *Actions[T]) UpdateNode(key string, fn func(n *Node[T])) ([]Node[T], error) {
	return a.result(a.cache.UpdateNode(key, fn))
}

// require checks all keys exist before anything is mutated.
func (a *Actions[T]) require(keys []string) error {
	for _, key := range keys {
		if !a.cache.Has(key) {
			return fmt.Errorf("%w: %q", ErrNodeNotFound, key)
		}
	}
	return nil
}

// replaceSet resets every node with off, then applies on to keys.
func (a *Actions[T]) replaceSet(keys []string, off, on Patch) ([]Node[T], error) {
	if err := a.require(keys); err != nil {
		return nil, err
	}
	a.cache.SetAllNodes(off)
	for _, key := range keys {
		if err := a.cache.SetNode(key, on); err != nil {
			return nil, err
		}
	}
	return a.Tree(), nil
}

// OnSelectionChange makes exactly keys selected.
func (a *Actions[T]) OnSelectionChange(keys ...string) ([]Node[T], error) {
	return a.replaceSet(keys, WithSelected(false), WithSelected(true))
}

// SelectAll selects every node.
func (a *Actions[T]) SelectAll() []Node[T] {
	a.cache.SetAllNodes(WithSelected(true))
	return a.Tree()
}

// UnselectAll clears the selection.
func (a *Actions[T]) UnselectAll() []Node[T] {
	a.cache.SetAllNodes(WithSelected(false))
	return a.Tree()
}

// OnExpandedChange makes exactly keys expanded.
func (a *Actions[T]) OnExpandedChange(keys ...string) ([]Node[T], error) {
	return a.replaceSet(keys, WithExpanded(false), WithExpanded(true))
}

// ExpandAll expands every node.
func (a *Actions[T]) ExpandAll() []Node[T] {
	a.cache.SetAllNodes(WithExpanded(true))
	return a.Tree()
}

// CollapseAll collapses every node.
func (a *Actions[T]) CollapseAll() []Node[T] {
	a.cache.SetAllNodes(WithExpanded(false))
	return a.Tree()
}

// OnVisibilityChange makes exactly keys visible. Descendants of a hidden
// node stay hidden in IsVisibleComputed even when listed.
func (a *Actions[T]) OnVisibilityChange(keys ...string) ([]Node[T], error) {
	return a.replaceSet(keys, WithVisible(false), WithVisible(true))
}

// RevealAll marks every node visible.
func (a *Actions[T]) RevealAll() []Node[T] {
	a.cache.SetAllNodes(WithVisible(true))
	return a.Tree()
}

// HideAll marks every node hidden.
func (a *Actions[T]) HideAll() []Node[T] {
	a.cache.SetAllNodes(WithVisible(false))
	return a.Tree()
}

// Reveal makes key reachable: its ancestors are expanded, and the node
// and its ancestors are marked visible.
func (a *Actions[T]) Reveal(key string) ([]Node[T], error) {
	chain, err := a.cache.Ancestors(key)
	if err != nil {
		return nil, err
	}
	for _, ancestor := range chain {
		if err := a.cache.SetNode(ancestor, WithExpanded(true).Merge(WithVisible(true))); err != nil {
			return nil, err
		}
	}
	return a.result(a.cache.SetNode(key, WithVisible(true)))
}

// Selected returns the selected keys in tree order.
func (a *Actions[T]) Selected() []string {
	return a.keysWhere(func(n Node[T]) bool { return n.IsSelected })
}

// Expanded returns the expanded keys in tree order.
func (a *Actions[T]) Expanded() []string {
	return a.keysWhere(func(n Node[T]) bool { return n.IsExpanded })
}

// Hidden returns the keys whose own IsVisible flag is off.
func (a *Actions[T]) Hidden() []string {
	return a.keysWhere(func(n Node[T]) bool { return !n.IsVisible })
}

func (a *Actions[T]) keysWhere(pred func(n Node[T]) bool) []string {
	var keys []string
	for _, n := range a.cache.Nodes() {
		if pred(n) {
			keys = append(keys, n.Key)
		}
	}
	return slices.Clip(keys)
}
