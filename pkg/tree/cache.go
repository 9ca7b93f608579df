// Package tree provides an in-memory editor for keyed forests.
//
// A Cache keeps two views of the same data: the nested []Node form callers
// hand in and read back, and a flat lookup (key -> node plus ordered child
// keys, and an ordered root list) that structural edits operate on. The
// flat form is always derived; Rebuild throws it away and starts over.
//
// Every mutation recomputes IsVisibleComputed top-down from the roots, so a
// hidden ancestor hides its whole subtree regardless of the descendants'
// own flags.
//
// Referencing a key that does not exist is a caller bug. It is reported as
// an error wrapping ErrNodeNotFound and the cache is left untouched.
package tree

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNodeNotFound is returned when an operation references an unknown key.
	ErrNodeNotFound = errors.New("node not found")
	// ErrDuplicateKey is returned when a key is already present in the forest.
	ErrDuplicateKey = errors.New("duplicate node key")
	// ErrEmptyKey is returned for nodes without a key.
	ErrEmptyKey = errors.New("node key cannot be empty")
	// ErrInvalidMove is returned when a node would become its own ancestor.
	ErrInvalidMove = errors.New("invalid move")
)

// Position says where new or moved nodes land relative to a target key.
type Position int

const (
	Before Position = iota // previous sibling of the target
	After                  // next sibling of the target
	Into                   // last child of the target
)

func (p Position) String() string {
	switch p {
	case Before:
		return "before"
	case After:
		return "after"
	case Into:
		return "into"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// entry is a node without its nested children plus the ordered child keys.
type entry[T any] struct {
	node     Node[T]
	children []string
}

// Cache is the flat index over a forest. It is not safe for concurrent use;
// one owner (a view model, an Actions value) mutates it.
type Cache[T any] struct {
	lookup map[string]*entry[T]
	roots  []string
}

// NewCache builds a cache from a nested forest.
func NewCache[T any](nodes []Node[T]) (*Cache[T], error) {
	c := &Cache[T]{}
	if err := c.Rebuild(nodes); err != nil {
		return nil, err
	}
	return c, nil
}

// Rebuild discards the current index and flattens nodes into it.
// On error the cache is left empty.
func (c *Cache[T]) Rebuild(nodes []Node[T]) error {
	c.lookup = make(map[string]*entry[T])
	c.roots = nil

	seen := make(map[string]bool)
	for _, n := range nodes {
		if err := c.checkKeys(n, seen); err != nil {
			c.lookup = make(map[string]*entry[T])
			return err
		}
	}
	for _, n := range nodes {
		c.flatten(n, "")
		c.roots = append(c.roots, n.Key)
	}
	c.deriveVisibility()
	return nil
}

// checkKeys verifies a subtree has non-empty keys that are unique both
// within seen and against the current index.
func (c *Cache[T]) checkKeys(n Node[T], seen map[string]bool) error {
	if n.Key == "" {
		return fmt.Errorf("%w (label %q)", ErrEmptyKey, n.Label)
	}
	if _, exists := c.lookup[n.Key]; exists || seen[n.Key] {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, n.Key)
	}
	seen[n.Key] = true
	for _, child := range n.Children {
		if err := c.checkKeys(child, seen); err != nil {
			return err
		}
	}
	return nil
}

// flatten stores a validated subtree in the lookup.
func (c *Cache[T]) flatten(n Node[T], parentKey string) {
	e := &entry[T]{node: n}
	e.node.ParentKey = parentKey
	e.node.Children = nil
	c.lookup[n.Key] = e
	for _, child := range n.Children {
		c.flatten(child, n.Key)
		e.children = append(e.children, child.Key)
	}
}

func (c *Cache[T]) entry(key string) (*entry[T], error) {
	e, ok := c.lookup[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, key)
	}
	return e, nil
}

// Len returns the number of nodes in the cache.
func (c *Cache[T]) Len() int {
	return len(c.lookup)
}

// Has reports whether key is present.
func (c *Cache[T]) Has(key string) bool {
	_, ok := c.lookup[key]
	return ok
}

// Node returns the nested subtree rooted at key.
func (c *Cache[T]) Node(key string) (Node[T], error) {
	e, err := c.entry(key)
	if err != nil {
		return Node[T]{}, err
	}
	return c.build(e), nil
}

func (c *Cache[T]) build(e *entry[T]) Node[T] {
	n := e.node
	if len(e.children) > 0 {
		n.Children = make([]Node[T], 0, len(e.children))
		for _, key := range e.children {
			n.Children = append(n.Children, c.build(c.lookup[key]))
		}
	}
	return n
}

// Keys returns every key in depth-first pre-order.
func (c *Cache[T]) Keys() []string {
	keys := make([]string, 0, len(c.lookup))
	c.walk(func(e *entry[T]) { keys = append(keys, e.node.Key) })
	return keys
}

// Nodes returns every node, without nested children, in depth-first
// pre-order.
func (c *Cache[T]) Nodes() []Node[T] {
	nodes := make([]Node[T], 0, len(c.lookup))
	c.walk(func(e *entry[T]) { nodes = append(nodes, e.node) })
	return nodes
}

func (c *Cache[T]) walk(fn func(e *entry[T])) {
	var visit func(keys []string)
	visit = func(keys []string) {
		for _, key := range keys {
			e := c.lookup[key]
			fn(e)
			visit(e.children)
		}
	}
	visit(c.roots)
}

// Roots returns the ordered root keys.
func (c *Cache[T]) Roots() []string {
	return slices.Clone(c.roots)
}

// Children returns the ordered child keys of key. An empty key returns
// the roots.
func (c *Cache[T]) Children(key string) ([]string, error) {
	if key == "" {
		return c.Roots(), nil
	}
	e, err := c.entry(key)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.children), nil
}

// Parent returns the parent key of key, empty for roots.
func (c *Cache[T]) Parent(key string) (string, error) {
	e, err := c.entry(key)
	if err != nil {
		return "", err
	}
	return e.node.ParentKey, nil
}

// Index returns the position of key among its siblings.
func (c *Cache[T]) Index(key string) (int, error) {
	e, err := c.entry(key)
	if err != nil {
		return -1, err
	}
	return slices.Index(c.siblings(e.node.ParentKey), key), nil
}

// Ancestors returns the keys from the root down to key's parent.
func (c *Cache[T]) Ancestors(key string) ([]string, error) {
	e, err := c.entry(key)
	if err != nil {
		return nil, err
	}
	var chain []string
	for p := e.node.ParentKey; p != ""; p = c.lookup[p].node.ParentKey {
		chain = append(chain, p)
	}
	slices.Reverse(chain)
	return chain, nil
}

// isAncestor reports whether ancestor is key itself or above it.
func (c *Cache[T]) isAncestor(ancestor, key string) bool {
	for k := key; k != ""; k = c.lookup[k].node.ParentKey {
		if k == ancestor {
			return true
		}
	}
	return false
}

// siblings returns the live child list for parentKey (roots when empty).
func (c *Cache[T]) siblings(parentKey string) []string {
	if parentKey == "" {
		return c.roots
	}
	return c.lookup[parentKey].children
}

func (c *Cache[T]) setSiblings(parentKey string, keys []string) {
	if parentKey == "" {
		c.roots = keys
		return
	}
	c.lookup[parentKey].children = keys
}

// SetNode applies a patch to a single node.
func (c *Cache[T]) SetNode(key string, patch Patch) error {
	e, err := c.entry(key)
	if err != nil {
		return err
	}
	applyPatch(patch, &e.node)
	if patch.IsVisible != nil {
		c.deriveVisibility()
	}
	return nil
}

// SetAllNodes applies a patch to every node.
func (c *Cache[T]) SetAllNodes(patch Patch) {
	for _, e := range c.lookup {
		applyPatch(patch, &e.node)
	}
	if patch.IsVisible != nil {
		c.deriveVisibility()
	}
}

// UpdateNode lets fn edit a copy of the node. Structural fields (Key,
// ParentKey, Children) are restored afterwards; use the move and insert
// operations to change structure.
func (c *Cache[T]) UpdateNode(key string, fn func(n *Node[T])) error {
	e, err := c.entry(key)
	if err != nil {
		return err
	}
	n := e.node
	fn(&n)
	n.Key = e.node.Key
	n.ParentKey = e.node.ParentKey
	n.Children = nil
	e.node = n
	c.deriveVisibility()
	return nil
}

// DeleteNode removes key and all of its descendants.
func (c *Cache[T]) DeleteNode(key string) error {
	e, err := c.entry(key)
	if err != nil {
		return err
	}
	c.deleteDescendants(e)
	c.detach(key)
	delete(c.lookup, key)
	return nil
}

func (c *Cache[T]) deleteDescendants(e *entry[T]) {
	for _, child := range e.children {
		c.deleteDescendants(c.lookup[child])
		delete(c.lookup, child)
	}
	e.children = nil
}

// detach unlinks key from its parent's child list (or the roots) without
// removing it from the lookup.
func (c *Cache[T]) detach(key string) {
	parent := c.lookup[key].node.ParentKey
	siblings := c.siblings(parent)
	if i := slices.Index(siblings, key); i >= 0 {
		c.setSiblings(parent, slices.Delete(siblings, i, i+1))
	}
}

// attach links an already indexed key under parentKey at index, clamped
// to the sibling range.
func (c *Cache[T]) attach(parentKey, key string, index int) {
	siblings := c.siblings(parentKey)
	index = max(0, min(index, len(siblings)))
	c.setSiblings(parentKey, slices.Insert(siblings, index, key))
	c.lookup[key].node.ParentKey = parentKey
}

// parentOrSibling resolves a Before/After position to a parent key and a
// sibling index. An empty target means the start or end of the roots.
func (c *Cache[T]) parentOrSibling(target string, pos Position) (string, int, error) {
	if target == "" {
		if pos == Before {
			return "", 0, nil
		}
		return "", len(c.roots), nil
	}
	e, err := c.entry(target)
	if err != nil {
		return "", 0, err
	}
	parent := e.node.ParentKey
	index := slices.Index(c.siblings(parent), target)
	if pos == After {
		index++
	}
	return parent, index, nil
}

// resolve maps (target, pos) to the parent and index new children go to.
func (c *Cache[T]) resolve(target string, pos Position) (string, int, error) {
	if pos != Into {
		return c.parentOrSibling(target, pos)
	}
	if target == "" {
		return "", len(c.roots), nil
	}
	e, err := c.entry(target)
	if err != nil {
		return "", 0, err
	}
	return target, len(e.children), nil
}

// InsertNode adds a new subtree under parentKey (roots when empty) at index.
func (c *Cache[T]) InsertNode(parentKey string, node Node[T], index int) error {
	if parentKey != "" {
		if _, err := c.entry(parentKey); err != nil {
			return err
		}
	}
	if err := c.checkKeys(node, make(map[string]bool)); err != nil {
		return err
	}
	c.flatten(node, parentKey)
	c.attach(parentKey, node.Key, index)
	c.deriveVisibility()
	return nil
}

// AddNodes inserts new subtrees relative to target, keeping their order.
func (c *Cache[T]) AddNodes(target string, nodes []Node[T], pos Position) error {
	parent, index, err := c.resolve(target, pos)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, n := range nodes {
		if err := c.checkKeys(n, seen); err != nil {
			return err
		}
	}
	for i, n := range nodes {
		c.flatten(n, parent)
		c.attach(parent, n.Key, index+i)
	}
	c.deriveVisibility()
	return nil
}

// MoveNode detaches key and reattaches it under parentKey at index. The
// index is interpreted after the node has been detached.
func (c *Cache[T]) MoveNode(parentKey, key string, index int) error {
	if _, err := c.entry(key); err != nil {
		return err
	}
	if parentKey != "" {
		if _, err := c.entry(parentKey); err != nil {
			return err
		}
		if c.isAncestor(key, parentKey) {
			return fmt.Errorf("%w: %q into its own subtree", ErrInvalidMove, key)
		}
	}
	c.detach(key)
	c.attach(parentKey, key, index)
	c.deriveVisibility()
	return nil
}

// MoveNodes relocates keys relative to target, in the order given.
// Duplicate keys are ignored, as are keys whose ancestor is also being
// moved, so subtrees stay intact. The target may not be one of the moved
// nodes or lie inside one of their subtrees.
func (c *Cache[T]) MoveNodes(target string, keys []string, pos Position) error {
	if target != "" {
		if _, err := c.entry(target); err != nil {
			return err
		}
	}
	var moving []string
	for _, key := range keys {
		if _, err := c.entry(key); err != nil {
			return err
		}
		if slices.Contains(moving, key) {
			continue
		}
		if target != "" && c.isAncestor(key, target) {
			return fmt.Errorf("%w: %q %s %q", ErrInvalidMove, key, pos, target)
		}
		moving = append(moving, key)
	}
	// a descendant travels with its moved ancestor
	roots := make([]string, 0, len(moving))
	for _, key := range moving {
		if !slices.ContainsFunc(moving, func(other string) bool {
			return other != key && c.isAncestor(other, key)
		}) {
			roots = append(roots, key)
		}
	}
	moving = roots

	for _, key := range moving {
		c.detach(key)
	}
	parent, index, err := c.resolve(target, pos)
	if err != nil {
		return err
	}
	for i, key := range moving {
		c.attach(parent, key, index+i)
	}
	c.deriveVisibility()
	return nil
}

// ToTree serializes the cache back into a nested forest.
func (c *Cache[T]) ToTree(deriveVisible bool) []Node[T] {
	if deriveVisible {
		c.deriveVisibility()
	}
	nodes := make([]Node[T], 0, len(c.roots))
	for _, key := range c.roots {
		nodes = append(nodes, c.build(c.lookup[key]))
	}
	return nodes
}

// deriveVisibility recomputes IsVisibleComputed from the roots down.
func (c *Cache[T]) deriveVisibility() {
	for _, key := range c.roots {
		c.traverse(key, true)
	}
}

func (c *Cache[T]) traverse(key string, parentVisible bool) {
	e := c.lookup[key]
	e.node.IsVisibleComputed = parentVisible && e.node.IsVisible
	for _, child := range e.children {
		c.traverse(child, e.node.IsVisibleComputed)
	}
}
