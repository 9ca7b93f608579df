package tree

import (
	"fmt"
	"slices"
	"testing"

	"pgregory.net/rapid"
)

// forestGen draws a forest with unique keys k0, k1, ... and random
// visibility flags.
func forestGen(t *rapid.T) []Node[payload] {
	next := 0
	var gen func(depth int) []Node[payload]
	gen = func(depth int) []Node[payload] {
		maxWidth := 4
		if depth > 3 {
			maxWidth = 0
		}
		width := rapid.IntRange(0, maxWidth).Draw(t, fmt.Sprintf("width%d", next))
		nodes := make([]Node[payload], 0, width)
		for i := 0; i < width; i++ {
			node := NewNode[payload](fmt.Sprintf("k%d", next), "")
			next++
			node.IsVisible = rapid.Bool().Draw(t, "visible")
			node.Children = gen(depth + 1)
			if len(node.Children) == 0 {
				node.Children = nil
			}
			nodes = append(nodes, node)
		}
		return nodes
	}
	nodes := gen(0)
	if len(nodes) == 0 {
		nodes = append(nodes, NewNode[payload]("root", ""))
	}
	return nodes
}

// checkInvariants asserts the flat index and the nested forest agree.
func checkInvariants(t *rapid.T, c *Cache[payload]) {
	out := c.ToTree(false)
	count := 0
	Walk(out, func(node Node[payload], _ int) bool {
		count++
		for _, child := range node.Children {
			if child.ParentKey != node.Key {
				t.Fatalf("%s: ParentKey %q, want %q", child.Key, child.ParentKey, node.Key)
			}
		}
		return true
	})
	for _, root := range out {
		if root.ParentKey != "" {
			t.Fatalf("root %s has ParentKey %q", root.Key, root.ParentKey)
		}
	}
	if count != c.Len() {
		t.Fatalf("nested forest has %d nodes, index has %d", count, c.Len())
	}

	for _, node := range c.Nodes() {
		want := node.IsVisible
		chain, err := c.Ancestors(node.Key)
		if err != nil {
			t.Fatal(err)
		}
		for _, key := range chain {
			ancestor, _ := c.Node(key)
			want = want && ancestor.IsVisible
		}
		if node.IsVisibleComputed != want {
			t.Fatalf("%s: IsVisibleComputed=%v, want %v", node.Key, node.IsVisibleComputed, want)
		}
	}
}

func TestRapidRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := forestGen(t)
		c, err := NewCache(in)
		if err != nil {
			t.Fatal(err)
		}
		if shape(c.ToTree(true)) != shape(in) {
			t.Fatalf("round trip changed shape: %q vs %q", shape(c.ToTree(true)), shape(in))
		}
		checkInvariants(t, c)
	})
}

func TestRapidStructuralEdits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c, err := NewCache(forestGen(t))
		if err != nil {
			t.Fatal(err)
		}
		fresh := 0
		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			keys := c.Keys()
			if len(keys) == 0 {
				return
			}
			key := rapid.SampledFrom(keys).Draw(t, "key")
			target := rapid.SampledFrom(keys).Draw(t, "target")
			pos := Position(rapid.IntRange(0, 2).Draw(t, "pos"))

			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				before := c.Len()
				sub, _ := c.Node(key)
				size := 0
				Walk([]Node[payload]{sub}, func(Node[payload], int) bool { size++; return true })
				if err := c.DeleteNode(key); err != nil {
					t.Fatal(err)
				}
				if c.Len() != before-size {
					t.Fatalf("delete %s removed %d nodes, want %d", key, before-c.Len(), size)
				}
			case 1:
				newKey := fmt.Sprintf("new%d", fresh)
				fresh++
				if err := c.AddNodes(target, []Node[payload]{NewNode[payload](newKey, "")}, pos); err != nil {
					t.Fatal(err)
				}
				added, _ := c.Node(newKey)
				wantParent := target
				if pos != Into {
					wantParent, _ = c.Parent(target)
				}
				if added.ParentKey != wantParent {
					t.Fatalf("added under %q, want %q", added.ParentKey, wantParent)
				}
				if pos != Into {
					ti, _ := c.Index(target)
					ni, _ := c.Index(newKey)
					if (pos == Before && ni != ti-1) || (pos == After && ni != ti+1) {
						t.Fatalf("%s %s %s: index %d next to %d", newKey, pos, target, ni, ti)
					}
				}
			case 2:
				chain, _ := c.Ancestors(target)
				err := c.MoveNodes(target, []string{key}, pos)
				if key == target || slices.Contains(chain, key) {
					if err == nil {
						t.Fatalf("moving %s %s %s should fail", key, pos, target)
					}
					continue
				}
				if err != nil {
					t.Fatal(err)
				}
				moved, _ := c.Node(key)
				wantParent := target
				if pos != Into {
					wantParent, _ = c.Parent(target)
				}
				if moved.ParentKey != wantParent {
					t.Fatalf("moved under %q, want %q", moved.ParentKey, wantParent)
				}
			case 3:
				if err := c.SetNode(key, WithVisible(rapid.Bool().Draw(t, "flag"))); err != nil {
					t.Fatal(err)
				}
			}
			checkInvariants(t, c)
		}
	})
}
