package tree

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func mustActions(t *testing.T, nodes ...Node[payload]) *Actions[payload] {
	t.Helper()
	a, err := NewActions(nodes)
	if err != nil {
		t.Fatalf("NewActions failed: %v", err)
	}
	return a
}

// TestMoveBeforeSwapsSiblings covers one -> [two, three] becoming [three, two].
func TestMoveBeforeSwapsSiblings(t *testing.T) {
	a := mustActions(t, n("one", n("two"), n("three")))

	out, err := a.MoveBefore("two", "three")
	if err != nil {
		t.Fatalf("MoveBefore: %v", err)
	}
	if got := shape(out); got != "one[three two]" {
		t.Errorf("got %q, want one[three two]", got)
	}
}

// TestRemoveRootWithDescendants covers [one->[two->[four]], three] becoming [three].
func TestRemoveRootWithDescendants(t *testing.T) {
	a := mustActions(t, n("one", n("two", n("four"))), n("three"))

	out, err := a.Remove("one")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := shape(out); got != "three" {
		t.Errorf("got %q, want three", got)
	}
	for _, key := range []string{"one", "two", "four"} {
		if a.Cache().Has(key) {
			t.Errorf("%s should be gone", key)
		}
	}
}

func TestRemoveSkipsAlreadyDeletedDescendants(t *testing.T) {
	a := mustActions(t, sampleForest()...)

	out, err := a.Remove("one", "four")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := shape(out); got != "five" {
		t.Errorf("got %q", got)
	}

	if _, err := a.Remove("five", "ghost"); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
	if !a.Cache().Has("five") {
		t.Error("a failed Remove must not delete anything")
	}
}

func TestInsertVerbs(t *testing.T) {
	a := mustActions(t, n("one", n("two"), n("three")))

	if _, err := a.InsertBefore("three", n("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := a.InsertAfter("three", n("y")); err != nil {
		t.Fatal(err)
	}
	out, err := a.InsertInto("two", n("z"))
	if err != nil {
		t.Fatal(err)
	}
	if got := shape(out); got != "one[two[z] x three y]" {
		t.Errorf("got %q", got)
	}
	z, _ := Find(out, "z")
	if z.ParentKey != "two" {
		t.Errorf("z parent = %q, want two", z.ParentKey)
	}
}

func TestMoveVerbsAcrossParents(t *testing.T) {
	a := mustActions(t, n("p", n("a"), n("b")), n("q", n("c")))

	out, err := a.MoveAfter("c", "a")
	if err != nil {
		t.Fatal(err)
	}
	if got := shape(out); got != "p[b] q[c a]" {
		t.Errorf("got %q", got)
	}
	out, err = a.MoveInto("p", "c")
	if err != nil {
		t.Fatal(err)
	}
	if got := shape(out); got != "p[b c] q[a]" {
		t.Errorf("got %q", got)
	}
	moved, _ := Find(out, "c")
	if moved.ParentKey != "p" {
		t.Errorf("c parent = %q, want p", moved.ParentKey)
	}
}

func TestOnSelectionChangeReplacesSet(t *testing.T) {
	a := mustActions(t, sampleForest()...)
	a.SelectAll()

	out, err := a.OnSelectionChange("two", "five")
	if err != nil {
		t.Fatal(err)
	}
	Walk(out, func(node Node[payload], _ int) bool {
		want := node.Key == "two" || node.Key == "five"
		if node.IsSelected != want {
			t.Errorf("%s: IsSelected=%v, want %v", node.Key, node.IsSelected, want)
		}
		return true
	})
	if got := strings.Join(a.Selected(), ","); got != "two,five" {
		t.Errorf("Selected() = %s", got)
	}

	if _, err := a.OnSelectionChange("nope"); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
	if got := strings.Join(a.Selected(), ","); got != "two,five" {
		t.Errorf("failed change must keep the old selection, got %s", got)
	}

	a.UnselectAll()
	if len(a.Selected()) != 0 {
		t.Errorf("expected empty selection, got %v", a.Selected())
	}
}

func TestExpansionVerbs(t *testing.T) {
	a := mustActions(t, sampleForest()...)

	a.ExpandAll()
	if len(a.Expanded()) != 5 {
		t.Errorf("ExpandAll: %v", a.Expanded())
	}
	a.CollapseAll()
	if len(a.Expanded()) != 0 {
		t.Errorf("CollapseAll: %v", a.Expanded())
	}
	if _, err := a.OnExpandedChange("one"); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a.Expanded(), []string{"one"}) {
		t.Errorf("Expanded() = %v", a.Expanded())
	}
}

func TestVisibilityVerbs(t *testing.T) {
	a := mustActions(t, sampleForest()...)

	// four is listed but its parent two is not, so it stays hidden.
	out, err := a.OnVisibilityChange("one", "four", "five")
	if err != nil {
		t.Fatal(err)
	}
	four, _ := Find(out, "four")
	if !four.IsVisible || four.IsVisibleComputed {
		t.Errorf("four: IsVisible=%v IsVisibleComputed=%v", four.IsVisible, four.IsVisibleComputed)
	}
	if got := strings.Join(a.Hidden(), ","); got != "two,three" {
		t.Errorf("Hidden() = %s", got)
	}

	out = a.HideAll()
	Walk(out, func(node Node[payload], _ int) bool {
		if node.IsVisibleComputed {
			t.Errorf("%s should be hidden", node.Key)
		}
		return true
	})

	out = a.RevealAll()
	Walk(out, func(node Node[payload], _ int) bool {
		if !node.IsVisibleComputed {
			t.Errorf("%s should be visible", node.Key)
		}
		return true
	})
}

func TestRevealExpandsAncestors(t *testing.T) {
	a := mustActions(t, sampleForest()...)
	a.HideAll()
	a.CollapseAll()

	out, err := a.Reveal("four")
	if err != nil {
		t.Fatal(err)
	}
	four, _ := Find(out, "four")
	if !four.IsVisibleComputed {
		t.Error("four should be visible after Reveal")
	}
	if !slices.Equal(a.Expanded(), []string{"one", "two"}) {
		t.Errorf("Expanded() = %v, want [one two]", a.Expanded())
	}
	three, _ := Find(out, "three")
	if three.IsVisible {
		t.Error("Reveal must not touch unrelated nodes")
	}
}

func TestUpdateNodeAndRebuild(t *testing.T) {
	a := mustActions(t, sampleForest()...)

	out, err := a.UpdateNode("three", func(node *Node[payload]) { node.IsDisabled = true })
	if err != nil {
		t.Fatal(err)
	}
	three, _ := Find(out, "three")
	if !three.IsDisabled {
		t.Error("three should be disabled")
	}

	out, err = a.Rebuild([]Node[payload]{n("solo")})
	if err != nil {
		t.Fatal(err)
	}
	if shape(out) != "solo" || a.Cache().Len() != 1 {
		t.Errorf("rebuild did not replace the forest: %q", shape(out))
	}
}
