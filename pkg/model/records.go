package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// CycleError reports parent links that loop back on themselves.
type CycleError struct {
	Cycles [][]string // Keys of each strongly connected cycle
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		parts[i] = strings.Join(c, " -> ")
	}
	return fmt.Sprintf("parent cycle: %s", strings.Join(parts, "; "))
}

// FromRecords links flat records into a forest. Children keep the order
// in which they appear in records.
//
// A record whose parent does not exist becomes a root rather than
// disappearing; a warning is returned for each. Parent cycles are an
// error since they have no root to hang from.
func FromRecords(records []Record) ([]Node, []string, error) {
	ids := make(map[string]int64, len(records))
	for i, r := range records {
		if _, dup := ids[r.Key]; dup {
			return nil, nil, fmt.Errorf("records[%d]: duplicate key %q", i, r.Key)
		}
		ids[r.Key] = int64(i)
	}

	g := simple.NewDirectedGraph()
	for i := range records {
		g.AddNode(simple.Node(int64(i)))
	}

	var warnings []string
	children := make(map[string][]int)
	var roots []int
	for i, r := range records {
		if r.Parent == "" {
			roots = append(roots, i)
			continue
		}
		if r.Parent == r.Key {
			return nil, nil, &CycleError{Cycles: [][]string{{r.Key, r.Key}}}
		}
		parentID, ok := ids[r.Parent]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: parent %q not found, treating as root", r.Key, r.Parent))
			roots = append(roots, i)
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(parentID), simple.Node(int64(i))))
		children[r.Parent] = append(children[r.Parent], i)
	}

	if _, err := topo.Sort(g); err != nil {
		var unorderable topo.Unorderable
		if errors.As(err, &unorderable) {
			return nil, nil, &CycleError{Cycles: cycleKeys(records, unorderable)}
		}
		return nil, nil, err
	}

	var build func(i int) Node
	build = func(i int) Node {
		n := records[i].toNode()
		for _, c := range children[records[i].Key] {
			n.Children = append(n.Children, build(c))
		}
		return n
	}
	nodes := make([]Node, 0, len(roots))
	for _, i := range roots {
		nodes = append(nodes, build(i))
	}
	return nodes, warnings, nil
}

func cycleKeys(records []Record, sccs topo.Unorderable) [][]string {
	out := make([][]string, 0, len(sccs))
	for _, scc := range sccs {
		keys := make([]string, 0, len(scc))
		for _, n := range scc {
			keys = append(keys, records[n.ID()].Key)
		}
		sort.Strings(keys)
		out = append(out, keys)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// ToRecords flattens a forest into records in depth-first pre-order.
func ToRecords(nodes []Node) []Record {
	var out []Record
	var walk func(nodes []Node, parent string)
	walk = func(nodes []Node, parent string) {
		for _, n := range nodes {
			d := FromNode(Node{
				Key: n.Key, Label: n.Label, Values: n.Values,
				IsDisabled: n.IsDisabled, IsExpanded: n.IsExpanded,
				IsSelected: n.IsSelected, IsVisible: n.IsVisible,
			})
			out = append(out, Record{
				Key: d.Key, Label: d.Label, Parent: parent,
				Kind: d.Kind, Description: d.Description, Tags: d.Tags,
				Disabled: d.Disabled, Expanded: d.Expanded,
				Selected: d.Selected, Hidden: d.Hidden,
			})
			walk(n.Children, n.Key)
		}
	}
	walk(nodes, "")
	return out
}
