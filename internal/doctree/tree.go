package doctree

import (
	"sort"
	"strings"
)

// Tree is an arena of section nodes keyed by section number. Nodes refer to
// each other by index, so the tree has no pointer cycles.
type Tree struct {
	nodes []node
	index map[string]int
	roots []int
}

type node struct {
	entry    RangedEntry
	parent   int // -1 for roots
	children []int
}

// BuildTree indexes entries by number. Duplicate numbers keep the first entry.
// A node whose direct parent is absent hangs off its nearest present ancestor.
func BuildTree(entries []RangedEntry) *Tree {
	sorted := make([]RangedEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Number.Compare(sorted[j].Number) < 0
	})

	t := &Tree{index: make(map[string]int, len(sorted))}
	for _, e := range sorted {
		key := e.Number.String()
		if _, dup := t.index[key]; dup {
			continue
		}
		idx := len(t.nodes)
		t.nodes = append(t.nodes, node{entry: e, parent: -1})
		t.index[key] = idx

		ancestors := e.Number.Ancestors()
		for i := len(ancestors) - 1; i >= 0; i-- {
			if p, ok := t.index[ancestors[i].String()]; ok {
				t.nodes[idx].parent = p
				t.nodes[p].children = append(t.nodes[p].children, idx)
				break
			}
		}
		if t.nodes[idx].parent < 0 {
			t.roots = append(t.roots, idx)
		}
	}
	return t
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Lookup returns the entry for a section number.
func (t *Tree) Lookup(n Number) (RangedEntry, bool) {
	idx, ok := t.index[n.String()]
	if !ok {
		return RangedEntry{}, false
	}
	return t.nodes[idx].entry, true
}

// Children returns the direct children of n in number order.
func (t *Tree) Children(n Number) []RangedEntry {
	idx, ok := t.index[n.String()]
	if !ok {
		return nil
	}
	out := make([]RangedEntry, 0, len(t.nodes[idx].children))
	for _, c := range t.nodes[idx].children {
		out = append(out, t.nodes[c].entry)
	}
	return out
}

// Parent returns the nearest present ancestor of n.
func (t *Tree) Parent(n Number) (RangedEntry, bool) {
	idx, ok := t.index[n.String()]
	if !ok || t.nodes[idx].parent < 0 {
		return RangedEntry{}, false
	}
	return t.nodes[t.nodes[idx].parent].entry, true
}

// Ancestor returns the closest enclosing section of n that is in the tree.
// Unlike Parent, n itself need not be present.
func (t *Tree) Ancestor(n Number) (RangedEntry, bool) {
	anc := n.Ancestors()
	for i := len(anc) - 1; i >= 0; i-- {
		if e, ok := t.Lookup(anc[i]); ok {
			return e, true
		}
	}
	return RangedEntry{}, false
}

// Roots returns the top-level entries in number order.
func (t *Tree) Roots() []RangedEntry {
	out := make([]RangedEntry, 0, len(t.roots))
	for _, r := range t.roots {
		out = append(out, t.nodes[r].entry)
	}
	return out
}

// Path renders the hierarchy down to n, e.g.
// "6 Functional Description → 6.6 Bus Operations → 6.6.2 High-speed modes".
// Ancestors without a known title render as their bare number. title, when
// non-empty, overrides the title of n itself.
func (t *Tree) Path(n Number, title string) string {
	var parts []string
	for _, a := range n.Ancestors() {
		parts = append(parts, t.label(a, ""))
	}
	parts = append(parts, t.label(n, title))
	return strings.Join(parts, " → ")
}

func (t *Tree) label(n Number, override string) string {
	title := override
	if title == "" {
		if e, ok := t.Lookup(n); ok {
			title = e.Title
		}
	}
	if title == "" {
		return n.String()
	}
	return n.String() + " " + title
}
