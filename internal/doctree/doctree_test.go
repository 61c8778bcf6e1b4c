package doctree

import (
	"reflect"
	"sort"
	"testing"
)

func TestParseNumber_Valid(t *testing.T) {
	cases := map[string]Number{
		"6":       {Parts: []int{6}},
		"6.6.2.3": {Parts: []int{6, 6, 2, 3}},
		"10.10.":  {Parts: []int{10, 10}},
		"A":       {Letter: "A"},
		"B.2.1":   {Letter: "B", Parts: []int{2, 1}},
	}
	for in, want := range cases {
		got, ok := ParseNumber(in)
		if !ok {
			t.Errorf("ParseNumber(%q): expected ok", in)
			continue
		}
		if got.String() != want.String() {
			t.Errorf("ParseNumber(%q): expected %q, got %q", in, want.String(), got.String())
		}
	}
}

func TestParseNumber_Invalid(t *testing.T) {
	for _, in := range []string{"", ".", "6..2", "x.1", "AB.1", "6.-1", "6.+1"} {
		if _, ok := ParseNumber(in); ok {
			t.Errorf("ParseNumber(%q): expected failure", in)
		}
	}
}

func TestNumber_DepthAndParent(t *testing.T) {
	n := MustParseNumber("6.6.2.3")
	if n.Depth() != 4 {
		t.Errorf("expected depth 4, got %d", n.Depth())
	}
	p, ok := n.Parent()
	if !ok || p.String() != "6.6.2" {
		t.Errorf("expected parent 6.6.2, got %q (ok=%v)", p.String(), ok)
	}
	if _, ok := MustParseNumber("6").Parent(); ok {
		t.Error("expected top-level number to have no parent")
	}
	if p, ok := MustParseNumber("A.2").Parent(); !ok || p.String() != "A" {
		t.Errorf("expected appendix parent A, got %q", p.String())
	}
}

func TestNumber_Ancestors(t *testing.T) {
	var got []string
	for _, a := range MustParseNumber("5.3.1").Ancestors() {
		got = append(got, a.String())
	}
	want := []string{"5", "5.3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNumber_CompareIsNumericNotLexical(t *testing.T) {
	in := []string{"10.1", "2.10", "2.9", "A.1", "2", "1.1", "B", "2.9.1"}
	nums := make([]Number, len(in))
	for i, s := range in {
		nums[i] = MustParseNumber(s)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i].Compare(nums[j]) < 0 })

	var got []string
	for _, n := range nums {
		got = append(got, n.String())
	}
	want := []string{"1.1", "2", "2.9", "2.9.1", "2.10", "10.1", "A.1", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNumber_ChildAndDescendant(t *testing.T) {
	p := MustParseNumber("6.6.2")
	c := p.Child(3)
	if c.String() != "6.6.2.3" {
		t.Errorf("expected 6.6.2.3, got %q", c.String())
	}
	if len(p.Parts) != 3 {
		t.Errorf("Child must not mutate the receiver, got %v", p.Parts)
	}
	if !c.IsChildOf(p) {
		t.Error("expected 6.6.2.3 to be a child of 6.6.2")
	}
	if !c.IsDescendantOf(MustParseNumber("6")) {
		t.Error("expected 6.6.2.3 to descend from 6")
	}
	if MustParseNumber("6.6.20").IsDescendantOf(p) {
		t.Error("6.6.20 must not descend from 6.6.2")
	}
}

func ranged(num, title string, start, end int) RangedEntry {
	n := MustParseNumber(num)
	return RangedEntry{
		RawEntry:  RawEntry{Number: n, Title: title, Page: start, Level: n.Depth(), Source: SourceTOC},
		PageStart: start,
		PageEnd:   end,
	}
}

func TestTree_ChildrenAndPath(t *testing.T) {
	tree := BuildTree([]RangedEntry{
		ranged("6.6.2", "High-speed modes selection", 43, 47),
		ranged("6", "Functional Description", 30, 30),
		ranged("6.6", "Bus Operations", 31, 42),
		ranged("6.6.1", "General", 31, 42),
	})

	kids := tree.Children(MustParseNumber("6.6"))
	if len(kids) != 2 {
		t.Fatalf("expected 2 children of 6.6, got %d", len(kids))
	}
	if kids[0].Number.String() != "6.6.1" || kids[1].Number.String() != "6.6.2" {
		t.Errorf("expected children in number order, got %s, %s", kids[0].Number, kids[1].Number)
	}

	want := "6 Functional Description → 6.6 Bus Operations → 6.6.2 High-speed modes selection"
	if got := tree.Path(MustParseNumber("6.6.2"), ""); got != want {
		t.Errorf("expected path %q, got %q", want, got)
	}
}

func TestTree_MissingAncestorAttachesToNearest(t *testing.T) {
	tree := BuildTree([]RangedEntry{
		ranged("7", "Device Register", 100, 100),
		ranged("7.3.1", "CSD_STRUCTURE", 120, 121),
	})
	p, ok := tree.Parent(MustParseNumber("7.3.1"))
	if !ok || p.Number.String() != "7" {
		t.Fatalf("expected nearest ancestor 7, got %q (ok=%v)", p.Number.String(), ok)
	}
	if got := tree.Path(MustParseNumber("7.3.1"), ""); got != "7 Device Register → 7.3 → 7.3.1 CSD_STRUCTURE" {
		t.Errorf("unexpected path %q", got)
	}
	if len(tree.Roots()) != 1 {
		t.Errorf("expected 1 root, got %d", len(tree.Roots()))
	}
}

func TestExtractedSection_PagesBetween(t *testing.T) {
	s := ExtractedSection{
		Text: "aaaa\n\nbbbb\n\ncccc",
		PageBreaks: []PageBreak{
			{Offset: 0, Page: 10},
			{Offset: 6, Page: 11},
			{Offset: 12, Page: 12},
		},
	}
	if got := s.PagesBetween(0, 4); !reflect.DeepEqual(got, []int{10}) {
		t.Errorf("expected [10], got %v", got)
	}
	if got := s.PagesBetween(2, 14); !reflect.DeepEqual(got, []int{10, 11, 12}) {
		t.Errorf("expected [10 11 12], got %v", got)
	}
}

func TestTree_AncestorOfAbsentNumber(t *testing.T) {
	tree := BuildTree([]RangedEntry{ranged("6.6", "Bus Operations", 31, 42)})
	a, ok := tree.Ancestor(MustParseNumber("6.6.2.3"))
	if !ok || a.Number.String() != "6.6" {
		t.Fatalf("expected ancestor 6.6, got %q (ok=%v)", a.Number.String(), ok)
	}
	if _, ok := tree.Ancestor(MustParseNumber("7.1")); ok {
		t.Error("expected no ancestor for 7.1")
	}
}
