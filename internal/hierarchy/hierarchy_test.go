package hierarchy

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dgallion1/specchunk/internal/doctree"
)

func raw(num, title string, page int) doctree.RawEntry {
	n := doctree.MustParseNumber(num)
	return doctree.RawEntry{Number: n, Title: title, Page: page, Level: n.Depth(), Source: doctree.SourceTOC}
}

func numbers(entries []doctree.RawEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Number.String()
	}
	return out
}

func TestSort_NumericOrder(t *testing.T) {
	got := numbers(Sort([]doctree.RawEntry{
		raw("2.10", "b", 20), raw("2.9", "a", 19), raw("10", "c", 90), raw("2", "d", 10),
	}))
	want := []string{"2", "2.9", "2.10", "10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

// 5.3.1-5.3.3 listed without 5.3 or 5: both parents are synthesised and
// start on the earliest child page.
func TestInferParents_MissingChain(t *testing.T) {
	entries := []doctree.RawEntry{
		raw("5.3.2", "Second", 22),
		raw("5.3.1", "First", 21),
		raw("5.3.3", "Third", 24),
	}
	got := InferParents(entries)

	if len(got) != 5 {
		t.Fatalf("expected 5 entries, got %d: %v", len(got), numbers(got))
	}
	for i, want := range []string{"5", "5.3", "5.3.1", "5.3.2", "5.3.3"} {
		if got[i].Number.String() != want {
			t.Fatalf("entry %d: expected %s, got %s", i, want, got[i].Number.String())
		}
	}
	for _, e := range got[:2] {
		if e.Source != doctree.SourceInferred {
			t.Errorf("%s: expected inferred source, got %s", e.Number, e.Source)
		}
		if e.Page != 21 {
			t.Errorf("%s: expected page 21, got %d", e.Number, e.Page)
		}
		if e.Title != "" {
			t.Errorf("%s: expected empty title, got %q", e.Number, e.Title)
		}
	}
	if got[1].Level != 2 {
		t.Errorf("expected level 2 for 5.3, got %d", got[1].Level)
	}
}

func TestInferParents_KeepsExisting(t *testing.T) {
	got := InferParents([]doctree.RawEntry{raw("4", "Real", 10), raw("4.1", "Child", 11)})
	if len(got) != 2 {
		t.Fatalf("expected no inference, got %v", numbers(got))
	}
	if got[0].Source != doctree.SourceTOC {
		t.Errorf("expected original entry kept, got %s", got[0].Source)
	}
}

func TestComputeRanges_Bounds(t *testing.T) {
	got := ComputeRanges([]doctree.RawEntry{
		raw("6.6.3", "Next", 48),
		raw("6.6.2", "High-speed", 43),
		raw("6.6", "Bus", 43),
		raw("7", "Last", 60),
	}, 352)

	want := []struct {
		num        string
		start, end int
	}{
		{"6.6", 43, 43},
		{"6.6.2", 43, 47},
		{"6.6.3", 48, 59},
		{"7", 60, 352},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, w := range want {
		g := got[i]
		if g.Number.String() != w.num || g.PageStart != w.start || g.PageEnd != w.end {
			t.Errorf("entry %d: expected %s %d-%d, got %s %d-%d",
				i, w.num, w.start, w.end, g.Number, g.PageStart, g.PageEnd)
		}
	}
}

func TestComputeRanges_NonOverlapping(t *testing.T) {
	got := ComputeRanges([]doctree.RawEntry{
		raw("1", "a", 3), raw("2", "b", 9), raw("3", "c", 9), raw("4", "d", 15),
	}, 20)
	for i := 1; i < len(got); i++ {
		if got[i-1].PageStart > got[i].PageStart {
			t.Errorf("entries out of page order at %d", i)
		}
		if got[i-1].PageEnd > got[i].PageStart && got[i-1].PageStart != got[i].PageStart {
			t.Errorf("%s ends at %d after %s starts at %d",
				got[i-1].Number, got[i-1].PageEnd, got[i].Number, got[i].PageStart)
		}
	}
}

func TestFlagLong_Threshold(t *testing.T) {
	in := []doctree.RangedEntry{
		{RawEntry: raw("1", "a", 1), PageStart: 1, PageEnd: 11},
		{RawEntry: raw("2", "b", 12), PageStart: 12, PageEnd: 23},
	}
	got := FlagLong(in, 10)
	if got[0].IsLong {
		t.Error("expected span of exactly 10 not to be long")
	}
	if !got[1].IsLong {
		t.Error("expected span of 11 to be long")
	}
	if in[1].IsLong {
		t.Error("FlagLong must not mutate its input")
	}
}

func TestProcess_EndToEnd(t *testing.T) {
	p := New(0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	got := p.Process([]doctree.RawEntry{
		raw("5.3.3", "Third", 24),
		raw("5.3.1", "First", 21),
		raw("5.3.2", "Second", 22),
		raw("6", "Next chapter", 40),
	}, 80)

	if len(got) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(got))
	}
	// Page order, with parents ahead of their first child on the same page.
	want := []string{"5", "5.3", "5.3.1", "5.3.2", "5.3.3", "6"}
	for i, w := range want {
		if got[i].Number.String() != w {
			t.Errorf("entry %d: expected %s, got %s", i, w, got[i].Number)
		}
	}
	if got[4].PageEnd != 39 {
		t.Errorf("expected 5.3.3 to end on 39, got %d", got[4].PageEnd)
	}
	if !got[4].IsLong {
		t.Error("expected 5.3.3 (24-39) to be long")
	}
	if got[5].PageEnd != 80 {
		t.Errorf("expected last entry to end at document end, got %d", got[5].PageEnd)
	}
}
