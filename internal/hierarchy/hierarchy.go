// Package hierarchy orders TOC entries, fills in missing parents, and
// assigns each entry the page range its content occupies.
package hierarchy

import (
	"log/slog"
	"sort"

	"github.com/dgallion1/specchunk/internal/doctree"
)

// DefaultLongThreshold is the page span above which a section is long.
const DefaultLongThreshold = 10

// Sort returns entries in numeric section order ("2.9" before "2.10").
func Sort(entries []doctree.RawEntry) []doctree.RawEntry {
	out := make([]doctree.RawEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Number.Compare(out[j].Number) < 0
	})
	return out
}

// InferParents adds an entry for every ancestor number that is referenced by
// a descendant but absent from the list. An inferred entry has no title and
// starts on the earliest page of its descendants. The result is sorted.
func InferParents(entries []doctree.RawEntry) []doctree.RawEntry {
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		present[e.Number.String()] = true
	}

	inferred := make(map[string]*doctree.RawEntry)
	var order []string
	for _, e := range entries {
		for _, a := range e.Number.Ancestors() {
			key := a.String()
			if present[key] {
				continue
			}
			if p, ok := inferred[key]; ok {
				if e.Page < p.Page {
					p.Page = e.Page
				}
				continue
			}
			inferred[key] = &doctree.RawEntry{
				Number: a,
				Page:   e.Page,
				Level:  a.Depth(),
				Source: doctree.SourceInferred,
			}
			order = append(order, key)
		}
	}

	out := make([]doctree.RawEntry, 0, len(entries)+len(order))
	out = append(out, entries...)
	for _, key := range order {
		out = append(out, *inferred[key])
	}
	return Sort(out)
}

// ComputeRanges orders entries by (page, number) and ends each one on the
// page before the next entry starts, never before its own start page. The
// final entry runs to lastPage.
func ComputeRanges(entries []doctree.RawEntry, lastPage int) []doctree.RangedEntry {
	sorted := make([]doctree.RawEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Page != sorted[j].Page {
			return sorted[i].Page < sorted[j].Page
		}
		return sorted[i].Number.Compare(sorted[j].Number) < 0
	})

	out := make([]doctree.RangedEntry, len(sorted))
	for i, e := range sorted {
		end := lastPage
		if i+1 < len(sorted) {
			end = sorted[i+1].Page - 1
		}
		out[i] = doctree.RangedEntry{
			RawEntry:  e,
			PageStart: e.Page,
			PageEnd:   max(e.Page, end),
		}
	}
	return out
}

// FlagLong marks entries whose span PageEnd-PageStart exceeds threshold.
func FlagLong(entries []doctree.RangedEntry, threshold int) []doctree.RangedEntry {
	out := make([]doctree.RangedEntry, len(entries))
	for i, e := range entries {
		e.IsLong = e.PageEnd-e.PageStart > threshold
		out[i] = e
	}
	return out
}

// Preprocessor runs the four steps in order.
type Preprocessor struct {
	threshold int
	log       *slog.Logger
}

// New creates a Preprocessor. A non-positive threshold uses the default.
func New(threshold int, log *slog.Logger) *Preprocessor {
	if threshold <= 0 {
		threshold = DefaultLongThreshold
	}
	return &Preprocessor{threshold: threshold, log: log}
}

// Process sorts, infers parents, computes page ranges against the document's
// last logical page and flags long sections.
func (p *Preprocessor) Process(entries []doctree.RawEntry, lastPage int) []doctree.RangedEntry {
	sorted := Sort(entries)
	withParents := InferParents(sorted)
	ranged := FlagLong(ComputeRanges(withParents, lastPage), p.threshold)

	long := 0
	for _, e := range ranged {
		if e.IsLong {
			long++
			p.log.Debug("long section", "number", e.Number.String(),
				"page_start", e.PageStart, "page_end", e.PageEnd)
		}
		if e.PageStart > lastPage {
			p.log.Warn("section starts beyond document end",
				"number", e.Number.String(), "page", e.PageStart, "last_page", lastPage)
		}
	}
	p.log.Info("hierarchy preprocessed",
		"entries", len(ranged),
		"inferred", len(withParents)-len(sorted),
		"long", long)
	return ranged
}
