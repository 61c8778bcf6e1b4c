// Package subsection discovers numbered sub-sections that the table of
// contents omits, searching only inside each parent's own page range.
package subsection

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/specchunk/internal/doctree"
	"github.com/dgallion1/specchunk/internal/parser"
)

// Config controls the bounded search.
type Config struct {
	MaxParentLevel     int // Only entries at this depth or shallower are searched; 0 searches all.
	MaxMatchesPerEntry int // Matches beyond this per parent are dropped.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxParentLevel:     3,
		MaxMatchesPerEntry: 200,
	}
}

const (
	minTitleRunes = 3
	maxTitleRunes = 200
)

var (
	trailingRefRe = regexp.MustCompile(`\s*\.{2,}\s*\d*\s*$`)
	spaceRunRe    = regexp.MustCompile(`\s{2,}`)
)

// Searcher runs the bounded search.
type Searcher struct {
	cfg Config
	log *slog.Logger
}

// New creates a Searcher.
func New(cfg Config, log *slog.Logger) *Searcher {
	if cfg.MaxMatchesPerEntry <= 0 {
		cfg.MaxMatchesPerEntry = DefaultConfig().MaxMatchesPerEntry
	}
	if cfg.MaxParentLevel < 0 {
		cfg.MaxParentLevel = 0
	}
	return &Searcher{cfg: cfg, log: log}
}

type match struct {
	number doctree.Number
	title  string
	page   int
}

// Find returns the direct children of parent whose headings appear on
// pages parent.PageStart..parent.PageEnd, ordered by their trailing number.
// Each child ends on the page before its next sibling starts, and the last
// one ends with the parent.
func (s *Searcher) Find(src parser.PageSource, parent doctree.RangedEntry) []doctree.RangedEntry {
	prefix := parent.Number.String()
	re := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(prefix) + `\.(\d+)\.?[ \t]+(\S.*)$`)

	var found []match
	seen := make(map[string]bool)
	capped := 0
	for _, p := range src.Range(parent.PageStart, parent.PageEnd) {
		for _, line := range strings.Split(p.Text, "\n") {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			k, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			title := cleanTitle(m[2])
			if n := utf8.RuneCountInString(title); n < minTitleRunes || n > maxTitleRunes {
				continue
			}
			child := parent.Number.Child(k)
			key := child.String()
			if seen[key] {
				continue
			}
			if len(found) >= s.cfg.MaxMatchesPerEntry {
				capped++
				continue
			}
			seen[key] = true
			found = append(found, match{number: child, title: title, page: p.Number})
		}
	}
	if capped > 0 {
		s.log.Warn("subsection match cap reached",
			"parent", prefix, "kept", len(found), "dropped", capped)
	}
	if len(found) == 0 {
		return nil
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].number.Last() < found[j].number.Last()
	})
	s.logGaps(prefix, found)

	out := make([]doctree.RangedEntry, len(found))
	for i, m := range found {
		end := parent.PageEnd
		if i+1 < len(found) {
			end = found[i+1].page - 1
		}
		out[i] = doctree.RangedEntry{
			RawEntry: doctree.RawEntry{
				Number: m.number,
				Title:  m.title,
				Page:   m.page,
				Level:  m.number.Depth(),
				Source: doctree.SourceRegex,
			},
			PageStart: m.page,
			PageEnd:   min(parent.PageEnd, max(m.page, end)),
		}
	}
	return out
}

func (s *Searcher) logGaps(prefix string, found []match) {
	prev := 0
	for i, m := range found {
		cur := m.number.Last()
		if i > 0 && cur != prev+1 {
			s.log.Debug("gap in subsections", "parent", prefix, "after", prev, "next", cur)
		}
		if i > 0 && m.page < found[i-1].page {
			s.log.Debug("subsection out of page order", "number", m.number.String(), "page", m.page)
		}
		prev = cur
	}
}

// SearchAll runs Find for every eligible entry. Inferred entries are
// skipped since they have no heading of their own to anchor a range.
// Cancellation is checked between entries.
func (s *Searcher) SearchAll(ctx context.Context, src parser.PageSource, entries []doctree.RangedEntry) ([]doctree.RangedEntry, error) {
	var all []doctree.RangedEntry
	searched, withChildren := 0, 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.Source == doctree.SourceInferred {
			continue
		}
		if s.cfg.MaxParentLevel > 0 && e.Level > s.cfg.MaxParentLevel {
			continue
		}
		if e.PageStart > e.PageEnd {
			continue
		}
		searched++
		kids := s.Find(src, e)
		if len(kids) > 0 {
			withChildren++
			all = append(all, kids...)
		}
	}
	s.log.Info("bounded subsection search complete",
		"searched", searched, "with_children", withChildren, "found", len(all))
	return all, nil
}

// Merge unions discovered entries into base. Entries already in base win;
// the result is ordered by (page, number).
func Merge(base, discovered []doctree.RangedEntry) []doctree.RangedEntry {
	seen := make(map[string]bool, len(base))
	out := make([]doctree.RangedEntry, 0, len(base)+len(discovered))
	for _, e := range base {
		seen[e.Number.String()] = true
		out = append(out, e)
	}
	for _, e := range discovered {
		key := e.Number.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PageStart != out[j].PageStart {
			return out[i].PageStart < out[j].PageStart
		}
		return out[i].Number.Compare(out[j].Number) < 0
	})
	return out
}

func cleanTitle(s string) string {
	s = trailingRefRe.ReplaceAllString(s, "")
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
