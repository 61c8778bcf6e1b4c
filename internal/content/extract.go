// Package content cuts each section's text out of the page stream, strips
// page furniture and detects subtitles.
package content

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/specchunk/internal/doctree"
	"github.com/dgallion1/specchunk/internal/parser"
)

// Config controls extraction.
type Config struct {
	RepeatRatio      float64 // Share of pages a line must recur on to count as a running header.
	MinRepeatPages   int     // Minimum pages a running header must recur on.
	MaxSubtitles     int
	TitleSearchChars int // Prefix of the raw span searched when recovering an inferred title.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RepeatRatio:      0.5,
		MinRepeatPages:   3,
		MaxSubtitles:     5,
		TitleSearchChars: 2000,
	}
}

// Extractor produces ExtractedSections from page-ordered entries.
type Extractor struct {
	cfg Config
	log *slog.Logger
}

// New creates an Extractor. Non-positive config values fall back to defaults.
func New(cfg Config, log *slog.Logger) *Extractor {
	def := DefaultConfig()
	if cfg.RepeatRatio <= 0 || cfg.RepeatRatio > 1 {
		cfg.RepeatRatio = def.RepeatRatio
	}
	if cfg.MinRepeatPages <= 0 {
		cfg.MinRepeatPages = def.MinRepeatPages
	}
	if cfg.MaxSubtitles <= 0 {
		cfg.MaxSubtitles = def.MaxSubtitles
	}
	if cfg.TitleSearchChars <= 0 {
		cfg.TitleSearchChars = def.TitleSearchChars
	}
	return &Extractor{cfg: cfg, log: log}
}

// position is a point in the page stream. offset is a byte offset into the
// page's text and always sits at a line start.
type position struct {
	page   int
	offset int
}

func (p position) before(o position) bool {
	return p.page < o.page || (p.page == o.page && p.offset < o.offset)
}

func later(a, b position) position {
	if a.before(b) {
		return b
	}
	return a
}

// ExtractAll extracts every entry in order. entries must be ordered by
// (page, number). Each span starts at the entry's own heading and ends at
// the next entry's heading; the end of one span is where the search for the
// next begins. When a span ends at the next entry's heading, that entry
// starts exactly there, even if the heading sits before its listed page.
func (x *Extractor) ExtractAll(ctx context.Context, src parser.PageSource, entries []doctree.RangedEntry) ([]doctree.ExtractedSection, error) {
	bp := DetectBoilerplate(src.Range(1, src.LastPage()), x.cfg.RepeatRatio, x.cfg.MinRepeatPages)
	x.log.Debug("running headers detected", "lines", len(bp))
	cleaner := Cleaner{Boilerplate: bp}
	pages := newPageCache(src)

	out := make([]doctree.ExtractedSection, 0, len(entries))
	cursor := position{page: 1}
	atHeading := false
	empty, recovered := 0, 0
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var next *doctree.RangedEntry
		if i+1 < len(entries) {
			next = &entries[i+1]
		}
		sec, end, endsAtNext := x.extractOne(pages, cleaner, e, next, cursor, atHeading)
		cursor, atHeading = end, endsAtNext
		if sec.Text == "" {
			empty++
		}
		if e.Source == doctree.SourceInferred && e.Title == "" && sec.Title != "" {
			recovered++
		}
		out = append(out, sec)
	}

	x.log.Info("content extracted",
		"sections", len(out), "empty", empty, "titles_recovered", recovered)
	return out, nil
}

// extractOne returns the section for e, the position where its span ends
// and whether that position is next's heading. atHeading reports that cursor
// already sits on e's heading.
func (x *Extractor) extractOne(pages *pageCache, cleaner Cleaner, e doctree.RangedEntry, next *doctree.RangedEntry, cursor position, atHeading bool) (doctree.ExtractedSection, position, bool) {
	sec := doctree.ExtractedSection{RangedEntry: e}

	from := later(cursor, position{page: e.PageStart})
	if atHeading {
		from = cursor
	}
	start, bodyFrom, found := pages.findHeading(e.RawEntry, from, max(e.PageEnd, from.page))
	if !found {
		start, bodyFrom = from, from
	}

	end := position{page: e.PageEnd, offset: len(pages.text(e.PageEnd))}
	endsAtNext := false
	if next != nil {
		limit := max(next.PageStart, bodyFrom.page)
		if at, _, ok := pages.findHeading(next.RawEntry, bodyFrom, limit); ok {
			end, endsAtNext = at, true
		}
	}
	if end.before(start) {
		x.log.Debug("empty span", "number", e.Number.String(), "page_start", e.PageStart)
		return sec, later(cursor, start), false
	}

	raw := pages.slice(start, end)
	if e.Source == doctree.SourceInferred && e.Title == "" {
		var b strings.Builder
		for _, seg := range raw {
			b.WriteString(seg.text)
			b.WriteByte('\n')
		}
		sec.Title = RecoverTitle(b.String(), e.Number, x.cfg.TitleSearchChars)
	}

	var text strings.Builder
	for _, seg := range raw {
		cleaned := cleaner.Clean(seg.text, e.Number)
		if cleaned == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		sec.PageBreaks = append(sec.PageBreaks, doctree.PageBreak{Offset: text.Len(), Page: seg.page})
		sec.Pages = append(sec.Pages, seg.page)
		text.WriteString(cleaned)
	}
	sec.Text = text.String()
	sec.Subtitles = DetectSubtitles(sec.Text, sec.Title, x.cfg.MaxSubtitles)

	x.log.Debug("section extracted",
		"number", e.Number.String(), "chars", len(sec.Text),
		"pages", len(sec.Pages), "subtitles", len(sec.Subtitles), "heading_found", found)
	return sec, end, endsAtNext
}

type segment struct {
	page int
	text string
}

// pageCache memoises page reads for the duration of one extraction run.
type pageCache struct {
	src   parser.PageSource
	pages map[int]string
}

func newPageCache(src parser.PageSource) *pageCache {
	return &pageCache{src: src, pages: make(map[int]string)}
}

func (c *pageCache) text(n int) string {
	if t, ok := c.pages[n]; ok {
		return t
	}
	t, _ := c.src.Page(n)
	c.pages[n] = t
	return t
}

// slice returns the text between two positions, one segment per page.
func (c *pageCache) slice(from, to position) []segment {
	var out []segment
	for p := from.page; p <= to.page; p++ {
		t := c.text(p)
		lo, hi := 0, len(t)
		if p == from.page {
			lo = min(from.offset, len(t))
		}
		if p == to.page {
			hi = min(to.offset, len(t))
		}
		if lo >= hi {
			continue
		}
		out = append(out, segment{page: p, text: t[lo:hi]})
	}
	return out
}

// findHeading finds the first heading line for e at or after from, on pages
// up to lastPage. It returns the line's start and the start of the line
// after it.
func (c *pageCache) findHeading(e doctree.RawEntry, from position, lastPage int) (position, position, bool) {
	re := headingRe(e.Number, e.Title)
	for p := from.page; p <= lastPage; p++ {
		t := c.text(p)
		lo := 0
		if p == from.page {
			lo = min(from.offset, len(t))
		}
		loc := re.FindStringIndex(t[lo:])
		if loc == nil {
			continue
		}
		at := lo + loc[0]
		after := len(t)
		if nl := strings.IndexByte(t[at:], '\n'); nl >= 0 {
			after = at + nl + 1
		}
		return position{page: p, offset: at}, position{page: p, offset: after}, true
	}
	return position{}, position{}, false
}

// headingRe matches a heading line for num. With a title the first word of
// the title must follow the number; without one a capital letter must. A
// trailing dot is only allowed on dotted numbers, so list items such as
// "2. The host shall" never match section 2.
func headingRe(num doctree.Number, title string) *regexp.Regexp {
	n := regexp.QuoteMeta(num.String())
	if num.Depth() > 1 {
		n += `\.?`
	}
	if w := firstWord(title); w != "" {
		return regexp.MustCompile(`(?m)^[ \t]*` + n + `[ \t]+(?i:` + regexp.QuoteMeta(w) + `)`)
	}
	return regexp.MustCompile(`(?m)^[ \t]*` + n + `[ \t]+\p{Lu}`)
}

func firstWord(title string) string {
	f := strings.Fields(title)
	if len(f) == 0 {
		return ""
	}
	return strings.TrimRightFunc(f[0], func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
