// Package toc locates the table of contents in a document's front matter
// and parses its lines into section entries.
package toc

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/specchunk/internal/doctree"
	"github.com/dgallion1/specchunk/internal/parser"
)

// Config controls which pages count as table-of-contents pages.
type Config struct {
	MaxSearchPages  int // Only the first N physical pages are scanned.
	MinLeaderLines  int // A page with more dot-leader references than this is a candidate.
	MinSectionLines int // A page with more "N.N Title" lines than this is a candidate.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxSearchPages:  30,
		MinLeaderLines:  10,
		MinSectionLines: 5,
	}
}

var (
	contentsRe    = regexp.MustCompile(`(?im)^\s*(table\s+of\s+)?contents\b`)
	leaderRefRe   = regexp.MustCompile(`\.{3,}\s*\d+`)
	sectionLineRe = regexp.MustCompile(`(?m)^\s*\d+\.\d+(?:\.\d+)?\s+[A-Z]`)
)

// Extractor finds TOC pages and turns their lines into raw entries.
type Extractor struct {
	cfg Config
	log *slog.Logger
}

// New creates an Extractor. Non-positive config values fall back to defaults.
func New(cfg Config, log *slog.Logger) *Extractor {
	def := DefaultConfig()
	if cfg.MaxSearchPages <= 0 {
		cfg.MaxSearchPages = def.MaxSearchPages
	}
	if cfg.MinLeaderLines <= 0 {
		cfg.MinLeaderLines = def.MinLeaderLines
	}
	if cfg.MinSectionLines <= 0 {
		cfg.MinSectionLines = def.MinSectionLines
	}
	return &Extractor{cfg: cfg, log: log}
}

// FindPages returns the physical numbers of candidate TOC pages.
func (e *Extractor) FindPages(doc *parser.Document) []int {
	var pages []int
	for _, p := range doc.Range(1, e.cfg.MaxSearchPages) {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		header := contentsRe.MatchString(p.Text)
		leaders := len(leaderRefRe.FindAllStringIndex(p.Text, -1))
		sections := len(sectionLineRe.FindAllStringIndex(p.Text, -1))

		if header || leaders > e.cfg.MinLeaderLines || sections > e.cfg.MinSectionLines {
			pages = append(pages, p.Number)
			e.log.Debug("toc candidate page",
				"page", p.Number, "header", header, "page_refs", leaders, "sections", sections)
		}
	}
	return pages
}

// Extract locates the TOC and parses it. Entries keep TOC order; a number
// listed twice keeps its first occurrence. No TOC yields an empty slice.
func (e *Extractor) Extract(doc *parser.Document) []doctree.RawEntry {
	pages := e.FindPages(doc)
	if len(pages) == 0 {
		e.log.Warn("no table of contents found", "searched_pages", min(e.cfg.MaxSearchPages, doc.NumPages()))
		return nil
	}
	e.log.Info("toc pages located", "pages", pages)

	seen := make(map[string]bool)
	var entries []doctree.RawEntry
	suspect := 0
	for _, pn := range pages {
		text, _ := doc.Page(pn)
		for _, line := range strings.Split(text, "\n") {
			entry, ok := ParseLine(line)
			if !ok {
				continue
			}
			key := entry.Number.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			entry.TOCPage = pn
			if entry.Suspect {
				suspect++
			}
			entries = append(entries, entry)
		}
	}

	e.log.Info("toc entries extracted", "entries", len(entries), "suspect_titles", suspect)
	for _, en := range entries[:min(5, len(entries))] {
		e.log.Debug("toc entry", "number", en.Number.String(), "title", en.Title, "page", en.Page)
	}
	return entries
}

const num = `(\d+(?:\.\d+)*|[A-Z](?:\.\d+)+)\.?`

// Line forms, most specific first.
var linePatterns = []*regexp.Regexp{
	// 7.4.35 INI_TIMEOUT_AP [241] ....... 206
	regexp.MustCompile(`^` + num + `\s+(\S.*?\[[\d:]+\])\s*\.*\s*(\d+)$`),
	// 6.6.2 High-speed modes selection ....... 43
	regexp.MustCompile(`^` + num + `\s+(\S.*?)\s*\.{3,}\s*(\d+)$`),
	// 6.6.2 High-speed modes selection   43
	regexp.MustCompile(`^(\d+(?:\.\d+)+)\.?\s+(\S.*?)\s+(\d+)$`),
}

// Annex A (normative) Application notes ....... 250
var annexRe = regexp.MustCompile(`^(?i:annex|appendix)\s+([A-Z])\b[\s:.\-–—]*(.*?)\s*(?:\.{2,}|\s)\s*(\d+)$`)

var (
	leaderRunRe = regexp.MustCompile(`\s*\.{2,}\s*`)
	spaceRunRe  = regexp.MustCompile(`\s{2,}`)
)

// ParseLine parses one TOC line into an entry.
func ParseLine(line string) (doctree.RawEntry, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return doctree.RawEntry{}, false
	}

	var numStr, title, pageStr string
	matched := false
	for _, re := range linePatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			numStr, title, pageStr = m[1], m[2], m[3]
			matched = true
			break
		}
	}
	if !matched {
		m := annexRe.FindStringSubmatch(line)
		if m == nil {
			return doctree.RawEntry{}, false
		}
		numStr, title, pageStr = m[1], m[2], m[3]
	}

	n, ok := doctree.ParseNumber(numStr)
	if !ok {
		return doctree.RawEntry{}, false
	}
	page, err := strconv.Atoi(pageStr)
	if err != nil || page <= 0 {
		return doctree.RawEntry{}, false
	}

	title = cleanTitle(title)
	if matched && !strings.ContainsFunc(title, isAlnum) {
		return doctree.RawEntry{}, false
	}
	return doctree.RawEntry{
		Number:  n,
		Title:   title,
		Page:    page,
		Level:   n.Depth(),
		Source:  doctree.SourceTOC,
		Suspect: isSuspectTitle(title),
	}, true
}

func isAlnum(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

func cleanTitle(s string) string {
	s = leaderRunRe.ReplaceAllString(s, " ")
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// isSuspectTitle flags titles that are probably extraction debris.
func isSuspectTitle(s string) bool {
	if utf8.RuneCountInString(s) < 3 {
		return true
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
