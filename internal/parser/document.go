package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Document is a parsed file as an ordered list of physical pages.
// Page numbers are 1-based.
type Document struct {
	Title string
	Pages []string
}

// Page is one page of text with its number.
type Page struct {
	Number int
	Text   string
}

// NewDocument normalises every page to NFKC and trims trailing whitespace.
func NewDocument(title string, pages []string) *Document {
	d := &Document{Title: title, Pages: make([]string, len(pages))}
	for i, p := range pages {
		d.Pages[i] = normalizePage(p)
	}
	return d
}

// NumPages returns the physical page count.
func (d *Document) NumPages() int { return len(d.Pages) }

// Page returns the text of physical page n.
func (d *Document) Page(n int) (string, bool) {
	if n < 1 || n > len(d.Pages) {
		return "", false
	}
	return d.Pages[n-1], true
}

// Range returns physical pages a..b inclusive. Pages outside the document
// are skipped.
func (d *Document) Range(a, b int) []Page {
	if a < 1 {
		a = 1
	}
	if b > len(d.Pages) {
		b = len(d.Pages)
	}
	var out []Page
	for n := a; n <= b; n++ {
		out = append(out, Page{Number: n, Text: d.Pages[n-1]})
	}
	return out
}

// Logical returns a view that numbers pages the way the document's own
// table of contents does: logical + offset = physical.
func (d *Document) Logical(offset int) PageSource {
	return logicalView{doc: d, offset: offset}
}

// PageSource reads pages by logical number.
type PageSource interface {
	Page(n int) (string, bool)
	Range(a, b int) []Page
	LastPage() int
}

type logicalView struct {
	doc    *Document
	offset int
}

func (v logicalView) Page(n int) (string, bool) {
	return v.doc.Page(n + v.offset)
}

func (v logicalView) Range(a, b int) []Page {
	pages := v.doc.Range(a+v.offset, b+v.offset)
	for i := range pages {
		pages[i].Number -= v.offset
	}
	return pages
}

func (v logicalView) LastPage() int {
	return v.doc.NumPages() - v.offset
}

func normalizePage(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
