package parser

import (
	"io"
	"strings"
)

// TextParser handles plain text files. Pages are separated by form feeds,
// the convention used by pdftotext and most text exports of paged documents.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewDocument(baseTitle(filename), splitPages(string(src))), nil
}

// splitPages splits on form feeds. A trailing form feed does not start an
// empty final page.
func splitPages(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}
