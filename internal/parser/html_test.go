package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_PageDivs(t *testing.T) {
	input := `<html><head><title>eMMC Spec</title><style>p{}</style></head><body>
<div class="pdf-page"><p>Contents</p><p>6.6.2 High-speed modes ..... 43</p></div>
<div class="pdf-page"><h3>6.6.2 High-speed modes</h3><p>First line<br>second line</p></div>
</body></html>`

	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "spec.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "eMMC Spec" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}
	if doc.NumPages() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.NumPages())
	}
	want := "6.6.2 High-speed modes\n\nFirst line\nsecond line"
	if doc.Pages[1] != want {
		t.Errorf("expected %q, got %q", want, doc.Pages[1])
	}
}

func TestHTMLParser_HorizontalRules(t *testing.T) {
	input := `<body><p>one</p><hr><p>two</p><hr/><p>three</p></body>`
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "rules.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "rules" {
		t.Errorf("expected title %q, got %q", "rules", doc.Title)
	}
	if doc.NumPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", doc.NumPages())
	}
	if doc.Pages[2] != "three" {
		t.Errorf("expected %q, got %q", "three", doc.Pages[2])
	}
}
