package parser

import (
	"strings"
	"testing"
)

func TestTextParser_FormFeedPages(t *testing.T) {
	input := "Cover page\fContents\n1 Scope ..... 3\f1 Scope\nBody.\f"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	if doc.NumPages() != 3 {
		t.Fatalf("expected 3 pages (trailing form feed ignored), got %d", doc.NumPages())
	}
	want := []string{"Cover page", "Contents\n1 Scope ..... 3", "1 Scope\nBody."}
	for i, w := range want {
		if doc.Pages[i] != w {
			t.Errorf("page %d: expected %q, got %q", i+1, w, doc.Pages[i])
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
	if doc.NumPages() != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", doc.NumPages())
	}
}

func TestTextParser_SinglePage(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader("Hello world\r\n"), "single.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Fatalf("expected 1 page, got %d", doc.NumPages())
	}
	if doc.Pages[0] != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", doc.Pages[0])
	}
}

func TestDocument_NormalizesLigaturesButKeepsCurlyQuotes(t *testing.T) {
	doc := NewDocument("t", []string{"ﬁeld width   \nSection 4.2 (cont’d)"})
	want := "field width\nSection 4.2 (cont’d)"
	if doc.Pages[0] != want {
		t.Errorf("expected %q, got %q", want, doc.Pages[0])
	}
}

func TestDocument_LogicalView(t *testing.T) {
	doc := NewDocument("t", []string{"cover", "toc", "p1", "p2", "p3"})
	src := doc.Logical(2)

	if got := src.LastPage(); got != 3 {
		t.Errorf("expected last logical page 3, got %d", got)
	}
	if text, ok := src.Page(1); !ok || text != "p1" {
		t.Errorf("expected logical page 1 = %q, got %q (ok=%v)", "p1", text, ok)
	}
	if _, ok := src.Page(4); ok {
		t.Error("expected logical page 4 to be out of range")
	}

	pages := src.Range(0, 10)
	if len(pages) != 4 {
		t.Fatalf("expected pages 0..3 clipped to the document, got %d", len(pages))
	}
	if pages[0].Number != 0 || pages[0].Text != "toc" {
		t.Errorf("expected logical 0 = toc, got %d %q", pages[0].Number, pages[0].Text)
	}
	if pages[3].Number != 3 || pages[3].Text != "p3" {
		t.Errorf("expected logical 3 = p3, got %d %q", pages[3].Number, pages[3].Text)
	}
}

func TestForFile_Extensions(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.TXT", "c.md", "d.htm", "e.html"} {
		if _, err := ForFile(name, Options{}); err != nil {
			t.Errorf("ForFile(%q): unexpected error: %v", name, err)
		}
	}
	if _, err := ForFile("report.docx", Options{}); err == nil {
		t.Error("expected error for .docx")
	}
}
