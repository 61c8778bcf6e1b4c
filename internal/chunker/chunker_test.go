package chunker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/specchunk/internal/doctree"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func section(num, title, text string) doctree.ExtractedSection {
	n := doctree.MustParseNumber(num)
	return doctree.ExtractedSection{
		RangedEntry: doctree.RangedEntry{
			RawEntry:  doctree.RawEntry{Number: n, Title: title, Page: 43, Level: n.Depth(), Source: doctree.SourceTOC},
			PageStart: 43,
			PageEnd:   47,
		},
		Text:       text,
		Pages:      []int{43},
		PageBreaks: []doctree.PageBreak{{Offset: 0, Page: 43}},
	}
}

// body returns roughly n characters of sentence text.
func body(n int) string {
	const s = "The host issues a switch command to change the timing interface. "
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(s)
	}
	return strings.TrimSpace(b.String()[:n])
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("expected 0 for empty text, got %d", got)
	}
	if got := EstimateTokens("ab"); got != 1 {
		t.Errorf("expected minimum of 1, got %d", got)
	}
	if got := EstimateTokens(strings.Repeat("x", 3200)); got != 800 {
		t.Errorf("expected 800, got %d", got)
	}
	if got := EstimateTokens(strings.Repeat("é", 400)); got != 100 {
		t.Errorf("expected runes not bytes to be counted, got %d", got)
	}
}

func TestSplit_SmallSectionPassesThrough(t *testing.T) {
	tree := doctree.BuildTree([]doctree.RangedEntry{
		section("6", "Functional Description", "").RangedEntry,
		section("6.6", "Bus Operations", "").RangedEntry,
	})
	tr := New(Config{TargetTokens: 350, MaxTokens: 800}, tree, testLogger())

	sec := section("6.6.2", "High-speed modes selection", body(1000))
	sec.Subtitles = []string{"HS400"}
	chunks := tr.Split(sec)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.ChunkIndex != "1/1" {
		t.Errorf("expected chunk index 1/1, got %q", c.ChunkIndex)
	}
	if c.Text != sec.Text {
		t.Error("expected text unchanged")
	}
	if c.ParentSection != "6.6" {
		t.Errorf("expected parent 6.6, got %q", c.ParentSection)
	}
	want := "6 Functional Description → 6.6 Bus Operations → 6.6.2 High-speed modes selection"
	if c.SectionPath != want {
		t.Errorf("expected path %q, got %q", want, c.SectionPath)
	}
	if c.Level != 3 || c.Source != doctree.SourceTOC {
		t.Errorf("expected level 3 from toc, got %d from %s", c.Level, c.Source)
	}
	if !reflect.DeepEqual(c.Subtitles, []string{"HS400"}) {
		t.Errorf("expected subtitles inherited, got %v", c.Subtitles)
	}
}

// A 3,200-character section (~800 tokens) with three child headings and a
// 350-token cap becomes exactly three chunks, one per child.
func TestSplit_BySubsections(t *testing.T) {
	var parts []string
	titles := []string{"HS200 mode selection", "HS400 mode selection", "Enhanced strobe"}
	for i, title := range titles {
		heading := fmt.Sprintf("6.6.2.%d %s", i+1, title)
		parts = append(parts, heading+"\n"+body(1066-len(heading)-1))
	}
	text := strings.Join(parts, "\n\n")
	if len(text) < 3190 || len(text) > 3210 {
		t.Fatalf("fixture should be about 3200 chars, got %d", len(text))
	}

	tr := New(Config{TargetTokens: 350, MaxTokens: 350}, nil, testLogger())
	chunks := tr.Split(section("6.6.2", "High-speed modes selection", text))

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		wantNum := fmt.Sprintf("6.6.2.%d", i+1)
		if c.SectionNumber != wantNum {
			t.Errorf("chunk %d: expected section %s, got %s", i, wantNum, c.SectionNumber)
		}
		if c.ParentSection != "6.6.2" {
			t.Errorf("chunk %d: expected parent 6.6.2, got %q", i, c.ParentSection)
		}
		if c.SectionTitle != titles[i] {
			t.Errorf("chunk %d: expected title %q, got %q", i, titles[i], c.SectionTitle)
		}
		if c.ChunkIndex != fmt.Sprintf("%d/3", i+1) {
			t.Errorf("chunk %d: expected index %d/3, got %q", i, i+1, c.ChunkIndex)
		}
		if c.Level != 4 {
			t.Errorf("chunk %d: expected level 4, got %d", i, c.Level)
		}
		if !strings.HasPrefix(c.Text, wantNum+" ") {
			t.Errorf("chunk %d: expected text to start at its heading, got %q", i, c.Text[:20])
		}
	}
}

func TestSplit_IntroBecomesOwnPiece(t *testing.T) {
	text := body(400) + "\n\n7.3.1 CSD structure\n" + body(900) + "\n\n7.3.2 Spec version\n" + body(900)
	tr := New(Config{TargetTokens: 300, MaxTokens: 300}, nil, testLogger())
	chunks := tr.Split(section("7.3", "CSD Register", text))

	if len(chunks) != 3 {
		t.Fatalf("expected intro plus 2 children, got %d", len(chunks))
	}
	if chunks[0].SectionNumber != "7.3" || chunks[0].SectionTitle != "CSD Register" {
		t.Errorf("expected intro filed under 7.3, got %s %q", chunks[0].SectionNumber, chunks[0].SectionTitle)
	}
	if chunks[1].SectionNumber != "7.3.1" || chunks[2].SectionNumber != "7.3.2" {
		t.Errorf("expected children 7.3.1, 7.3.2, got %s, %s", chunks[1].SectionNumber, chunks[2].SectionNumber)
	}
}

func TestSplit_OneChildHeadingFallsBackToParagraphs(t *testing.T) {
	text := body(600) + "\n\n7.3.1 Only child\n" + body(600) + "\n\n" + body(600)
	tr := New(Config{TargetTokens: 200, MaxTokens: 300}, nil, testLogger())
	for _, c := range tr.Split(section("7.3", "CSD Register", text)) {
		if c.SectionNumber != "7.3" {
			t.Errorf("expected every piece under 7.3, got %s", c.SectionNumber)
		}
	}
}

func TestSplit_BudgetHoldsForAwkwardText(t *testing.T) {
	text := strings.Join([]string{
		body(300),
		body(5000),                    // one paragraph far over budget
		strings.Repeat("word ", 900),  // no sentence ends
		strings.Repeat("0xDEADBEEF", 600), // no whitespace at all
		body(100),
	}, "\n\n")

	cfg := Config{TargetTokens: 200, MaxTokens: 250}
	tr := New(cfg, nil, testLogger())
	chunks := tr.Split(section("9", "Registers", text))

	if len(chunks) < 10 {
		t.Fatalf("expected many chunks, got %d", len(chunks))
	}
	limit := float64(cfg.MaxTokens) * 1.05
	for i, c := range chunks {
		if got := EstimateTokens(c.Text); float64(got) > limit {
			t.Errorf("chunk %d: %d tokens over budget %d", i, got, cfg.MaxTokens)
		}
		if strings.TrimSpace(c.Text) != c.Text || c.Text == "" {
			t.Errorf("chunk %d: expected trimmed non-empty text", i)
		}
		if want := fmt.Sprintf("%d/%d", i+1, len(chunks)); c.ChunkIndex != want {
			t.Errorf("chunk %d: expected index %s, got %s", i, want, c.ChunkIndex)
		}
	}
}

func TestSplit_NoTextLost(t *testing.T) {
	text := body(2000) + "\n\n" + body(3000) + "\n\n" + body(500)
	chunks := New(Config{TargetTokens: 150, MaxTokens: 200}, nil, testLogger()).Split(section("4", "Scope", text))

	var words int
	for _, c := range chunks {
		words += len(strings.Fields(c.Text))
	}
	if want := len(strings.Fields(text)); words != want {
		t.Errorf("expected %d words across chunks, got %d", want, words)
	}
}

func TestSplit_PagesFollowText(t *testing.T) {
	p1 := body(900)
	p2 := body(900)
	text := p1 + "\n\n" + p2
	sec := section("6.6.2", "High-speed modes selection", text)
	sec.Pages = []int{43, 44}
	sec.PageBreaks = []doctree.PageBreak{{Offset: 0, Page: 43}, {Offset: len(p1) + 2, Page: 44}}

	chunks := New(Config{TargetTokens: 250, MaxTokens: 300}, nil, testLogger()).Split(sec)
	if len(chunks) < 2 {
		t.Fatalf("expected a split, got %d chunks", len(chunks))
	}
	if !reflect.DeepEqual(chunks[0].Pages, []int{43}) {
		t.Errorf("expected first chunk on page 43, got %v", chunks[0].Pages)
	}
	if last := chunks[len(chunks)-1]; !reflect.DeepEqual(last.Pages, []int{44}) {
		t.Errorf("expected last chunk on page 44, got %v", last.Pages)
	}
}

func TestSplit_CustomEstimator(t *testing.T) {
	words := func(s string) int { return len(strings.Fields(s)) }
	tr := New(Config{TargetTokens: 50, MaxTokens: 60, Estimate: words}, nil, testLogger())
	chunks := tr.Split(section("3", "Terms", body(3000)))
	for i, c := range chunks {
		if n := words(c.Text); n > 60 {
			t.Errorf("chunk %d: %d words over the custom budget", i, n)
		}
	}
}

func TestProcess_Deterministic(t *testing.T) {
	secs := []doctree.ExtractedSection{
		section("1", "Scope", body(5000)),
		section("2", "References", body(200)),
	}
	tr := New(DefaultConfig(), nil, testLogger())
	a, _, err := tr.Process(context.Background(), secs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _, _ := tr.Process(context.Background(), secs)
	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical chunks for identical input")
	}
	if len(a) < 3 {
		t.Errorf("expected the 5000-char section to split, got %d chunks total", len(a))
	}
}

func TestSplit_DroppedPiecesAreNotNumbered(t *testing.T) {
	tree := doctree.BuildTree([]doctree.RangedEntry{section("6.6.2", "High-speed modes selection", "").RangedEntry})
	text := strings.Join([]string{
		"Intro.",
		"6.6.2.1 HS200 mode selection",
		body(1500),
		"6.6.2.2 HS400 mode selection",
		body(1500),
	}, "\n")
	tr := New(Config{TargetTokens: 400, MaxTokens: 500, MinChars: 50}, tree, testLogger())

	chunks, dropped, err := tr.Process(context.Background(), []doctree.ExtractedSection{section("6.6.2", "High-speed modes selection", text)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dropped != 1 {
		t.Errorf("expected the short intro dropped, got %d dropped", dropped)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if want := fmt.Sprintf("%d/2", i+1); c.ChunkIndex != want {
			t.Errorf("chunk %d: expected index %s, got %s", i, want, c.ChunkIndex)
		}
	}
}
