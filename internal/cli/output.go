package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dgallion1/specchunk/internal/doctree"
	"github.com/dgallion1/specchunk/internal/pipeline"
	"github.com/dgallion1/specchunk/internal/store"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for summary boxes
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// formatIngest renders the summary box for one ingested document.
func formatIngest(w io.Writer, res *pipeline.IngestResult) {
	doc := res.Document
	r := res.Result

	status := successStyle.Render("OK")
	if doc.Degraded {
		status = warnStyle.Render("DEGRADED: no table of contents found")
	}

	lines := []string{
		titleStyle.Render(doc.Title),
		fmt.Sprintf("%s %s", dimStyle.Render("Doc ID:"), doc.DocID),
		fmt.Sprintf("%s %s %s", dimStyle.Render("Protocol:"), doc.Protocol, doc.Version),
		fmt.Sprintf("%s %d  %s %d", dimStyle.Render("Pages:"), doc.TotalPages, dimStyle.Render("Chunks:"), doc.TotalChunks),
		fmt.Sprintf("%s %d toc  %d inferred  %d discovered  %d long",
			dimStyle.Render("Sections:"), r.TOCEntries, r.InferredEntries, r.DiscoveredEntries, r.LongSections),
		fmt.Sprintf("%s %d  %s", dimStyle.Render("Dropped:"), r.DroppedChunks, status),
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

func formatDocuments(w io.Writer, docs []store.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no documents"))
		return
	}
	t := newTable("DOC ID", "TITLE", "PROTOCOL", "VERSION", "PAGES", "CHUNKS", "STATUS", "UPLOADED")
	for _, d := range docs {
		t.Row(d.DocID, d.Title, d.Protocol, d.Version,
			strconv.Itoa(d.TotalPages), strconv.Itoa(d.TotalChunks),
			documentStatus(d), d.UploadedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w, t.Render())
}

func documentStatus(d store.Document) string {
	switch {
	case !d.IsActive:
		return "inactive"
	case d.Degraded:
		return "degraded"
	default:
		return "active"
	}
}

// formatChunks prints each chunk with a provenance header.
func formatChunks(w io.Writer, chunks []store.StoredChunk) {
	for _, c := range chunks {
		header := fmt.Sprintf("[%d] %s %s", c.Seq, c.SectionNumber, c.SectionTitle)
		meta := fmt.Sprintf("%s  pages %s  part %s  %s", c.SectionPath, joinInts(c.Pages), c.ChunkIndex, c.Source)
		fmt.Fprintln(w, titleStyle.Render(header))
		fmt.Fprintln(w, dimStyle.Render(meta))
		fmt.Fprintln(w, c.Text)
		fmt.Fprintln(w)
	}
}

// formatOutline prints the section list a dry run would chunk.
func formatOutline(w io.Writer, title string, res *pipeline.Result) {
	if res.Degraded {
		fmt.Fprintln(w, warnStyle.Render("no table of contents found in "+title))
		return
	}
	t := newTable("SECTION", "TITLE", "PAGES", "SOURCE", "FLAGS")
	for _, e := range res.Entries {
		t.Row(indent(e), e.Title, pageRange(e), string(e.Source), entryFlags(e))
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d toc  %d inferred  %d discovered  %d long",
		res.TOCEntries, res.InferredEntries, res.DiscoveredEntries, res.LongSections)))
}

func indent(e doctree.RangedEntry) string {
	return strings.Repeat("  ", max(e.Level-1, 0)) + e.Number.String()
}

func pageRange(e doctree.RangedEntry) string {
	if e.PageStart == e.PageEnd {
		return strconv.Itoa(e.PageStart)
	}
	return fmt.Sprintf("%d-%d", e.PageStart, e.PageEnd)
}

func entryFlags(e doctree.RangedEntry) string {
	var flags []string
	if e.IsLong {
		flags = append(flags, "long")
	}
	if e.Suspect {
		flags = append(flags, "suspect")
	}
	return strings.Join(flags, ",")
}

func joinInts(ns []int) string {
	s := make([]string, len(ns))
	for i, n := range ns {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, ",")
}
