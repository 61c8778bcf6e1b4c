package doctree

// Source records how a section entry was discovered.
type Source string

const (
	SourceTOC      Source = "toc"
	SourceInferred Source = "inferred"
	SourceRegex    Source = "regex"
)

// RawEntry is a section listed in (or inferred from) the table of contents,
// before page ranges are known.
type RawEntry struct {
	Number  Number
	Title   string // Empty for inferred entries until a heading is recovered
	Page    int    // Logical page where the heading first appears
	Level   int    // Number.Depth()
	Source  Source
	TOCPage int  // Physical page of the TOC line, 0 if not from the TOC
	Suspect bool // Title is digits-only or very short; kept for review
}

// RangedEntry is a RawEntry with the page range its content occupies.
type RangedEntry struct {
	RawEntry
	PageStart int
	PageEnd   int
	IsLong    bool
}

// PageBreak marks where a page's cleaned text begins within a section's Text.
type PageBreak struct {
	Offset int
	Page   int
}

// ExtractedSection is a RangedEntry with its cleaned body text.
type ExtractedSection struct {
	RangedEntry
	Text       string
	Subtitles  []string
	Pages      []int // Logical pages the text span covers
	PageBreaks []PageBreak
}

// PagesBetween returns the logical pages that contribute to Text[start:end].
func (s ExtractedSection) PagesBetween(start, end int) []int {
	if len(s.PageBreaks) == 0 {
		return append([]int(nil), s.Pages...)
	}
	var pages []int
	for i, pb := range s.PageBreaks {
		next := len(s.Text)
		if i+1 < len(s.PageBreaks) {
			next = s.PageBreaks[i+1].Offset
		}
		if pb.Offset < end && next > start {
			pages = append(pages, pb.Page)
		}
	}
	if len(pages) == 0 {
		pages = append(pages, s.PageBreaks[0].Page)
	}
	return pages
}

// Chunk is a sized text segment with full section provenance.
type Chunk struct {
	Seq           int      `json:"seq" yaml:"seq"`
	SectionNumber string   `json:"section_number" yaml:"section_number"`
	SectionTitle  string   `json:"section_title" yaml:"section_title"`
	SectionPath   string   `json:"section_path" yaml:"section_path"`
	Subtitles     []string `json:"subtitles,omitempty" yaml:"subtitles,omitempty"`
	ParentSection string   `json:"parent_section,omitempty" yaml:"parent_section,omitempty"`
	Pages         []int    `json:"pages" yaml:"pages"`
	Level         int      `json:"level" yaml:"level"`
	ChunkIndex    string   `json:"chunk_index" yaml:"chunk_index"`
	Source        Source   `json:"source" yaml:"source"`
	Text          string   `json:"text" yaml:"text"`
}
