package chunker

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/dgallion1/specchunk/internal/doctree"
)

// Config controls chunking behavior.
type Config struct {
	TargetTokens int // Accumulation target when a section has to be split.
	MaxTokens    int // Sections at or under this pass through whole; no piece exceeds it.
	MinChars     int // Pieces shorter than this many characters are dropped before numbering.
	Estimate     func(string) int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TargetTokens: 350,
		MaxTokens:    800,
		Estimate:     EstimateTokens,
	}
}

// Truncator enforces the token budget on extracted sections.
type Truncator struct {
	cfg  Config
	tree *doctree.Tree
	log  *slog.Logger
}

// New creates a Truncator. tree supplies titles and hierarchy paths; it may
// be nil, in which case paths fall back to bare numbers.
func New(cfg Config, tree *doctree.Tree, log *slog.Logger) *Truncator {
	def := DefaultConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.TargetTokens <= 0 {
		cfg.TargetTokens = def.TargetTokens
	}
	if cfg.TargetTokens > cfg.MaxTokens {
		cfg.TargetTokens = cfg.MaxTokens
	}
	if cfg.Estimate == nil {
		cfg.Estimate = def.Estimate
	}
	if tree == nil {
		tree = doctree.BuildTree(nil)
	}
	return &Truncator{cfg: cfg, tree: tree, log: log}
}

// Process splits every section and returns the chunks in section order
// along with the number of pieces dropped as shorter than MinChars.
func (t *Truncator) Process(ctx context.Context, sections []doctree.ExtractedSection) ([]doctree.Chunk, int, error) {
	var chunks []doctree.Chunk
	split, dropped := 0, 0
	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		out, d := t.split(sec)
		dropped += d
		if len(out) > 1 {
			split++
			t.log.Debug("split section", "number", sec.Number.String(), "chunks", len(out))
		}
		chunks = append(chunks, out...)
	}
	t.log.Info("truncation complete",
		"sections", len(sections), "split", split, "chunks", len(chunks), "dropped", dropped)
	return chunks, dropped, nil
}

// piece is a byte range of a section's text and the section it is filed under.
type piece struct {
	span
	number doctree.Number
	title  string
	parent string
	source doctree.Source
}

// Split turns one section into chunks. A section within MaxTokens is one
// chunk. Otherwise it is cut at child headings when at least two are
// present, and anything still over budget is cut by paragraph, then
// sentence, then word, then rune. Pieces shorter than MinChars are dropped
// and the rest numbered "i/n" among themselves.
func (t *Truncator) Split(sec doctree.ExtractedSection) []doctree.Chunk {
	chunks, _ := t.split(sec)
	return chunks
}

func (t *Truncator) split(sec doctree.ExtractedSection) ([]doctree.Chunk, int) {
	if sec.Text == "" {
		return nil, 0
	}
	parent := ""
	if p, ok := t.tree.Ancestor(sec.Number); ok {
		parent = p.Number.String()
	}
	whole := piece{
		span:   span{0, len(sec.Text)},
		number: sec.Number,
		title:  sec.Title,
		parent: parent,
		source: sec.Source,
	}

	var pieces []piece
	if t.cfg.Estimate(sec.Text) <= t.cfg.MaxTokens {
		pieces = []piece{whole}
	} else {
		top := t.bySubsections(sec)
		if top == nil {
			top = []piece{whole}
		}
		for _, p := range top {
			if t.cfg.Estimate(p.text(sec.Text)) <= t.cfg.MaxTokens {
				pieces = append(pieces, p)
				continue
			}
			for _, sp := range t.splitSpan(sec.Text, p.span) {
				q := p
				q.span = sp
				pieces = append(pieces, q)
			}
		}
	}

	kept := pieces[:0]
	for _, p := range pieces {
		if utf8.RuneCountInString(p.text(sec.Text)) >= t.cfg.MinChars {
			kept = append(kept, p)
		}
	}
	dropped := len(pieces) - len(kept)
	pieces = kept

	chunks := make([]doctree.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = doctree.Chunk{
			SectionNumber: p.number.String(),
			SectionTitle:  p.title,
			SectionPath:   t.tree.Path(p.number, p.title),
			Subtitles:     sec.Subtitles,
			ParentSection: p.parent,
			Pages:         sec.PagesBetween(p.start, p.end),
			Level:         p.number.Depth(),
			ChunkIndex:    fmt.Sprintf("%d/%d", i+1, len(pieces)),
			Source:        p.source,
			Text:          p.text(sec.Text),
		}
	}
	return chunks, dropped
}

// bySubsections cuts the text at line-anchored headings of direct children
// ("6.6.2.1 ...", "6.6.2.2 ..."). It returns nil unless at least two
// distinct children are found. Text ahead of the first child heading
// becomes a piece of its own under the section's number.
func (t *Truncator) bySubsections(sec doctree.ExtractedSection) []piece {
	re := regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(sec.Number.String()) + `\.(\d+)\.?[ \t]+(\S[^\n]*)$`)
	matches := re.FindAllStringSubmatchIndex(sec.Text, -1)

	type heading struct {
		at     int
		number doctree.Number
		title  string
		source doctree.Source
	}
	var heads []heading
	seen := make(map[string]bool)
	for _, m := range matches {
		k, err := strconv.Atoi(sec.Text[m[2]:m[3]])
		if err != nil {
			continue
		}
		child := sec.Number.Child(k)
		if seen[child.String()] {
			continue
		}
		seen[child.String()] = true
		h := heading{at: m[0], number: child, title: sec.Text[m[4]:m[5]], source: doctree.SourceRegex}
		if e, ok := t.tree.Lookup(child); ok {
			h.source = e.Source
			if e.Title != "" {
				h.title = e.Title
			}
		}
		heads = append(heads, h)
	}
	if len(heads) < 2 {
		return nil
	}

	var out []piece
	parent := sec.Number.String()
	if intro := trimSpan(sec.Text, span{0, heads[0].at}); !intro.empty() {
		p := piece{span: intro, number: sec.Number, title: sec.Title, source: sec.Source}
		if pp, ok := t.tree.Ancestor(sec.Number); ok {
			p.parent = pp.Number.String()
		}
		out = append(out, p)
	}
	for i, h := range heads {
		end := len(sec.Text)
		if i+1 < len(heads) {
			end = heads[i+1].at
		}
		sp := trimSpan(sec.Text, span{h.at, end})
		if sp.empty() {
			continue
		}
		out = append(out, piece{
			span:   sp,
			number: h.number,
			title:  h.title,
			parent: parent,
			source: h.source,
		})
	}
	return out
}
