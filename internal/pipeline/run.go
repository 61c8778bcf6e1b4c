package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/specchunk/internal/chunker"
	"github.com/dgallion1/specchunk/internal/content"
	"github.com/dgallion1/specchunk/internal/doctree"
	"github.com/dgallion1/specchunk/internal/hierarchy"
	"github.com/dgallion1/specchunk/internal/parser"
	"github.com/dgallion1/specchunk/internal/subsection"
	"github.com/dgallion1/specchunk/internal/toc"
)

// Options tunes a single pipeline run. Zero values take the package defaults.
type Options struct {
	PageOffset    int // physical page = logical page + PageOffset
	ChunkSize     int // target tokens when splitting
	MaxChunkSize  int // token ceiling per chunk
	MinChunkSize  int // chunks shorter than this many characters are dropped
	LongThreshold int // page span above which a section is flagged long

	TOC        toc.Config
	Subsection subsection.Config
	Content    content.Config

	// Stats, when set, receives per-phase latencies.
	Stats *PhaseStats
}

// DefaultMinChunkSize is the minimum chunk length in characters.
const DefaultMinChunkSize = 50

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	cc := chunker.DefaultConfig()
	return Options{
		ChunkSize:     cc.TargetTokens,
		MaxChunkSize:  cc.MaxTokens,
		MinChunkSize:  DefaultMinChunkSize,
		LongThreshold: hierarchy.DefaultLongThreshold,
		TOC:           toc.DefaultConfig(),
		Subsection:    subsection.DefaultConfig(),
		Content:       content.DefaultConfig(),
	}
}

// Result is the output of a pipeline run.
type Result struct {
	Chunks []doctree.Chunk

	// Entries is the merged, ranged section list that drove extraction.
	Entries []doctree.RangedEntry

	TOCEntries        int
	InferredEntries   int
	DiscoveredEntries int
	LongSections      int
	EmptySections     int
	DroppedChunks     int

	// Degraded is set when no table of contents was found.
	Degraded bool
}

// Run executes the five phases in order over doc and returns the chunks.
// It only fails when ctx is cancelled; content problems degrade the result
// instead.
func Run(ctx context.Context, doc *parser.Document, opts Options, log *slog.Logger) (*Result, error) {
	opts = withDefaults(opts)
	res, err := outline(ctx, doc, opts, log)
	if err != nil || res.Degraded {
		return res, err
	}
	src := doc.Logical(opts.PageOffset)
	entries := res.Entries

	// Phase 4: content extraction.
	start := time.Now()
	sections, err := content.New(opts.Content, log).ExtractAll(ctx, src, entries)
	if err != nil {
		return nil, err
	}
	recovered := make([]doctree.RangedEntry, len(sections))
	for i, s := range sections {
		recovered[i] = s.RangedEntry
		if s.Text == "" {
			res.EmptySections++
		}
	}
	recordPhase(opts, log, "content", start, "sections", len(sections), "empty", res.EmptySections)

	// Phase 5: truncation.
	start = time.Now()
	tr := chunker.New(chunker.Config{
		TargetTokens: opts.ChunkSize,
		MaxTokens:    opts.MaxChunkSize,
		MinChars:     opts.MinChunkSize,
	}, doctree.BuildTree(recovered), log)
	chunks, dropped, err := tr.Process(ctx, sections)
	if err != nil {
		return nil, err
	}
	for i := range chunks {
		chunks[i].Seq = i
	}
	res.Chunks = chunks
	res.DroppedChunks = dropped
	recordPhase(opts, log, "truncate", start, "chunks", len(chunks), "dropped", dropped)
	return res, nil
}

// Outline runs the first three phases only and returns the merged section
// list in Result.Entries. Result.Chunks is empty.
func Outline(ctx context.Context, doc *parser.Document, opts Options, log *slog.Logger) (*Result, error) {
	return outline(ctx, doc, withDefaults(opts), log)
}

func outline(ctx context.Context, doc *parser.Document, opts Options, log *slog.Logger) (*Result, error) {
	src := doc.Logical(opts.PageOffset)
	res := &Result{}

	// Phase 1: table of contents.
	start := time.Now()
	raw := toc.New(opts.TOC, log).Extract(doc)
	res.TOCEntries = len(raw)
	recordPhase(opts, log, "toc", start, "entries", len(raw))
	if len(raw) == 0 {
		log.Warn("no table of contents, document not chunked", "title", doc.Title, "pages", doc.NumPages())
		res.Degraded = true
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 2: hierarchy.
	start = time.Now()
	ranged := hierarchy.New(opts.LongThreshold, log).Process(raw, src.LastPage())
	for _, e := range ranged {
		if e.Source == doctree.SourceInferred {
			res.InferredEntries++
		}
	}
	recordPhase(opts, log, "hierarchy", start, "entries", len(ranged), "inferred", res.InferredEntries)

	// Phase 3: bounded sub-section search.
	start = time.Now()
	found, err := subsection.New(opts.Subsection, log).SearchAll(ctx, src, ranged)
	if err != nil {
		return nil, err
	}
	entries := hierarchy.FlagLong(subsection.Merge(ranged, found), opts.LongThreshold)
	res.DiscoveredEntries = len(entries) - len(ranged)
	for _, e := range entries {
		if e.IsLong {
			res.LongSections++
		}
	}
	res.Entries = entries
	recordPhase(opts, log, "subsections", start, "discovered", res.DiscoveredEntries, "long", res.LongSections)
	return res, nil
}

func recordPhase(opts Options, log *slog.Logger, name string, start time.Time, attrs ...any) {
	d := time.Since(start)
	if opts.Stats != nil {
		opts.Stats.Record(name, d.Milliseconds())
	}
	log.Info("phase complete", append([]any{"phase", name, "duration_ms", d.Milliseconds()}, attrs...)...)
}

func withDefaults(o Options) Options {
	def := DefaultOptions()
	if o.ChunkSize <= 0 {
		o.ChunkSize = def.ChunkSize
	}
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = def.MaxChunkSize
	}
	if o.MinChunkSize <= 0 {
		o.MinChunkSize = def.MinChunkSize
	}
	if o.LongThreshold <= 0 {
		o.LongThreshold = def.LongThreshold
	}
	if o.TOC == (toc.Config{}) {
		o.TOC = def.TOC
	}
	if o.Subsection == (subsection.Config{}) {
		o.Subsection = def.Subsection
	}
	if o.Content == (content.Config{}) {
		o.Content = def.Content
	}
	return o
}
