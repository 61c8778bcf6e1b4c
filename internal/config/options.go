package config

import (
	"github.com/dgallion1/specchunk/internal/parser"
	"github.com/dgallion1/specchunk/internal/pipeline"
	"github.com/dgallion1/specchunk/internal/toc"
)

// PipelineOptions returns the chunking defaults this configuration asks for.
func (c Config) PipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.PageOffset = c.PageOffset
	opts.ChunkSize = c.ChunkSize
	opts.MaxChunkSize = c.MaxChunkSize
	opts.MinChunkSize = c.MinChunkSize
	opts.LongThreshold = c.LongPageThreshold
	if c.TOCMaxSearchPages > 0 {
		opts.TOC = toc.DefaultConfig()
		opts.TOC.MaxSearchPages = c.TOCMaxSearchPages
	}
	return opts
}

// ParserOptions returns the document parser settings.
func (c Config) ParserOptions() parser.Options {
	return parser.Options{FallbackPdftotext: c.PDFFallbackPdftotext}
}
