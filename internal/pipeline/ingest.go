package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/specchunk/internal/doctree"
	"github.com/dgallion1/specchunk/internal/parser"
	"github.com/dgallion1/specchunk/internal/store"
)

// DocumentStore persists documents and chunks.
type DocumentStore interface {
	PutDocument(ctx context.Context, doc store.Document, chunks []doctree.Chunk) error
}

// Exporter mirrors chunks to an external service.
type Exporter interface {
	ExportChunks(ctx context.Context, docID, title string, chunks []doctree.Chunk) error
}

// IngestRequest describes one document to ingest.
type IngestRequest struct {
	Filename string
	Data     []byte
	Protocol string
	Version  string
	Title    string
	FilePath string  // recorded with the document; defaults to Filename
	Options  Options // non-zero fields override the ingester defaults

	// PageOffsetSet applies Options.PageOffset even when it is zero.
	PageOffsetSet bool
}

// IngestResult is the outcome of a successful ingest.
type IngestResult struct {
	Document store.Document
	Result   *Result
}

// Ingester parses a file, runs the pipeline and persists the chunks.
type Ingester struct {
	store     DocumentStore
	exporter  Exporter
	parseOpts parser.Options
	defaults  Options
	log       *slog.Logger
}

// NewIngester creates an Ingester. exporter may be nil.
func NewIngester(st DocumentStore, exporter Exporter, parseOpts parser.Options, defaults Options, log *slog.Logger) *Ingester {
	return &Ingester{
		store:     st,
		exporter:  exporter,
		parseOpts: parseOpts,
		defaults:  withDefaults(defaults),
		log:       log,
	}
}

// Parse turns the request's bytes into a page-addressable document.
func (in *Ingester) Parse(req IngestRequest) (*parser.Document, error) {
	p, err := parser.ForFile(req.Filename, in.parseOpts)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(req.Data), req.Filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", req.Filename, err)
	}
	if req.Title != "" {
		doc.Title = req.Title
	}
	return doc, nil
}

// Ingest runs parse, chunk and store for req. onStatus, when non-nil, is
// told when each stage starts.
func (in *Ingester) Ingest(ctx context.Context, req IngestRequest, onStatus func(JobStatus)) (*IngestResult, error) {
	notify := func(s JobStatus) {
		if onStatus != nil {
			onStatus(s)
		}
	}
	docID := DocID(req.Protocol, req.Version, req.Data)
	log := in.log.With("doc_id", docID, "filename", req.Filename)

	notify(StatusParsing)
	doc, err := in.Parse(req)
	if err != nil {
		return nil, err
	}
	log.Info("parsed document", "pages", doc.NumPages(), "title", doc.Title)

	notify(StatusChunking)
	res, err := Run(ctx, doc, in.options(req), log)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", docID, err)
	}

	filePath := req.FilePath
	if filePath == "" {
		filePath = req.Filename
	}
	meta := store.Document{
		DocID:       docID,
		Title:       doc.Title,
		Protocol:    req.Protocol,
		Version:     req.Version,
		FilePath:    filePath,
		ContentHash: ContentHashHex(req.Data),
		UploadedAt:  time.Now().UTC(),
		TotalPages:  doc.NumPages(),
		TotalChunks: len(res.Chunks),
		Degraded:    res.Degraded,
		IsActive:    true,
	}

	notify(StatusStoring)
	err = withRetry(ctx, log, "store", func() error {
		return in.store.PutDocument(ctx, meta, res.Chunks)
	})
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", docID, err)
	}

	if in.exporter != nil && len(res.Chunks) > 0 {
		if err := in.exporter.ExportChunks(ctx, docID, doc.Title, res.Chunks); err != nil {
			// the local store is authoritative
			log.Warn("chunk export failed", "error", err)
		}
	}

	log.Info("ingested document", "chunks", len(res.Chunks), "degraded", res.Degraded)
	return &IngestResult{Document: meta, Result: res}, nil
}

// options overlays the request's non-zero fields on the defaults.
func (in *Ingester) options(req IngestRequest) Options {
	o := req.Options
	out := in.defaults
	if o.PageOffset != 0 || req.PageOffsetSet {
		out.PageOffset = o.PageOffset
	}
	if o.ChunkSize > 0 {
		out.ChunkSize = o.ChunkSize
	}
	if o.MaxChunkSize > 0 {
		out.MaxChunkSize = o.MaxChunkSize
	}
	if o.MinChunkSize > 0 {
		out.MinChunkSize = o.MinChunkSize
	}
	if o.LongThreshold > 0 {
		out.LongThreshold = o.LongThreshold
	}
	if o.Stats != nil {
		out.Stats = o.Stats
	}
	return out
}
