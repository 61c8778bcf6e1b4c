package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dgallion1/specchunk/internal/doctree"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// RetryableError wraps a transient database error (SQLITE_BUSY, locked tables).
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return fmt.Sprintf("retryable: %v", e.Err) }
func (e *RetryableError) Unwrap() error { return e.Err }

// Document is a stored specification document.
type Document struct {
	DocID       string    `json:"doc_id" yaml:"doc_id"`
	Title       string    `json:"title" yaml:"title"`
	Protocol    string    `json:"protocol" yaml:"protocol"`
	Version     string    `json:"version" yaml:"version"`
	FilePath    string    `json:"file_path" yaml:"file_path"`
	ContentHash string    `json:"content_hash" yaml:"content_hash"`
	UploadedAt  time.Time `json:"uploaded_at" yaml:"uploaded_at"`
	TotalPages  int       `json:"total_pages" yaml:"total_pages"`
	TotalChunks int       `json:"total_chunks" yaml:"total_chunks"`
	Degraded    bool      `json:"degraded" yaml:"degraded"`
	IsActive    bool      `json:"is_active" yaml:"is_active"`
}

// StoredChunk is a chunk row with its identity.
type StoredChunk struct {
	ID    string `json:"id" yaml:"id"`
	DocID string `json:"doc_id" yaml:"doc_id"`
	doctree.Chunk `yaml:",inline"`
}

// Stats summarises the store contents.
type Stats struct {
	Documents       int            `json:"documents"`
	ActiveDocuments int            `json:"active_documents"`
	Chunks          int            `json:"chunks"`
	ChunksBySource  map[string]int `json:"chunks_by_source"`
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	doc_id       TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	protocol     TEXT NOT NULL DEFAULT '',
	version      TEXT NOT NULL DEFAULT '',
	file_path    TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	uploaded_at  INTEGER NOT NULL,
	total_pages  INTEGER NOT NULL DEFAULT 0,
	total_chunks INTEGER NOT NULL DEFAULT 0,
	degraded     INTEGER NOT NULL DEFAULT 0,
	is_active    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS chunks (
	id             TEXT PRIMARY KEY,
	doc_id         TEXT NOT NULL REFERENCES documents(doc_id) ON DELETE CASCADE,
	seq            INTEGER NOT NULL,
	section_number TEXT NOT NULL,
	section_title  TEXT NOT NULL DEFAULT '',
	section_path   TEXT NOT NULL DEFAULT '',
	parent_section TEXT NOT NULL DEFAULT '',
	subtitles      TEXT NOT NULL DEFAULT '[]',
	pages          TEXT NOT NULL DEFAULT '[]',
	level          INTEGER NOT NULL,
	chunk_index    TEXT NOT NULL,
	source         TEXT NOT NULL,
	text           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id, seq);
`

// Store persists documents and their chunks in SQLite.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Option customises Open.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log *slog.Logger) Option { return func(s *Store) { s.log = log } }

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{log: slog.Default()}
	for _, o := range opts {
		o(s)
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	s.db = db
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// PutDocument inserts or replaces a document and all of its chunks in one
// transaction. Chunks from a previous ingestion of the same doc_id are
// removed.
func (s *Store) PutDocument(ctx context.Context, doc Document, chunks []doctree.Chunk) error {
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, doc.DocID); err != nil {
			return fmt.Errorf("delete old chunks: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (doc_id, title, protocol, version, file_path, content_hash,
				uploaded_at, total_pages, total_chunks, degraded, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT(doc_id) DO UPDATE SET
				title = excluded.title, protocol = excluded.protocol, version = excluded.version,
				file_path = excluded.file_path, content_hash = excluded.content_hash,
				uploaded_at = excluded.uploaded_at, total_pages = excluded.total_pages,
				total_chunks = excluded.total_chunks, degraded = excluded.degraded, is_active = 1`,
			doc.DocID, doc.Title, doc.Protocol, doc.Version, doc.FilePath, doc.ContentHash,
			doc.UploadedAt.UnixMilli(), doc.TotalPages, len(chunks), boolInt(doc.Degraded))
		if err != nil {
			return fmt.Errorf("upsert document: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (id, doc_id, seq, section_number, section_title, section_path,
				parent_section, subtitles, pages, level, chunk_index, source, text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare chunk insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range chunks {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("chunk id: %w", err)
			}
			subs, _ := json.Marshal(nonNil(c.Subtitles))
			pages, _ := json.Marshal(c.Pages)
			if _, err := stmt.ExecContext(ctx, id.String(), doc.DocID, c.Seq, c.SectionNumber,
				c.SectionTitle, c.SectionPath, c.ParentSection, string(subs), string(pages),
				c.Level, c.ChunkIndex, string(c.Source), c.Text); err != nil {
				return fmt.Errorf("insert chunk %d: %w", c.Seq, err)
			}
		}
		return nil
	})
	if err != nil {
		return classify(err)
	}
	s.log.Info("stored document", "doc_id", doc.DocID, "chunks", len(chunks))
	return nil
}

// GetDocument returns a document by id, active or not.
func (s *Store) GetDocument(ctx context.Context, docID string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT doc_id, title, protocol, version, file_path, content_hash, uploaded_at,
			total_pages, total_chunks, degraded, is_active
		FROM documents WHERE doc_id = ?`, docID)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("get document: %w", err))
	}
	return d, nil
}

// ListDocuments returns documents ordered by upload time, newest first.
func (s *Store) ListDocuments(ctx context.Context, activeOnly bool) ([]Document, error) {
	q := `SELECT doc_id, title, protocol, version, file_path, content_hash, uploaded_at,
			total_pages, total_chunks, degraded, is_active FROM documents`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY uploaded_at DESC, doc_id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, classify(fmt.Errorf("list documents: %w", err))
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// DeleteDocument marks a document inactive. Its chunks are kept until the
// document is re-ingested or purged.
func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET is_active = 0 WHERE doc_id = ?`, docID)
	if err != nil {
		return classify(fmt.Errorf("delete document: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.log.Info("deactivated document", "doc_id", docID)
	return nil
}

// Purge removes a document and its chunks.
func (s *Store) Purge(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, docID)
	if err != nil {
		return classify(fmt.Errorf("purge document: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Chunks returns a document's chunks in sequence order.
func (s *Store) Chunks(ctx context.Context, docID string) ([]StoredChunk, error) {
	if _, err := s.GetDocument(ctx, docID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, doc_id, seq, section_number, section_title, section_path, parent_section,
			subtitles, pages, level, chunk_index, source, text
		FROM chunks WHERE doc_id = ? ORDER BY seq`, docID)
	if err != nil {
		return nil, classify(fmt.Errorf("list chunks: %w", err))
	}
	defer rows.Close()

	var out []StoredChunk
	for rows.Next() {
		var c StoredChunk
		var subs, pages, source string
		if err := rows.Scan(&c.ID, &c.DocID, &c.Seq, &c.SectionNumber, &c.SectionTitle,
			&c.SectionPath, &c.ParentSection, &subs, &pages, &c.Level, &c.ChunkIndex,
			&source, &c.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Source = doctree.Source(source)
		if err := json.Unmarshal([]byte(subs), &c.Subtitles); err != nil {
			return nil, fmt.Errorf("decode subtitles: %w", err)
		}
		if len(c.Subtitles) == 0 {
			c.Subtitles = nil
		}
		if err := json.Unmarshal([]byte(pages), &c.Pages); err != nil {
			return nil, fmt.Errorf("decode pages: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Stats counts documents and chunks.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ChunksBySource: make(map[string]int)}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_active), 0) FROM documents`).Scan(&st.Documents, &st.ActiveDocuments)
	if err != nil {
		return st, classify(fmt.Errorf("count documents: %w", err))
	}
	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM chunks GROUP BY source`)
	if err != nil {
		return st, classify(fmt.Errorf("count chunks: %w", err))
	}
	defer rows.Close()
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return st, fmt.Errorf("scan chunk count: %w", err)
		}
		st.ChunksBySource[src] = n
		st.Chunks += n
	}
	return st, rows.Err()
}

func (s *Store) runTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(r scanner) (*Document, error) {
	var d Document
	var uploaded int64
	var degraded, active int
	if err := r.Scan(&d.DocID, &d.Title, &d.Protocol, &d.Version, &d.FilePath, &d.ContentHash,
		&uploaded, &d.TotalPages, &d.TotalChunks, &degraded, &active); err != nil {
		return nil, err
	}
	d.UploadedAt = time.UnixMilli(uploaded).UTC()
	d.Degraded = degraded != 0
	d.IsActive = active != 0
	return &d, nil
}

// IsBusy reports whether err is an SQLite busy or locked condition.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

func classify(err error) error {
	if IsBusy(err) {
		return &RetryableError{Err: err}
	}
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
