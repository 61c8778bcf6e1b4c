package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate runs the test in an empty directory with the config variables
// cleared.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{
		"SPECCHUNK_CONFIG", "PORT", "SPECCHUNK_API_KEY", "DB_PATH", "PATHSTORE_URL",
		"PATHSTORE_API_KEY", "WORKER_COUNT", "MAX_QUEUE_SIZE", "MAX_UPLOAD_BYTES", "JOB_TTL",
		"PDF_FALLBACK_PDFTOTEXT", "CHUNK_SIZE", "MAX_CHUNK_SIZE", "MIN_CHUNK_SIZE",
		"PAGE_OFFSET", "LONG_SECTION_PAGE_THRESHOLD", "TOC_MAX_SEARCH_PAGES",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CHUNK_SIZE", "200")
	t.Setenv("MAX_CHUNK_SIZE", "400")
	t.Setenv("PAGE_OFFSET", "12")
	t.Setenv("JOB_TTL", "30m")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	t.Setenv("WORKER_COUNT", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ChunkSize != 200 || cfg.MaxChunkSize != 400 || cfg.PageOffset != 12 {
		t.Errorf("expected env chunking values, got %d/%d/%d", cfg.ChunkSize, cfg.MaxChunkSize, cfg.PageOffset)
	}
	if cfg.JobTTL != 30*time.Minute {
		t.Errorf("expected 30m TTL, got %v", cfg.JobTTL)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected non-positive worker count to fall back to 4, got %d", cfg.WorkerCount)
	}
}

func TestLoad_TOMLThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	os.WriteFile(path, []byte(`
[server]
port = "9000"
job_ttl = "2h"

[chunking]
chunk_size = 300
page_offset = 4
pdf_fallback_pdftotext = false
`), 0o644)
	t.Setenv("SPECCHUNK_CONFIG", path)
	t.Setenv("PAGE_OFFSET", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" || cfg.JobTTL != 2*time.Hour || cfg.ChunkSize != 300 {
		t.Errorf("expected file values, got port=%s ttl=%v chunk=%d", cfg.Port, cfg.JobTTL, cfg.ChunkSize)
	}
	if cfg.PageOffset != 6 {
		t.Errorf("expected env to win over file, got %d", cfg.PageOffset)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected file to disable pdftotext fallback")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("MIN_CHUNK_SIZE")
	os.WriteFile(filepath.Join(dir, ".env"), []byte("MIN_CHUNK_SIZE=80\n"), 0o644)
	t.Cleanup(func() { os.Unsetenv("MIN_CHUNK_SIZE") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MinChunkSize != 80 {
		t.Errorf("expected .env value 80, got %d", cfg.MinChunkSize)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	t.Setenv("SPECCHUNK_CONFIG", "does-not-exist.toml")
	if _, err := Load(); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoad_BadTOML(t *testing.T) {
	dir := isolate(t)
	os.WriteFile(filepath.Join(dir, "specchunk.toml"), []byte("[chunking\n"), 0o644)
	if _, err := Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
	if err := cfg.ValidateServer(); err == nil {
		t.Error("expected missing API key to fail server validation")
	}

	bad := Default()
	bad.ChunkSize = 900
	if err := bad.Validate(); err == nil {
		t.Error("expected chunk size above max to fail")
	}

	noMin := Default()
	noMin.MinChunkSize = 0
	if err := noMin.Validate(); err == nil {
		t.Error("expected a zero minimum chunk size to fail")
	}

	ps := Default()
	ps.PathstoreURL = "http://localhost:8080"
	if err := ps.Validate(); err == nil {
		t.Error("expected pathstore without key to fail")
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := Default()
	cfg.PageOffset = 12
	cfg.ChunkSize = 200
	cfg.TOCMaxSearchPages = 8
	opts := cfg.PipelineOptions()
	if opts.PageOffset != 12 || opts.ChunkSize != 200 || opts.MaxChunkSize != 800 {
		t.Errorf("unexpected sizes: %+v", opts)
	}
	if opts.TOC.MaxSearchPages != 8 || opts.TOC.MinLeaderLines == 0 {
		t.Errorf("expected toc defaults with an 8 page search, got %+v", opts.TOC)
	}
	if !cfg.ParserOptions().FallbackPdftotext {
		t.Error("expected pdftotext fallback on by default")
	}
}
