package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Storage
	DBPath string

	// Optional pathstore export; disabled when PathstoreURL is empty.
	PathstoreURL    string
	PathstoreAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Chunking
	ChunkSize         int // target tokens
	MaxChunkSize      int // token ceiling
	MinChunkSize      int // characters
	PageOffset        int
	LongPageThreshold int
	TOCMaxSearchPages int
}

// fileConfig is the layout of the optional TOML file.
type fileConfig struct {
	Server struct {
		Port           string `toml:"port"`
		DBPath         string `toml:"db_path"`
		WorkerCount    int    `toml:"worker_count"`
		MaxQueueSize   int    `toml:"max_queue_size"`
		MaxUploadBytes int64  `toml:"max_upload_bytes"`
		JobTTL         string `toml:"job_ttl"`
	} `toml:"server"`
	Pathstore struct {
		URL string `toml:"url"`
	} `toml:"pathstore"`
	Chunking struct {
		ChunkSize         int   `toml:"chunk_size"`
		MaxChunkSize      int   `toml:"max_chunk_size"`
		MinChunkSize      int   `toml:"min_chunk_size"`
		PageOffset        int   `toml:"page_offset"`
		LongPageThreshold int   `toml:"long_section_page_threshold"`
		TOCMaxSearchPages int   `toml:"toc_max_search_pages"`
		PdftotextFallback *bool `toml:"pdf_fallback_pdftotext"`
	} `toml:"chunking"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:                 "8091",
		DBPath:               "data/specchunk.db",
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxUploadBytes:       104857600, // 100MB
		JobTTL:               time.Hour,
		PDFFallbackPdftotext: true,
		ChunkSize:            350,
		MaxChunkSize:         800,
		MinChunkSize:         50,
		PageOffset:           0,
		LongPageThreshold:    10,
		TOCMaxSearchPages:    30,
	}
}

// Load builds the configuration: defaults, then the TOML file named by
// SPECCHUNK_CONFIG (or ./specchunk.toml when present), then environment
// variables. A .env file in the working directory is loaded first and never
// overrides variables already set.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	path := os.Getenv("SPECCHUNK_CONFIG")
	explicit := path != ""
	if !explicit {
		path = "specchunk.toml"
	}
	if err := applyFile(&cfg, path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("SPECCHUNK_API_KEY", cfg.APIKey)
	cfg.DBPath = envOr("DB_PATH", cfg.DBPath)
	cfg.PathstoreURL = envOr("PATHSTORE_URL", cfg.PathstoreURL)
	cfg.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", cfg.PathstoreAPIKey)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	cfg.ChunkSize = envInt("CHUNK_SIZE", cfg.ChunkSize)
	cfg.MaxChunkSize = envInt("MAX_CHUNK_SIZE", cfg.MaxChunkSize)
	cfg.MinChunkSize = envInt("MIN_CHUNK_SIZE", cfg.MinChunkSize)
	cfg.PageOffset = envInt("PAGE_OFFSET", cfg.PageOffset)
	cfg.LongPageThreshold = envInt("LONG_SECTION_PAGE_THRESHOLD", cfg.LongPageThreshold)
	cfg.TOCMaxSearchPages = envInt("TOC_MAX_SEARCH_PAGES", cfg.TOCMaxSearchPages)

	def := Default()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = def.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = def.JobTTL
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = def.MaxChunkSize
	}
	if cfg.LongPageThreshold <= 0 {
		cfg.LongPageThreshold = def.LongPageThreshold
	}
	if cfg.TOCMaxSearchPages <= 0 {
		cfg.TOCMaxSearchPages = def.TOCMaxSearchPages
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	s := fc.Server
	if s.Port != "" {
		cfg.Port = s.Port
	}
	if s.DBPath != "" {
		cfg.DBPath = s.DBPath
	}
	if s.WorkerCount != 0 {
		cfg.WorkerCount = s.WorkerCount
	}
	if s.MaxQueueSize != 0 {
		cfg.MaxQueueSize = s.MaxQueueSize
	}
	if s.MaxUploadBytes != 0 {
		cfg.MaxUploadBytes = s.MaxUploadBytes
	}
	if s.JobTTL != "" {
		d, err := time.ParseDuration(s.JobTTL)
		if err != nil {
			return fmt.Errorf("config %s: job_ttl: %w", path, err)
		}
		cfg.JobTTL = d
	}
	if fc.Pathstore.URL != "" {
		cfg.PathstoreURL = fc.Pathstore.URL
	}

	c := fc.Chunking
	if c.ChunkSize != 0 {
		cfg.ChunkSize = c.ChunkSize
	}
	if c.MaxChunkSize != 0 {
		cfg.MaxChunkSize = c.MaxChunkSize
	}
	if c.MinChunkSize != 0 {
		cfg.MinChunkSize = c.MinChunkSize
	}
	if c.PageOffset != 0 {
		cfg.PageOffset = c.PageOffset
	}
	if c.LongPageThreshold != 0 {
		cfg.LongPageThreshold = c.LongPageThreshold
	}
	if c.TOCMaxSearchPages != 0 {
		cfg.TOCMaxSearchPages = c.TOCMaxSearchPages
	}
	if c.PdftotextFallback != nil {
		cfg.PDFFallbackPdftotext = *c.PdftotextFallback
	}
	return nil
}

// Validate checks the chunking settings for consistency.
func (c Config) Validate() error {
	if c.ChunkSize > c.MaxChunkSize {
		return fmt.Errorf("CHUNK_SIZE (%d) must not exceed MAX_CHUNK_SIZE (%d)", c.ChunkSize, c.MaxChunkSize)
	}
	if c.MinChunkSize < 1 {
		return fmt.Errorf("MIN_CHUNK_SIZE must be >= 1, got %d", c.MinChunkSize)
	}
	if c.PageOffset < 0 {
		return fmt.Errorf("PAGE_OFFSET must be >= 0, got %d", c.PageOffset)
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	return nil
}

// ValidateServer additionally checks what the HTTP server needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("SPECCHUNK_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
