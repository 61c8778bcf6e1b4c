package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/specchunk/internal/parser"
	"github.com/dgallion1/specchunk/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// ingestFields are the multipart fields shared by single and batch ingest.
type ingestFields struct {
	protocol  string
	version   string
	title     string
	opts      pipeline.Options
	offsetSet bool
}

func (s *Server) readIngestFields(r *http.Request) (ingestFields, error) {
	f := ingestFields{
		protocol: strings.TrimSpace(r.FormValue("protocol")),
		version:  strings.TrimSpace(r.FormValue("version")),
		title:    strings.TrimSpace(r.FormValue("title")),
	}
	if f.protocol == "" || f.version == "" {
		return f, fmt.Errorf("protocol and version are required")
	}

	ints := []struct {
		name string
		dst  *int
		min  int
	}{
		{"page_offset", &f.opts.PageOffset, 0},
		{"chunk_size", &f.opts.ChunkSize, 1},
		{"max_chunk_size", &f.opts.MaxChunkSize, 1},
		{"min_chunk_size", &f.opts.MinChunkSize, 1},
		{"long_threshold", &f.opts.LongThreshold, 1},
	}
	for _, in := range ints {
		v := r.FormValue(in.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < in.min {
			return f, fmt.Errorf("%s must be an integer >= %d", in.name, in.min)
		}
		*in.dst = n
	}
	f.offsetSet = r.FormValue("page_offset") != ""
	if f.opts.ChunkSize > 0 && f.opts.MaxChunkSize > 0 && f.opts.ChunkSize > f.opts.MaxChunkSize {
		return f, fmt.Errorf("chunk_size must not exceed max_chunk_size")
	}
	return f, nil
}

// readUpload reads one uploaded file, enforcing the type and size limits.
func (s *Server) readUpload(fh *multipart.FileHeader) (string, []byte, int, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return filename, nil, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
	f, err := fh.Open()
	if err != nil {
		return filename, nil, http.StatusBadRequest, fmt.Errorf("failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return filename, nil, http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return filename, nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	return filename, data, 0, nil
}

func (s *Server) submit(filename string, data []byte, f ingestFields) (*pipeline.Job, error) {
	job := pipeline.NewJob(pipeline.IngestRequest{
		Filename: filename,
		Data:     data,
		Protocol: f.protocol,
		Version:  f.version,
		Title:    f.title,
		Options:  f.opts,

		PageOffsetSet: f.offsetSet,
	})
	return job, s.orchestrator.Submit(job)
}

func jobResponse(job *pipeline.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"filename": snap.Filename,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", snap.ID),
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// extra 1MB for form overhead
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	fields, err := s.readIngestFields(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fhs := r.MultipartForm.File["file"]
	if len(fhs) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	filename, data, code, err := s.readUpload(fhs[0])
	if err != nil {
		jsonError(w, err.Error(), code)
		return
	}

	job, err := s.submit(filename, data, fields)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(jobResponse(job))
}

func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	fields, err := s.readIngestFields(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	// a title names a single document
	fields.title = ""

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename, data, _, err := s.readUpload(fh)
		if err != nil {
			results = append(results, map[string]any{"filename": filename, "error": err.Error()})
			continue
		}
		job, err := s.submit(filename, data, fields)
		if err != nil {
			results = append(results, map[string]any{"filename": filename, "error": err.Error()})
			continue
		}
		results = append(results, jobResponse(job))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
