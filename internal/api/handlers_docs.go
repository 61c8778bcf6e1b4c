package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/specchunk/internal/store"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

// handleListDocuments lists active documents, or all with ?all=true.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	docs, err := s.catalog.ListDocuments(r.Context(), !all)
	if err != nil {
		s.log.Error("list documents failed", "error", err)
		jsonError(w, "failed to list documents", http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.catalog.GetDocument(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// handleListChunks returns a document's chunks in sequence order, as JSON
// or, with ?format=yaml, as YAML.
func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	chunks, err := s.catalog.Chunks(r.Context(), docID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if chunks == nil {
		chunks = []store.StoredChunk{}
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"doc_id": docID, "chunks": chunks})
	case "yaml":
		w.Header().Set("Content-Type", "application/yaml")
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		enc.Encode(map[string]any{"doc_id": docID, "chunks": chunks})
		enc.Close()
	default:
		jsonError(w, "format must be json or yaml", http.StatusBadRequest)
	}
}

// handleDeleteDocument deactivates a document and drops its exported copy.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.catalog.DeleteDocument(r.Context(), docID); err != nil {
		s.storeError(w, err)
		return
	}

	exportDeleted := false
	if s.exports != nil {
		if err := s.exports.DeleteDocument(r.Context(), docID); err != nil {
			s.log.Warn("export delete failed", "doc_id", docID, "error", err)
		} else {
			exportDeleted = true
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":         docID,
		"deleted":        true,
		"export_deleted": exportDeleted,
	})
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	s.log.Error("store error", "error", err)
	jsonError(w, "store error", http.StatusInternalServerError)
}
