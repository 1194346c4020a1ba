package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Novanna/doc-verifier/internal/pipeline"
	"github.com/Novanna/doc-verifier/internal/report"
	"github.com/Novanna/doc-verifier/internal/templates"
)

const formOverhead = 1 << 20

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+formOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	docType := r.FormValue("docType")
	if _, err := s.verifier.Template(docType); err != nil {
		jsonError(w, "unsupported document type", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("docFile")
	if err != nil {
		jsonError(w, "docFile is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	resp, err := s.verifier.Verify(r.Context(), pipeline.Request{
		RequestID: strings.TrimSpace(r.FormValue("requestId")),
		DocType:   docType,
		Filename:  sanitizeFilename(header.Filename),
		Data:      data,
	})
	if errors.Is(err, templates.ErrUnsupported) {
		jsonError(w, "unsupported document type", http.StatusBadRequest)
		return
	}
	if errors.Is(err, pipeline.ErrBusy) {
		w.Header().Set("Retry-After", "1")
		jsonError(w, "server busy, retry later", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.verifier.Result(chi.URLParam(r, "requestID"))
	if !ok {
		jsonError(w, "verification not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.verifier.Result(chi.URLParam(r, "requestID"))
	if !ok {
		jsonError(w, "verification not found", http.StatusNotFound)
		return
	}

	// A template dropped by a reload still renders, without labels.
	var steps []templates.Step
	if t, err := s.verifier.Template(rec.DocType); err == nil {
		steps = t.Steps()
	}

	page, err := report.Page(rec, steps)
	if err != nil {
		jsonError(w, "failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
