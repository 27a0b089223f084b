package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/wordspira/internal/document"
	"github.com/dgallion1/wordspira/internal/parser"
	"github.com/dgallion1/wordspira/internal/settings"
)

// upload is a document posted as multipart form data.
type upload struct {
	filename string
	docID    string
	data     []byte
	rng      document.Range
}

// readUpload parses the "file" part and the optional doc_id, from and to
// fields. On failure the error response is already written.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, false
	}

	rng, err := formRange(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	docID := r.FormValue("doc_id")
	if docID == "" {
		docID = filename
	}
	return &upload{
		filename: filename,
		docID:    settings.DocumentID(docID),
		data:     data,
		rng:      rng,
	}, true
}

// formRange reads the optional block range. Absent bounds select the
// whole document.
func formRange(r *http.Request) (document.Range, error) {
	var rng document.Range
	for _, f := range []struct {
		name string
		dst  *int
	}{{"from", &rng.From}, {"to", &rng.To}} {
		v := r.FormValue(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return document.Range{}, fmt.Errorf("%s must be a non-negative integer", f.name)
		}
		*f.dst = n
	}
	if rng.To < rng.From {
		return document.Range{}, fmt.Errorf("to (%d) is before from (%d)", rng.To, rng.From)
	}
	return rng, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
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
