package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/wordspira/internal/parser"
	"github.com/dgallion1/wordspira/internal/settings"
	"github.com/dgallion1/wordspira/internal/stylemap"
)

type stylesResponse struct {
	DocID      string                       `json:"doc_id"`
	Kind       stylemap.Kind                `json:"kind"`
	UsedStyles []string                     `json:"used_styles"`
	Candidates [stylemap.RoleCount][]string `json:"candidates"`
	Mapping    [stylemap.RoleCount]string   `json:"mapping"`
}

// handleStyles reports the styles used by the selected range of an uploaded
// document alongside the selector options and the current mapping.
func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	kind, err := stylemap.ParseKind(r.FormValue("kind"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ext, err := parser.ForFile(up.filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sel, err := ext.Extract(bytes.NewReader(up.data), up.filename, up.rng)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, parser.ErrEmptyDocument) {
			status = http.StatusBadRequest
		}
		jsonError(w, "extract: "+err.Error(), status)
		return
	}

	store, err := s.openSettings(up.docID)
	if err != nil {
		s.log.Error("open settings failed", "doc_id", up.docID, "error", err)
		jsonError(w, "settings unavailable", http.StatusInternalServerError)
		return
	}
	m := stylemap.Resolve(store, kind)
	if err := store.Save(); err != nil {
		s.log.Error("save settings failed", "doc_id", up.docID, "error", err)
		jsonError(w, "settings unavailable", http.StatusInternalServerError)
		return
	}

	used := parser.UsedStyles(sel.Lines)
	if used == nil {
		used = []string{}
	}
	writeJSON(w, http.StatusOK, stylesResponse{
		DocID:      up.docID,
		Kind:       kind,
		UsedStyles: used,
		Candidates: stylemap.Candidates(kind, used),
		Mapping:    m.Roles,
	})
}

type confirmRequest struct {
	Roles []string `json:"roles"`
}

// handleConfirmStyles saves a user-chosen mapping for one document and kind.
func (s *Server) handleConfirmStyles(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if docID != settings.DocumentID(docID) {
		jsonError(w, "invalid document id", http.StatusBadRequest)
		return
	}
	kind, err := stylemap.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	store, err := s.openSettings(docID)
	if err != nil {
		s.log.Error("open settings failed", "doc_id", docID, "error", err)
		jsonError(w, "settings unavailable", http.StatusInternalServerError)
		return
	}
	m, err := stylemap.Confirm(store, kind, req.Roles)
	switch {
	case errors.Is(err, stylemap.ErrDuplicateStyleMapping), errors.Is(err, stylemap.ErrEmptyStyleMapping):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.log.Error("save style mapping failed", "doc_id", docID, "error", err)
		jsonError(w, "settings unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":  docID,
		"kind":    kind,
		"mapping": m.Roles,
	})
}
