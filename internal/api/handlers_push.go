package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/wordspira/internal/pipeline"
	"github.com/dgallion1/wordspira/internal/stylemap"
)

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
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

	projectID := s.cfg.SpiraProjectID
	if v := r.FormValue("project_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "project_id must be a positive integer", http.StatusBadRequest)
			return
		}
		projectID = n
	}
	if projectID <= 0 {
		jsonError(w, "project_id is required", http.StatusBadRequest)
		return
	}

	creds := s.credentials(pipeline.Credentials{
		URL:      r.FormValue("url"),
		Username: r.FormValue("username"),
		APIKey:   r.FormValue("api_key"),
	})
	if creds.URL == "" || creds.Username == "" || creds.APIKey == "" {
		jsonError(w, "spira url, username and api_key are required", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(up.docID, up.filename, kind, projectID, up.data)
	job.SetSelection(up.rng)
	job.SetCredentials(creds)

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/push/%s/status", job.ID),
	})
}

func (s *Server) handlePushStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"kind":     snap.Kind.Name(),
		"status":   snap.Status,
		"phase":    snap.Phase,
		"done":     snap.Done(),
		"progress": snap.Progress,
	})
}
