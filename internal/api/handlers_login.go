package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/wordspira/internal/pipeline"
)

type loginRequest struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	APIKey   string `json:"api_key"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil {
			jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	creds := s.credentials(pipeline.Credentials{URL: req.URL, Username: req.Username, APIKey: req.APIKey})
	if creds.URL == "" || creds.Username == "" || creds.APIKey == "" {
		jsonError(w, "url, username and api_key are required", http.StatusBadRequest)
		return
	}

	projects, err := s.login(r.Context(), creds)
	if err != nil {
		s.log.Warn("login failed", "username", creds.Username, "url", creds.URL, "error", err)
		jsonError(w, "login failed: check the Spira URL, username and API key", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username": creds.Username,
		"projects": projects,
	})
}
