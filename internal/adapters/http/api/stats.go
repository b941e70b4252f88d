package api

import (
	"net/http"
)

// HandleStats handles GET /stats requests.
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Stats(r.Context()))
}

// HandleCancel handles POST /cancel requests: every in-flight upstream
// request is aborted.
func (s *Server) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	n, err := s.deps.Cancel(r.Context())
	if err != nil {
		status, code := classify(err)
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{Aborted: n})
}

type cancelResponse struct {
	Aborted int `json:"aborted"`
}
