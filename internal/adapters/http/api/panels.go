package api

import (
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tradeflow/internal/domain/panel"
	"github.com/okian/tradeflow/pkg/logger"
)

// HandlePanel handles GET /panels/{name} requests.
func (s *Server) HandlePanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/panels/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	f, err := ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := s.deps.Panel(r.Context(), panel.Name(name), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePanels handles GET /panels: every panel for one selection, in
// display order. Any panel failure fails the request.
func (s *Server) HandlePanels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	f, err := ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	results := make([]panel.Result, len(panel.Names))
	g, ctx := errgroup.WithContext(r.Context())
	for i, name := range panel.Names {
		g.Go(func() error {
			res, err := s.deps.Panel(ctx, name, f)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// fail writes the error body the dashboard shows to the user.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "panel request failed",
			logger.String("path", r.URL.Path),
			logger.String("query", r.URL.RawQuery),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}
