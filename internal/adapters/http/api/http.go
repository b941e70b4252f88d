// Package api exposes the dashboard panels, the reference lists and the
// throttler controls over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/tradeflow/internal/adapters/comtrade"
	service "github.com/okian/tradeflow/internal/app"
	"github.com/okian/tradeflow/internal/domain/model"
	"github.com/okian/tradeflow/internal/domain/panel"
	"github.com/okian/tradeflow/internal/domain/reference"
	"github.com/okian/tradeflow/pkg/logger"
)

// Filter query parameters of the panel endpoints.
const (
	ParamReporter  = "reporter"
	ParamPartner   = "partner"
	ParamCommodity = "commodity"
	ParamYear      = "year"
	ParamFlow      = "flow"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Panel(ctx context.Context, name panel.Name, f model.Filters) (panel.Result, error)
	Reference(table reference.Table) []reference.Entry
	Cancel(ctx context.Context) (int, error)
	Stats(ctx context.Context) service.Stats
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	deps   Dependencies
	health *HealthHandler
	logger logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies) *Server {
	return &Server{
		deps:   deps,
		health: NewHealthHandler(),
		logger: logger.Get().Named("api"),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.health.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.HandleStats, "stats"))
	mux.HandleFunc("/cancel", MetricsMiddleware(s.HandleCancel, "cancel"))
	mux.HandleFunc("/panels", MetricsMiddleware(s.HandlePanels, "panels"))
	mux.HandleFunc("/panels/", MetricsMiddleware(s.HandlePanel, "panel"))
	mux.HandleFunc("/reference/", MetricsMiddleware(s.HandleReference, "reference"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps a service error to a status and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, panel.ErrUnknownPanel):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, comtrade.ErrCanceled), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "canceled"
	case errors.Is(err, service.ErrPanelTimeout), errors.Is(err, comtrade.ErrTimeout):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, comtrade.ErrStatus), errors.Is(err, comtrade.ErrTransport),
		errors.Is(err, comtrade.ErrParse), errors.Is(err, service.ErrConflictRetry):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, service.ErrEnqueue):
		return http.StatusTooManyRequests, "busy"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// ParseFilters reads the selection of the panel endpoints. A missing or
// empty parameter is unselected; "all" is kept as such.
func ParseFilters(v url.Values) (model.Filters, error) {
	f := model.Filters{
		Reporter:  model.ParseDim(v.Get(ParamReporter)),
		Partner:   model.ParseDim(v.Get(ParamPartner)),
		Commodity: model.ParseDim(v.Get(ParamCommodity)),
		Year:      model.ParseDim(v.Get(ParamYear)),
	}
	if raw := strings.TrimSpace(v.Get(ParamFlow)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || (n != 0 && !model.Flow(n).Valid()) {
			return model.Filters{}, fmt.Errorf("%w: flow must be 0, 1 or 2, got %q", ErrBadRequest, raw)
		}
		f.Flow = model.Flow(n)
	}
	return f, nil
}
