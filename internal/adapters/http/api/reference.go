package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/tradeflow/internal/domain/reference"
)

var referenceTables = map[string]reference.Table{
	string(reference.TableReporters):   reference.TableReporters,
	string(reference.TablePartners):    reference.TablePartners,
	string(reference.TableCommodities): reference.TableCommodities,
	string(reference.TableFlows):       reference.TableFlows,
}

// HandleReference handles GET /reference/{table} requests.
func (s *Server) HandleReference(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/reference/")
	table, ok := referenceTables[name]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w: reference table %q", ErrNotFound, name))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Reference(table))
}
