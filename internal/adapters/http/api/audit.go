package api

import "net/http"

// AuditHandler reports catalog data-quality problems.
type AuditHandler struct {
	deps AuditDependencies
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(deps AuditDependencies) *AuditHandler {
	return &AuditHandler{deps: deps}
}

// HandleGetUnresolved handles GET /audit/unresolved requests.
func (h *AuditHandler) HandleGetUnresolved(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_unresolved"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	report, err := h.deps.Unresolved(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
