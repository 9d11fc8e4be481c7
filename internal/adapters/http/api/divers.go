// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	service "github.com/remoterob/fish-bingo/internal/app"
)

// DiverHandler handles per-diver requests.
type DiverHandler struct {
	deps DiverDependencies
}

// NewDiverHandler creates a new diver handler.
func NewDiverHandler(deps DiverDependencies) *DiverHandler {
	return &DiverHandler{deps: deps}
}

// HandleGetDiver handles GET /divers/{id} and GET /divers/{id}/bonuses.
func (h *DiverHandler) HandleGetDiver(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_diver"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /divers/
	path := strings.TrimPrefix(r.URL.Path, "/divers/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch rest {
	case "":
		diver, err := h.deps.Diver(r.Context(), id)
		if err != nil {
			writeFailure(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, diver)
	case "bonuses":
		month, err := parseMonth(r.URL.Query().Get("month"))
		if err != nil {
			writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
			return
		}
		bonuses, err := h.deps.Bonuses(r.Context(), id, month)
		if err != nil {
			writeFailure(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, bonuses)
	default:
		writeFailure(w, op, fmt.Errorf("%w: /divers/%s/%s", ErrNotFound, id, rest))
	}
}

// parseMonth reads the month query value: empty for every bonus, "current"
// for the service clock's month, or a month number.
func parseMonth(raw string) (int, error) {
	switch raw {
	case "":
		return 0, nil
	case "current":
		return service.CurrentMonth, nil
	}
	m, err := strconv.Atoi(raw)
	if err != nil || m < 1 || m > 12 {
		return 0, fmt.Errorf("month %q", raw)
	}
	return m, nil
}
