// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/remoterob/fish-bingo/internal/domain/leaderboard"
)

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N requests. Without a
// limit the configured maximum applies.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := h.limit(r.URL.Query().Get("limit"))
	if err != nil {
		code := "bad_request"
		if n > h.maxLimit {
			code = "limit_exceeded"
		}
		writeError(w, http.StatusBadRequest, code, Wrap(op, err))
		return
	}
	entries, err := h.deps.Leaderboard(r.Context(), n)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetGroups handles GET /leaderboard/groups?by=attr[&top=N] requests.
func (h *LeaderboardHandler) HandleGetGroups(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard_groups"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	attr, err := leaderboard.ParseAttribute(r.URL.Query().Get("by"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	top := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		top, err = strconv.Atoi(raw)
		if err != nil || top < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	groups, err := h.deps.Groups(r.Context(), attr, top)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// HandleGetClubs handles GET /clubs requests.
func (h *LeaderboardHandler) HandleGetClubs(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_clubs"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	clubs, err := h.deps.Clubs(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, clubs)
}

// limit parses the limit parameter. It returns the parsed value alongside
// any error so callers can tell an oversized limit from a malformed one.
func (h *LeaderboardHandler) limit(raw string) (int, error) {
	if raw == "" {
		return h.maxLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrBadRequest
	}
	if n > h.maxLimit {
		return n, fmt.Errorf("%w: %d > %d", ErrLimitExceeded, n, h.maxLimit)
	}
	return n, nil
}
