// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/remoterob/fish-bingo/internal/domain/model"
)

// claimRequest is the body of POST /claims and POST /claims/score.
type claimRequest struct {
	UserID      string `json:"user_id"`
	SpeciesSlug string `json:"species_slug"`
	FirstTime   bool   `json:"first_time"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func (c claimRequest) validate() error {
	if strings.TrimSpace(c.SpeciesSlug) == "" {
		return errors.New("missing species_slug")
	}
	if c.CreatedAt != "" {
		if _, err := time.Parse(time.RFC3339, c.CreatedAt); err != nil {
			return errors.New("invalid created_at; must be RFC3339")
		}
	}
	return nil
}

func (c claimRequest) claim() model.Claim {
	out := model.Claim{UserID: c.UserID, Identifier: c.SpeciesSlug, FirstTime: c.FirstTime}
	if c.CreatedAt != "" {
		out.CreatedAt, _ = time.Parse(time.RFC3339, c.CreatedAt)
	}
	return out
}

// ClaimsHandler handles claim requests.
type ClaimsHandler struct {
	deps ClaimDependencies
}

// NewClaimsHandler creates a new claims handler.
func NewClaimsHandler(deps ClaimDependencies) *ClaimsHandler {
	return &ClaimsHandler{deps: deps}
}

// HandlePostClaim handles POST /claims requests.
func (h *ClaimsHandler) HandlePostClaim(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_claim"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, ok := decodeClaim(w, r, op)
	if !ok {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing user_id")))
		return
	}
	scored, err := h.deps.SubmitClaim(r.Context(), req.claim())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, scored)
}

// HandleScoreClaim handles POST /claims/score requests. Nothing is stored.
func (h *ClaimsHandler) HandleScoreClaim(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_claim"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, ok := decodeClaim(w, r, op)
	if !ok {
		return
	}
	scored, err := h.deps.ScoreClaim(r.Context(), req.claim())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, scored)
}

func decodeClaim(w http.ResponseWriter, r *http.Request, op string) (claimRequest, bool) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return req, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return req, false
	}
	return req, true
}
