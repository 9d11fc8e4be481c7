package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/remoterob/fish-bingo/internal/adapters/repository"
	service "github.com/remoterob/fish-bingo/internal/app"
	"github.com/remoterob/fish-bingo/internal/domain/leaderboard"
)

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

// writeFailure maps upstream errors to status codes.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownDiver), errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, repository.ErrInvalidClaim),
		errors.Is(err, repository.ErrInvalidProfile),
		errors.Is(err, leaderboard.ErrUnknownAttribute),
		errors.Is(err, service.ErrInvalidMonth),
		errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
