package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ziyun99/treasurehunt/internal/auth"
	"github.com/ziyun99/treasurehunt/internal/hunt"
	"github.com/ziyun99/treasurehunt/internal/user"
)

// errorResponse is the canonical error envelope returned by the API.
type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// writeDomainError maps domain errors to distinct HTTP responses; anything
// unrecognized is a 500 with a generic message.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, hunt.ErrWrongPassphrase):
		writeError(w, r, http.StatusBadRequest, "wrong_passphrase", hunt.MsgWrongPassphrase)
	case errors.Is(err, hunt.ErrNoPassphrase):
		writeError(w, r, http.StatusNotFound, "not_configured", hunt.MsgNoPassphrase)
	case errors.Is(err, hunt.ErrLocked):
		writeError(w, r, http.StatusForbidden, "locked", hunt.MsgLocked)
	case errors.Is(err, hunt.ErrAlreadyCheckedIn):
		writeError(w, r, http.StatusConflict, "already_checked_in", hunt.MsgAlreadyChecked)
	case errors.Is(err, hunt.ErrInvalidIndex):
		writeError(w, r, http.StatusBadRequest, "invalid_index", "invalid target index")
	case errors.Is(err, hunt.ErrInvalidSort):
		writeError(w, r, http.StatusBadRequest, "invalid_sort", "invalid sort field")
	case errors.Is(err, hunt.ErrMissingUID), errors.Is(err, user.ErrMissingUID):
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing user ID")
	case errors.Is(err, user.ErrEmptyUpdate):
		writeError(w, r, http.StatusBadRequest, "bad_request", "no profile fields to update")
	default:
		logRequestError(r.Context(), logger, fallback, err, "")
		writeError(w, r, http.StatusInternalServerError, "internal", fallback)
	}
}

func playerUID(r *http.Request) string {
	if p, ok := auth.PlayerFromContext(r.Context()); ok {
		return p.UID
	}
	return ""
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, uid string) {
	if logger == nil || err == nil {
		return
	}
	attrs := []any{
		slog.String("uid", uid),
		slog.Any("error", err),
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		attrs = append(attrs, slog.String("requestId", reqID))
	}
	logger.Error(message, attrs...)
}
