package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	slog.Info("conflict", "message", msg, "error", err)
	http.Error(w, msg, http.StatusConflict)
}

func Forbidden(w http.ResponseWriter, msg string, err error) {
	slog.Warn("forbidden", "message", msg, "error", err)
	http.Error(w, msg, http.StatusForbidden)
}

// StatusFor maps a domain error category onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, bracket.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, bracket.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bracket.ErrConflict), errors.Is(err, bracket.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, bracket.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// FromError writes err with the status of its category. Uncategorised errors are
// logged and hidden behind a generic 500.
func FromError(w http.ResponseWriter, msg string, err error) {
	switch StatusFor(err) {
	case http.StatusBadRequest:
		BadRequest(w, err.Error(), err)
	case http.StatusNotFound:
		NotFound(w, err.Error(), err)
	case http.StatusConflict:
		Conflict(w, err.Error(), err)
	case http.StatusForbidden:
		Forbidden(w, err.Error(), err)
	default:
		InternalServerError(w, msg, err)
	}
}
