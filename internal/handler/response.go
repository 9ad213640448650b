package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON and writeError, so the status
// codes and the error body are decided in one place.
//
// ERROR FORMAT:
//
//	{"error": "client 42 not found", "code": "not_found"}
//
// "error" is the message a person reads; "code" is what the dashboards
// switch on. A 500 never carries the underlying error text: that can hold
// SQL or driver details, so it goes to the log together with the request id.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/macromates/nutribuddy/internal/apperror"
)

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// messageResponse is the body of writes that only confirm what happened.
type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its status code. Errors that are not
// an *apperror.AppError are logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("requestID", chimiddleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "An internal error occurred",
			Code:  "internal_error",
		})
		return
	}

	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	}

	writeJSON(w, status, ErrorResponse{Error: appErr.Message, Code: code})
}
