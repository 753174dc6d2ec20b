package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Tonisark/ActressManager/logging"
	"github.com/Tonisark/ActressManager/services"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	writeAPIErrors(w, httpStatus, APIErrorDetail{Code: code, Detail: detail})
}

func writeAPIErrors(w http.ResponseWriter, httpStatus int, details ...APIErrorDetail) {
	for i := range details {
		details[i].Status = strconv.Itoa(httpStatus)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(APIErrorResponse{Errors: details})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding JSON response", "component", "http", "error", err)
		}
	}
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	var dup *services.DuplicateError
	var desync *services.IndexDesyncError

	switch {
	case errors.As(err, &verr):
		writeAPIErrors(w, http.StatusBadRequest, APIErrorDetail{Code: "validation_error", Detail: verr.Message, Field: verr.Field})
	case errors.As(err, &dup):
		WriteAPIError(w, http.StatusConflict, "duplicate_profile", dup.Error())
	case errors.Is(err, services.ErrNotFound):
		WriteAPIError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &desync):
		w.Header().Set("Retry-After", "1")
		WriteAPIError(w, http.StatusServiceUnavailable, "index_desync", "search index update failed, the change was not saved; retry or rebuild the index")
	case errors.Is(err, context.Canceled):
		logging.FromContext(r.Context()).Info("request cancelled", "path", r.URL.Path)
	default:
		logging.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func badRequest(w http.ResponseWriter, detail string) {
	WriteAPIError(w, http.StatusBadRequest, "bad_request", detail)
}
