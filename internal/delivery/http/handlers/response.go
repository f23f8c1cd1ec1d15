package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	attributionResponse "github.com/LavaJover/storefront-attribution-service/internal/delivery/http/dto/attribution/response"
	"github.com/LavaJover/storefront-attribution-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, attributionResponse.SuccessResponse{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, attributionResponse.ErrorResponse{Status: "error", Code: code, Message: message})
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidVisit):
		return http.StatusBadRequest, "INVALID_VISIT", err.Error()
	case errors.Is(err, domain.ErrMissingVisitor):
		return http.StatusBadRequest, "MISSING_VISITOR", "visitor id is required"
	case errors.Is(err, domain.ErrUnknownChannel):
		return http.StatusNotFound, "UNKNOWN_CHANNEL", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

func (h *Handler) writeMappedError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	status, code, msg := mapDomainError(err)
	fields := []any{
		"operation", operation,
		"outcome", "failure",
		"status_code", status,
		"error_code", code,
		"request_id", requestIDFromContext(ctx),
		"error", err.Error(),
	}
	if status >= 500 {
		h.logger.ErrorContext(ctx, "http operation failed", fields...)
	} else {
		h.logger.WarnContext(ctx, "http operation failed", fields...)
	}
	writeError(w, status, code, msg)
}
