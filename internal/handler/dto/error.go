package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	// Worker errors
	case errors.Is(err, domain.ErrUnknownMessage):
		return http.StatusBadRequest, "UNKNOWN_MESSAGE", message
	case errors.Is(err, domain.ErrNoController):
		return http.StatusServiceUnavailable, "NO_ACTIVE_WORKER", message
	case errors.Is(err, domain.ErrWorkerState):
		return http.StatusConflict, "INVALID_WORKER_STATE", message
	case errors.Is(err, domain.ErrInstallFailed):
		return http.StatusBadGateway, "INSTALL_FAILED", message

	// Manifest errors
	case errors.Is(err, domain.ErrInvalidManifest):
		return http.StatusUnprocessableEntity, "INVALID_MANIFEST", message
	case errors.Is(err, domain.ErrCoreNotInManifest):
		return http.StatusUnprocessableEntity, "INVALID_MANIFEST", message
	case errors.Is(err, domain.ErrManifestNotFound):
		return http.StatusNotFound, "MANIFEST_NOT_FOUND", message

	// Cache errors
	case errors.Is(err, domain.ErrCacheMiss):
		return http.StatusNotFound, "CACHE_MISS", message
	case errors.Is(err, domain.ErrInvalidCacheKey):
		return http.StatusBadRequest, "INVALID_CACHE_KEY", message

	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
