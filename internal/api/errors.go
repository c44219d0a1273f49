package api

import (
	"errors"
	"net/http"

	"github.com/lexhide/ocrflow/internal/domain"
	"github.com/lexhide/ocrflow/internal/upload"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types to
// clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrUnknownTaskType),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, upload.ErrEmptyFilename):
		return http.StatusBadRequest

	case errors.Is(err, upload.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, upload.ErrUnsupportedExtension):
		return http.StatusUnsupportedMediaType

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"

	case errors.Is(err, domain.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, domain.ErrUnknownTaskType):
		return "Unknown task type"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid task ID"

	case errors.Is(err, upload.ErrEmptyFilename):
		return "Filename cannot be empty"

	case errors.Is(err, upload.ErrFileTooLarge):
		return "File exceeds the maximum allowed size"

	case errors.Is(err, upload.ErrUnsupportedExtension):
		return "File type is not supported"

	default:
		return "An unexpected error occurred"
	}
}
