package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/logging"
)

// ApiResponse is the standard success envelope.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// errorMapping translates a sentinel error into an HTTP status and error code.
type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{apperrors.ErrColumnNotFound, http.StatusNotFound, "column_not_found"},
	{apperrors.ErrNotFound, http.StatusNotFound, "dataset_not_found"},
	{apperrors.ErrUploadTooLarge, http.StatusRequestEntityTooLarge, "upload_too_large"},
	{apperrors.ErrUnsupportedFileType, http.StatusBadRequest, "unsupported_file_type"},
	{apperrors.ErrMalformedDataset, http.StatusBadRequest, "malformed_dataset"},
	{apperrors.ErrIncompatibleConversion, http.StatusBadRequest, "incompatible_conversion"},
	{apperrors.ErrUnknownSemanticType, http.StatusBadRequest, "unknown_semantic_type"},
}

// statusForError returns the HTTP status and error code for err. Errors that
// are not caused by the request map to 500 "internal_error".
func statusForError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "upload_too_large"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeServiceError writes the error response for a failed operation. Client
// errors echo the error text; internal errors are logged and hidden.
func writeServiceError(w http.ResponseWriter, err error, action string, logger *zap.Logger) {
	status, code := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Failed to "+action, zap.String("error", logging.SanitizeError(err)))
		message = "Internal server error"
	} else if apperrors.IsClientError(err) {
		logger.Info("Rejected invalid input",
			zap.String("action", action),
			zap.String("code", code),
			zap.String("error", logging.SanitizeError(err)))
	} else {
		logger.Debug("Rejected request",
			zap.String("action", action),
			zap.String("code", code),
			zap.String("error", logging.SanitizeError(err)))
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
