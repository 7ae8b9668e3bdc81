package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/ingest"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/logging"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/services"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/store"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// multipartOverhead is added to the upload limit for multipart framing.
const multipartOverhead = 1 << 20

// maxMultipartMemory is how much of an upload is buffered in memory before
// spilling to a temporary file.
const maxMultipartMemory = 32 << 20

// ConvertRequest for POST /api/convert
type ConvertRequest struct {
	// DatasetID may be omitted to use the dataset most recently processed
	// in this session.
	DatasetID  string `json:"dataset_id,omitempty"`
	Column     string `json:"column"`
	TargetType string `json:"target_type"`
}

// ConvertResponse is the dataset after a conversion plus the conversion
// outcome.
type ConvertResponse struct {
	*services.ProcessedDataset
	Conversion *models.CoercionSummary `json:"conversion"`
	Message    string                  `json:"message"`
}

// ============================================================================
// Handler
// ============================================================================

// DatasetHandler handles upload, inspection and column conversion requests.
type DatasetHandler struct {
	processor services.DatasetProcessor
	decoder   *ingest.Decoder
	datasets  store.DatasetStore
	sessions  *store.SessionManager
	logger    *zap.Logger
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(
	processor services.DatasetProcessor,
	decoder *ingest.Decoder,
	datasets store.DatasetStore,
	sessions *store.SessionManager,
	logger *zap.Logger,
) *DatasetHandler {
	return &DatasetHandler{
		processor: processor,
		decoder:   decoder,
		datasets:  datasets,
		sessions:  sessions,
		logger:    logger,
	}
}

// RegisterRoutes registers the dataset handler's routes on the given mux.
func (h *DatasetHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/process", h.Process)
	mux.HandleFunc("POST /api/convert", h.Convert)
	mux.HandleFunc("GET /api/datasets/{id}", h.Get)
	mux.HandleFunc("DELETE /api/datasets/{id}", h.Delete)
}

// Process handles POST /api/process
// Accepts a multipart form with a "file" field, profiles it and returns the
// processed dataset.
func (h *DatasetHandler) Process(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.decoder.MaxBytes()+multipartOverhead)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, fmt.Errorf("%w: %v", apperrors.ErrUploadTooLarge, err), "parse upload", h.logger)
			return
		}
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Expected a multipart form with a file field"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_file", "No file uploaded"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	defer file.Close()

	raw, err := h.decoder.Decode(header.Filename, file)
	if err != nil {
		writeServiceError(w, err, "decode upload", h.logger)
		return
	}

	ds, err := h.processor.Process(r.Context(), raw)
	if err != nil {
		writeServiceError(w, err, "process dataset", h.logger)
		return
	}

	response := h.processor.Summarize(ds)
	h.datasets.Put(ds)
	if err := h.sessions.RememberDataset(w, r, ds.ID); err != nil {
		h.logger.Warn("Failed to save dataset session", zap.Error(err))
	}

	h.logger.Info("Processed upload",
		zap.String("dataset_id", ds.ID.String()),
		zap.String("file_name", logging.SanitizeFileName(header.Filename)),
		zap.Int("total_rows", ds.Stats.TotalRows),
		zap.Int("total_columns", ds.Stats.TotalColumns))

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/datasets/{id}
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseDatasetID(w, r, h.logger)
	if !ok {
		return
	}

	var response *services.ProcessedDataset
	err := h.datasets.With(r.Context(), id, func(ds *models.Dataset) error {
		response = h.processor.Summarize(ds)
		return nil
	})
	if err != nil {
		writeServiceError(w, err, "get dataset", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/datasets/{id}
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseDatasetID(w, r, h.logger)
	if !ok {
		return
	}

	h.datasets.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// Convert handles POST /api/convert
// Coerces one column to a new semantic type. An incompatible request leaves
// the dataset unchanged.
func (h *DatasetHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.Column == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "column is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	target, err := models.ParseSemanticType(req.TargetType)
	if err != nil {
		writeServiceError(w, err, "parse target type", h.logger)
		return
	}

	id, ok := h.resolveDatasetID(w, r, req.DatasetID)
	if !ok {
		return
	}

	var response ConvertResponse
	err = h.datasets.With(r.Context(), id, func(ds *models.Dataset) error {
		summary, err := h.processor.Convert(r.Context(), ds, req.Column, target)
		if err != nil {
			return err
		}
		response = ConvertResponse{
			ProcessedDataset: h.processor.Summarize(ds),
			Conversion:       summary,
			Message:          summary.Message(),
		}
		return nil
	})
	if err != nil {
		writeServiceError(w, err, "convert column", h.logger)
		return
	}

	h.logger.Info("Converted column",
		zap.String("dataset_id", id.String()),
		zap.String("column", logging.SanitizeValue(req.Column)),
		zap.String("target_type", string(target)),
		zap.Int64("rejected", response.Conversion.RejectedCount))

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// resolveDatasetID uses the explicit ID when given, otherwise the session's
// last dataset. Writes an error response and returns false on failure.
func (h *DatasetHandler) resolveDatasetID(w http.ResponseWriter, r *http.Request, explicit string) (uuid.UUID, bool) {
	if explicit != "" {
		id, err := uuid.Parse(explicit)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_dataset_id", "Invalid dataset ID format"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return uuid.Nil, false
		}
		return id, true
	}

	if id, ok := h.sessions.LastDataset(r); ok {
		return id, true
	}

	if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "dataset_id is required"); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
	return uuid.Nil, false
}
