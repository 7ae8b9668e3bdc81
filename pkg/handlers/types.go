package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/ingest"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/models"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/typesys"
)

// TypesResponse for GET /api/types
type TypesResponse struct {
	Version         string                                       `json:"version"`
	Types           []models.SemanticType                        `json:"types"`
	ConversionRules map[models.SemanticType][]models.SemanticType `json:"conversion_rules"`
	StorageTypes    map[string]models.SemanticType               `json:"storage_types"`
}

// FileTypesResponse for GET /api/file-types
type FileTypesResponse struct {
	FileTypes []ingest.FileType `json:"file_types"`
}

// TypesHandler exposes the type system so clients can offer only valid
// conversions.
type TypesHandler struct {
	logger *zap.Logger
}

// NewTypesHandler creates a new types handler.
func NewTypesHandler(logger *zap.Logger) *TypesHandler {
	return &TypesHandler{logger: logger}
}

// RegisterRoutes registers the types handler's routes on the given mux.
func (h *TypesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/types", h.Types)
	mux.HandleFunc("GET /api/file-types", h.FileTypes)
}

// Types handles GET /api/types
func (h *TypesHandler) Types(w http.ResponseWriter, r *http.Request) {
	response := TypesResponse{
		Version:         typesys.LatticeVersion,
		Types:           models.ValidSemanticTypes,
		ConversionRules: typesys.ConversionRules(),
		StorageTypes:    typesys.StorageMapping(),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// FileTypes handles GET /api/file-types
func (h *TypesHandler) FileTypes(w http.ResponseWriter, r *http.Request) {
	response := FileTypesResponse{FileTypes: ingest.SupportedFileTypes}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
