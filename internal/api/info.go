package api

import (
	"net/http"

	"github.com/unalkalkan/QuizForge/internal/provider"
	"github.com/unalkalkan/QuizForge/pkg/types"
)

type infoResponse struct {
	Version            string               `json:"version"`
	StorageAdapter     string               `json:"storage_adapter"`
	GenerationProvider string               `json:"generation_provider"`
	ExportFormats      []types.ExportFormat `json:"export_formats"`
	MaxUploadBytes     int64                `json:"max_upload_bytes"`
	MaxQuestions       int                  `json:"max_questions"`
}

// infoHandler returns basic server information
func infoHandler(version string, cfg *types.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, infoResponse{
			Version:            version,
			StorageAdapter:     cfg.Storage.Adapter,
			GenerationProvider: cfg.Generation.Provider,
			ExportFormats:      types.ExportFormats,
			MaxUploadBytes:     cfg.Upload.MaxSizeBytes,
			MaxQuestions:       cfg.Generation.MaxQuestions,
		}, http.StatusOK)
	}
}

// providersHandler returns information about registered providers
func providersHandler(registry *provider.Registry, active string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]any{
			"llm":    registry.ListLLM(),
			"active": active,
		}, http.StatusOK)
	}
}
