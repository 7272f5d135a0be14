package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/unalkalkan/QuizForge/internal/formatter"
	"github.com/unalkalkan/QuizForge/internal/generation"
	"github.com/unalkalkan/QuizForge/internal/parser"
	"github.com/unalkalkan/QuizForge/internal/upload"
)

// errInvalidBody is returned for request bodies that are not the expected JSON
var errInvalidBody = errors.New("invalid request body")

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(data)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, errorResponse{Error: message}, status)
}

// statusFor maps an error from any layer to the HTTP status reported to the client
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidBody),
		formatter.IsValidationError(err),
		upload.IsValidationError(err),
		parser.IsValidationError(err):
		return http.StatusBadRequest
	}

	switch generation.KindOf(err) {
	case generation.KindInvalidInput:
		return http.StatusBadRequest
	case generation.KindRateLimited:
		return http.StatusTooManyRequests
	case generation.KindUnauthorized:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
