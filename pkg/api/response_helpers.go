package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mimir-aip/credit-decision/pkg/dataset"
	"github.com/mimir-aip/credit-decision/pkg/features"
)

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeErrorResponse writes an error response with the given status code and message
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]any{
		"error":  message,
		"status": "error",
	})
}

// writeBadRequestResponse writes a 400 Bad Request response
func writeBadRequestResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusBadRequest, message)
}

// writeInternalServerErrorResponse writes a 500 Internal Server Error response
func writeInternalServerErrorResponse(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal Server Error"
	}
	writeErrorResponse(w, http.StatusInternalServerError, message)
}

// writePredictionError maps input problems to 422 and everything else to 500.
func (s *Server) writePredictionError(w http.ResponseWriter, r *http.Request, err error) {
	if isInputError(err) {
		writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.logger.Error("prediction failed", "path", r.URL.Path, "error", err)
	writeInternalServerErrorResponse(w, "")
}

func isInputError(err error) bool {
	return errors.Is(err, dataset.ErrSchema) ||
		errors.Is(err, features.ErrUnseenCategory) ||
		errors.Is(err, features.ErrNumericDomain)
}
