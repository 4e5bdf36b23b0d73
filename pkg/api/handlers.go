package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mimir-aip/credit-decision/pkg/models"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Loan decision service. POST applications to /predict or /prediction_api.",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"model":      s.predictor.Key(),
		"model_type": s.predictor.ModelType(),
	})
}

// handlePredictOne scores a single application object and answers with
// its status label.
func (s *Server) handlePredictOne(w http.ResponseWriter, r *http.Request) {
	var item map[string]any
	if err := decodeBody(w, r, &item); err != nil {
		writeBadRequestResponse(w, err.Error())
		return
	}
	if item == nil {
		writeBadRequestResponse(w, "request body must be a JSON object")
		return
	}

	resp, err := s.predictor.PredictMaps([]map[string]any{item})
	if err != nil {
		s.writePredictionError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.StatusResponse{Status: resp.Predictions[0]})
}

// handlePredictBatch scores an array of application objects.
func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var items []map[string]any
	if err := decodeBody(w, r, &items); err != nil {
		writeBadRequestResponse(w, err.Error())
		return
	}
	if len(items) == 0 {
		writeBadRequestResponse(w, "request body must be a non-empty JSON array")
		return
	}
	for i, item := range items {
		if item == nil {
			writeBadRequestResponse(w, fmt.Sprintf("item %d must be a JSON object", i))
			return
		}
	}

	resp, err := s.predictor.PredictMaps(items)
	if err != nil {
		s.writePredictionError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	list, err := s.registry.ListModels()
	if err != nil {
		s.logger.Error("failed to list models", "error", err)
		writeInternalServerErrorResponse(w, "")
		return
	}
	writeJSONResponse(w, http.StatusOK, list)
}

// decodeBody reads one JSON value into v. Numbers stay json.Number so
// feature conversion sees them exactly as sent.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid JSON: trailing data after value")
	}
	return nil
}
