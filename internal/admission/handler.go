// Package admission is the HTTP acceptance boundary for the ingestion
// pipeline: it normalizes a raw JSON payload into records and enforces
// backpressure by forwarding them to the bounded queue.
package admission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ravndata/ingestgate/internal/pipeline"
)

type ingestRequest struct {
	Payload json.RawMessage `json:"payload"`
}

type ingestResponse struct {
	AcceptedCount int    `json:"accepted_count"`
	Message       string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler accepts a JSON object or a list of JSON objects under
// "payload" and admits each as a record to Pipeline.
type Handler struct {
	Pipeline     *pipeline.Pipeline
	Logger       *slog.Logger
	MaxBodyBytes int64
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	defer r.Body.Close()

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	records, err := normalizePayload(req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Pipeline.Admit(records); err != nil {
		if errors.Is(err, pipeline.ErrQueueFull) {
			writeError(w, http.StatusTooManyRequests, "ingestion queue is full")
			return
		}
		h.Logger.Error("admission failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusAccepted, ingestResponse{
		AcceptedCount: len(records),
		Message:       fmt.Sprintf("successfully ingested %d records", len(records)),
	})
}

// normalizePayload accepts a single JSON object or a non-empty list of
// JSON objects and returns one Record per object.
func normalizePayload(raw json.RawMessage) ([]pipeline.Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload must not be empty")
	}

	switch trimmed[0] {
	case '{':
		return []pipeline.Record{pipeline.NewRecord(trimmed)}, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("payload must be a JSON object or a list of JSON objects")
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("payload must not be empty")
		}
		records := make([]pipeline.Record, 0, len(items))
		for _, item := range items {
			if !isJSONObject(item) {
				return nil, fmt.Errorf("all records must be JSON objects")
			}
			records = append(records, pipeline.NewRecord(item))
		}
		return records, nil

	default:
		return nil, fmt.Errorf("payload must be a JSON object or a list of JSON objects")
	}
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
