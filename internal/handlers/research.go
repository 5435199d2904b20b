package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"groq-chatbot/internal/models"
	"groq-chatbot/internal/services"
)

// ResearchRunner runs one research query to completion.
type ResearchRunner interface {
	Run(ctx context.Context, query string) (*models.ResearchResponse, error)
}

type ResearchHandler struct {
	agent ResearchRunner
}

func NewResearchHandler(agent ResearchRunner) *ResearchHandler {
	return &ResearchHandler{agent: agent}
}

// Root reports liveness. The chat client probes it on startup.
func (h *ResearchHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Message: "Research Agent API running",
	})
}

func (h *ResearchHandler) Research(w http.ResponseWriter, r *http.Request) {
	var req models.ResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"query": "query is required"}, r))
		return
	}

	resp, err := h.agent.Run(r.Context(), query)
	if err != nil {
		handleAgentError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func handleAgentError(w http.ResponseWriter, r *http.Request, err error) {
	var parseErr *services.ParseError
	switch {
	case errors.Is(err, services.ErrNoOutput):
		writeJSON(w, http.StatusBadGateway, errorResp("AGENT_NO_OUTPUT",
			"Agent returned no parseable output. Check server logs.", r))
	case errors.As(err, &parseErr):
		writeJSON(w, http.StatusInternalServerError, errorResp("PARSE_ERROR",
			fmt.Sprintf("Failed to parse agent output: %v. Raw output saved for debugging.", parseErr.Err), r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("AGENT_ERROR",
			fmt.Sprintf("Agent invocation failed: %v", err), r))
	}
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}
