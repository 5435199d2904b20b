package models

// WebSocket message types

// ActivityEvent is broadcast over the activity socket while the agent
// works on a query. Events are advisory; the research result itself is
// only ever delivered on the HTTP response.
type ActivityEvent struct {
	Type      string `json:"type"` // "iteration" | "tool_start" | "tool_end" | "agent_done" | "agent_error"
	Tool      string `json:"tool,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Iteration int    `json:"iteration,omitempty"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
