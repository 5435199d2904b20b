package models

// ResearchRequest is the payload sent to the research endpoint.
type ResearchRequest struct {
	Query string `json:"query"`
}

// ResearchResponse is the structured result produced by the research agent.
type ResearchResponse struct {
	Topic    string   `json:"topic"`
	Summary  string   `json:"summary"`
	Sources  []string `json:"sources"`
	ToolUsed string   `json:"tool_used"`
	Reply    string   `json:"reply"`
}

// HealthStatus is the body of the liveness endpoints.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
