package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"groq-chatbot/internal/llm"
	"groq-chatbot/internal/models"
	"groq-chatbot/internal/tools"
)

// ErrNoOutput is returned when the agent finishes without producing any
// text to parse.
var ErrNoOutput = errors.New("agent returned no parseable output")

// ParseError wraps a failure to decode the model's final output into the
// structured response.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse agent output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ActivityPublisher receives progress events while the agent works.
type ActivityPublisher interface {
	Publish(event models.ActivityEvent)
}

// ResearchService runs the tool-calling agent loop for a single query and
// parses the final model output into a ResearchResponse.
type ResearchService struct {
	llmClient     llm.Client
	registry      *tools.Registry
	publisher     ActivityPublisher
	maxIterations int
	dumpDir       string
}

// NewResearchService creates the agent service. publisher may be nil when
// nothing subscribes to progress events.
func NewResearchService(client llm.Client, registry *tools.Registry, publisher ActivityPublisher, maxIterations int, dumpDir string) *ResearchService {
	if maxIterations <= 0 {
		maxIterations = 5
	}
	if dumpDir == "" {
		dumpDir = "."
	}
	return &ResearchService{
		llmClient:     client,
		registry:      registry,
		publisher:     publisher,
		maxIterations: maxIterations,
		dumpDir:       dumpDir,
	}
}

// Run answers one research query. Each iteration sends the transcript to
// the model; tool calls are executed and fed back until the model answers
// in plain text or the iteration limit is hit.
func (s *ResearchService) Run(ctx context.Context, query string) (*models.ResearchResponse, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt()},
		{Role: llm.RoleUser, Content: query},
	}
	specs := s.registry.Specs()

	var (
		output    string
		finished  bool
		toolsUsed []string
	)

	for i := 1; i <= s.maxIterations; i++ {
		s.publish(models.ActivityEvent{Type: "iteration", Iteration: i})

		resp, err := s.llmClient.Chat(ctx, messages, specs)
		if err != nil {
			s.publish(models.ActivityEvent{Type: "agent_error", Detail: err.Error()})
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			output = resp.Content
			finished = true
			break
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			name := call.Function.Name
			s.publish(models.ActivityEvent{Type: "tool_start", Tool: name, Iteration: i})
			log.Printf("Agent calling tool %s with args %s", name, call.Function.Arguments)

			result, err := s.registry.Execute(ctx, name, json.RawMessage(call.Function.Arguments))
			if err != nil {
				// The model gets the failure as a tool result so it can
				// recover with a different call or answer without it.
				result = fmt.Sprintf("tool error: %v", err)
				log.Printf("Tool %s failed: %v", name, err)
			}
			toolsUsed = appendUnique(toolsUsed, name)
			s.publish(models.ActivityEvent{Type: "tool_end", Tool: name, Iteration: i})

			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Name:       name,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	if !finished {
		output = "Agent stopped due to iteration limit."
	}

	if strings.TrimSpace(output) == "" {
		s.dump("agent_debug_no_output", map[string]any{
			"query":        query,
			"raw_response": fmt.Sprintf("%+v", messages),
		})
		s.publish(models.ActivityEvent{Type: "agent_error", Detail: ErrNoOutput.Error()})
		return nil, ErrNoOutput
	}

	parsed, err := parseStructured(output)
	if err != nil {
		s.dump("agent_parse_error", map[string]any{
			"query":       query,
			"output_text": output,
		})
		s.publish(models.ActivityEvent{Type: "agent_error", Detail: err.Error()})
		return nil, &ParseError{Err: err}
	}

	if parsed.ToolUsed == "" && len(toolsUsed) > 0 {
		parsed.ToolUsed = strings.Join(toolsUsed, ", ")
	}
	if parsed.Sources == nil {
		parsed.Sources = []string{}
	}

	s.publish(models.ActivityEvent{Type: "agent_done"})
	return parsed, nil
}

func (s *ResearchService) publish(event models.ActivityEvent) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(event)
}

// dump writes a debug file for a failed run. Write failures are logged,
// never fatal.
func (s *ResearchService) dump(prefix string, payload map[string]any) string {
	ts := strings.ReplaceAll(time.Now().UTC().Format("2006-01-02T15:04:05.000000"), ":", "-")
	path := filepath.Join(s.dumpDir, fmt.Sprintf("%s_%s.json", prefix, ts))

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Printf("Failed to encode debug dump %s: %v", path, err)
		return ""
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Failed to write debug dump %s: %v", path, err)
		return ""
	}
	log.Printf("Debug output written to %s", path)
	return path
}

// parseStructured extracts the JSON document from the model output and
// unmarshals it. Models routinely wrap JSON in markdown fences or stray
// prose despite the format instructions.
func parseStructured(raw string) (*models.ResearchResponse, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var parsed models.ResearchResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start >= 0 && end > start {
			var retry models.ResearchResponse
			if err2 := json.Unmarshal([]byte(text[start:end+1]), &retry); err2 == nil {
				return validateStructured(&retry)
			}
		}
		return nil, err
	}
	return validateStructured(&parsed)
}

// validateStructured rejects documents the chat surface cannot use.
func validateStructured(resp *models.ResearchResponse) (*models.ResearchResponse, error) {
	if strings.TrimSpace(resp.Reply) == "" {
		return nil, fmt.Errorf("output JSON is missing the reply field")
	}
	return resp, nil
}

// systemPrompt is the research-assistant instruction. The format section
// pins the exact JSON document the parser expects back.
func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a research assistant that will help generate a research paper.\n")
	b.WriteString("Answer the user query and use necessary tools.\n")
	b.WriteString("Wrap the output in this format and provide no other text\n")
	b.WriteString(formatInstructions())
	return b.String()
}

func formatInstructions() string {
	return "The output should be formatted as a JSON instance that conforms to the JSON schema below.\n\n" +
		"Here is the output schema:\n" +
		"```\n" +
		`{"properties": {"topic": {"title": "Topic", "type": "string"}, "summary": {"title": "Summary", "type": "string"}, "sources": {"items": {"type": "string"}, "title": "Sources", "type": "array"}, "tool_used": {"title": "Tool Used", "type": "string"}, "reply": {"title": "Reply", "type": "string"}}, "required": ["topic", "summary", "sources", "tool_used", "reply"]}` + "\n" +
		"```"
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
