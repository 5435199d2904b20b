package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"groq-chatbot/internal/llm"
	"groq-chatbot/internal/models"
	"groq-chatbot/internal/tools"
)

type scriptedLLM struct {
	responses []*llm.Response
	errs      []error
	calls     int
	messages  [][]llm.Message
	tools     [][]llm.Tool
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []llm.Message, toolSpecs []llm.Tool) (*llm.Response, error) {
	idx := s.calls
	s.calls++
	s.messages = append(s.messages, append([]llm.Message(nil), messages...))
	s.tools = append(s.tools, toolSpecs)
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	if idx >= len(s.responses) {
		return &llm.Response{}, nil
	}
	return s.responses[idx], nil
}

func (s *scriptedLLM) Close() error { return nil }

type eventRecorder struct {
	events []models.ActivityEvent
}

func (r *eventRecorder) Publish(event models.ActivityEvent) {
	r.events = append(r.events, event)
}

func (r *eventRecorder) types() []string {
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestRegistry(t *testing.T, result string) (*tools.Registry, *int) {
	t.Helper()
	calls := 0
	reg := tools.NewRegistry()
	err := reg.Register(tools.Tool{
		Spec: llm.FunctionTool("search", "Search the web for the latest information on the given topic", nil),
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			calls++
			return result, nil
		},
	})
	if err != nil {
		t.Fatalf("failed to register stub tool: %v", err)
	}
	return reg, &calls
}

const structuredOutput = `{"topic":"Go","summary":"Go is a language.","sources":["https://go.dev"],"tool_used":"search","reply":"Go is a compiled language designed at Google."}`

func TestRun_ToolLoop(t *testing.T) {
	reg, toolCalls := newTestRegistry(t, "Go is an open source language.")
	stub := &scriptedLLM{
		responses: []*llm.Response{
			{ToolCalls: []llm.ToolCall{{
				ID:   "call_1",
				Type: llm.ToolCallTypeFunction,
				Function: llm.ToolCallFunction{
					Name:      "search",
					Arguments: `{"query":"go language"}`,
				},
			}}},
			{Content: "```json\n" + structuredOutput + "\n```"},
		},
	}
	rec := &eventRecorder{}

	svc := NewResearchService(stub, reg, rec, 5, t.TempDir())
	resp, err := svc.Run(context.Background(), "tell me about go")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stub.calls != 2 {
		t.Errorf("Expected 2 model calls, got %d", stub.calls)
	}
	if *toolCalls != 1 {
		t.Errorf("Expected 1 tool execution, got %d", *toolCalls)
	}
	if resp.Topic != "Go" {
		t.Errorf("Expected topic %q, got %q", "Go", resp.Topic)
	}
	if resp.Reply != "Go is a compiled language designed at Google." {
		t.Errorf("Unexpected reply %q", resp.Reply)
	}
	if resp.ToolUsed != "search" {
		t.Errorf("Expected tool_used %q, got %q", "search", resp.ToolUsed)
	}

	second := stub.messages[1]
	if len(second) != 4 {
		t.Fatalf("Expected 4 messages on second call, got %d", len(second))
	}
	if second[0].Role != llm.RoleSystem || second[1].Role != llm.RoleUser {
		t.Errorf("Expected system then user, got %q then %q", second[0].Role, second[1].Role)
	}
	if second[2].Role != llm.RoleAssistant || len(second[2].ToolCalls) != 1 {
		t.Errorf("Expected assistant tool-call message, got %+v", second[2])
	}
	if second[3].Role != llm.RoleTool || second[3].Name != "search" || second[3].ToolCallID != "call_1" {
		t.Errorf("Expected tool result message, got %+v", second[3])
	}
	if second[3].Content != "Go is an open source language." {
		t.Errorf("Expected tool output as content, got %q", second[3].Content)
	}

	if len(stub.tools[0]) != 1 || stub.tools[0][0].Function.Name != "search" {
		t.Errorf("Expected tool specs passed to model, got %+v", stub.tools[0])
	}

	got := strings.Join(rec.types(), ",")
	want := "iteration,tool_start,tool_end,iteration,agent_done"
	if got != want {
		t.Errorf("Expected events %q, got %q", want, got)
	}
}

func TestRun_DirectAnswer(t *testing.T) {
	reg, toolCalls := newTestRegistry(t, "unused")
	stub := &scriptedLLM{
		responses: []*llm.Response{{Content: structuredOutput}},
	}

	svc := NewResearchService(stub, reg, nil, 5, t.TempDir())
	resp, err := svc.Run(context.Background(), "tell me about go")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stub.calls != 1 {
		t.Errorf("Expected 1 model call, got %d", stub.calls)
	}
	if *toolCalls != 0 {
		t.Errorf("Expected no tool executions, got %d", *toolCalls)
	}
	if resp.Summary != "Go is a language." {
		t.Errorf("Unexpected summary %q", resp.Summary)
	}
}

func TestRun_FillsToolUsedFromInvocations(t *testing.T) {
	reg, _ := newTestRegistry(t, "result")
	noToolUsed := `{"topic":"Go","summary":"s","sources":[],"tool_used":"","reply":"r"}`
	stub := &scriptedLLM{
		responses: []*llm.Response{
			{ToolCalls: []llm.ToolCall{{
				ID:       "call_1",
				Type:     llm.ToolCallTypeFunction,
				Function: llm.ToolCallFunction{Name: "search", Arguments: `{"query":"q"}`},
			}}},
			{Content: noToolUsed},
		},
	}

	svc := NewResearchService(stub, reg, nil, 5, t.TempDir())
	resp, err := svc.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resp.ToolUsed != "search" {
		t.Errorf("Expected tool_used filled from invocations, got %q", resp.ToolUsed)
	}
}

func TestRun_InvocationError(t *testing.T) {
	reg, _ := newTestRegistry(t, "unused")
	stub := &scriptedLLM{errs: []error{errors.New("connection refused")}}

	svc := NewResearchService(stub, reg, nil, 5, t.TempDir())
	_, err := svc.Run(context.Background(), "q")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Expected model error passed through, got %q", err.Error())
	}
	if errors.Is(err, ErrNoOutput) {
		t.Error("Invocation failure must not map to ErrNoOutput")
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		t.Error("Invocation failure must not map to ParseError")
	}
}

func TestRun_EmptyOutput(t *testing.T) {
	reg, _ := newTestRegistry(t, "unused")
	stub := &scriptedLLM{responses: []*llm.Response{{Content: "   "}}}
	dir := t.TempDir()

	svc := NewResearchService(stub, reg, nil, 5, dir)
	_, err := svc.Run(context.Background(), "q")
	if !errors.Is(err, ErrNoOutput) {
		t.Fatalf("Expected ErrNoOutput, got %v", err)
	}

	assertDumpWritten(t, dir, "agent_debug_no_output", "q")
}

func TestRun_ParseError(t *testing.T) {
	reg, _ := newTestRegistry(t, "unused")
	stub := &scriptedLLM{responses: []*llm.Response{{Content: "I could not find anything useful."}}}
	dir := t.TempDir()

	svc := NewResearchService(stub, reg, nil, 5, dir)
	_, err := svc.Run(context.Background(), "q")

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}

	assertDumpWritten(t, dir, "agent_parse_error", "I could not find anything useful.")
}

func TestRun_IterationLimit(t *testing.T) {
	reg, toolCalls := newTestRegistry(t, "result")
	loop := &llm.Response{ToolCalls: []llm.ToolCall{{
		ID:       "call_n",
		Type:     llm.ToolCallTypeFunction,
		Function: llm.ToolCallFunction{Name: "search", Arguments: `{"query":"q"}`},
	}}}
	stub := &scriptedLLM{responses: []*llm.Response{loop, loop, loop}}
	dir := t.TempDir()

	svc := NewResearchService(stub, reg, nil, 3, dir)
	_, err := svc.Run(context.Background(), "q")

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError after iteration limit, got %v", err)
	}
	if stub.calls != 3 {
		t.Errorf("Expected 3 model calls, got %d", stub.calls)
	}
	if *toolCalls != 3 {
		t.Errorf("Expected 3 tool executions, got %d", *toolCalls)
	}
}

func TestRun_ToolFailureFedBackToModel(t *testing.T) {
	reg := tools.NewRegistry()
	err := reg.Register(tools.Tool{
		Spec: llm.FunctionTool("search", "stub", nil),
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			return "", fmt.Errorf("rate limited")
		},
	})
	if err != nil {
		t.Fatalf("failed to register stub tool: %v", err)
	}

	stub := &scriptedLLM{
		responses: []*llm.Response{
			{ToolCalls: []llm.ToolCall{{
				ID:       "call_1",
				Type:     llm.ToolCallTypeFunction,
				Function: llm.ToolCallFunction{Name: "search", Arguments: `{"query":"q"}`},
			}}},
			{Content: structuredOutput},
		},
	}

	svc := NewResearchService(stub, reg, nil, 5, t.TempDir())
	if _, err := svc.Run(context.Background(), "q"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	second := stub.messages[1]
	last := second[len(second)-1]
	if last.Role != llm.RoleTool {
		t.Fatalf("Expected tool message, got %q", last.Role)
	}
	if !strings.Contains(last.Content, "rate limited") {
		t.Errorf("Expected tool error fed back to model, got %q", last.Content)
	}
}

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain", structuredOutput, "Go is a compiled language designed at Google.", false},
		{"fenced", "```json\n" + structuredOutput + "\n```", "Go is a compiled language designed at Google.", false},
		{"bare fence", "```\n" + structuredOutput + "\n```", "Go is a compiled language designed at Google.", false},
		{"prose wrapped", "Here you go:\n" + structuredOutput + "\nHope that helps!", "Go is a compiled language designed at Google.", false},
		{"not json", "no structured data here", "", true},
		{"missing reply", `{"topic":"Go","summary":"s","sources":[],"tool_used":""}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStructured(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.Reply != tt.want {
				t.Errorf("Expected reply %q, got %q", tt.want, got.Reply)
			}
		})
	}
}

func TestSystemPrompt_IncludesFormatSchema(t *testing.T) {
	prompt := systemPrompt()
	if !strings.Contains(prompt, "research assistant") {
		t.Error("Expected research assistant instruction")
	}
	for _, field := range []string{"topic", "summary", "sources", "tool_used", "reply"} {
		if !strings.Contains(prompt, fmt.Sprintf("%q", field)) {
			t.Errorf("Expected schema to mention %q", field)
		}
	}
}

func assertDumpWritten(t *testing.T, dir, prefix, content string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dump dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), prefix) && strings.HasSuffix(entry.Name(), ".json") {
			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				t.Fatalf("failed to read dump file: %v", err)
			}
			if !strings.Contains(string(data), content) {
				t.Errorf("Expected dump to contain %q, got:\n%s", content, data)
			}
			return
		}
	}
	t.Errorf("Expected a %s dump file in %s", prefix, dir)
}
