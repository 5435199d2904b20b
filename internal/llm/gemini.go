package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GeminiClient adapts the Gemini SDK to the provider interface.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a Gemini-backed chat client.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, modelName: modelName}, nil
}

// Chat sends the conversation through a fresh model handle. A handle per
// call keeps concurrent requests from sharing tool and system state.
func (c *GeminiClient) Chat(ctx context.Context, messages []Message, tools []Tool) (*Response, error) {
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(0)
	model.Tools = toGenaiTools(tools)

	system, history := splitSystem(messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	contents := toGenaiContents(history)
	if len(contents) == 0 {
		return nil, fmt.Errorf("no messages to send")
	}

	session := model.StartChat()
	session.History = contents[:len(contents)-1]

	last := contents[len(contents)-1]
	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	return fromGenaiResponse(resp), nil
}

// Close releases the underlying SDK client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// splitSystem pulls system messages out of the conversation; Gemini takes
// them as a model-level instruction rather than as turns.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

func toGenaiContents(messages []Message) []*genai.Content {
	var out []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			content := &genai.Content{Role: "model"}
			if m.Content != "" {
				content.Parts = append(content.Parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					args = map[string]any{}
				}
				content.Parts = append(content.Parts, genai.FunctionCall{Name: tc.Function.Name, Args: args})
			}
			out = append(out, content)
		case RoleTool:
			out = append(out, &genai.Content{
				Role: "function",
				Parts: []genai.Part{genai.FunctionResponse{
					Name:     m.Name,
					Response: map[string]any{"result": m.Content},
				}},
			})
		default:
			out = append(out, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	return out
}

func fromGenaiResponse(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch p := part.(type) {
			case genai.Text:
				text.WriteString(string(p))
			case genai.FunctionCall:
				args, err := json.Marshal(p.Args)
				if err != nil {
					args = []byte("{}")
				}
				out.ToolCalls = append(out.ToolCalls, ToolCall{
					ID:   uuid.NewString(),
					Type: ToolCallTypeFunction,
					Function: ToolCallFunction{
						Name:      p.Name,
						Arguments: string(args),
					},
				})
			}
		}
	}
	out.Content = text.String()
	return out
}

func toGenaiTools(tools []Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  toGenaiSchema(t.Function.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// toGenaiSchema converts an object-of-strings JSON schema, the only shape
// our tools declare, into the SDK's schema type.
func toGenaiSchema(params any) *genai.Schema {
	obj, ok := params.(map[string]any)
	if !ok {
		return nil
	}

	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
	}
	if props, ok := obj["properties"].(map[string]any); ok {
		for name, raw := range props {
			prop := &genai.Schema{Type: genai.TypeString}
			if p, ok := raw.(map[string]any); ok {
				if d, ok := p["description"].(string); ok {
					prop.Description = d
				}
			}
			schema.Properties[name] = prop
		}
	}
	switch req := obj["required"].(type) {
	case []string:
		schema.Required = req
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	return schema
}
