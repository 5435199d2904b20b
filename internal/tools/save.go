package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"groq-chatbot/internal/llm"
)

// SaveTool appends research output to a local text file. It is only
// registered when enabled in config.
type SaveTool struct {
	path string
}

// NewSaveTool creates a save tool writing to the given file.
func NewSaveTool(path string) *SaveTool {
	return &SaveTool{path: path}
}

// Definition returns the registry entry for the tool.
func (t *SaveTool) Definition() Tool {
	return Tool{
		Spec: llm.FunctionTool("save_text_to_file",
			"Saves structured research data to a text file.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"data": map[string]any{"type": "string", "description": "The text to save"},
				},
				"required": []string{"data"},
			}),
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			var parsed struct {
				Data string `json:"data"`
			}
			if err := json.Unmarshal(args, &parsed); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			return t.Save(parsed.Data)
		},
	}
}

// Save appends the data under a timestamp header.
func (t *SaveTool) Save(data string) (string, error) {
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", t.path, err)
	}
	defer f.Close()

	entry := fmt.Sprintf("--- Research Output ---\nTimestamp: %s\n\n%s\n\n", time.Now().Format(time.RFC3339), data)
	if _, err := f.WriteString(entry); err != nil {
		return "", fmt.Errorf("failed to write research output: %w", err)
	}
	return fmt.Sprintf("Data successfully saved to %s", t.path), nil
}
