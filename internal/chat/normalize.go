package chat

import (
	"encoding/json"
	"fmt"

	"groq-chatbot/internal/models"
)

// Normalize maps a decoded JSON payload of any shape onto the flat
// message list the transcript renders. Shapes are tried in order and the
// first match wins:
//
//  1. an object with a string "reply" field: one assistant message
//  2. an object with a non-empty "messages" array: one message per entry
//  3. a bare string: one assistant message with the text verbatim
//  4. anything else: one assistant message holding the payload re-encoded
//     as JSON
//
// The function is total: every payload yields at least one message and an
// unrecognized shape is never an error.
func Normalize(data any) []models.ChatMessage {
	if obj, ok := data.(map[string]any); ok {
		if reply, ok := obj["reply"].(string); ok {
			return []models.ChatMessage{{Role: models.RoleAssistant, Content: reply}}
		}
		if entries, ok := obj["messages"].([]any); ok && len(entries) > 0 {
			msgs := make([]models.ChatMessage, 0, len(entries))
			for _, e := range entries {
				msgs = append(msgs, normalizeEntry(e))
			}
			return msgs
		}
	}
	if s, ok := data.(string); ok {
		return []models.ChatMessage{{Role: models.RoleAssistant, Content: s}}
	}
	return []models.ChatMessage{{Role: models.RoleAssistant, Content: jsonText(data)}}
}

// normalizeEntry converts a single "messages" array entry. Only "user" is
// honored as a role; a missing or unrecognized role falls back to
// assistant. Content falls back from "content" to "text" to empty.
func normalizeEntry(e any) models.ChatMessage {
	entry, _ := e.(map[string]any)

	msg := models.ChatMessage{Role: models.RoleAssistant}
	if role, ok := entry["role"].(string); ok && role == string(models.RoleUser) {
		msg.Role = models.RoleUser
	}
	if v, ok := entry["content"]; ok && v != nil {
		msg.Content = asText(v)
	} else if v, ok := entry["text"]; ok && v != nil {
		msg.Content = asText(v)
	}
	return msg
}

// asText renders a field value as display text. Strings pass through
// untouched, anything else is re-encoded as JSON.
func asText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return jsonText(v)
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
