package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"groq-chatbot/internal/models"
)

// Conversation is the append-only message sequence for one session.
// Messages keep their insertion order and are never edited or removed;
// the sequence lives in memory only and dies with the process.
type Conversation struct {
	mu       sync.RWMutex
	messages []models.Message
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// NewConversationWithGreeting returns a conversation seeded with a single
// assistant greeting.
func NewConversationWithGreeting(greeting string) *Conversation {
	c := NewConversation()
	c.Append(models.RoleAssistant, greeting)
	return c
}

// Append adds a message to the end of the conversation and returns the
// stored message with its generated ID.
func (c *Conversation) Append(role models.Role, content string) models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := models.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	c.messages = append(c.messages, msg)
	return msg
}

// Messages returns a snapshot of the conversation in display order.
func (c *Conversation) Messages() []models.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len reports how many messages the conversation holds.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}
