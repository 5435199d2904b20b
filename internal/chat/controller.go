package chat

import (
	"context"
	"strings"
	"sync"

	"groq-chatbot/internal/models"
)

// fallbackReply is appended whenever no usable reply could be obtained.
const fallbackReply = "Sorry, I couldn't get a reply from the research agent. Please try again."

// ResearchCaller posts a query to the research endpoint and returns the
// decoded JSON body.
type ResearchCaller interface {
	Research(ctx context.Context, query string) (any, error)
}

// Controller owns one conversation and drives its request lifecycle. At
// most one research call is in flight at a time; every outcome of an
// accepted submission (reply, server error or transport fault) lands back
// in the conversation as messages.
type Controller struct {
	conv   *Conversation
	caller ResearchCaller

	mu      sync.Mutex
	pending bool
	lastErr string
}

func NewController(conv *Conversation, caller ResearchCaller) *Controller {
	return &Controller{conv: conv, caller: caller}
}

// Submit runs one full submission and reports whether it was accepted.
// Whitespace-only input is ignored, and a submission arriving while
// another is still in flight is refused; both return false without
// touching the conversation. An accepted submission appends the trimmed
// text as a user message, issues exactly one research call, and appends
// either the normalized reply or a single fallback assistant message.
// Failures are recorded in LastError and never escape; the pending flag
// is reset on every exit path.
func (c *Controller) Submit(ctx context.Context, rawText string) bool {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return false
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return false
	}
	c.pending = true
	c.lastErr = ""
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	}()

	c.conv.Append(models.RoleUser, text)

	data, err := c.caller.Research(ctx, text)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.conv.Append(models.RoleAssistant, fallbackReply)
		return true
	}

	for _, m := range Normalize(data) {
		c.conv.Append(m.Role, m.Content)
	}
	return true
}

// Pending reports whether a request is currently in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// LastError returns the failure description from the most recent
// submission, or the empty string if it succeeded.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Messages returns a snapshot of the conversation in display order.
func (c *Controller) Messages() []models.Message {
	return c.conv.Messages()
}
