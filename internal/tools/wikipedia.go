package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"groq-chatbot/internal/llm"
)

const noWikipediaResults = "No good Wikipedia Search Result was found"

// WikipediaTool looks up the best-matching article via the MediaWiki API
// and returns a short plaintext extract.
type WikipediaTool struct {
	httpClient *http.Client
	baseURL    string
	maxChars   int
}

// NewWikipediaTool creates a lookup tool against en.wikipedia.org. The
// extract is capped so tool results stay small in the agent transcript.
func NewWikipediaTool() *WikipediaTool {
	return &WikipediaTool{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://en.wikipedia.org/w/api.php",
		maxChars:   100,
	}
}

// Definition returns the registry entry for the tool.
func (t *WikipediaTool) Definition() Tool {
	return Tool{
		Spec: llm.FunctionTool("wikipedia",
			"Look up a topic on Wikipedia. Useful for questions about people, places, companies, facts and historical events.",
			queryParameters("The topic to look up")),
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			query, err := queryArg(args)
			if err != nil {
				return "", err
			}
			return t.Lookup(ctx, query)
		},
	}
}

// Lookup searches for the query and returns the top page's title and
// introduction, truncated to the configured length.
func (t *WikipediaTool) Lookup(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrlimit", "1")
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build wikipedia request: %w", err)
	}
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("wikipedia request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia returned status %d", resp.StatusCode)
	}

	var result struct {
		Query struct {
			Pages map[string]struct {
				Title   string `json:"title"`
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode wikipedia response: %w", err)
	}

	for _, page := range result.Query.Pages {
		extract := strings.TrimSpace(page.Extract)
		if runes := []rune(extract); len(runes) > t.maxChars {
			extract = string(runes[:t.maxChars])
		}
		return fmt.Sprintf("Page: %s\nSummary: %s", page.Title, extract), nil
	}
	return noWikipediaResults, nil
}
