package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"groq-chatbot/internal/llm"
)

const (
	searchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// maxSearchResults caps how many result snippets get joined into the
	// tool output.
	maxSearchResults = 4

	noSearchResults = "No good DuckDuckGo Search Result was found"
)

var (
	searchSnippetRegex = regexp.MustCompile(`(?s)<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
	htmlTagRegex       = regexp.MustCompile(`<[^>]+>`)
)

// SearchTool answers web queries by scraping DuckDuckGo's HTML endpoint,
// which serves results without requiring an API key.
type SearchTool struct {
	httpClient *http.Client
	baseURL    string
}

// NewSearchTool creates a search tool backed by DuckDuckGo.
func NewSearchTool() *SearchTool {
	return &SearchTool{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://html.duckduckgo.com/html/",
	}
}

// Definition returns the registry entry for the tool.
func (t *SearchTool) Definition() Tool {
	return Tool{
		Spec: llm.FunctionTool("search",
			"Search the web for the latest information on the given topic",
			queryParameters("The topic to search the web for")),
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			query, err := queryArg(args)
			if err != nil {
				return "", err
			}
			return t.Search(ctx, query)
		},
	}
}

// Search fetches the result page for the query and joins the top snippets
// into a single text blob.
func (t *SearchTool) Search(ctx context.Context, query string) (string, error) {
	reqURL := t.baseURL + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read search results: %w", err)
	}

	snippets := extractSnippets(string(body), maxSearchResults)
	if len(snippets) == 0 {
		return noSearchResults, nil
	}
	return strings.Join(snippets, " "), nil
}

// extractSnippets pulls the snippet text out of the result page, stripped
// of markup and collapsed to single-space runs.
func extractSnippets(page string, limit int) []string {
	matches := searchSnippetRegex.FindAllStringSubmatch(page, limit)
	var snippets []string
	for _, m := range matches {
		text := htmlTagRegex.ReplaceAllString(m[1], "")
		text = html.UnescapeString(text)
		text = strings.Join(strings.Fields(text), " ")
		if text != "" {
			snippets = append(snippets, text)
		}
	}
	return snippets
}
