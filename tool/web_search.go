package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// NameWebSearch is the name of the builtin web search tool.
const NameWebSearch = "web_search"

const webSearchDescription = `Perform a web search and return a list of relevant links with snippets.
Use this when you need up-to-date information or knowledge outside the conversation.`

const (
	webSearchCacheTTL     = 5 * time.Minute
	webSearchDefaultCount = 5
)

type webSearchResult struct {
	Title   string
	URL     string
	Snippet string
}

type webSearchCacheEntry struct {
	results   []webSearchResult
	expiresAt time.Time
}

// WebSearchOptions configures the web search tool.
type WebSearchOptions struct {
	// HTTPClient performs the search requests. Defaults to a client with a
	// 30 second timeout.
	HTTPClient *http.Client

	// ResultCount is the default number of results returned per search.
	ResultCount int
}

// WebSearch queries the DuckDuckGo Instant Answer API. Responses are cached
// briefly so a stuck agent repeating a query does not hammer the backend.
type WebSearch struct {
	httpClient  *http.Client
	resultCount int

	cacheMu sync.Mutex
	cache   map[string]webSearchCacheEntry
}

// NewWebSearch creates the web search tool.
func NewWebSearch(optFns ...func(o *WebSearchOptions)) *WebSearch {
	opts := WebSearchOptions{
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		ResultCount: webSearchDefaultCount,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &WebSearch{
		httpClient:  opts.HTTPClient,
		resultCount: opts.ResultCount,
		cache:       make(map[string]webSearchCacheEntry),
	}
}

// Name implements Tool.
func (w *WebSearch) Name() string { return NameWebSearch }

// Description implements Tool.
func (w *WebSearch) Description() string { return webSearchDescription }

// Parameters implements Tool.
func (w *WebSearch) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to submit.",
			},
			"num_results": map[string]any{
				"type":        "integer",
				"description": "The number of search results to return. Defaults to 5.",
			},
		},
		"required": []any{"query"},
	}
}

// Execute implements Tool.
func (w *WebSearch) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	query, err := requireString(args, "query")
	if err != nil {
		return nil, err
	}

	count, err := intArg(args, "num_results", w.resultCount)
	if err != nil {
		return nil, err
	}

	if count <= 0 {
		count = w.resultCount
	}

	results, err := w.search(ctx, query, count)
	if err != nil {
		return &Result{Error: fmt.Sprintf("Search failed: %s", err)}, nil
	}

	if len(results) == 0 {
		return &Result{Output: fmt.Sprintf("No results found for %q.", query)}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Search results for %q:\n", query)

	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.URL, r.Snippet)
	}

	return &Result{Output: sb.String()}, nil
}

func (w *WebSearch) search(ctx context.Context, query string, count int) ([]webSearchResult, error) {
	cacheKey := fmt.Sprintf("%s:%d", query, count)

	w.cacheMu.Lock()
	if entry, ok := w.cache[cacheKey]; ok && time.Now().Before(entry.expiresAt) {
		w.cacheMu.Unlock()
		return entry.results, nil
	}
	w.cacheMu.Unlock()

	endpoint := fmt.Sprintf("https://api.duckduckgo.com/?q=%s&format=json&no_html=1", url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; FunMaxBot/1.0)")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search backend returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var ddgResp struct {
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		Heading       string `json:"Heading"`
		RelatedTopics []struct {
			FirstURL string `json:"FirstURL"`
			Text     string `json:"Text"`
		} `json:"RelatedTopics"`
	}

	if err := json.Unmarshal(body, &ddgResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]webSearchResult, 0, count)

	if ddgResp.AbstractText != "" && ddgResp.AbstractURL != "" {
		results = append(results, webSearchResult{
			Title:   ddgResp.Heading,
			URL:     ddgResp.AbstractURL,
			Snippet: ddgResp.AbstractText,
		})
	}

	for _, topic := range ddgResp.RelatedTopics {
		if len(results) >= count {
			break
		}

		if topic.FirstURL == "" || topic.Text == "" {
			continue
		}

		title := topic.Text
		if len(title) > 100 {
			title = title[:100]
		}

		results = append(results, webSearchResult{
			Title:   title,
			URL:     topic.FirstURL,
			Snippet: topic.Text,
		})
	}

	w.cacheMu.Lock()
	w.cache[cacheKey] = webSearchCacheEntry{results: results, expiresAt: time.Now().Add(webSearchCacheTTL)}
	w.cacheMu.Unlock()

	return results, nil
}
