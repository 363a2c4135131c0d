package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	agent "github.com/Protocol-Lattice/research-agent"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

const (
	DuckDuckGoToolName = "duckduckgo_search"

	duckDuckGoLiteURL        = "https://lite.duckduckgo.com/lite/"
	defaultDuckDuckGoResults = 5
	defaultDuckDuckGoTimeout = 15 * time.Second
	duckDuckGoMaxBackoff     = 30 * time.Second
	duckDuckGoMaxRetries     = 5

	noDuckDuckGoResult = "No good DuckDuckGo Search Result was found"
	browserUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// duckDuckGoLimiter holds every DuckDuckGo instance in the process to 1 query per second.
var duckDuckGoLimiter = rate.NewLimiter(rate.Every(time.Second), 1)

// SearchResult is a single web hit.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// DuckDuckGoOptions tune the web search. Zero values pick defaults.
type DuckDuckGoOptions struct {
	MaxResults int
	Timeout    time.Duration
}

// DuckDuckGo scrapes the DuckDuckGo lite HTML interface.
type DuckDuckGo struct {
	// Endpoint overrides the lite URL, e.g. for tests.
	Endpoint   string
	MaxResults int
	Client     *http.Client
	// Limiter overrides the process-wide limiter.
	Limiter *rate.Limiter
	// Backoff is the first delay after an HTTP 429. It doubles up to 30s.
	Backoff time.Duration
}

func NewDuckDuckGo(opts DuckDuckGoOptions) *DuckDuckGo {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultDuckDuckGoTimeout
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = defaultDuckDuckGoResults
	}
	return &DuckDuckGo{
		MaxResults: limit,
		Client:     &http.Client{Timeout: timeout},
		Backoff:    time.Second,
	}
}

func (d *DuckDuckGo) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        DuckDuckGoToolName,
		Description: "Search the web for current events, recent news, company updates and anything time-sensitive. Input is a search query.",
		Kind:        agent.ToolKindWebSearch,
		InputSchema: queryInputSchema("Search terms for the web"),
	}
}

func (d *DuckDuckGo) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	query, err := queryArgument(req.Arguments)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	results, err := d.Search(ctx, query)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	return agent.ToolResponse{Content: formatSearchResults(results), Metadata: map[string]string{"query": query}}, nil
}

// Search posts query to the lite endpoint and parses the result table.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is empty")
	}
	form := url.Values{}
	form.Set("q", query)

	delay := d.Backoff
	if delay <= 0 {
		delay = time.Second
	}
	var resp *http.Response
	for attempt := 0; ; attempt++ {
		if err := d.limiter().Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint(), strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err = d.client().Do(req)
		if err != nil {
			return nil, fmt.Errorf("duckduckgo request: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()
		if attempt >= duckDuckGoMaxRetries {
			return nil, errors.New("duckduckgo rate limited")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, duckDuckGoMaxBackoff)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	results, err := parseLiteResults(string(body))
	if err != nil {
		return nil, err
	}
	if len(results) > d.MaxResults && d.MaxResults > 0 {
		results = results[:d.MaxResults]
	}
	return results, nil
}

// parseLiteResults pairs each result-link anchor with the following result-snippet cell.
func parseLiteResults(page string) ([]SearchResult, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo html: %w", err)
	}

	var results []SearchResult
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result-link"):
				href := resolveResultURL(attr(n, "href"))
				title := strings.TrimSpace(textContent(n))
				if href != "" && title != "" {
					results = append(results, SearchResult{Title: title, URL: href})
				}
				return
			case n.Data == "td" && hasClass(n, "result-snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = collapseSpace(textContent(n))
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

func formatSearchResults(results []SearchResult) string {
	if len(results) == 0 {
		return noDuckDuckGoResult
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		snippet := r.Snippet
		if snippet == "" {
			snippet = "(no snippet)"
		}
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", r.Title, snippet, r.URL))
	}
	return strings.Join(lines, "\n")
}

// resolveResultURL unwraps DuckDuckGo redirect links to the target URL.
func resolveResultURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (d *DuckDuckGo) endpoint() string {
	if d.Endpoint != "" {
		return d.Endpoint
	}
	return duckDuckGoLiteURL
}

func (d *DuckDuckGo) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return http.DefaultClient
}

func (d *DuckDuckGo) limiter() *rate.Limiter {
	if d.Limiter != nil {
		return d.Limiter
	}
	return duckDuckGoLimiter
}

var _ agent.Tool = (*DuckDuckGo)(nil)
