package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	agent "github.com/Protocol-Lattice/research-agent"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

const (
	WikipediaToolName = "wikipedia"

	defaultWikipediaTopK     = 3
	defaultWikipediaMaxChars = 1000
	defaultWikipediaLanguage = "en"
	wikipediaMaxQueryLength  = 300

	noWikipediaResult = "No good Wikipedia Search Result was found"
	userAgent         = "research-agent/1.0 (+https://github.com/Protocol-Lattice/research-agent)"
)

// WikipediaOptions tune the encyclopedia lookup. Zero values pick defaults.
type WikipediaOptions struct {
	TopK     int
	MaxChars int
	Language string
}

// Wikipedia searches the MediaWiki API and returns the intro of the best matches.
type Wikipedia struct {
	// BaseURL overrides the API endpoint, e.g. for tests.
	BaseURL  string
	TopK     int
	MaxChars int
	Language string
	Client   *http.Client
}

func NewWikipedia(opts WikipediaOptions) *Wikipedia {
	w := &Wikipedia{
		TopK:     opts.TopK,
		MaxChars: opts.MaxChars,
		Language: strings.TrimSpace(opts.Language),
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
	if w.TopK <= 0 {
		w.TopK = defaultWikipediaTopK
	}
	if w.MaxChars <= 0 {
		w.MaxChars = defaultWikipediaMaxChars
	}
	if w.Language == "" {
		w.Language = defaultWikipediaLanguage
	}
	return w
}

func (w *Wikipedia) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        WikipediaToolName,
		Description: "Look up encyclopedic information: definitions, historical facts, people, places and scientific concepts. Input is a search query.",
		Kind:        agent.ToolKindEncyclopedia,
		InputSchema: queryInputSchema("Search terms for Wikipedia"),
	}
}

func (w *Wikipedia) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	query, err := queryArgument(req.Arguments)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	text, err := w.Search(ctx, query)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	return agent.ToolResponse{Content: text, Metadata: map[string]string{"query": query}}, nil
}

// Search returns "Page: <title>\nSummary: <extract>" blocks for the top matches.
func (w *Wikipedia) Search(ctx context.Context, query string) (string, error) {
	query = truncateRunes(strings.TrimSpace(query), wikipediaMaxQueryLength)
	if query == "" {
		return "", errors.New("query is empty")
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrlimit", strconv.Itoa(w.TopK))
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("exlimit", "max")
	params.Set("redirects", "1")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, w.endpoint()+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := w.client().Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("wikipedia request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return "", errors.New("wikipedia returned invalid JSON")
	}
	if apiErr := gjson.GetBytes(body, "error.info"); apiErr.Exists() {
		return "", fmt.Errorf("wikipedia api: %s", apiErr.String())
	}

	pages := parseWikipediaPages(body)
	if len(pages) == 0 {
		return noWikipediaResult, nil
	}
	if len(pages) > w.TopK {
		pages = pages[:w.TopK]
	}
	blocks := make([]string, 0, len(pages))
	for _, p := range pages {
		blocks = append(blocks, fmt.Sprintf("Page: %s\nSummary: %s", p.title, p.extract))
	}
	return truncateRunes(strings.Join(blocks, "\n\n"), w.MaxChars), nil
}

type wikipediaPage struct {
	index   int64
	title   string
	extract string
}

// parseWikipediaPages returns pages with a non-empty extract in search rank order.
func parseWikipediaPages(body []byte) []wikipediaPage {
	var pages []wikipediaPage
	gjson.GetBytes(body, "query.pages").ForEach(func(_, page gjson.Result) bool {
		extract := strings.TrimSpace(page.Get("extract").String())
		if extract == "" || page.Get("missing").Bool() {
			return true
		}
		pages = append(pages, wikipediaPage{
			index:   page.Get("index").Int(),
			title:   page.Get("title").String(),
			extract: extract,
		})
		return true
	})
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].index < pages[j].index })
	return pages
}

func (w *Wikipedia) endpoint() string {
	if w.BaseURL != "" {
		return w.BaseURL
	}
	return fmt.Sprintf("https://%s.wikipedia.org/w/api.php", w.Language)
}

func (w *Wikipedia) client() *http.Client {
	if w.Client != nil {
		return w.Client
	}
	return http.DefaultClient
}

func queryInputSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string", Description: description},
		},
		Required: []string{"query"},
	}
}

func queryArgument(args map[string]any) (string, error) {
	raw, ok := args["query"]
	if !ok {
		return "", errors.New("missing required argument: query")
	}
	query, err := cast.ToStringE(raw)
	if err != nil {
		return "", fmt.Errorf("query: %w", err)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("query is empty")
	}
	return query, nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

var _ agent.Tool = (*Wikipedia)(nil)
