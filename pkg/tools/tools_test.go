package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	agent "github.com/Protocol-Lattice/research-agent"
	"golang.org/x/time/rate"
)

const wikipediaFixture = `{"batchcomplete":true,"query":{"pages":[
 {"pageid":2,"ns":0,"title":"Turing machine","index":2,"extract":"A Turing machine is a mathematical model of computation."},
 {"pageid":1,"ns":0,"title":"Alan Turing","index":1,"extract":"Alan Mathison Turing was an English mathematician."},
 {"pageid":3,"ns":0,"title":"Empty","index":3,"extract":""}
]}}`

const liteFixture = `<html><body><table>
<tr><td>1.</td><td><a rel="nofollow" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&amp;rut=abc" class='result-link'>The Go Programming Language</a></td></tr>
<tr><td></td><td class='result-snippet'>Go is an <b>open source</b> programming language.</td></tr>
<tr><td>2.</td><td><a rel="nofollow" href="https://gobyexample.com/" class='result-link'>Go by Example</a></td></tr>
<tr><td></td><td class='result-snippet'>  Hands-on
   introduction </td></tr>
</table></body></html>`

func newTestWikipedia(t *testing.T, handler http.HandlerFunc) *Wikipedia {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	w := NewWikipedia(WikipediaOptions{})
	w.BaseURL = srv.URL
	return w
}

func newTestDuckDuckGo(t *testing.T, handler http.HandlerFunc) *DuckDuckGo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	d := NewDuckDuckGo(DuckDuckGoOptions{})
	d.Endpoint = srv.URL
	d.Limiter = rate.NewLimiter(rate.Inf, 1)
	d.Backoff = time.Millisecond
	return d
}

func TestWikipediaSearchFormatsPagesInRankOrder(t *testing.T) {
	var gotQuery, gotLimit string
	w := newTestWikipedia(t, func(rw http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("gsrsearch")
		gotLimit = r.URL.Query().Get("gsrlimit")
		rw.Write([]byte(wikipediaFixture))
	})

	out, err := w.Search(context.Background(), "  Alan Turing ")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	want := "Page: Alan Turing\nSummary: Alan Mathison Turing was an English mathematician.\n\n" +
		"Page: Turing machine\nSummary: A Turing machine is a mathematical model of computation."
	if out != want {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if gotQuery != "Alan Turing" || gotLimit != "3" {
		t.Fatalf("unexpected request params: %q %q", gotQuery, gotLimit)
	}
}

func TestWikipediaTruncation(t *testing.T) {
	var gotQuery string
	w := newTestWikipedia(t, func(rw http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("gsrsearch")
		rw.Write([]byte(wikipediaFixture))
	})
	w.MaxChars = 20

	out, err := w.Search(context.Background(), strings.Repeat("q", 400))
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len([]rune(out)) != 20 {
		t.Fatalf("expected output truncated to 20 chars, got %d", len([]rune(out)))
	}
	if len(gotQuery) != wikipediaMaxQueryLength {
		t.Fatalf("expected query truncated to %d chars, got %d", wikipediaMaxQueryLength, len(gotQuery))
	}
}

func TestWikipediaNoResults(t *testing.T) {
	w := newTestWikipedia(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte(`{"batchcomplete":true}`))
	})
	out, err := w.Search(context.Background(), "xyzzy")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if out != noWikipediaResult {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestWikipediaErrors(t *testing.T) {
	w := newTestWikipedia(t, func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "down", http.StatusServiceUnavailable)
	})
	if _, err := w.Search(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for HTTP 503")
	}

	w = newTestWikipedia(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte(`{"error":{"code":"badparam","info":"bad search"}}`))
	})
	if _, err := w.Search(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "bad search") {
		t.Fatalf("expected api error, got %v", err)
	}

	if _, err := w.Invoke(context.Background(), agent.ToolRequest{Arguments: map[string]any{}}); err == nil {
		t.Fatalf("expected error for missing query")
	}
}

func TestWikipediaSpec(t *testing.T) {
	spec := NewWikipedia(WikipediaOptions{}).Spec()
	if spec.Name != "wikipedia" || spec.Kind != agent.ToolKindEncyclopedia {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	if spec.Attribution() != "Wikipedia" {
		t.Fatalf("unexpected attribution %q", spec.Attribution())
	}
	if len(spec.InputSchema.Required) != 1 || spec.InputSchema.Required[0] != "query" {
		t.Fatalf("query must be required")
	}
}

func TestDuckDuckGoParsesLiteResults(t *testing.T) {
	var gotMethod, gotQuery string
	d := newTestDuckDuckGo(t, func(rw http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		r.ParseForm()
		gotQuery = r.PostForm.Get("q")
		rw.Write([]byte(liteFixture))
	})

	results, err := d.Search(context.Background(), "golang")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if gotMethod != http.MethodPost || gotQuery != "golang" {
		t.Fatalf("unexpected request: %s q=%q", gotMethod, gotQuery)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].URL != "https://go.dev/" {
		t.Fatalf("redirect not unwrapped: %q", results[0].URL)
	}
	if results[0].Snippet != "Go is an open source programming language." {
		t.Fatalf("unexpected snippet %q", results[0].Snippet)
	}
	if results[1].Snippet != "Hands-on introduction" {
		t.Fatalf("whitespace not collapsed: %q", results[1].Snippet)
	}
}

func TestDuckDuckGoInvokeFormatsAndLimits(t *testing.T) {
	d := newTestDuckDuckGo(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte(liteFixture))
	})
	d.MaxResults = 1

	resp, err := d.Invoke(context.Background(), agent.ToolRequest{Arguments: map[string]any{"query": "golang"}})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	want := "The Go Programming Language: Go is an open source programming language. (https://go.dev/)"
	if resp.Content != want {
		t.Fatalf("unexpected content %q", resp.Content)
	}
}

func TestDuckDuckGoNoResults(t *testing.T) {
	d := newTestDuckDuckGo(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte(`<html><body>No results.</body></html>`))
	})
	resp, err := d.Invoke(context.Background(), agent.ToolRequest{Arguments: map[string]any{"query": "xyzzy"}})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if resp.Content != noDuckDuckGoResult {
		t.Fatalf("unexpected content %q", resp.Content)
	}
}

func TestDuckDuckGoBacksOffOnTooManyRequests(t *testing.T) {
	var hits int32
	d := newTestDuckDuckGo(t, func(rw http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			rw.WriteHeader(http.StatusTooManyRequests)
			return
		}
		rw.Write([]byte(liteFixture))
	})

	results, err := d.Search(context.Background(), "golang")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if atomic.LoadInt32(&hits) != 2 || len(results) != 2 {
		t.Fatalf("expected one retry, got %d hits and %d results", hits, len(results))
	}
}

func TestDuckDuckGoRetriesWaitOnLimiter(t *testing.T) {
	var hits int32
	d := newTestDuckDuckGo(t, func(rw http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			rw.WriteHeader(http.StatusTooManyRequests)
			return
		}
		rw.Write([]byte(liteFixture))
	})
	d.Limiter = rate.NewLimiter(rate.Every(50*time.Millisecond), 1)

	start := time.Now()
	if _, err := d.Search(context.Background(), "golang"); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected three requests, got %d", hits)
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Fatalf("retries bypassed the limiter, finished in %v", elapsed)
	}
}

func TestDuckDuckGoGivesUpWhenCanceled(t *testing.T) {
	d := newTestDuckDuckGo(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusTooManyRequests)
	})
	d.Backoff = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := d.Search(ctx, "golang"); err == nil {
		t.Fatalf("expected error once the context ends")
	}
}

func TestBuildSelectsTools(t *testing.T) {
	all, err := Build(nil, Options{})
	if err != nil || len(all) != 2 {
		t.Fatalf("expected both tools, got %d (%v)", len(all), err)
	}
	if all[0].Spec().Name != WikipediaToolName || all[1].Spec().Name != DuckDuckGoToolName {
		t.Fatalf("unexpected default order")
	}
	one, err := Build([]string{" DuckDuckGo_Search "}, Options{DuckDuckGo: DuckDuckGoOptions{MaxResults: 2}})
	if err != nil || len(one) != 1 {
		t.Fatalf("expected one tool, got %d (%v)", len(one), err)
	}
	if one[0].(*DuckDuckGo).MaxResults != 2 {
		t.Fatalf("options not applied")
	}
	if _, err := Build([]string{"calculator"}, Options{}); err == nil {
		t.Fatalf("expected error for unknown tool")
	}
}

func TestUTCPCallerRequiresClient(t *testing.T) {
	var caller *UTCPCaller
	if _, err := caller.CallTool(context.Background(), "x", nil); err == nil {
		t.Fatalf("expected error for nil caller")
	}
	if _, err := NewUTCPCaller(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty providers file")
	}
}
