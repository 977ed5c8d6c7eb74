package websearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/strandworks/deepresearch/internal/engine"
	"github.com/strandworks/deepresearch/internal/metrics"
)

// ddgLimiter enforces a global 1 QPS limit across all DuckDuckGo instances
// and goroutines; the lite endpoint throttles aggressively otherwise.
var ddgLimiter = rate.NewLimiter(rate.Every(time.Second), 1)

const ddgEndpoint = "https://lite.duckduckgo.com/lite/"

// DuckDuckGo scrapes DuckDuckGo's HTML lite interface. It needs no API key
// and serves as the default provider.
type DuckDuckGo struct {
	endpoint string
	client   *http.Client
}

// NewDuckDuckGo creates a DuckDuckGo provider with a modest timeout.
func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		endpoint: ddgEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search fetches and parses the lite HTML results page.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]engine.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is empty")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	if err := ddgLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	formData := url.Values{}
	formData.Set("q", query)

	var resp *http.Response
	delay := 1 * time.Second
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(formData.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err = d.client.Do(req)
		if err != nil {
			metrics.SearchCalls.WithLabelValues(d.Name(), "error").Inc()
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		// Back off and retry on 429, doubling the delay each time up to 30s.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.SearchCalls.WithLabelValues(d.Name(), "error").Inc()
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.SearchCalls.WithLabelValues(d.Name(), "error").Inc()
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	results := parseLiteResults(string(body), maxResults)
	metrics.SearchCalls.WithLabelValues(d.Name(), "ok").Inc()
	metrics.SearchResultsFetched.Add(float64(len(results)))
	return results, nil
}

var (
	// Result links: <a ... class='result-link' ... href='URL'>TITLE</a>,
	// attribute order varies between page revisions.
	ddgLinkPattern  = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	ddgLinkPattern2 = regexp.MustCompile(`<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>([^<]+)</a>`)
	ddgSnippet      = regexp.MustCompile(`<td[^>]*class=['"]result-snippet['"][^>]*>([^<]+(?:<[^>]+>[^<]*</[^>]+>)*[^<]*)</td>`)
	anyLinkPattern  = regexp.MustCompile(`<a[^>]+href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	htmlTagPattern  = regexp.MustCompile(`<[^>]+>`)
)

// parseLiteResults extracts results from the lite HTML page.
func parseLiteResults(html string, maxResults int) []engine.SearchResult {
	var results []engine.SearchResult

	matches := ddgLinkPattern.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		matches = ddgLinkPattern2.FindAllStringSubmatch(html, -1)
	}
	snippets := ddgSnippet.FindAllStringSubmatch(html, -1)

	for i, match := range matches {
		if len(match) < 3 {
			continue
		}
		link := strings.TrimSpace(match[1])
		title := stripHTML(match[2])
		if link == "" || title == "" {
			continue
		}

		snippet := ""
		if i < len(snippets) && len(snippets[i]) > 1 {
			snippet = stripHTML(snippets[i][1])
		}

		results = append(results, engine.SearchResult{Title: title, Link: link, Content: snippet})
		if len(results) >= maxResults {
			break
		}
	}

	if len(results) == 0 {
		results = fallbackParse(html, maxResults)
	}
	return results
}

// fallbackParse scans for any external-looking links when the structured
// patterns find nothing.
func fallbackParse(html string, maxResults int) []engine.SearchResult {
	var results []engine.SearchResult

	seen := make(map[string]bool)
	for _, match := range anyLinkPattern.FindAllStringSubmatch(html, -1) {
		if len(match) < 3 {
			continue
		}
		link := strings.TrimSpace(match[1])
		title := stripHTML(match[2])

		if strings.Contains(link, "duckduckgo.com") ||
			strings.HasPrefix(link, "/") ||
			strings.HasPrefix(link, "#") ||
			strings.HasPrefix(link, "javascript:") {
			continue
		}
		if len(title) < 5 {
			continue
		}
		if seen[link] {
			continue
		}
		seen[link] = true

		results = append(results, engine.SearchResult{Title: title, Link: link})
		if len(results) >= maxResults {
			break
		}
	}
	return results
}

// stripHTML removes tags and decodes common entities.
func stripHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return strings.TrimSpace(s)
}
