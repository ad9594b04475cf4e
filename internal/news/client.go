// Package news provides the news-search collaborator used to annotate
// detected discrepancies with likely drivers.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// Client talks to a NewsAPI-compatible /everything endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a news client. baseURL is the API root, e.g.
// "https://newsapi.org/v2".
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// apiArticle is one article in a NewsAPI response.
type apiArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// Search implements domain.NewsProvider. Results are scored by keyword
// overlap with the query and returned best-first.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.NewsCorrelation, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(limit * 2))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("news: create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news: search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("news: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("news: %w", domain.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("news: %w", domain.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("news: %w: HTTP %d", domain.ErrBadUpstream, resp.StatusCode)
	}

	var apiResp struct {
		Status   string       `json:"status"`
		Articles []apiArticle `json:"articles"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("news: decode response: %w", err)
	}

	keywords := queryKeywords(query)

	items := make([]domain.NewsCorrelation, 0, len(apiResp.Articles))
	for _, a := range apiResp.Articles {
		item := domain.NewsCorrelation{
			Title:     a.Title,
			Source:    a.Source.Name,
			URL:       a.URL,
			Relevance: relevance(keywords, a.Title+" "+a.Description),
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			item.PublishedAt = t
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Relevance > items[j].Relevance
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// queryKeywords splits a query into lowercase words of at least 4 letters,
// matching how market questions are reduced to match keys.
func queryKeywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "?.,!\"'")
		if len(f) >= 4 {
			out = append(out, f)
		}
	}
	return out
}

// relevance is the fraction of query keywords present in the article text.
func relevance(keywords []string, text string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}
