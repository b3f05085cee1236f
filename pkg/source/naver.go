package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
	"github.com/seongsu-hq/popup-harvester/pkg/httpclient"
	"github.com/seongsu-hq/popup-harvester/pkg/retry"
)

const (
	maxPageSize = 100  // API caps display at 100 per request
	maxStart    = 1000 // API refuses start offsets beyond 1000
)

// Config holds the search API settings.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	PageDelay    time.Duration
	Retry        retry.Policy
}

// Client queries the Naver blog-search API, paginating until the query's
// result budget or the source's own limits are exhausted. Each Fetch
// re-queries from scratch; no pagination state survives the call.
type Client struct {
	http httpclient.Client
	cfg  Config
}

// NewClient builds a search client. A nil http client gets the default resty one.
func NewClient(http httpclient.Client, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("source base url is empty")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("source client credentials are empty")
	}
	if http == nil {
		http = httpclient.NewRestyClient(15 * time.Second)
	}
	return &Client{http: http, cfg: cfg}, nil
}

// Fetch collects listings for the query. On a transient source failure the
// listings gathered so far are returned together with the classified error,
// so the caller can continue the run with partial results.
func (c *Client) Fetch(ctx context.Context, q Query) ([]domain.Listing, error) {
	q = sanitizeQuery(q)
	if err := validateQuery(q); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	headers := map[string]string{
		"X-Naver-Client-Id":     c.cfg.ClientID,
		"X-Naver-Client-Secret": c.cfg.ClientSecret,
	}

	var out []domain.Listing
	for start := 1; start <= maxStart && len(out) < q.MaxResults; {
		display := q.MaxResults - len(out)
		if display > maxPageSize {
			display = maxPageSize
		}

		pageURL := c.pageURL(q, start, display)
		page, err := retry.Do(ctx, c.cfg.Retry, func() (searchResponse, error) {
			return c.fetchPage(ctx, pageURL, headers)
		})
		if err != nil {
			// sequence ends early for this run; keep what we have
			return out, err
		}

		for _, item := range page.Items {
			out = append(out, item.toListing())
		}

		if len(page.Items) < display {
			break // source reports exhaustion
		}
		start += display

		if c.cfg.PageDelay > 0 && len(out) < q.MaxResults {
			timer := time.NewTimer(c.cfg.PageDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return out, nil
}

func (c *Client) pageURL(q Query, start, display int) string {
	params := url.Values{}
	params.Set("query", q.Term())
	params.Set("display", strconv.Itoa(display))
	params.Set("start", strconv.Itoa(start))
	params.Set("sort", q.Sort)
	return c.cfg.BaseURL + "?" + params.Encode()
}

func (c *Client) fetchPage(ctx context.Context, pageURL string, headers map[string]string) (searchResponse, error) {
	resp, err := c.http.Get(ctx, pageURL, headers)
	if err != nil {
		if ctx.Err() != nil {
			return searchResponse{}, ctx.Err()
		}
		return searchResponse{}, domain.Transient("search request", err)
	}

	if err := classifyStatus("search", resp.StatusCode(), resp.Body()); err != nil {
		return searchResponse{}, err
	}

	var page searchResponse
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		return searchResponse{}, fmt.Errorf("decode search response: %w", err)
	}
	return page, nil
}

func classifyStatus(op string, status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.Auth(op, fmt.Errorf("status %d: %s", status, responseSnippet(body)))
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500:
		return domain.Transient(op, fmt.Errorf("status %d: %s", status, responseSnippet(body)))
	default:
		return fmt.Errorf("%s returned status %d: %s", op, status, responseSnippet(body))
	}
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

type searchResponse struct {
	Total   int          `json:"total"`
	Start   int          `json:"start"`
	Display int          `json:"display"`
	Items   []searchItem `json:"items"`
}

type searchItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	BloggerName string `json:"bloggername"`
	PostDate    string `json:"postdate"`
}

func (i searchItem) toListing() domain.Listing {
	return domain.Listing{
		Title:       stripMarkup(i.Title),
		Snippet:     stripMarkup(i.Description),
		Link:        strings.TrimSpace(i.Link),
		BloggerName: strings.TrimSpace(i.BloggerName),
		PostedAt:    strings.TrimSpace(i.PostDate),
	}
}

// stripMarkup drops the <b> highlighting and entities the search API embeds
// in titles and snippets.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}
