package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
	"github.com/seongsu-hq/popup-harvester/pkg/httpclient"
)

// Config holds the content backend settings.
type Config struct {
	BaseURL     string
	Username    string
	AppPassword string
	Category    int
	Timeout     time.Duration
}

// Client creates posts through the WordPress REST API. A duplicate-content
// signal from the backend is treated as success carrying the existing post
// ID; the dedup store remains the primary idempotency guard.
type Client struct {
	client  *resty.Client
	cfg     Config
	apiBase string
}

// PublishResult is the outcome of a successful publish call.
type PublishResult struct {
	ContentID int64
	Duplicate bool
}

// New builds a publisher client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("wordpress base url is empty")
	}
	if cfg.Username == "" || cfg.AppPassword == "" {
		return nil, fmt.Errorf("wordpress credentials are empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		client:  httpclient.NewRestyHTTPClient(cfg.Timeout),
		cfg:     cfg,
		apiBase: strings.TrimSuffix(cfg.BaseURL, "/") + "/wp-json/wp/v2",
	}, nil
}

type postRequest struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Status     string            `json:"status"`
	Categories []int             `json:"categories,omitempty"`
	Meta       map[string]string `json:"meta"`
}

type postResponse struct {
	ID int64 `json:"id"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status         int   `json:"status"`
		ExistingPostID int64 `json:"existing_post_id"`
	} `json:"data"`
}

// Publish creates one post for the event.
func (c *Client) Publish(ctx context.Context, event domain.Event) (PublishResult, error) {
	body := postRequest{
		Title:   postTitle(event),
		Content: postContent(event),
		Status:  "publish",
		Meta:    postMeta(event),
	}
	if c.cfg.Category > 0 {
		body.Categories = []int{c.cfg.Category}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.Username, c.cfg.AppPassword).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.apiBase + "/posts")
	if err != nil {
		if ctx.Err() != nil {
			return PublishResult{}, ctx.Err()
		}
		return PublishResult{}, domain.Transient("publish request", err)
	}

	return c.handleResponse(resp)
}

func (c *Client) handleResponse(resp *resty.Response) (PublishResult, error) {
	status := resp.StatusCode()

	if status == http.StatusOK || status == http.StatusCreated {
		var created postResponse
		if err := json.Unmarshal(resp.Body(), &created); err != nil {
			return PublishResult{}, fmt.Errorf("decode create response: %w", err)
		}
		if created.ID == 0 {
			return PublishResult{}, fmt.Errorf("create response carries no post id")
		}
		return PublishResult{ContentID: created.ID}, nil
	}

	if dup, ok := duplicateSignal(status, resp.Body()); ok {
		return dup, nil
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return PublishResult{}, domain.Auth("publish", fmt.Errorf("status %d: %s", status, bodySnippet(resp.Body())))
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500:
		return PublishResult{}, domain.Transient("publish", fmt.Errorf("status %d: %s", status, bodySnippet(resp.Body())))
	default:
		return PublishResult{}, fmt.Errorf("publish returned status %d: %s", status, bodySnippet(resp.Body()))
	}
}

// duplicateSignal detects the backend's already-exists response: a 409, or
// a 400 whose error code names a duplicate. The exact contract still needs
// confirmation against the live backend.
func duplicateSignal(status int, body []byte) (PublishResult, bool) {
	if status != http.StatusConflict && status != http.StatusBadRequest {
		return PublishResult{}, false
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return PublishResult{}, false
	}

	if status == http.StatusConflict || strings.Contains(strings.ToLower(apiErr.Code), "duplicate") {
		return PublishResult{ContentID: apiErr.Data.ExistingPostID, Duplicate: true}, true
	}
	return PublishResult{}, false
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		return s[:512] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
