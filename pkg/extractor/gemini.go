package extractor

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

// Config holds the generative backend settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Gemini turns one raw listing into a structured event by prompting the
// generative backend and parsing its JSON reply strictly. Malformed or
// incomplete replies yield an ExtractionError scoped to the listing.
type Gemini struct {
	client *resty.Client
	cfg    Config
}

// NewGemini builds the extractor client.
func NewGemini(cfg Config) (*Gemini, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("extractor base url is empty")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("extractor api key is empty")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-pro"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Gemini{
		client: httpclient.NewRestyHTTPClient(cfg.Timeout),
		cfg:    cfg,
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Extract prompts the backend with the listing text and parses the reply.
func (g *Gemini) Extract(ctx context.Context, listing domain.Listing) (domain.Event, error) {
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(listing)}}}},
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimSuffix(g.cfg.BaseURL, "/"), g.cfg.Model)

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", g.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Event{}, ctx.Err()
		}
		return domain.Event{}, domain.Transient("extraction request", err)
	}

	if err := classifyStatus(resp); err != nil {
		return domain.Event{}, err
	}

	text, err := candidateText(resp.Body())
	if err != nil {
		return domain.Event{}, err
	}

	event, err := parseEvent(text)
	if err != nil {
		return domain.Event{}, err
	}

	event.SourceURL = listing.Link
	if event.Description == "" {
		event.Description = listing.Snippet
	}
	event.CollectedAt = time.Now().UTC()
	return event, nil
}

func classifyStatus(resp *resty.Response) error {
	status := resp.StatusCode()
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.Auth("extraction", fmt.Errorf("status %d: %s", status, bodySnippet(resp.Body())))
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500:
		return domain.Transient("extraction", fmt.Errorf("status %d: %s", status, bodySnippet(resp.Body())))
	default:
		return domain.Extraction("backend status %d: %s", status, bodySnippet(resp.Body()))
	}
}

func candidateText(body []byte) (string, error) {
	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", domain.Extraction("decode backend response: %v", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", domain.Extraction("backend returned no candidates")
	}

	var b strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", domain.Extraction("backend returned empty candidate text")
	}
	return text, nil
}

// eventPayload is the exact schema the prompt demands.
type eventPayload struct {
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Location struct {
		Place   string `json:"place"`
		Address string `json:"address"`
	} `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

// parseEvent extracts the JSON object from the candidate text and validates
// it into an Event. Dates must be the canonical calendar format or empty;
// empty dates yield an explicit date-unknown marker, never a guess.
func parseEvent(text string) (domain.Event, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return domain.Event{}, domain.Extraction("response contains no JSON object")
	}

	var payload eventPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return domain.Event{}, domain.Extraction("decode event json: %v", err)
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return domain.Event{}, domain.Extraction("missing event name")
	}

	event := domain.Event{
		Name:        name,
		Brand:       strings.TrimSpace(payload.Brand),
		Place:       strings.TrimSpace(payload.Location.Place),
		Address:     strings.TrimSpace(payload.Location.Address),
		Description: strings.TrimSpace(payload.Description),
	}

	startRaw := strings.TrimSpace(payload.StartDate)
	endRaw := strings.TrimSpace(payload.EndDate)

	if startRaw == "" {
		event.DateUnknown = true
		if endRaw != "" {
			return domain.Event{}, domain.Extraction("end_date without start_date")
		}
		return event, nil
	}

	startDate, err := time.Parse(domain.DateLayout, startRaw)
	if err != nil {
		return domain.Event{}, domain.Extraction("bad start_date %q", startRaw)
	}
	event.StartDate = startDate

	if endRaw != "" {
		endDate, err := time.Parse(domain.DateLayout, endRaw)
		if err != nil {
			return domain.Event{}, domain.Extraction("bad end_date %q", endRaw)
		}
		if endDate.Before(startDate) {
			return domain.Event{}, domain.Extraction("end_date %q before start_date %q", endRaw, startRaw)
		}
		event.EndDate = endDate
	}

	return event, nil
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
