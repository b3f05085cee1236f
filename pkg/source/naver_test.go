package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
	"github.com/seongsu-hq/popup-harvester/pkg/httpclient"
	"github.com/seongsu-hq/popup-harvester/pkg/retry"
)

type fakeResponse struct {
	body   []byte
	status int
}

func (r fakeResponse) Body() []byte    { return r.body }
func (r fakeResponse) StatusCode() int { return r.status }

// fakeHTTP serves canned pages keyed by the start offset.
type fakeHTTP struct {
	pages    map[string]fakeResponse
	requests []string
}

func (f *fakeHTTP) Get(_ context.Context, rawURL string, headers map[string]string) (httpclient.Response, error) {
	f.requests = append(f.requests, rawURL)
	if headers["X-Naver-Client-Id"] == "" || headers["X-Naver-Client-Secret"] == "" {
		return fakeResponse{status: 401, body: []byte(`{"errorCode":"024"}`)}, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	resp, ok := f.pages[u.Query().Get("start")]
	if !ok {
		return fakeResponse{status: 500, body: []byte("no page scripted")}, nil
	}
	return resp, nil
}

func (f *fakeHTTP) Post(_ context.Context, _ string, _ map[string]string, _ any) (httpclient.Response, error) {
	return nil, fmt.Errorf("unexpected post")
}

func pageResponse(t *testing.T, items ...searchItem) fakeResponse {
	t.Helper()
	body, err := json.Marshal(searchResponse{Items: items, Display: len(items)})
	if err != nil {
		t.Fatalf("marshal page: %v", err)
	}
	return fakeResponse{status: 200, body: body}
}

func testClient(t *testing.T, http httpclient.Client) *Client {
	t.Helper()
	c, err := NewClient(http, Config{
		BaseURL:      "https://openapi.test/v1/search/blog.json",
		ClientID:     "id",
		ClientSecret: "secret",
		Retry:        retry.Policy{MaxAttempts: 1, Base: time.Millisecond, Multiplier: 1},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestFetchPaginatesUntilBudget(t *testing.T) {
	first := make([]searchItem, 0, maxPageSize)
	for i := 0; i < maxPageSize; i++ {
		first = append(first, searchItem{Title: fmt.Sprintf("post %d", i), Link: fmt.Sprintf("https://blog/%d", i)})
	}
	http := &fakeHTTP{pages: map[string]fakeResponse{
		"1":   pageResponse(t, first...),
		"101": pageResponse(t, searchItem{Title: "post 100", Link: "https://blog/100"}),
	}}

	c := testClient(t, http)
	got, err := c.Fetch(context.Background(), Query{Keyword: "성수 팝업", MaxResults: 101})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 101 {
		t.Fatalf("expected 101 listings, got %d", len(got))
	}
	if len(http.requests) != 2 {
		t.Fatalf("expected 2 page requests, got %d", len(http.requests))
	}
}

func TestFetchStopsWhenSourceExhausted(t *testing.T) {
	http := &fakeHTTP{pages: map[string]fakeResponse{
		"1": pageResponse(t, searchItem{Title: "only one", Link: "https://blog/1"}),
	}}

	c := testClient(t, http)
	got, err := c.Fetch(context.Background(), Query{Keyword: "성수 팝업", MaxResults: 50})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(got))
	}
	if len(http.requests) != 1 {
		t.Fatalf("short page must stop pagination, got %d requests", len(http.requests))
	}
}

func TestFetchStripsSearchMarkup(t *testing.T) {
	http := &fakeHTTP{pages: map[string]fakeResponse{
		"1": pageResponse(t, searchItem{
			Title:       "<b>성수동</b> 팝업 &amp; 전시",
			Description: "이번 주 <b>팝업스토어</b> 소식",
			Link:        " https://blog/1 ",
			PostDate:    "20240501",
		}),
	}}

	c := testClient(t, http)
	got, err := c.Fetch(context.Background(), Query{Keyword: "성수 팝업", MaxResults: 1})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := domain.Listing{
		Title:    "성수동 팝업 & 전시",
		Snippet:  "이번 주 팝업스토어 소식",
		Link:     "https://blog/1",
		PostedAt: "20240501",
	}
	if got[0] != want {
		t.Fatalf("got %+v, want %+v", got[0], want)
	}
}

func TestFetchClassifiesAuthFailures(t *testing.T) {
	http := &fakeHTTP{pages: map[string]fakeResponse{
		"1": {status: 401, body: []byte(`{"errorCode":"024"}`)},
	}}

	c := testClient(t, http)
	_, err := c.Fetch(context.Background(), Query{Keyword: "성수 팝업"})
	if !domain.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestFetchReturnsPartialOnTransientFailure(t *testing.T) {
	first := make([]searchItem, 0, maxPageSize)
	for i := 0; i < maxPageSize; i++ {
		first = append(first, searchItem{Title: fmt.Sprintf("post %d", i)})
	}
	http := &fakeHTTP{pages: map[string]fakeResponse{
		"1":   pageResponse(t, first...),
		"101": {status: 503, body: []byte("down")},
	}}

	c := testClient(t, http)
	got, err := c.Fetch(context.Background(), Query{Keyword: "성수 팝업", MaxResults: 200})
	if !domain.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if len(got) != maxPageSize {
		t.Fatalf("expected the first page to survive, got %d listings", len(got))
	}
}

func TestFetchRejectsInvalidQuery(t *testing.T) {
	c := testClient(t, &fakeHTTP{})
	if _, err := c.Fetch(context.Background(), Query{Keyword: "x", Sort: "rank"}); err == nil {
		t.Fatalf("expected validation error for unknown sort")
	}
}
