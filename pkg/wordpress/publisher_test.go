package wordpress

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
)

func testPublisher(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:     srv.URL,
		Username:    "bot",
		AppPassword: "pass",
		Category:    12,
		Timeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func testEvent() domain.Event {
	start, _ := time.Parse(domain.DateLayout, "2024-05-01")
	end, _ := time.Parse(domain.DateLayout, "2024-05-10")
	return domain.Event{
		Name:        "무신사 성수 팝업",
		Brand:       "무신사",
		Place:       "성수 플라자",
		Address:     "서울 성동구 연무장길 1",
		StartDate:   start,
		EndDate:     end,
		Description: "한정 굿즈를 파는 팝업스토어.",
		SourceURL:   "https://blog/1",
	}
}

func TestPublishCreatesPost(t *testing.T) {
	var got postRequest
	var gotPath, gotAuth string
	c := testPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":42}`))
	})

	result, err := c.Publish(context.Background(), testEvent())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if result.ContentID != 42 || result.Duplicate {
		t.Fatalf("unexpected result %+v", result)
	}

	if gotPath != "/wp-json/wp/v2/posts" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !strings.HasPrefix(gotAuth, "Basic ") {
		t.Fatalf("expected basic auth header, got %q", gotAuth)
	}

	if got.Status != "publish" {
		t.Fatalf("unexpected status %q", got.Status)
	}
	if len(got.Categories) != 1 || got.Categories[0] != 12 {
		t.Fatalf("unexpected categories %v", got.Categories)
	}
	if got.Title != "무신사 성수 팝업 (05/01~05/10)" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if got.Meta["event_start_date"] != "2024-05-01" || got.Meta["event_end_date"] != "2024-05-10" {
		t.Fatalf("unexpected meta %v", got.Meta)
	}
	if !strings.Contains(got.Content, "2024년 05월 01일 ~ 2024년 05월 10일") {
		t.Fatalf("period missing from body: %q", got.Content)
	}
	if !strings.Contains(got.Content, "성수 플라자 (서울 성동구 연무장길 1)") {
		t.Fatalf("location missing from body: %q", got.Content)
	}
	if !strings.Contains(got.Content, `href="https://blog/1"`) {
		t.Fatalf("source link missing from body: %q", got.Content)
	}
}

func TestPublishTreatsConflictAsExisting(t *testing.T) {
	c := testPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"duplicate_post","message":"exists","data":{"status":409,"existing_post_id":99}}`))
	})

	result, err := c.Publish(context.Background(), testEvent())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !result.Duplicate || result.ContentID != 99 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestPublishDetectsDuplicateCodeOn400(t *testing.T) {
	c := testPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"rest_duplicate_content","data":{"existing_post_id":7}}`))
	})

	result, err := c.Publish(context.Background(), testEvent())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !result.Duplicate || result.ContentID != 7 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestPublishPlainBadRequestIsAnError(t *testing.T) {
	c := testPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"rest_invalid_param","message":"bad meta"}`))
	})

	_, err := c.Publish(context.Background(), testEvent())
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsTransient(err) || domain.IsAuth(err) {
		t.Fatalf("plain 400 must not be retried or treated as auth: %v", err)
	}
}

func TestPublishClassifiesStatuses(t *testing.T) {
	cases := []struct {
		status int
		check  func(error) bool
		want   string
	}{
		{http.StatusUnauthorized, domain.IsAuth, "auth"},
		{http.StatusForbidden, domain.IsAuth, "auth"},
		{http.StatusTooManyRequests, domain.IsTransient, "transient"},
		{http.StatusBadGateway, domain.IsTransient, "transient"},
	}

	for _, tc := range cases {
		c := testPublisher(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := c.Publish(context.Background(), testEvent())
		if !tc.check(err) {
			t.Fatalf("status %d: expected %s error, got %v", tc.status, tc.want, err)
		}
	}
}

func TestPostRenderingWithoutDates(t *testing.T) {
	event := testEvent()
	event.StartDate = time.Time{}
	event.EndDate = time.Time{}
	event.DateUnknown = true

	if got := postTitle(event); got != event.Name {
		t.Fatalf("date-unknown title must be bare, got %q", got)
	}

	meta := postMeta(event)
	if _, ok := meta["event_start_date"]; ok {
		t.Fatalf("date-unknown meta must not carry dates: %v", meta)
	}

	if !strings.Contains(postContent(event), "행사 기간: 미정") {
		t.Fatalf("date-unknown body must say 미정")
	}
}

func TestPostContentEscapesHTML(t *testing.T) {
	event := testEvent()
	event.Description = `<script>alert("x")</script>`

	body := postContent(event)
	if strings.Contains(body, "<script>") {
		t.Fatalf("description must be escaped: %q", body)
	}
}
