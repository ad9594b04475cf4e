package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

func TestSearchScoresAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/everything" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Fatalf("missing api key header")
		}
		if r.URL.Query().Get("q") == "" {
			t.Fatalf("missing query")
		}
		w.Write([]byte(`{"status":"ok","articles":[
			{"source":{"name":"Wire"},"title":"Unrelated story","description":"nothing here","url":"http://a","publishedAt":"2026-08-30T10:00:00Z"},
			{"source":{"name":"Herald"},"title":"Candidate Smith leads election polls","description":"smith election","url":"http://b","publishedAt":"2026-08-30T11:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")

	items, err := c.Search(context.Background(), "Will Candidate Smith win the election?", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	// The on-topic article must sort first with a higher relevance score.
	if items[0].URL != "http://b" {
		t.Errorf("best item = %q, want http://b", items[0].URL)
	}
	if items[0].Relevance <= items[1].Relevance {
		t.Errorf("relevance not descending: %v then %v", items[0].Relevance, items[1].Relevance)
	}
	if items[0].PublishedAt.IsZero() {
		t.Errorf("publishedAt not parsed")
	}
}

func TestSearchLimitsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","articles":[
			{"title":"a","url":"http://1"},
			{"title":"b","url":"http://2"},
			{"title":"c","url":"http://3"}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k")

	items, err := c.Search(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
}

func TestSearchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "k")

	_, err := c.Search(context.Background(), "query", 5)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}
