package polymarket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

func TestListMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("active") != "true" {
			t.Fatalf("want active=true, got %q", r.URL.Query().Get("active"))
		}
		w.Write([]byte(`[
			{
				"id": "mkt-1",
				"question": "Will it rain tomorrow?",
				"category": "Weather",
				"active": "true",
				"outcomes": "[\"Yes\",\"No\"]",
				"outcomePrices": "[\"0.62\",\"0.38\"]",
				"clobTokenIds": "[\"tok-yes\",\"tok-no\"]",
				"volume": "12345.5",
				"liquidity": "800"
			},
			{
				"id": "mkt-resolved",
				"question": "Already settled",
				"outcomePrices": "[\"1\",\"0\"]"
			}
		]`))
	}))
	defer srv.Close()

	c := New("http://unused", srv.URL)

	markets, err := c.ListMarkets(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListMarkets: %v", err)
	}
	// The settled market (price 1.0) must be filtered out.
	if len(markets) != 1 {
		t.Fatalf("got %d markets, want 1", len(markets))
	}

	m := markets[0]
	if m.Platform != "polymarket" {
		t.Errorf("Platform = %q", m.Platform)
	}
	if m.ExternalID != "mkt-1" || m.Question != "Will it rain tomorrow?" {
		t.Errorf("identity fields wrong: %+v", m)
	}
	if m.YesProbability != 0.62 || m.NoProbability != 0.38 {
		t.Errorf("prices = %v/%v, want 0.62/0.38", m.YesProbability, m.NoProbability)
	}
	if m.Volume != 12345.5 || m.Liquidity != 800 {
		t.Errorf("volume/liquidity = %v/%v", m.Volume, m.Liquidity)
	}
}

func TestFetchBookNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token_id") != "tok-yes" {
			t.Fatalf("token_id = %q", r.URL.Query().Get("token_id"))
		}
		// Bids arrive ascending and include a zero-size level; the client
		// must sort descending and drop the empty level.
		w.Write([]byte(`{
			"market": "mkt-1",
			"asset_id": "tok-yes",
			"timestamp": "1700000000000",
			"bids": [
				{"price": "0.38", "size": "100"},
				{"price": "0.40", "size": "0"},
				{"price": "0.39", "size": "50"}
			],
			"asks": [
				{"price": "0.44", "size": "20"},
				{"price": "0.42", "size": "60"}
			]
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "http://unused")

	book, err := c.FetchBook(context.Background(), "tok-yes")
	if err != nil {
		t.Fatalf("FetchBook: %v", err)
	}

	if len(book.Bids) != 2 {
		t.Fatalf("got %d bids, want 2 (zero-size dropped)", len(book.Bids))
	}
	if book.Bids[0].Price != 0.39 || book.Bids[1].Price != 0.38 {
		t.Errorf("bids not descending: %+v", book.Bids)
	}
	if book.Asks[0].Price != 0.42 || book.Asks[1].Price != 0.44 {
		t.Errorf("asks not ascending: %+v", book.Asks)
	}
	if book.Timestamp.IsZero() {
		t.Errorf("timestamp not parsed")
	}
}

func TestFetchMarketBooks(t *testing.T) {
	clob := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := r.URL.Query().Get("token_id")
		w.Write([]byte(`{"market":"mkt-1","asset_id":"` + tok + `","bids":[{"price":"0.40","size":"10"}],"asks":[{"price":"0.45","size":"10"}]}`))
	}))
	defer clob.Close()

	gamma := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/mkt-1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":"mkt-1","question":"Q?","clobTokenIds":"[\"tok-yes\",\"tok-no\"]"}`))
	}))
	defer gamma.Close()

	c := New(clob.URL, gamma.URL)

	books, err := c.FetchMarketBooks(context.Background(), "mkt-1")
	if err != nil {
		t.Fatalf("FetchMarketBooks: %v", err)
	}
	if books.Question != "Q?" {
		t.Errorf("Question = %q", books.Question)
	}
	if books.Yes.TokenID != "tok-yes" || books.No.TokenID != "tok-no" {
		t.Errorf("token pairing wrong: yes=%q no=%q", books.Yes.TokenID, books.No.TokenID)
	}
	if books.FetchedAt.IsZero() {
		t.Errorf("FetchedAt not set")
	}
}

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusBadGateway, domain.ErrBadUpstream},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.code)
		}))
		c := New(srv.URL, srv.URL)
		_, err := c.FetchBook(context.Background(), "tok")
		srv.Close()
		if !errors.Is(err, tc.want) {
			t.Errorf("HTTP %d: err = %v, want %v", tc.code, err, tc.want)
		}
	}
}
