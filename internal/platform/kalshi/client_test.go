package kalshi

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	c := NewClient(baseURL, "test-key-id")
	if err := c.SetRSAPrivateKey(pemBytes); err != nil {
		t.Fatalf("SetRSAPrivateKey: %v", err)
	}
	return c
}

func TestListMarketsConvertsCents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("KALSHI-ACCESS-KEY") != "test-key-id" {
			t.Fatalf("missing access key header")
		}
		if r.Header.Get("KALSHI-ACCESS-SIGNATURE") == "" || r.Header.Get("KALSHI-ACCESS-TIMESTAMP") == "" {
			t.Fatalf("missing signature headers")
		}
		w.Write([]byte(`{"markets":[
			{"ticker":"RAIN-26","title":"Will it rain?","status":"open","yes_bid":40,"yes_ask":44,"volume":1200,"liquidity":500000,"category":"Weather"},
			{"ticker":"DEAD-26","title":"No quotes","status":"open"}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	markets, err := c.ListMarkets(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListMarkets: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("got %d markets, want 1 (unquoted skipped)", len(markets))
	}

	m := markets[0]
	if m.Platform != "kalshi" || m.ExternalID != "RAIN-26" {
		t.Errorf("identity fields wrong: %+v", m)
	}
	if m.YesProbability != 0.42 {
		t.Errorf("YesProbability = %v, want midpoint 0.42", m.YesProbability)
	}
	if m.NoProbability != 0.58 {
		t.Errorf("NoProbability = %v, want 0.58", m.NoProbability)
	}
	if m.Liquidity != 5000 {
		t.Errorf("Liquidity = %v, want 5000 (cents converted)", m.Liquidity)
	}
}

func TestFetchBookDerivesAsks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/RAIN-26/orderbook" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		// Levels are best-last: YES bids up to 40c, NO bids up to 55c.
		w.Write([]byte(`{"orderbook":{
			"yes":[[38,50],[40,100]],
			"no":[[53,30],[55,80]]
		}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	book, err := c.FetchBook(context.Background(), "RAIN-26")
	if err != nil {
		t.Fatalf("FetchBook: %v", err)
	}

	if len(book.Bids) != 2 || book.Bids[0].Price != 0.40 || book.Bids[0].Size != 100 {
		t.Errorf("bids = %+v, want best 0.40x100 first", book.Bids)
	}
	// A NO bid at 55c sells YES at 0.45; that is the best derived ask.
	if len(book.Asks) != 2 || book.Asks[0].Price != 0.45 || book.Asks[0].Size != 80 {
		t.Errorf("asks = %+v, want best 0.45x80 first", book.Asks)
	}
	if book.Asks[1].Price != 0.47 {
		t.Errorf("second ask = %v, want 0.47", book.Asks[1].Price)
	}
}

func TestFetchBookNoOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"orderbook":{"yes":[[40,100]],"no":[[55,80]]}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	book, err := c.FetchBook(context.Background(), "RAIN-26:no")
	if err != nil {
		t.Fatalf("FetchBook: %v", err)
	}
	if book.TokenID != "RAIN-26:no" {
		t.Errorf("TokenID = %q", book.TokenID)
	}
	if book.Bids[0].Price != 0.55 {
		t.Errorf("NO bid = %v, want 0.55", book.Bids[0].Price)
	}
	// Derived from the YES bid at 40c.
	if book.Asks[0].Price != 0.60 {
		t.Errorf("NO ask = %v, want 0.60", book.Asks[0].Price)
	}
}

func TestFetchMarketBooks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/markets/RAIN-26":
			w.Write([]byte(`{"market":{"ticker":"RAIN-26","title":"Will it rain?"}}`))
		case "/markets/RAIN-26/orderbook":
			w.Write([]byte(`{"orderbook":{"yes":[[40,100]],"no":[[55,80]]}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	books, err := c.FetchMarketBooks(context.Background(), "RAIN-26")
	if err != nil {
		t.Fatalf("FetchMarketBooks: %v", err)
	}
	if books.Question != "Will it rain?" {
		t.Errorf("Question = %q", books.Question)
	}
	if books.Yes.Bids[0].Price != 0.40 || books.No.Bids[0].Price != 0.55 {
		t.Errorf("outcome books wrong: yes=%+v no=%+v", books.Yes.Bids, books.No.Bids)
	}
}

func TestSignRequestRequiresKey(t *testing.T) {
	c := NewClient("http://unused", "id")
	_, err := c.FetchBook(context.Background(), "RAIN-26")
	if err == nil {
		t.Fatalf("expected error without a private key")
	}
}
