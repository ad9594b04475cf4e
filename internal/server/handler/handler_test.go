package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubBooks serves a fixed book for every token.
type stubBooks struct {
	book domain.OrderBook
	err  error
}

func (s *stubBooks) GetBook(context.Context, string, string) (domain.OrderBook, error) {
	return s.book, s.err
}

func (s *stubBooks) GetMarketBooks(context.Context, string, string) (domain.MarketBooks, error) {
	return domain.MarketBooks{}, s.err
}

func testBook() domain.OrderBook {
	return domain.OrderBook{
		MarketID: "m1",
		TokenID:  "tok",
		Bids: []domain.PriceLevel{
			{Price: 0.48, Size: 100},
			{Price: 0.47, Size: 200},
		},
		Asks: []domain.PriceLevel{
			{Price: 0.52, Size: 100},
			{Price: 0.55, Size: 300},
		},
	}
}

// newMux registers a handler the way the server does so {venue}/{id} path
// values resolve.
func newMux(pattern string, fn http.HandlerFunc) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, fn)
	return mux
}

func TestGetBookReturnsAnalysis(t *testing.T) {
	h := NewBookHandler(&stubBooks{book: testBook()}, discardLogger())
	mux := newMux("GET /api/books/{venue}/{id}", h.GetBook)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/polymarket/tok", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp bookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Book.TokenID != "tok" {
		t.Errorf("TokenID = %q, want tok", resp.Book.TokenID)
	}
	if resp.Analysis.BestBid != 0.48 || resp.Analysis.BestAsk != 0.52 {
		t.Errorf("analysis touch = %v/%v, want 0.48/0.52", resp.Analysis.BestBid, resp.Analysis.BestAsk)
	}
}

func TestGetBookNotFound(t *testing.T) {
	h := NewBookHandler(&stubBooks{err: domain.ErrNotFound}, discardLogger())
	mux := newMux("GET /api/books/{venue}/{id}", h.GetBook)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/polymarket/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestMaxSizeRejectsBadSide(t *testing.T) {
	h := NewBookHandler(&stubBooks{book: testBook()}, discardLogger())
	mux := newMux("GET /api/books/{venue}/{id}/maxsize", h.MaxSize)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/polymarket/tok/maxsize?side=HOLD", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPriceExecutionWalksBook(t *testing.T) {
	h := NewExecutionHandler(&stubBooks{book: testBook()}, discardLogger())

	body, _ := json.Marshal(priceRequest{
		Venue:   "polymarket",
		TokenID: "tok",
		Side:    "buy",
		Outcome: "yes",
		Size:    150,
	})
	rec := httptest.NewRecorder()
	h.PriceExecution(rec, httptest.NewRequest(http.MethodPost, "/api/execution/price", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp priceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 100 @ 0.52 then 50 @ 0.55.
	if resp.Execution.FilledSize != 150 {
		t.Errorf("FilledSize = %v, want 150", resp.Execution.FilledSize)
	}
	if len(resp.Execution.Fills) != 2 {
		t.Errorf("fills = %d, want 2", len(resp.Execution.Fills))
	}
	if resp.Payoff.Contracts != 150 {
		t.Errorf("payoff contracts = %v, want 150", resp.Payoff.Contracts)
	}
}

func TestPriceExecutionRejectsZeroSize(t *testing.T) {
	h := NewExecutionHandler(&stubBooks{book: testBook()}, discardLogger())

	body := []byte(`{"venue":"polymarket","token_id":"tok","side":"BUY","outcome":"YES","size":0}`)
	rec := httptest.NewRecorder()
	h.PriceExecution(rec, httptest.NewRequest(http.MethodPost, "/api/execution/price", bytes.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPayoffCombinesLegs(t *testing.T) {
	h := NewExecutionHandler(&stubBooks{}, discardLogger())

	req := payoffRequest{Executions: []domain.ExecutionResult{
		{Side: domain.SideBuy, Outcome: domain.OutcomeYes, FilledSize: 100, AveragePrice: 0.40, TotalCost: 40},
		{Side: domain.SideBuy, Outcome: domain.OutcomeNo, FilledSize: 100, AveragePrice: 0.45, TotalCost: 45},
	}}
	body, _ := json.Marshal(req)

	rec := httptest.NewRecorder()
	h.Payoff(rec, httptest.NewRequest(http.MethodPost, "/api/execution/payoff", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp payoffResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Payoffs) != 2 {
		t.Fatalf("payoffs = %d, want 2", len(resp.Payoffs))
	}
	if resp.Combined.Legs != 2 {
		t.Errorf("combined legs = %d, want 2", resp.Combined.Legs)
	}
	// YES+NO at combined cost 85 pays 100 either way.
	if resp.Combined.PnLIfYes < 14.9 || resp.Combined.PnLIfYes > 15.1 {
		t.Errorf("PnLIfYes = %v, want ~15", resp.Combined.PnLIfYes)
	}
}

func TestKellyValidatesInputs(t *testing.T) {
	h := NewExecutionHandler(&stubBooks{}, discardLogger())

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"ok", "prob=0.55&price=0.48&side=BUY&outcome=YES", http.StatusOK},
		{"bad prob", "prob=1.5&price=0.48&side=BUY&outcome=YES", http.StatusBadRequest},
		{"missing price", "prob=0.55&side=BUY&outcome=YES", http.StatusBadRequest},
		{"bad outcome", "prob=0.55&price=0.48&side=BUY&outcome=MAYBE", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Kelly(rec, httptest.NewRequest(http.MethodGet, "/api/kelly?"+tc.query, nil))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

// stubCompare records the last call and returns canned results.
type stubCompare struct {
	result  domain.MarketComparisonResult
	rec     domain.ComparisonRecord
	err     error
	gotA    domain.MarketRef
	gotB    domain.MarketRef
	gotSize float64
}

func (s *stubCompare) Compare(_ context.Context, a, b domain.MarketRef, size float64) (domain.MarketComparisonResult, error) {
	s.gotA, s.gotB, s.gotSize = a, b, size
	return s.result, s.err
}

func (s *stubCompare) Efficiency(context.Context, domain.MarketRef, float64) (domain.EfficiencyResult, error) {
	return domain.EfficiencyResult{Assessment: "efficiently priced", IsEfficient: true}, s.err
}

func (s *stubCompare) Exhaustion(context.Context, domain.MarketRef, domain.MarketRef, domain.Side, float64) (domain.ExhaustionResult, error) {
	return domain.ExhaustionResult{Size: 500}, s.err
}

func (s *stubCompare) History(context.Context, int) ([]domain.ComparisonRecord, error) {
	return nil, s.err
}

func (s *stubCompare) Get(_ context.Context, id string) (domain.ComparisonRecord, error) {
	if s.rec.ID != id {
		return domain.ComparisonRecord{}, domain.ErrNotFound
	}
	return s.rec, s.err
}

func TestCompareForwardsRequest(t *testing.T) {
	stub := &stubCompare{result: domain.MarketComparisonResult{TradeSize: 100}}
	h := NewCompareHandler(stub, discardLogger())

	body := []byte(`{
		"market_a": {"venue":"polymarket","market_id":"m1"},
		"market_b": {"venue":"kalshi","market_id":"RAIN-26"},
		"trade_size": 100
	}`)
	rec := httptest.NewRecorder()
	h.Compare(rec, httptest.NewRequest(http.MethodPost, "/api/compare", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if stub.gotA.Venue != "polymarket" || stub.gotB.MarketID != "RAIN-26" || stub.gotSize != 100 {
		t.Errorf("unexpected forwarded call: %+v %+v %v", stub.gotA, stub.gotB, stub.gotSize)
	}
}

func TestCompareRejectsIncompleteRequest(t *testing.T) {
	h := NewCompareHandler(&stubCompare{}, discardLogger())

	body := []byte(`{"market_a": {"venue":"polymarket","market_id":"m1"}, "trade_size": 100}`)
	rec := httptest.NewRecorder()
	h.Compare(rec, httptest.NewRequest(http.MethodPost, "/api/compare", bytes.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestEfficiencyParsesPath(t *testing.T) {
	h := NewCompareHandler(&stubCompare{}, discardLogger())
	mux := newMux("GET /api/markets/{venue}/{id}/efficiency", h.Efficiency)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets/kalshi/RAIN-26/efficiency?size=50", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp domain.EfficiencyResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.IsEfficient {
		t.Errorf("IsEfficient = false, want true")
	}
}

func TestGetComparisonByID(t *testing.T) {
	stub := &stubCompare{rec: domain.ComparisonRecord{ID: "c1"}}
	h := NewCompareHandler(stub, discardLogger())
	mux := newMux("GET /api/compare/history/{id}", h.Get)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/compare/history/c1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var got domain.ComparisonRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "c1" {
		t.Errorf("ID = %q, want c1", got.ID)
	}
}

func TestGetComparisonNotFound(t *testing.T) {
	h := NewCompareHandler(&stubCompare{}, discardLogger())
	mux := newMux("GET /api/compare/history/{id}", h.Get)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/compare/history/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// stubScanner returns canned scan results.
type stubScanner struct {
	results []domain.DiscrepancyResult
	err     error
}

func (s *stubScanner) ScanOnce(context.Context) ([]domain.DiscrepancyResult, error) {
	return s.results, s.err
}

type stubDiscrepancyStore struct {
	recs []domain.DiscrepancyRecord
	err  error
}

func (s *stubDiscrepancyStore) ListRecent(context.Context, int) ([]domain.DiscrepancyRecord, error) {
	return s.recs, s.err
}

func TestTriggerScanReturnsResults(t *testing.T) {
	scanner := &stubScanner{results: []domain.DiscrepancyResult{{EventSlug: "rain-city", MaxSpread: 0.08}}}
	h := NewDiscrepancyHandler(&stubDiscrepancyStore{}, scanner, discardLogger())

	rec := httptest.NewRecorder()
	h.TriggerScan(rec, httptest.NewRequest(http.MethodPost, "/api/discrepancies/scan", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp scanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Discrepancies[0].EventSlug != "rain-city" {
		t.Errorf("unexpected scan response: %+v", resp)
	}
}

func TestTriggerScanDisabled(t *testing.T) {
	h := NewDiscrepancyHandler(&stubDiscrepancyStore{}, nil, discardLogger())

	rec := httptest.NewRecorder()
	h.TriggerScan(rec, httptest.NewRequest(http.MethodPost, "/api/discrepancies/scan", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestListDiscrepanciesCapsLimit(t *testing.T) {
	h := NewDiscrepancyHandler(&stubDiscrepancyStore{}, nil, discardLogger())

	rec := httptest.NewRecorder()
	h.ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/discrepancies?limit=9999", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp listDiscrepanciesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Limit != 500 {
		t.Errorf("limit = %d, want 500", resp.Limit)
	}
}

// stubArchive serves archived objects from an in-memory map.
type stubArchive struct {
	objects map[string][]byte
}

func (s *stubArchive) List(context.Context, string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo
	for path := range s.objects {
		infos = append(infos, domain.BlobInfo{Path: path})
	}
	return infos, nil
}

func (s *stubArchive) Exists(_ context.Context, path string) (bool, error) {
	_, ok := s.objects[path]
	return ok, nil
}

func (s *stubArchive) Get(_ context.Context, path string) (io.ReadCloser, error) {
	body, ok := s.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func TestDownloadArchiveStreamsObject(t *testing.T) {
	stub := &stubArchive{objects: map[string][]byte{
		"archive/discrepancies/2026-08/2026-08-07T10-00-00Z.jsonl": []byte(`{"id":"d1"}` + "\n"),
	}}
	h := NewArchiveHandler(stub, discardLogger())
	mux := newMux("GET /api/archives/{path...}", h.Download)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/archives/archive/discrepancies/2026-08/2026-08-07T10-00-00Z.jsonl", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"d1"`)) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestDownloadArchiveNotFound(t *testing.T) {
	h := NewArchiveHandler(&stubArchive{}, discardLogger())
	mux := newMux("GET /api/archives/{path...}", h.Download)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/archives/archive/nope.jsonl", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
