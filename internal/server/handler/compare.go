package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// CompareService defines the methods the compare handler requires from the
// service layer.
type CompareService interface {
	Compare(ctx context.Context, a, b domain.MarketRef, tradeSize float64) (domain.MarketComparisonResult, error)
	Efficiency(ctx context.Context, ref domain.MarketRef, tradeSize float64) (domain.EfficiencyResult, error)
	Exhaustion(ctx context.Context, a, b domain.MarketRef, side domain.Side, initialEdge float64) (domain.ExhaustionResult, error)
	History(ctx context.Context, limit int) ([]domain.ComparisonRecord, error)
	Get(ctx context.Context, id string) (domain.ComparisonRecord, error)
}

// CompareHandler serves the cross-market comparison endpoints.
type CompareHandler struct {
	compare CompareService
	logger  *slog.Logger
}

// NewCompareHandler creates a CompareHandler with the given service and logger.
func NewCompareHandler(compare CompareService, logger *slog.Logger) *CompareHandler {
	return &CompareHandler{
		compare: compare,
		logger:  logHandler(logger, "compare"),
	}
}

// compareRequest names the two markets to compare and the probe trade size.
type compareRequest struct {
	MarketA   domain.MarketRef `json:"market_a"`
	MarketB   domain.MarketRef `json:"market_b"`
	TradeSize float64          `json:"trade_size"`
}

func (req compareRequest) valid() bool {
	return req.MarketA.Venue != "" && req.MarketA.MarketID != "" &&
		req.MarketB.Venue != "" && req.MarketB.MarketID != "" &&
		req.TradeSize > 0
}

// Compare fetches both markets' books and runs the full execution-aware
// comparison at the requested trade size.
// POST /api/compare
func (h *CompareHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.valid() {
		writeError(w, http.StatusBadRequest, "both markets and a positive trade_size are required")
		return
	}

	result, err := h.compare.Compare(r.Context(), req.MarketA, req.MarketB, req.TradeSize)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: compare failed",
			slog.String("market_a", req.MarketA.MarketID),
			slog.String("market_b", req.MarketB.MarketID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "comparison failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Efficiency classifies one market's YES+NO execution pricing at a trade size.
// GET /api/markets/{venue}/{id}/efficiency?size=100
func (h *CompareHandler) Efficiency(w http.ResponseWriter, r *http.Request) {
	venue := pathParam(r, "venue")
	marketID := pathParam(r, "id")
	if venue == "" || marketID == "" {
		writeError(w, http.StatusBadRequest, "missing venue or market id")
		return
	}

	size, err := parseFloatQuery(r, "size", 100)
	if err != nil || size <= 0 {
		writeError(w, http.StatusBadRequest, "size must be positive")
		return
	}

	result, err := h.compare.Efficiency(r.Context(), domain.MarketRef{Venue: venue, MarketID: marketID}, size)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: efficiency failed",
			slog.String("venue", venue),
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "efficiency check failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// exhaustionRequest names two markets, the trade direction, and the starting
// price edge to walk down.
type exhaustionRequest struct {
	MarketA     domain.MarketRef `json:"market_a"`
	MarketB     domain.MarketRef `json:"market_b"`
	Side        string           `json:"side"`
	InitialEdge float64          `json:"initial_edge"` // percentage points
}

// Exhaustion finds the ladder size at which combined slippage across two
// books consumes an initial edge.
// POST /api/compare/exhaustion
func (h *CompareHandler) Exhaustion(w http.ResponseWriter, r *http.Request) {
	var req exhaustionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MarketA.Venue == "" || req.MarketA.MarketID == "" ||
		req.MarketB.Venue == "" || req.MarketB.MarketID == "" {
		writeError(w, http.StatusBadRequest, "both markets are required")
		return
	}

	side, ok := parseSide(req.Side)
	if !ok {
		writeError(w, http.StatusBadRequest, "side must be BUY or SELL")
		return
	}
	if req.InitialEdge <= 0 {
		writeError(w, http.StatusBadRequest, "initial_edge must be positive")
		return
	}

	result, err := h.compare.Exhaustion(r.Context(), req.MarketA, req.MarketB, side, req.InitialEdge)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: exhaustion failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "exhaustion check failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// listComparisonsResponse wraps the history endpoint output.
type listComparisonsResponse struct {
	Comparisons []domain.ComparisonRecord `json:"comparisons"`
	Limit       int                       `json:"limit"`
}

// History returns recent comparison records, newest first.
// GET /api/compare/history?limit=50
func (h *CompareHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)

	recs, err := h.compare.History(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: comparison history failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list comparisons")
		return
	}

	writeJSON(w, http.StatusOK, listComparisonsResponse{
		Comparisons: recs,
		Limit:       limit,
	})
}

// Get returns one recorded comparison by ID.
// GET /api/compare/history/{id}
func (h *CompareHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing comparison id")
		return
	}

	rec, err := h.compare.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.ErrorContext(r.Context(), "handler: get comparison failed",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
		writeDomainError(w, err, "failed to load comparison")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
