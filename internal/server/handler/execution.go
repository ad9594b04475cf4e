package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mihirgan06/Arbiter/internal/domain"
	"github.com/mihirgan06/Arbiter/internal/engine"
)

// ExecutionHandler serves the execution simulation and payoff endpoints.
type ExecutionHandler struct {
	books  BookService
	logger *slog.Logger
}

// NewExecutionHandler creates an ExecutionHandler with the given service and
// logger.
func NewExecutionHandler(books BookService, logger *slog.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		books:  books,
		logger: logHandler(logger, "execution"),
	}
}

// priceRequest describes a hypothetical order to walk through a live book.
type priceRequest struct {
	Venue   string  `json:"venue"`
	TokenID string  `json:"token_id"`
	Side    string  `json:"side"`
	Outcome string  `json:"outcome"`
	Size    float64 `json:"size"`
}

// priceResponse pairs the simulated execution with its resolution payoff.
type priceResponse struct {
	Execution domain.ExecutionResult `json:"execution"`
	Payoff    domain.PayoffResult    `json:"payoff"`
}

// PriceExecution fetches the requested token's book and simulates walking an
// order of the given size through it.
// POST /api/execution/price
func (h *ExecutionHandler) PriceExecution(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Venue == "" || req.TokenID == "" {
		writeError(w, http.StatusBadRequest, "missing venue or token_id")
		return
	}

	side, ok := parseSide(req.Side)
	if !ok {
		writeError(w, http.StatusBadRequest, "side must be BUY or SELL")
		return
	}
	outcome, ok := parseOutcome(req.Outcome)
	if !ok {
		writeError(w, http.StatusBadRequest, "outcome must be YES or NO")
		return
	}
	if req.Size <= 0 {
		writeError(w, http.StatusBadRequest, "size must be positive")
		return
	}

	book, err := h.books.GetBook(r.Context(), req.Venue, req.TokenID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get book failed",
			slog.String("venue", req.Venue),
			slog.String("token_id", req.TokenID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to fetch book")
		return
	}

	exec := engine.PriceExecution(book, domain.TradeInput{
		Side:    side,
		Outcome: outcome,
		Size:    req.Size,
	})

	writeJSON(w, http.StatusOK, priceResponse{
		Execution: exec,
		Payoff:    engine.ComputePayoff(exec),
	})
}

// payoffRequest carries one or more execution legs to convert into
// resolution P&L.
type payoffRequest struct {
	Executions []domain.ExecutionResult `json:"executions"`
}

// payoffResponse returns per-leg payoffs plus the combined position payoff.
type payoffResponse struct {
	Payoffs  []domain.PayoffResult `json:"payoffs"`
	Combined domain.CombinedPayoff `json:"combined"`
}

// Payoff computes resolution payoffs for previously simulated executions.
// POST /api/execution/payoff
func (h *ExecutionHandler) Payoff(w http.ResponseWriter, r *http.Request) {
	var req payoffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Executions) == 0 {
		writeError(w, http.StatusBadRequest, "at least one execution is required")
		return
	}

	payoffs := make([]domain.PayoffResult, 0, len(req.Executions))
	for _, exec := range req.Executions {
		payoffs = append(payoffs, engine.ComputePayoff(exec))
	}

	writeJSON(w, http.StatusOK, payoffResponse{
		Payoffs:  payoffs,
		Combined: engine.ComputeCombinedPayoff(req.Executions),
	})
}

// Kelly returns the growth-optimal bankroll fraction for a directional bet.
// GET /api/kelly?prob=0.55&price=0.48&side=BUY&outcome=YES
func (h *ExecutionHandler) Kelly(w http.ResponseWriter, r *http.Request) {
	prob, err := parseFloatQuery(r, "prob", -1)
	if err != nil || prob < 0 || prob > 1 {
		writeError(w, http.StatusBadRequest, "prob must be in [0,1]")
		return
	}
	price, err := parseFloatQuery(r, "price", -1)
	if err != nil || price < 0 || price > 1 {
		writeError(w, http.StatusBadRequest, "price must be in [0,1]")
		return
	}

	side, ok := parseSide(r.URL.Query().Get("side"))
	if !ok {
		writeError(w, http.StatusBadRequest, "side must be BUY or SELL")
		return
	}
	outcome, ok := parseOutcome(r.URL.Query().Get("outcome"))
	if !ok {
		writeError(w, http.StatusBadRequest, "outcome must be YES or NO")
		return
	}

	writeJSON(w, http.StatusOK, engine.KellyFraction(prob, price, side, outcome))
}
