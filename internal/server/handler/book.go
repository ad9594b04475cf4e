package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mihirgan06/Arbiter/internal/domain"
	"github.com/mihirgan06/Arbiter/internal/engine"
)

// BookService defines the methods the book handler requires from the service
// layer. It is declared locally so the handler package does not depend on the
// concrete service implementation.
type BookService interface {
	GetBook(ctx context.Context, venue, tokenID string) (domain.OrderBook, error)
	GetMarketBooks(ctx context.Context, venue, marketID string) (domain.MarketBooks, error)
}

// BookHandler serves orderbook fetch-and-analyze endpoints.
type BookHandler struct {
	books  BookService
	logger *slog.Logger
}

// NewBookHandler creates a BookHandler with the given service and logger.
func NewBookHandler(books BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		books:  books,
		logger: logHandler(logger, "book"),
	}
}

// bookResponse carries the raw normalized book together with its analysis.
type bookResponse struct {
	Book     domain.OrderBook         `json:"book"`
	Analysis domain.OrderBookAnalysis `json:"analysis"`
}

// GetBook fetches one outcome token's book and returns it with spread/depth
// analysis attached.
// GET /api/books/{venue}/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	venue := pathParam(r, "venue")
	tokenID := pathParam(r, "id")
	if venue == "" || tokenID == "" {
		writeError(w, http.StatusBadRequest, "missing venue or token id")
		return
	}

	book, err := h.books.GetBook(r.Context(), venue, tokenID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get book failed",
			slog.String("venue", venue),
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to fetch book")
		return
	}

	writeJSON(w, http.StatusOK, bookResponse{
		Book:     book,
		Analysis: engine.AnalyzeBook(book),
	})
}

// MaxSize returns the largest order size tradeable on one side of a book
// before slippage from the best price exceeds the given tolerance.
// GET /api/books/{venue}/{id}/maxsize?side=BUY&slippage=2.5
func (h *BookHandler) MaxSize(w http.ResponseWriter, r *http.Request) {
	venue := pathParam(r, "venue")
	tokenID := pathParam(r, "id")
	if venue == "" || tokenID == "" {
		writeError(w, http.StatusBadRequest, "missing venue or token id")
		return
	}

	side, ok := parseSide(r.URL.Query().Get("side"))
	if !ok {
		writeError(w, http.StatusBadRequest, "side must be BUY or SELL")
		return
	}

	slippage, err := parseFloatQuery(r, "slippage", 1.0)
	if err != nil || slippage < 0 {
		writeError(w, http.StatusBadRequest, "slippage must be a non-negative percent")
		return
	}

	book, err := h.books.GetBook(r.Context(), venue, tokenID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get book failed",
			slog.String("venue", venue),
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to fetch book")
		return
	}

	writeJSON(w, http.StatusOK, engine.MaxSizeWithinSlippage(book, side, slippage))
}
