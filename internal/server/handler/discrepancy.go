package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// DiscrepancyStore defines the read side the discrepancy handler needs from
// the history store.
type DiscrepancyStore interface {
	ListRecent(ctx context.Context, limit int) ([]domain.DiscrepancyRecord, error)
}

// Scanner triggers one cross-venue discrepancy scan on demand.
type Scanner interface {
	ScanOnce(ctx context.Context) ([]domain.DiscrepancyResult, error)
}

// DiscrepancyHandler serves the discrepancy history and scan endpoints.
type DiscrepancyHandler struct {
	store   DiscrepancyStore
	scanner Scanner
	logger  *slog.Logger
}

// NewDiscrepancyHandler creates a DiscrepancyHandler. store and scanner may
// each be nil when the deployment mode does not carry them; the corresponding
// endpoint then reports 503.
func NewDiscrepancyHandler(store DiscrepancyStore, scanner Scanner, logger *slog.Logger) *DiscrepancyHandler {
	return &DiscrepancyHandler{
		store:   store,
		scanner: scanner,
		logger:  logHandler(logger, "discrepancy"),
	}
}

// listDiscrepanciesResponse wraps the list endpoint output.
type listDiscrepanciesResponse struct {
	Discrepancies []domain.DiscrepancyRecord `json:"discrepancies"`
	Limit         int                        `json:"limit"`
}

// ListRecent returns recently detected discrepancies, newest first.
// GET /api/discrepancies?limit=50
func (h *DiscrepancyHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "discrepancy history is not enabled")
		return
	}

	limit := parseLimit(r)

	recs, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list discrepancies failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list discrepancies")
		return
	}

	writeJSON(w, http.StatusOK, listDiscrepanciesResponse{
		Discrepancies: recs,
		Limit:         limit,
	})
}

// scanResponse reports the outcome of an on-demand scan.
type scanResponse struct {
	Discrepancies []domain.DiscrepancyResult `json:"discrepancies"`
	Count         int                        `json:"count"`
}

// TriggerScan runs one full cross-venue scan synchronously and returns the
// detected discrepancies.
// POST /api/discrepancies/scan
func (h *DiscrepancyHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	if h.scanner == nil {
		writeError(w, http.StatusServiceUnavailable, "scanning is not enabled")
		return
	}

	h.logger.InfoContext(r.Context(), "handler: scan requested")

	results, err := h.scanner.ScanOnce(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: scan failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "scan failed")
		return
	}

	writeJSON(w, http.StatusOK, scanResponse{
		Discrepancies: results,
		Count:         len(results),
	})
}
