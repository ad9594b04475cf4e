package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the domain sentinel errors onto HTTP status codes.
// Upstream venue failures surface as 502 so clients can tell them apart from
// our own faults.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrBadUpstream):
		writeError(w, http.StatusBadGateway, "upstream venue error")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// parseLimit extracts the limit query parameter. Defaults to 50, capped at 500.
func parseLimit(r *http.Request) int {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}

// parseFloatQuery reads a float query parameter, returning def when absent
// and an error when present but malformed.
func parseFloatQuery(r *http.Request, name string, def float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}

// parseSide validates a side string ("BUY"/"SELL", case-insensitive).
func parseSide(s string) (domain.Side, bool) {
	switch domain.Side(strings.ToUpper(s)) {
	case domain.SideBuy:
		return domain.SideBuy, true
	case domain.SideSell:
		return domain.SideSell, true
	}
	return "", false
}

// parseOutcome validates an outcome string ("YES"/"NO", case-insensitive).
func parseOutcome(s string) (domain.Outcome, bool) {
	switch domain.Outcome(strings.ToUpper(s)) {
	case domain.OutcomeYes:
		return domain.OutcomeYes, true
	case domain.OutcomeNo:
		return domain.OutcomeNo, true
	}
	return "", false
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
