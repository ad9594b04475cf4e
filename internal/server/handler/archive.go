package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// ArchiveBrowser reads the objects written to cold storage.
type ArchiveBrowser interface {
	List(ctx context.Context, prefix string) ([]domain.BlobInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
	Get(ctx context.Context, path string) (io.ReadCloser, error)
}

// ArchiveHandler serves the archived-history browsing endpoints.
type ArchiveHandler struct {
	blobs  ArchiveBrowser
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler. blobs may be nil when the
// deployment mode carries no object storage; the endpoints then report 503.
func NewArchiveHandler(blobs ArchiveBrowser, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		blobs:  blobs,
		logger: logHandler(logger, "archive"),
	}
}

// listArchivesResponse wraps the archive listing output.
type listArchivesResponse struct {
	Archives []domain.BlobInfo `json:"archives"`
	Prefix   string            `json:"prefix"`
}

// List returns the archived history objects under the given prefix.
// GET /api/archives?prefix=archive/discrepancies/
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "archival storage is not enabled")
		return
	}

	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = "archive/"
	}

	infos, err := h.blobs.List(r.Context(), prefix)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list archives failed",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list archives")
		return
	}

	writeJSON(w, http.StatusOK, listArchivesResponse{
		Archives: infos,
		Prefix:   prefix,
	})
}

// Download streams one archived object back to the caller.
// GET /api/archives/{path...}
func (h *ArchiveHandler) Download(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "archival storage is not enabled")
		return
	}

	path := pathParam(r, "path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing object path")
		return
	}

	ok, err := h.blobs.Exists(r.Context(), path)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: archive stat failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read archive object")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "archive object not found")
		return
	}

	body, err := h.blobs.Get(r.Context(), path)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: archive read failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to read archive object")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "handler: archive stream interrupted",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
