package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mmynk/tipsplit/internal/export"
	"github.com/mmynk/tipsplit/internal/models"
	"github.com/mmynk/tipsplit/internal/storage"
)

// ExportHandler serves recorded splits as CSV or PDF downloads.
type ExportHandler struct {
	store    storage.Store
	currency string
	mux      *http.ServeMux
}

// NewExportHandler creates the export routes:
//
//	GET /splits/{id}/export.csv
//	GET /splits/{id}/export.pdf
func NewExportHandler(store storage.Store, currency string) *ExportHandler {
	h := &ExportHandler{store: store, currency: currency, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /splits/{id}/export.csv", func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, "text/csv; charset=utf-8", "csv", export.WriteCSV)
	})
	h.mux.HandleFunc("GET /splits/{id}/export.pdf", func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, "application/pdf", "pdf", export.WritePDF)
	})
	return h
}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type renderFunc func(w io.Writer, r models.SplitResult, opts export.Options) error

// serve renders into a buffer first so a render failure can still
// produce a proper error status.
func (h *ExportHandler) serve(w http.ResponseWriter, r *http.Request, contentType, ext string, render renderFunc) {
	splitID := r.PathValue("id")
	record, err := h.store.GetSplit(r.Context(), splitID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "split not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Export failed to load split", "split_id", splitID, "error", err)
		http.Error(w, "failed to load split", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	opts := export.Options{
		Title:    fmt.Sprintf("Tip split (%s)", record.RuleType),
		Currency: h.currency,
		Pool:     record.Pool,
	}
	if err := render(&buf, record.Result, opts); err != nil {
		slog.Error("Export failed to render split", "split_id", splitID, "format", ext, "error", err)
		http.Error(w, "failed to render export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="split-%s.%s"`, splitID, ext))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("Export write interrupted", "split_id", splitID, "error", err)
	}
}
