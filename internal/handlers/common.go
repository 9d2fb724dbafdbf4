package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/imagenet-fetch/internal/imagenet"
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/report"
)

type Handler struct {
	baseDir    string
	downloader *imagenet.Downloader
	report     *report.Report
}

// New creates a Handler browsing the class directories under baseDir. rep may
// be nil when no run report was loaded.
func New(baseDir string, rep *report.Report) *Handler {
	return &Handler{
		baseDir:    baseDir,
		downloader: imagenet.NewDownloader(imagenet.Config{BaseDir: baseDir}),
		report:     rep,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}
