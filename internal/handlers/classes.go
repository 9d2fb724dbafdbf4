package handlers

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/models"
)

var wnidPattern = regexp.MustCompile(`^n\d+$`)

func (h *Handler) HandleClasses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries, err := os.ReadDir(h.baseDir)
	if err != nil {
		h.writeError(w, "Unable to read class directories", http.StatusInternalServerError)
		return
	}

	classes := make([]models.ClassSummary, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || !wnidPattern.MatchString(e.Name()) {
			continue
		}
		summary := models.ClassSummary{Code: e.Name()}
		files, err := h.downloader.ClassFiles(e.Name())
		if err != nil {
			slog.Warn("Unable to list class", "class", e.Name(), "error", err)
			continue
		}
		for _, f := range files {
			if info, err := os.Stat(f); err == nil && info.Mode().IsRegular() {
				summary.Images++
				summary.Bytes += info.Size()
			}
		}
		summary.Size = humanize.Bytes(uint64(summary.Bytes))
		classes = append(classes, summary)
	}
	h.writeJSON(w, classes)
}

func (h *Handler) HandleClassDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := strings.TrimPrefix(r.URL.Path, "/api/classes/")
	if !wnidPattern.MatchString(code) {
		h.writeError(w, "Class not found", http.StatusNotFound)
		return
	}
	files, err := h.downloader.ClassFiles(code)
	if err != nil {
		h.writeError(w, "Class not found", http.StatusNotFound)
		return
	}

	detail := models.ClassDetail{Code: code, Images: make([]models.ImageItem, 0, len(files))}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		item := models.ImageItem{
			Name:     filepath.Base(f),
			ImageURL: "/images/" + code + "/" + filepath.Base(f),
			Bytes:    info.Size(),
		}
		width, height, err := getImageDimensions(f)
		if err != nil {
			slog.Warn("Failed to get image dimensions", "path", f, "error", err)
		} else {
			item.ImageWidth, item.ImageHeight = width, height
		}
		detail.Images = append(detail.Images, item)
	}
	h.writeJSON(w, detail)
}

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if h.report == nil {
		h.writeError(w, "No report loaded", http.StatusNotFound)
		return
	}
	h.writeJSON(w, h.report)
}

func getImageDimensions(imagePath string) (int, int, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	img, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}

	return img.Width, img.Height, nil
}
