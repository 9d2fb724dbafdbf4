package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
)

// HandleImage serves /images/{wnid}/{file} from the class directories.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/images/")

	// Prevent directory traversal attacks
	if strings.Contains(rel, "..") || strings.Count(rel, "/") != 1 {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}
	code, name, _ := strings.Cut(rel, "/")
	if !wnidPattern.MatchString(code) || name == "" {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.baseDir, code, name))
}
