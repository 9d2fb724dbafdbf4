// Package assets downloads the fixed set of files the ResNet-on-ImageNet
// walkthrough starts from: pretrained weights, a sample image, the synset
// labels and the train/val manifests.
package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/fetch"
)

// DefaultRoot is the blob container all assets live under.
const DefaultRoot = "https://mxnetstorage.blob.core.windows.net/blog3/"

var defaultFiles = []string{
	"resnet18-mrs-0028.params",
	"resnet18-mrs-symbol.json",
	"neko.jpg",
	"synset.txt",
	"train.lst",
	"val.lst",
}

// Asset is a single remote file.
type Asset struct {
	URL string
}

// FileName is the URL's last path segment.
func (a Asset) FileName() string {
	return path.Base(a.URL)
}

// Default returns the asset list under DefaultRoot.
func Default() []Asset {
	return WithRoot(DefaultRoot)
}

// WithRoot returns the asset list under root.
func WithRoot(root string) []Asset {
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	list := make([]Asset, 0, len(defaultFiles))
	for _, name := range defaultFiles {
		list = append(list, Asset{URL: root + name})
	}
	return list
}

// Config configures a Fetcher.
type Config struct {
	// OutputDir receives the files. Defaults to the working directory.
	OutputDir string

	// HTTPClient is used for the transfers. The default has no timeout.
	HTTPClient *http.Client

	// Progress receives a progress bar per file. Nil disables the bars.
	Progress io.Writer
}

// Fetcher downloads assets one after the other.
type Fetcher struct {
	config Config
}

// NewFetcher creates a Fetcher.
func NewFetcher(config Config) *Fetcher {
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	return &Fetcher{config: config}
}

// Result describes one fetched asset.
type Result struct {
	Path string
	Size int64
}

// FetchAll downloads every asset in order, overwriting existing files. The
// first failure stops the run; files already fetched are kept and a
// half-written file is left as-is.
func (f *Fetcher) FetchAll(ctx context.Context, list []Asset) ([]Result, error) {
	if err := os.MkdirAll(f.config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]Result, 0, len(list))
	for _, a := range list {
		dest := filepath.Join(f.config.OutputDir, a.FileName())
		slog.Info("Downloading file", "url", a.URL, "path", dest)

		size, err := fetch.File(ctx, a.URL, dest, fetch.Options{
			Client:   f.config.HTTPClient,
			Progress: f.config.Progress,
		})
		if err != nil {
			return results, fmt.Errorf("failed to fetch asset %s: %w", a.FileName(), err)
		}

		slog.Debug("Asset downloaded", "path", dest, "size", humanize.Bytes(uint64(size)))
		results = append(results, Result{Path: dest, Size: size})
	}
	return results, nil
}

// TotalSize sums the sizes of results.
func TotalSize(results []Result) int64 {
	var total int64
	for _, r := range results {
		total += r.Size
	}
	return total
}
