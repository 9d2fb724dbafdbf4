package downloadcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/assets"
)

type assetsOptions struct {
	root      string
	outputDir string
	progress  io.Writer
	timeout   time.Duration
}

func executeAssets(ctx context.Context, out io.Writer, opts assetsOptions) error {
	list := assets.WithRoot(opts.root)
	slog.Info("Starting asset download", "root", opts.root, "output", opts.outputDir, "files", len(list))

	fetcher := assets.NewFetcher(assets.Config{
		OutputDir:  opts.outputDir,
		HTTPClient: &http.Client{Timeout: opts.timeout},
		Progress:   opts.progress,
	})

	results, err := fetcher.FetchAll(ctx, list)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nAssets downloaded!\n")
	for _, r := range results {
		fmt.Fprintf(out, "  %-28s %s\n", r.Path, humanize.Bytes(uint64(r.Size)))
	}
	fmt.Fprintf(out, "  Total: %s\n", humanize.Bytes(uint64(assets.TotalSize(results))))
	fmt.Fprintf(out, "\nNext step: download the class images with:\n")
	fmt.Fprintf(out, "  imagenet-fetch download images --labels synset.txt\n")

	return nil
}
