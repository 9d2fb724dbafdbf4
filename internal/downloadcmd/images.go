package downloadcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/imagenet-fetch/internal/imagenet"
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/report"
)

type imagesOptions struct {
	labels       string
	host         string
	outputDir    string
	reportPath   string
	skipExisting bool
	limit        int
	classes      []string
	timeout      time.Duration
}

func executeImages(ctx context.Context, out io.Writer, opts imagesOptions) error {
	slog.Info("Starting image download", "labels", opts.labels, "host", opts.host, "output", opts.outputDir, "skip_existing", opts.skipExisting)

	records, err := imagenet.ReadClassFile(opts.labels)
	if err != nil {
		return fmt.Errorf("failed to load classes: %w", err)
	}
	records = imagenet.FilterClasses(records, opts.classes)
	if opts.limit > 0 && len(records) > opts.limit {
		records = records[:opts.limit]
	}
	slog.Info("Loaded classes", "count", len(records))

	downloader := imagenet.NewDownloader(imagenet.Config{
		Host:       opts.host,
		BaseDir:    opts.outputDir,
		HTTPClient: &http.Client{Timeout: opts.timeout},
	})
	rep := report.New(opts.host, opts.outputDir, opts.skipExisting)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			slog.Warn("Download interrupted", "completed", i, "total", len(records))
			break
		}
		fmt.Fprintf(out, "Downloading class: %s\n", rec.Code)
		slog.Info("Processing class", "class", rec.Code, "description", rec.Description, "progress", fmt.Sprintf("%d/%d", i+1, len(records)))

		result, err := downloadClass(ctx, downloader, rec, opts.skipExisting)
		if err != nil {
			return err
		}
		rep.Add(result)
	}
	rep.Finish()

	downloaded, failed, listErrors := rep.Totals()
	fmt.Fprintf(out, "\nImage download complete!\n")
	fmt.Fprintf(out, "  Classes processed: %d\n", len(rep.Classes))
	fmt.Fprintf(out, "  Images kept: %d\n", downloaded)
	fmt.Fprintf(out, "  Images failed: %d\n", failed)
	fmt.Fprintf(out, "  Classes without URL list: %d\n", listErrors)
	fmt.Fprintf(out, "  Output location: %s\n", opts.outputDir)

	if opts.reportPath != "" {
		if err := rep.Save(opts.reportPath); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Fprintf(out, "  Report: %s\n", opts.reportPath)
	}

	return ctx.Err()
}

// downloadClass fetches the URL list of one class and its images. A URL list
// failure is recorded in the result; only filesystem errors are returned. When
// ctx is cancelled the result is marked interrupted and only finished URLs
// are counted.
func downloadClass(ctx context.Context, downloader *imagenet.Downloader, rec imagenet.ClassRecord, skipExisting bool) (report.ClassResult, error) {
	result := report.ClassResult{Code: rec.Code, Description: rec.Description}

	urls, err := downloader.ImageURLs(ctx, rec.Code)
	if err != nil {
		if ctx.Err() != nil {
			result.Interrupted = true
			return result, nil
		}
		slog.Error("Failed to fetch image URLs", "class", rec.Code, "error", err)
		result.Error = err.Error()
		return result, nil
	}
	result.URLs = len(urls)

	if skipExisting {
		exists, err := downloader.ClassExists(rec.Code)
		if err != nil {
			return result, err
		}
		result.Skipped = exists
	}

	attempted := len(urls)
	paths, err := downloader.DownloadImages(ctx, rec.Code, urls, skipExisting)
	var interrupted *imagenet.InterruptedError
	switch {
	case errors.As(err, &interrupted):
		result.Interrupted = true
		attempted = interrupted.Attempted
	case err != nil:
		return result, fmt.Errorf("failed to download class %s: %w", rec.Code, err)
	}
	result.Downloaded = len(paths)
	if !result.Skipped {
		result.Failed = attempted - len(paths)
	}

	slog.Info("Class done", "class", rec.Code, "urls", result.URLs, "downloaded", result.Downloaded, "failed", result.Failed, "skipped", result.Skipped, "interrupted", result.Interrupted)
	return result, nil
}
