// Package fetch transfers a single remote file to disk.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.bug.st/downloader/v2"
)

// progressInterval is how often the progress bar is refreshed.
const progressInterval = 100 * time.Millisecond

// Options configures a transfer.
type Options struct {
	// Client is used for the request. A zero http.Client (no timeout) is used if nil.
	Client *http.Client

	// Progress receives a byte progress bar while transferring. No bar is
	// drawn when nil.
	Progress io.Writer
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status code %d fetching %q", e.Code, e.URL)
}

// File downloads url into filePath with a single GET, truncating any existing
// file, and returns the number of bytes written. It never resumes a previous
// transfer.
//
// On failure the partially written file is left in place; callers decide
// whether to remove it.
func File(ctx context.Context, url, filePath string, opts Options) (int64, error) {
	var config downloader.Config
	if opts.Client != nil {
		config.HttpClient = *opts.Client
	}

	d, err := downloader.DownloadWithConfigAndContext(ctx, filePath, url, config, downloader.NoResume)
	if err != nil {
		return 0, errors.Wrapf(err, "failed downloading %q", url)
	}
	if code := d.Resp.StatusCode; code < 200 || code > 299 {
		_ = d.Close()
		return 0, &StatusError{URL: url, Code: code}
	}

	if opts.Progress != nil {
		bar := newBar(opts.Progress, d.Size(), filepath.Base(filePath))
		err = d.RunAndPoll(func(current int64) {
			_ = bar.Set64(current)
		}, progressInterval)
		_ = bar.Finish()
	} else {
		err = d.Run()
	}
	if err != nil {
		return d.Completed(), errors.Wrapf(err, "downloading %q to %q", url, filePath)
	}
	return d.Completed(), nil
}

// newBar mirrors progressbar.DefaultBytes but draws on w. A negative size
// (unknown Content-Length) renders a spinner.
func newBar(w io.Writer, size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowTotalBytes(true),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
