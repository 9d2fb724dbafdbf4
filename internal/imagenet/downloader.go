package imagenet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/fetch"
)

const (
	// DefaultHost serves the synset URL lists.
	DefaultHost = "http://www.image-net.org"

	urlListPath = "/api/text/imagenet.synset.geturls"
)

// DefaultExtensions is the allow-list applied to downloaded file names.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// Config configures a Downloader. Zero values are replaced by defaults.
type Config struct {
	// Host is the scheme and authority of the URL list API.
	Host string

	// Extensions allowed for downloaded images, compared case-insensitively.
	Extensions []string

	// BaseDir holds one directory per class.
	BaseDir string

	// HTTPClient is used for every request. The default has no timeout.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Downloader fetches the images of ImageNet classes into per-class directories.
type Downloader struct {
	host    string
	baseDir string
	exts    map[string]bool
	client  *http.Client
	log     *slog.Logger
}

// NewDownloader creates a Downloader from cfg.
func NewDownloader(cfg Config) *Downloader {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	exts := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(ext)] = true
	}

	return &Downloader{
		host:    strings.TrimRight(cfg.Host, "/"),
		baseDir: cfg.BaseDir,
		exts:    exts,
		client:  cfg.HTTPClient,
		log:     cfg.Logger,
	}
}

// ImageURLs asks the URL list API for the image URLs of class wnid. Order is
// preserved; duplicates and malformed entries are returned as-is.
func (d *Downloader) ImageURLs(ctx context.Context, wnid string) ([]string, error) {
	listURL := d.host + urlListPath + "?wnid=" + url.QueryEscape(wnid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, &TransferError{URL: listURL, Err: err}
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &TransferError{URL: listURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransferError{URL: listURL, Err: &fetch.StatusError{URL: listURL, Code: resp.StatusCode}}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransferError{URL: listURL, Err: err}
	}
	return splitURLList(string(body)), nil
}

func splitURLList(body string) []string {
	var urls []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "\r", ""))
		if line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}

// ClassDir returns the directory path for class wnid, whether or not it exists.
func (d *Downloader) ClassDir(wnid string) (string, error) {
	if wnid == "" || wnid == "." || wnid == ".." || strings.ContainsAny(wnid, `/\`) {
		return "", fmt.Errorf("invalid class code %q", wnid)
	}
	return filepath.Join(d.baseDir, wnid), nil
}

// ClassExists reports whether the directory of class wnid is present.
func (d *Downloader) ClassExists(wnid string) (bool, error) {
	dir, err := d.ClassDir(wnid)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat class directory: %w", err)
	}
	return info.IsDir(), nil
}

// MakeClassDir creates the directory of class wnid if needed and returns its
// absolute path.
func (d *Downloader) MakeClassDir(wnid string) (string, error) {
	dir, err := d.ClassDir(wnid)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create class directory: %w", err)
	}
	return filepath.Abs(dir)
}

// ClassFiles lists the entries of the directory of class wnid, sorted by name.
func (d *Downloader) ClassFiles(wnid string) ([]string, error) {
	dir, err := d.ClassDir(wnid)
	if err != nil {
		return nil, err
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list class directory: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// RemoveClassDir deletes the directory of class wnid. It fails if the
// directory is absent or not empty.
func (d *Downloader) RemoveClassDir(wnid string) error {
	dir, err := d.ClassDir(wnid)
	if err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to remove class directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to remove class directory: %s is not a directory", dir)
	}
	if err := os.Remove(dir); err != nil {
		return fmt.Errorf("failed to remove class directory: %w", err)
	}
	return nil
}

// DownloadFile transfers rawURL into dir, naming the file after the URL's
// final path segment, and validates the result. The body is written to a
// ".tmp" sibling first and only renamed into place once it passes validation,
// so a failing URL never touches a file already kept under the same name.
// A file that fails validation is removed and a *ValidationError is returned;
// a failed transfer returns a *TransferError.
func (d *Downloader) DownloadFile(ctx context.Context, rawURL, dir string) (string, error) {
	name := fileNameFromURL(rawURL)
	if name == "" {
		return "", &ValidationError{Path: dir, Reason: ErrNotFile}
	}
	dest := filepath.Join(dir, name)
	tmp := dest + ".tmp"

	if _, err := fetch.File(ctx, rawURL, tmp, fetch.Options{Client: d.client}); err != nil {
		removeRegularFile(tmp)
		return "", &TransferError{URL: rawURL, Err: err}
	}

	if err := d.validate(tmp, dest); err != nil {
		removeRegularFile(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dest); err != nil {
		removeRegularFile(tmp)
		return "", &ValidationError{Path: dest, Reason: ErrNotFile, Err: err}
	}
	return dest, nil
}

// validate applies the gates to the downloaded file at filePath in order: it
// is a regular file, the extension of dest is allowed, and it decodes as an
// image.
func (d *Downloader) validate(filePath, dest string) error {
	info, err := os.Stat(filePath)
	if err != nil || !info.Mode().IsRegular() {
		return &ValidationError{Path: dest, Reason: ErrNotFile, Err: err}
	}

	if !d.exts[strings.ToLower(filepath.Ext(dest))] {
		return &ValidationError{Path: dest, Reason: ErrUnsupportedExtension}
	}

	if _, err := imaging.Open(filePath); err != nil {
		return &ValidationError{Path: dest, Reason: ErrCorruptImage, Err: err}
	}
	return nil
}

// DownloadImages downloads every URL of class wnid into its class directory
// and returns the paths that passed validation, in URL order. A failing URL is
// logged and skipped. Cancelling ctx stops the loop with an *InterruptedError
// wrapping ctx.Err(); the in-flight URL is not counted as attempted.
//
// With skipExisting set, an existing class directory is trusted as-is: its
// current listing is returned and nothing is downloaded.
func (d *Downloader) DownloadImages(ctx context.Context, wnid string, urls []string, skipExisting bool) ([]string, error) {
	if skipExisting {
		exists, err := d.ClassExists(wnid)
		if err != nil {
			return nil, err
		}
		if exists {
			d.log.Info("Class already downloaded", "class", wnid)
			return d.ClassFiles(wnid)
		}
	}

	dir, err := d.MakeClassDir(wnid)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(urls))
	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return paths, &InterruptedError{Attempted: i, Err: err}
		}
		p, err := d.DownloadFile(ctx, u, dir)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return paths, &InterruptedError{Attempted: i, Err: ctxErr}
			}
			d.log.Warn("Fail to download", "class", wnid, "url", u, "error", err)
			continue
		}
		d.log.Debug("Downloaded image", "class", wnid, "path", p)
		paths = append(paths, p)
	}
	return paths, nil
}

// fileNameFromURL returns the final path segment of rawURL, or "" when there
// is none.
func fileNameFromURL(rawURL string) string {
	var name string
	if u, err := url.Parse(rawURL); err == nil {
		if u.Path == "" || strings.HasSuffix(u.Path, "/") {
			return ""
		}
		name = path.Base(u.Path)
	} else {
		trimmed := strings.SplitN(rawURL, "?", 2)[0]
		name = trimmed[strings.LastIndex(trimmed, "/")+1:]
	}
	if name == "." || name == ".." || name == "/" || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}

func removeRegularFile(filePath string) {
	info, err := os.Lstat(filePath)
	if err != nil || info.IsDir() {
		return
	}
	if err := os.Remove(filePath); err != nil {
		slog.Warn("Failed to remove rejected file", "path", filePath, "error", err)
	}
}
