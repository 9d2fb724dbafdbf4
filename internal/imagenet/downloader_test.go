package imagenet

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// imageServer serves valid images under /img/*.{jpg,png,gif,JPG}, a text file,
// a corrupt image, a 404 and the URL list API.
type imageServer struct {
	*httptest.Server
	hits  atomic.Int64
	lists map[string]string
}

func newImageServer(t *testing.T) *imageServer {
	t.Helper()
	valid := pngBytes(t)
	s := &imageServer{lists: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		switch name := strings.TrimPrefix(r.URL.Path, "/img/"); name {
		case "missing.png":
			http.NotFound(w, r)
		case "b.txt":
			_, _ = w.Write([]byte("not an image at all"))
		case "corrupt.png":
			_, _ = w.Write([]byte("\x89PNG\r\n\x1a\ngarbage"))
		default:
			_, _ = w.Write(valid)
		}
	})
	mux.HandleFunc(urlListPath, func(w http.ResponseWriter, r *http.Request) {
		body, ok := s.lists[r.URL.Query().Get("wnid")]
		if !ok {
			http.Error(w, "unknown wnid", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	})

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestDownloader(t *testing.T, srv *imageServer, logs *bytes.Buffer) *Downloader {
	t.Helper()
	if logs == nil {
		logs = &bytes.Buffer{}
	}
	return NewDownloader(Config{
		Host:       srv.URL,
		BaseDir:    t.TempDir(),
		HTTPClient: srv.Client(),
		Logger:     slog.New(slog.NewTextHandler(logs, nil)),
	})
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestImageURLs(t *testing.T) {
	srv := newImageServer(t)
	srv.lists["n01440764"] = "http://x/a.jpg\r\n\r\n  http://x/b.png  \nhttp://x/a.jpg\nnot a url\n"
	d := newTestDownloader(t, srv, nil)

	urls, err := d.ImageURLs(context.Background(), "n01440764")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x/a.jpg", "http://x/b.png", "http://x/a.jpg", "not a url"}, urls)
}

func TestImageURLsTransferError(t *testing.T) {
	srv := newImageServer(t)
	d := newTestDownloader(t, srv, nil)

	_, err := d.ImageURLs(context.Background(), "n404")
	var transferErr *TransferError
	require.True(t, errors.As(err, &transferErr))
	assert.Contains(t, transferErr.URL, "wnid=n404")

	d = NewDownloader(Config{Host: "http://127.0.0.1:1"})
	_, err = d.ImageURLs(context.Background(), "n01")
	assert.True(t, errors.As(err, &transferErr))
}

func TestMakeClassDir(t *testing.T) {
	d := NewDownloader(Config{BaseDir: t.TempDir()})

	first, err := d.MakeClassDir("n01")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(first))

	second, err := d.MakeClassDir("n01")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = d.MakeClassDir("../escape")
	assert.Error(t, err)
}

func TestDownloadFile(t *testing.T) {
	srv := newImageServer(t)
	d := newTestDownloader(t, srv, nil)
	dir := t.TempDir()

	for _, name := range []string{"a.jpg", "b.jpeg", "c.png", "d.gif", "E.JPG"} {
		p, err := d.DownloadFile(context.Background(), srv.URL+"/img/"+name+"?size=large", dir)
		require.NoError(t, err, name)
		assert.Equal(t, filepath.Join(dir, name), p)
	}
	assert.ElementsMatch(t, []string{"a.jpg", "b.jpeg", "c.png", "d.gif", "E.JPG"}, dirNames(t, dir))
}

func TestDownloadFileRejectsAndRemoves(t *testing.T) {
	srv := newImageServer(t)
	d := newTestDownloader(t, srv, nil)

	tests := []struct {
		name   string
		url    string
		reason error
	}{
		{name: "disallowed extension", url: srv.URL + "/img/b.txt", reason: ErrUnsupportedExtension},
		{name: "allowed extension but not an image", url: srv.URL + "/img/corrupt.png", reason: ErrCorruptImage},
		{name: "no file name", url: srv.URL + "/img/", reason: ErrNotFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := d.DownloadFile(context.Background(), tt.url, dir)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.ErrorIs(t, err, tt.reason)
			assert.Empty(t, dirNames(t, dir))
		})
	}
}

func TestDownloadFileTransferError(t *testing.T) {
	srv := newImageServer(t)
	d := newTestDownloader(t, srv, nil)
	dir := t.TempDir()

	_, err := d.DownloadFile(context.Background(), srv.URL+"/img/missing.png", dir)
	var transferErr *TransferError
	require.True(t, errors.As(err, &transferErr))

	var validationErr *ValidationError
	assert.False(t, errors.As(err, &validationErr))
	assert.Empty(t, dirNames(t, dir))
}

func TestDownloadImagesSkipsExistingClass(t *testing.T) {
	srv := newImageServer(t)
	d := newTestDownloader(t, srv, nil)

	dir, err := d.MakeClassDir("n01")
	require.NoError(t, err)
	existing := filepath.Join(dir, "old.jpg")
	require.NoError(t, os.WriteFile(existing, []byte("partial"), 0644))

	paths, err := d.DownloadImages(context.Background(), "n01", []string{srv.URL + "/img/a.jpg"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{existing}, paths)
	assert.Zero(t, srv.hits.Load())
}

func TestDownloadImagesContinuesPastFailure(t *testing.T) {
	srv := newImageServer(t)
	var logs bytes.Buffer
	d := newTestDownloader(t, srv, &logs)

	urls := []string{
		srv.URL + "/img/a.jpg",
		srv.URL + "/img/missing.png",
		srv.URL + "/img/c.png",
	}
	paths, err := d.DownloadImages(context.Background(), "n02", urls, false)
	require.NoError(t, err)

	dir, err := d.MakeClassDir("n02")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "c.png")}, paths)
	assert.Contains(t, logs.String(), "Fail to download")
	assert.Contains(t, logs.String(), "missing.png")
}

func TestDownloadImagesKeepsEarlierFileWithSameName(t *testing.T) {
	srv := newImageServer(t)
	d := newTestDownloader(t, srv, nil)

	urls := []string{
		srv.URL + "/img/ok/corrupt.png",
		srv.URL + "/img/corrupt.png",
		srv.URL + "/img/ok/missing.png",
		srv.URL + "/img/missing.png",
	}
	paths, err := d.DownloadImages(context.Background(), "n09", urls, false)
	require.NoError(t, err)

	dir, err := d.ClassDir("n09")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "corrupt.png"), filepath.Join(dir, "missing.png")}, paths)
	for _, p := range paths {
		assert.FileExists(t, p)
		assert.Equal(t, pngBytes(t), readFile(t, p), p)
	}
	assert.ElementsMatch(t, []string{"corrupt.png", "missing.png"}, dirNames(t, dir))
}

func TestDownloadFileFailureKeepsPreviousImage(t *testing.T) {
	srv := newImageServer(t)
	d := newTestDownloader(t, srv, nil)
	dir := t.TempDir()

	for _, name := range []string{"corrupt.png", "missing.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), pngBytes(t), 0644))
		_, err := d.DownloadFile(context.Background(), srv.URL+"/img/"+name, dir)
		require.Error(t, err, name)
		assert.Equal(t, pngBytes(t), readFile(t, filepath.Join(dir, name)), name)
	}
	assert.ElementsMatch(t, []string{"corrupt.png", "missing.png"}, dirNames(t, dir))
}

func TestDownloadImagesInterrupted(t *testing.T) {
	valid := pngBytes(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/b.jpg") {
			cancel()
			<-r.Context().Done()
			return
		}
		_, _ = w.Write(valid)
	}))
	t.Cleanup(srv.Close)

	var logs bytes.Buffer
	d := NewDownloader(Config{
		BaseDir:    t.TempDir(),
		HTTPClient: srv.Client(),
		Logger:     slog.New(slog.NewTextHandler(&logs, nil)),
	})

	urls := []string{srv.URL + "/a.jpg", srv.URL + "/c.png", srv.URL + "/b.jpg", srv.URL + "/d.jpg"}
	paths, err := d.DownloadImages(ctx, "n05", urls, false)
	require.ErrorIs(t, err, context.Canceled)

	var interrupted *InterruptedError
	require.True(t, errors.As(err, &interrupted))
	assert.Equal(t, 2, interrupted.Attempted)
	assert.Len(t, paths, 2)

	dir, err := d.ClassDir("n05")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.jpg", "c.png"}, dirNames(t, dir))
	assert.NotContains(t, logs.String(), "Fail to download")
}

func TestDownloadImagesWithoutSkipRetriesExistingClass(t *testing.T) {
	srv := newImageServer(t)
	d := newTestDownloader(t, srv, nil)

	dir, err := d.MakeClassDir("n03")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("partial"), 0644))

	paths, err := d.DownloadImages(context.Background(), "n03", []string{srv.URL + "/img/a.jpg"}, false)
	require.NoError(t, err)
	require.Len(t, paths, 1)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.NotEqual(t, "partial", string(data))
	assert.NotZero(t, srv.hits.Load())
}

func TestClassEndToEnd(t *testing.T) {
	srv := newImageServer(t)
	d := newTestDownloader(t, srv, nil)
	srv.lists["n01"] = srv.URL + "/img/a.jpg\r\n" + srv.URL + "/img/b.txt\r\n"

	records, err := ParseClasses(strings.NewReader("n01 cat"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	for _, rec := range records {
		urls, err := d.ImageURLs(context.Background(), rec.Code)
		require.NoError(t, err)
		_, err = d.DownloadImages(context.Background(), rec.Code, urls, true)
		require.NoError(t, err)
	}

	dir, err := d.ClassDir("n01")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, dirNames(t, dir))
}

func TestRemoveClassDir(t *testing.T) {
	d := NewDownloader(Config{BaseDir: t.TempDir()})

	assert.Error(t, d.RemoveClassDir("n01"), "absent directory")

	dir, err := d.MakeClassDir("n01")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644))
	assert.Error(t, d.RemoveClassDir("n01"), "non-empty directory")

	require.NoError(t, os.Remove(filepath.Join(dir, "a.jpg")))
	require.NoError(t, d.RemoveClassDir("n01"))

	exists, err := d.ClassExists("n01")
	require.NoError(t, err)
	assert.False(t, exists)
}

func readFile(t *testing.T, p string) []byte {
	t.Helper()
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	return data
}

func TestFileNameFromURL(t *testing.T) {
	tests := [][2]string{
		{"http://x/a.jpg", "a.jpg"},
		{"http://x/dir/b.png?size=2", "b.png"},
		{"http://x/", ""},
		{"http://x", ""},
		{"http://farm1.static.flickr.com/1/2_3.jpg", "2_3.jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt[1], fileNameFromURL(tt[0]), tt[0])
	}
}
