package downloadcmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/imagenet-fetch/internal/imagenet"
)

func executeRemoveClass(out io.Writer, dir string, codes []string) error {
	downloader := imagenet.NewDownloader(imagenet.Config{BaseDir: dir})

	for _, code := range codes {
		if err := downloader.RemoveClassDir(code); err != nil {
			return fmt.Errorf("class %s: %w", code, err)
		}
		slog.Info("Removed class directory", "class", code, "dir", dir)
		fmt.Fprintf(out, "Removed %s\n", code)
	}
	return nil
}
