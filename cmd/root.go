package cmd

import (
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/imagenet-fetch/internal/config"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "imagenet-fetch",
		Short: "Download ImageNet assets and per-class images for the ResNet training walkthrough",
		Long: `imagenet-fetch downloads what the ResNet-on-ImageNet walkthrough needs:
the pretrained model files, a sample image, the synset labels and manifests,
and the images of each ImageNet class listed in the synset file.

Settings can be given as flags, environment variables or a .env file.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			config.LoadDotEnv()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}
