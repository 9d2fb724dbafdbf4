package downloadcmd

import (
	"fmt"
	"time"

	"github.com/lehigh-university-libraries/imagenet-fetch/internal/assets"
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/config"
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/imagenet"
	"github.com/spf13/cobra"
)

// NewAssetsCmd creates the assets command for fetching the walkthrough's static files
func NewAssetsCmd() *cobra.Command {
	var root string
	var outputDir string
	var progress bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Download the pretrained ResNet-18 model, sample image, synset and manifests",
		Long: `Download the fixed set of files the ResNet-on-ImageNet walkthrough starts from:

  resnet18-mrs-0028.params, resnet18-mrs-symbol.json, neko.jpg,
  synset.txt, train.lst and val.lst

Files are written to the output directory, replacing any existing copy.
The first failed transfer stops the command.`,
		Example: `  # Download everything into the working directory
  imagenet-fetch download assets

  # Download from a mirror with progress bars
  imagenet-fetch download assets --root http://mirror.local/blog3/ --progress`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.FromEnv()
			if !cmd.Flags().Changed("root") {
				root = settings.AssetRoot
			}
			if !cmd.Flags().Changed("output") {
				outputDir = settings.OutputDir
			}

			opts := assetsOptions{
				root:      root,
				outputDir: outputDir,
				timeout:   timeout,
			}
			if progress {
				opts.progress = cmd.ErrOrStderr()
			}
			return executeAssets(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&root, "root", assets.DefaultRoot, "URL root the assets are downloaded from")
	cmd.Flags().StringVarP(&outputDir, "output", "o", config.DefaultOutputDir, "Directory the assets are written to")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show a progress bar per file")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (0 waits forever)")

	return cmd
}

// NewImagesCmd creates the images command for downloading per-class images
func NewImagesCmd() *cobra.Command {
	var labels string
	var host string
	var outputDir string
	var reportPath string
	var skipExisting bool
	var limit int
	var classes []string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "images",
		Short: "Download the images of every class listed in a synset file",
		Long: `Read the class-list (synset) file and, for every class in file order, fetch
its image URLs from the ImageNet URL list API and download each image into a
directory named after the class code.

Each file is kept only if its extension is .jpg, .jpeg, .png or .gif and its
bytes decode as an image. A failing URL is logged and skipped.

With --skip-existing (the default) a class whose directory already exists is
not downloaded again; its directory is trusted as-is.`,
		Example: `  # Download every class in synset.txt into ./images
  imagenet-fetch download images --labels synset.txt --output ./images

  # Download two classes, re-fetching anything already present
  imagenet-fetch download images --classes n01440764,n01443537 --skip-existing=false

  # Write a per-class report
  imagenet-fetch download images --limit 10 --report reports/run.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.FromEnv()
			if !cmd.Flags().Changed("labels") {
				labels = settings.LabelsFile
			}
			if !cmd.Flags().Changed("host") {
				host = settings.Host
			}
			if !cmd.Flags().Changed("output") {
				outputDir = settings.OutputDir
			}
			if !cmd.Flags().Changed("skip-existing") {
				skipExisting = settings.SkipExisting
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			return executeImages(cmd.Context(), cmd.OutOrStdout(), imagesOptions{
				labels:       labels,
				host:         host,
				outputDir:    outputDir,
				reportPath:   reportPath,
				skipExisting: skipExisting,
				limit:        limit,
				classes:      classes,
				timeout:      timeout,
			})
		},
	}

	cmd.Flags().StringVarP(&labels, "labels", "l", config.DefaultLabels, "Class-list (synset) file")
	cmd.Flags().StringVar(&host, "host", imagenet.DefaultHost, "Host serving the image URL lists")
	cmd.Flags().StringVarP(&outputDir, "output", "o", config.DefaultOutputDir, "Directory that receives one sub-directory per class")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a per-class report (.yaml, .yml or .parquet)")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", config.DefaultSkipExisting, "Skip classes whose directory already exists")
	cmd.Flags().IntVar(&limit, "limit", 0, "Only process the first N classes (0 for all)")
	cmd.Flags().StringSliceVar(&classes, "classes", nil, "Only process these class codes")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (0 waits forever)")

	return cmd
}

// NewRemoveClassCmd creates the remove-class command
func NewRemoveClassCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "remove-class <wnid>...",
		Short: "Remove empty class directories",
		Long: `Remove the directory of each given class code. Only empty directories are
removed; a missing or non-empty directory is an error.`,
		Example: `  imagenet-fetch download remove-class n01440764 --output ./images`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("output") {
				dir = config.FromEnv().OutputDir
			}
			return executeRemoveClass(cmd.OutOrStdout(), dir, args)
		},
	}

	cmd.Flags().StringVarP(&dir, "output", "o", config.DefaultOutputDir, "Directory holding the class directories")

	return cmd
}
