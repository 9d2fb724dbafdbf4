package cmd

import (
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/downloadcmd"
	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "ImageNet download tools",
		Long: `Download tools for the ResNet-on-ImageNet walkthrough.

Fetches the static tutorial assets, downloads the images of every class in a
synset file into per-class directories, and removes class directories.`,
	}

	// Add download subcommands
	cmd.AddCommand(downloadcmd.NewAssetsCmd())
	cmd.AddCommand(downloadcmd.NewImagesCmd())
	cmd.AddCommand(downloadcmd.NewRemoveClassCmd())

	return cmd
}
