package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var uploadStatusCmd = &cobra.Command{
	Use:   "upload-status <media-id>",
	Short: "Show processing status of an uploaded media",
	Args:  cobra.ExactArgs(1),
	RunE:  runUploadStatus,
}

func init() {
	rootCmd.AddCommand(uploadStatusCmd)
}

func runUploadStatus(cmd *cobra.Command, args []string) error {
	mediaID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid media id %q: %w", args[0], err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, creds, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	media, err := a.Runner.MediaUploadStatus(ctx, creds, mediaID)
	if err != nil {
		return err
	}

	printMedia(media)
	return nil
}
