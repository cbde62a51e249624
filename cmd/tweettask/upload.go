package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abdulachik/tweettask/internal/task"
	"github.com/abdulachik/tweettask/internal/twitterapi"
)

var (
	uploadChunked  bool
	uploadCategory string
	uploadOwners   []int64
	uploadSkipWait bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a media file",
	Long: `Upload an image, GIF or video and print its media id.

Videos always use the chunked INIT/APPEND/FINALIZE flow. Other files use
it when --chunked is set.

Examples:
  tweettask upload photo.jpg
  tweettask upload clip.mp4 --category tweet_video
  tweettask upload big.gif --chunked --skip-wait`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadChunked, "chunked", false, "Use the chunked upload flow")
	uploadCmd.Flags().StringVar(&uploadCategory, "category", "", "Media category (tweet_image, tweet_gif, tweet_video)")
	uploadCmd.Flags().Int64SliceVar(&uploadOwners, "owner", nil, "Additional owner user ids")
	uploadCmd.Flags().BoolVar(&uploadSkipWait, "skip-wait", false, "Do not wait for server-side processing")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, creds, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("uploading", "file", args[0])
	media, err := a.Runner.MediaUpload(ctx, creds, task.MediaUploadOptions{
		Filename:           args[0],
		Chunked:            uploadChunked,
		MediaCategory:      uploadCategory,
		AdditionalOwners:   uploadOwners,
		SkipProcessingWait: uploadSkipWait,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", args[0], err)
	}

	printMedia(media)
	return nil
}

func printMedia(m *twitterapi.Media) {
	fmt.Printf("Media ID: %s\n", m.MediaIDString)
	if m.MediaKey != "" {
		fmt.Printf("Media key: %s\n", m.MediaKey)
	}
	if m.Size > 0 {
		fmt.Printf("Size: %d bytes\n", m.Size)
	}
	if m.ExpiresAfterSecs > 0 {
		fmt.Printf("Expires after: %ds\n", m.ExpiresAfterSecs)
	}
	if p := m.ProcessingInfo; p != nil {
		fmt.Printf("Processing: %s", p.State)
		if p.ProgressPercent > 0 {
			fmt.Printf(" (%d%%)", p.ProgressPercent)
		}
		fmt.Println()
		if p.Error != nil {
			fmt.Printf("  Error %d %s: %s\n", p.Error.Code, p.Error.Name, p.Error.Message)
		}
	}
}
