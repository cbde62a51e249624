package main

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/abdulachik/tweettask/internal/task"
	"github.com/abdulachik/tweettask/internal/twitterapi"
	"github.com/abdulachik/tweettask/internal/worker"
)

// maxTweetRunes is the classic tweet length. The API counts weighted
// characters, so longer text only triggers a warning.
const maxTweetRunes = 280

var (
	tweetText      string
	tweetMedia     []int64
	tweetFiles     []string
	tweetReplyTo   int64
	tweetAutoReply bool
	tweetSensitive bool
	tweetDryRun    bool
)

var tweetCmd = &cobra.Command{
	Use:   "tweet",
	Short: "Post a status",
	Long: `Post a status with text, media or both.

Files given with --file are uploaded concurrently before posting and
their media ids are attached after any --media ids.

Examples:
  tweettask tweet --text "hello"
  tweettask tweet --file a.jpg --file b.jpg --text "two photos"
  tweettask tweet --media 710511363345354753 --reply-to 1050118621198921728
  tweettask tweet --text "hello" --dry-run  # Show what would be posted`,
	Args: cobra.NoArgs,
	RunE: runTweet,
}

func init() {
	tweetCmd.Flags().StringVar(&tweetText, "text", "", "Status text")
	tweetCmd.Flags().Int64SliceVar(&tweetMedia, "media", nil, "Already uploaded media ids to attach")
	tweetCmd.Flags().StringSliceVar(&tweetFiles, "file", nil, "Files to upload and attach")
	tweetCmd.Flags().Int64Var(&tweetReplyTo, "reply-to", 0, "Status id to reply to")
	tweetCmd.Flags().BoolVar(&tweetAutoReply, "auto-reply-metadata", false, "Let the API fill in reply mentions")
	tweetCmd.Flags().BoolVar(&tweetSensitive, "sensitive", false, "Mark attached media as possibly sensitive")
	tweetCmd.Flags().BoolVar(&tweetDryRun, "dry-run", false, "Show what would be posted without actually posting")
	rootCmd.AddCommand(tweetCmd)
}

func runTweet(cmd *cobra.Command, args []string) error {
	if tweetText == "" && len(tweetMedia) == 0 && len(tweetFiles) == 0 {
		return task.ErrMissingContent
	}
	if n := utf8.RuneCountInString(tweetText); n > maxTweetRunes {
		slog.Warn("status text may be too long", "runes", n, "max", maxTweetRunes)
	}

	if tweetDryRun {
		fmt.Println("=== DRY RUN ===")
		fmt.Printf("Text: %s\n", tweetText)
		if len(tweetMedia) > 0 {
			fmt.Printf("Media: %v\n", tweetMedia)
		}
		for _, f := range tweetFiles {
			fmt.Printf("Upload: %s (%s)\n", f, twitterapi.MediaTypeByFilename(f))
		}
		if tweetReplyTo != 0 {
			fmt.Printf("In reply to: %d\n", tweetReplyTo)
		}
		fmt.Println("================")
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, creds, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	uploads := make([]*worker.Future[*twitterapi.Media], 0, len(tweetFiles))
	for _, f := range tweetFiles {
		fut, err := a.Runner.SubmitMediaUpload(ctx, creds, task.MediaUploadOptions{Filename: f})
		if err != nil {
			return fmt.Errorf("upload %s: %w", f, err)
		}
		uploads = append(uploads, fut)
	}

	mediaIDs := append([]int64(nil), tweetMedia...)
	for i, fut := range uploads {
		media, err := fut.Wait(ctx)
		if err != nil {
			return fmt.Errorf("upload %s: %w", tweetFiles[i], err)
		}
		if p := media.ProcessingInfo; p != nil && p.State == twitterapi.StateFailed {
			return fmt.Errorf("upload %s: processing failed", tweetFiles[i])
		}
		slog.Info("uploaded", "file", tweetFiles[i], "media_id", media.MediaID)
		mediaIDs = append(mediaIDs, media.MediaID)
	}

	status, err := a.Runner.UpdateStatus(ctx, creds, task.StatusOptions{
		Text:                      tweetText,
		MediaIDs:                  mediaIDs,
		InReplyToStatusID:         tweetReplyTo,
		AutoPopulateReplyMetadata: tweetAutoReply,
		PossiblySensitive:         tweetSensitive,
	})
	if err != nil {
		return err
	}

	slog.Info("posted", "status_id", status.IDStr)
	printStatus(status)
	return nil
}
