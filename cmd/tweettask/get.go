package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abdulachik/tweettask/internal/twitterapi"
)

var getCmd = &cobra.Command{
	Use:   "get <status-id>",
	Short: "Fetch a status by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid status id %q: %w", args[0], err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, creds, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.Runner.GetStatus(ctx, creds, id)
	if err != nil {
		return err
	}

	printStatus(status)
	return nil
}

func printStatus(s *twitterapi.Status) {
	fmt.Printf("Status ID: %s\n", s.IDStr)
	if s.ScreenName != "" {
		fmt.Printf("Author: @%s\n", s.ScreenName)
	}
	if s.CreatedAt != "" {
		fmt.Printf("Created: %s\n", s.CreatedAt)
	}
	if s.InReplyToStatusID != 0 {
		fmt.Printf("In reply to: %d\n", s.InReplyToStatusID)
	}
	if len(s.MediaIDs) > 0 {
		fmt.Printf("Media: %v\n", s.MediaIDs)
	}
	fmt.Println()
	fmt.Println(s.Text)
}
