package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdulachik/tweettask/internal/config"
	"github.com/abdulachik/tweettask/internal/twitterapi"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the configured credentials",
	Long: `Resolve the configured credentials and, for a user context, ask the
API which account they act as.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForTasks(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	creds, err := cfg.Credentials()
	if err != nil {
		return fmt.Errorf("resolve credentials: %w", err)
	}
	fmt.Printf("Credentials: %s\n", creds.Kind())

	apiCfg := cfg.TwitterAPI()
	apiCfg.HTTPClient = creds.HTTPClient(ctx)
	client, err := twitterapi.New(apiCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	user, err := client.VerifyCredentials(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Account: @%s (%s, id %s)\n", user.ScreenName, user.Name, user.IDStr)
	return nil
}
