// Command wesectl is the operator CLI: migrations, scraper accounts, admin tokens and stored profiles.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"wesee/internal/app"
	"wesee/internal/config"
	"wesee/internal/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "wesectl",
	Short:         "Operate the wesee profile and CV backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		loaded = cfg
		logger.Init(cfg.Logger)
		return nil
	},
}

var (
	loaded  config.Config
	timeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Deadline for the whole command")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withContainer runs fn against a freshly built container and closes it afterwards.
func withContainer(fn func(ctx context.Context, c *app.Container) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c, err := app.NewContainer(loaded)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	return fn(ctx, c)
}
